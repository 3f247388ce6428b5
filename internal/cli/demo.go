package cli

import (
	"lms-grading-service/internal/domain"
	"lms-grading-service/internal/infra/memory"
)

// demoContent seeds the in-memory catalog when no database is configured.
// User 1 is the instructor who owns the course; user 2 is an enrolled student.
func demoContent() memory.Content {
	explanation := "2 + 2 = 4"
	return memory.Content{
		Courses: []domain.Course{{ID: 1, Title: "Introduction to Go", CreatorID: 1, Published: true}},
		Modules: []domain.Module{
			{ID: 1, CourseID: 1, Title: "Getting started", OrderIndex: 1, Lessons: []domain.Lesson{
				{ID: 1, Title: "Installing Go", Order: 1},
				{ID: 2, Title: "Hello, world", Order: 2},
			}},
			{ID: 2, CourseID: 1, Title: "Concurrency", OrderIndex: 2, Lessons: []domain.Lesson{
				{ID: 3, Title: "Goroutines", Order: 1},
				{ID: 4, Title: "Channels", Order: 2},
			}},
		},
		Assessments: []domain.Assessment{{
			ID: 1, CourseID: 1, Title: "Getting started quiz", Published: true, PassingScore: 70,
			Questions: []domain.Question{
				{ID: 1, Text: "What is 2 + 2?", Type: domain.MultipleChoice, Points: 1, Answers: []domain.Answer{
					{ID: 1, Text: "3"},
					{ID: 2, Text: "4", Correct: true, Explanation: &explanation},
					{ID: 3, Text: "5"},
				}},
				{ID: 2, Text: "Goroutines are OS threads.", Type: domain.TrueFalse, Points: 1, Answers: []domain.Answer{
					{ID: 4, Text: "true"},
					{ID: 5, Text: "false", Correct: true},
				}},
				{ID: 3, Text: "Describe what a channel is for.", Type: domain.ShortAnswer, Points: 2},
			},
		}},
		Enrollments: []domain.Enrollment{{ID: 1, UserID: 2, CourseID: 1}},
	}
}
