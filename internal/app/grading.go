package app

import "lms-grading-service/internal/domain"

// gradedSheet is the outcome of scoring one submission, before it is persisted.
type gradedSheet struct {
	answers      []domain.AttemptAnswer
	totalPoints  float64
	earnedPoints float64
	score        float64
}

// grade scores submitted answers against the assessment's answer key.
//
// Entries for questions outside the assessment are dropped. Every recognized entry adds the
// question's points to the total; only auto-gradable questions can earn points. Short answers
// are recorded ungraded (nil correctness) for later manual review.
func grade(assessment domain.Assessment, submitted []domain.SubmittedAnswer) gradedSheet {
	questions := make(map[int64]domain.Question, len(assessment.Questions))
	options := make(map[int64]domain.Answer)
	for _, q := range assessment.Questions {
		questions[q.ID] = q
		for _, opt := range q.Answers {
			options[opt.ID] = opt
		}
	}

	sheet := gradedSheet{answers: make([]domain.AttemptAnswer, 0, len(submitted))}
	for _, entry := range submitted {
		question, ok := questions[entry.QuestionID]
		if !ok {
			continue
		}
		sheet.totalPoints += question.Points

		record := domain.AttemptAnswer{
			QuestionID: question.ID,
			AnswerID:   entry.AnswerID,
			TextAnswer: entry.TextAnswer,
		}

		switch question.Type {
		case domain.MultipleChoice, domain.TrueFalse:
			if entry.AnswerID == nil {
				break
			}
			selected, found := options[*entry.AnswerID]
			correct := found && selected.QuestionID == question.ID && selected.Correct
			record.IsCorrect = &correct
			if correct {
				points := question.Points
				record.PointsEarned = &points
				sheet.earnedPoints += points
			}
		case domain.ShortAnswer:
			// graded manually
		}

		sheet.answers = append(sheet.answers, record)
	}

	if sheet.totalPoints > 0 {
		sheet.score = sheet.earnedPoints / sheet.totalPoints * 100
	}
	return sheet
}
