package app

import (
	"context"
	"sync"

	"lms-grading-service/internal/domain"
)

const subscriberBuffer = 8

// LocalFeed is an in-process ResultFeed keyed by course.
type LocalFeed struct {
	mu     sync.Mutex
	topics map[int64]map[chan domain.AttemptGraded]struct{}
}

func NewLocalFeed() *LocalFeed {
	return &LocalFeed{topics: make(map[int64]map[chan domain.AttemptGraded]struct{})}
}

func (f *LocalFeed) Publish(_ context.Context, event domain.AttemptGraded) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.topics[event.CourseID] {
		Offer(ch, event)
	}
	return nil
}

func (f *LocalFeed) Subscribe(_ context.Context, courseID int64) (<-chan domain.AttemptGraded, func(), error) {
	ch := make(chan domain.AttemptGraded, subscriberBuffer)

	f.mu.Lock()
	subs, ok := f.topics[courseID]
	if !ok {
		subs = make(map[chan domain.AttemptGraded]struct{})
		f.topics[courseID] = subs
	}
	subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		subs, ok := f.topics[courseID]
		if !ok {
			return
		}
		if _, ok := subs[ch]; ok {
			delete(subs, ch)
			close(ch)
		}
		if len(subs) == 0 {
			delete(f.topics, courseID)
		}
	}
	return ch, cancel, nil
}

// Subscribers reports how many live subscribers a course has.
func (f *LocalFeed) Subscribers(courseID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.topics[courseID])
}

// Offer delivers event without blocking; when ch is full the oldest pending event is dropped.
// The caller must be the only sender on ch.
func Offer(ch chan domain.AttemptGraded, event domain.AttemptGraded) {
	select {
	case ch <- event:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- event
	}
}
