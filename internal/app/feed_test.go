package app

import (
	"context"
	"testing"

	"lms-grading-service/internal/domain"
)

func TestLocalFeedRoutesByCourse(t *testing.T) {
	feed := NewLocalFeed()
	ctx := context.Background()

	events, cancel, err := feed.Subscribe(ctx, 1)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	_ = feed.Publish(ctx, domain.AttemptGraded{CourseID: 2, AttemptID: 1})
	_ = feed.Publish(ctx, domain.AttemptGraded{CourseID: 1, AttemptID: 2})

	got := <-events
	if got.AttemptID != 2 {
		t.Fatalf("expected attempt 2, got %+v", got)
	}
	select {
	case extra := <-events:
		t.Fatalf("unexpected event %+v", extra)
	default:
	}
}

func TestLocalFeedDropsOldestWhenFull(t *testing.T) {
	feed := NewLocalFeed()
	ctx := context.Background()

	events, cancel, _ := feed.Subscribe(ctx, 1)
	defer cancel()

	for i := 1; i <= subscriberBuffer+2; i++ {
		_ = feed.Publish(ctx, domain.AttemptGraded{CourseID: 1, AttemptID: int64(i)})
	}

	first := <-events
	if first.AttemptID != 3 {
		t.Fatalf("expected the two oldest events dropped, got first %d", first.AttemptID)
	}
	if len(events) != subscriberBuffer-1 {
		t.Fatalf("expected %d buffered events, got %d", subscriberBuffer-1, len(events))
	}
}

func TestLocalFeedCancel(t *testing.T) {
	feed := NewLocalFeed()
	events, cancel, _ := feed.Subscribe(context.Background(), 1)
	if feed.Subscribers(1) != 1 {
		t.Fatalf("expected one subscriber")
	}

	cancel()
	cancel()

	if _, ok := <-events; ok {
		t.Fatalf("expected closed channel")
	}
	if feed.Subscribers(1) != 0 {
		t.Fatalf("expected subscriber removed")
	}
	if err := feed.Publish(context.Background(), domain.AttemptGraded{CourseID: 1}); err != nil {
		t.Fatalf("publish without subscribers: %v", err)
	}
}
