package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"lms-grading-service/internal/app"
	"lms-grading-service/internal/domain"
)

const subscriberBuffer = 8

// ResultFeed fans graded attempts out across instances through Redis Pub/Sub.
// Each course has its own channel: course:{id}:results
type ResultFeed struct {
	client *redis.Client
	log    *zap.Logger
}

func NewResultFeed(client *redis.Client, log *zap.Logger) *ResultFeed {
	if log == nil {
		log = zap.NewNop()
	}
	return &ResultFeed{client: client, log: log.Named("result_feed")}
}

func (f *ResultFeed) Publish(ctx context.Context, event domain.AttemptGraded) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode graded attempt: %w", err)
	}
	if err := f.client.Publish(ctx, channel(event.CourseID), raw).Err(); err != nil {
		return fmt.Errorf("publish graded attempt: %w", err)
	}
	return nil
}

func (f *ResultFeed) Subscribe(ctx context.Context, courseID int64) (<-chan domain.AttemptGraded, func(), error) {
	pubsub := f.client.Subscribe(ctx, channel(courseID))
	// wait for the subscription to be confirmed so no publish after return is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe course %d: %w", courseID, err)
	}

	out := make(chan domain.AttemptGraded, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var event domain.AttemptGraded
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				f.log.Warn("decode graded attempt", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			app.Offer(out, event)
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() { _ = pubsub.Close() })
	}
	return out, cancel, nil
}

func channel(courseID int64) string {
	return "course:" + strconv.FormatInt(courseID, 10) + ":results"
}
