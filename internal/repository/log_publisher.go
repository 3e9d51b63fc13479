package repository

import (
	"context"

	xlogger "FolioPull/pkg/logger"
)

// LogPublisher ships aggregated log batches through the Kafka producer.
type LogPublisher struct {
	producer Publisher
}

var _ xlogger.Publisher = (*LogPublisher)(nil)

func NewLogPublisher(producer Publisher) *LogPublisher {
	return &LogPublisher{producer: producer}
}

func (p *LogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, []byte("log-aggregate"), payload)
}
