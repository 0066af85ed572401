package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/station-data-qc/internal/config"
	"github.com/couchcryptid/station-data-qc/internal/domain"
)

// Publisher produces outlier events to a Kafka topic for downstream
// alerting. It implements pipeline.OutlierPublisher.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured outlier topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaOutlierTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishBatch serializes and publishes the run's outlier events in a single
// WriteMessages call for efficiency.
func (p *Publisher) PublishBatch(ctx context.Context, events []domain.OutlierEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msg, err := serializeToMessage(events[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return p.writer.WriteMessages(ctx, msgs...)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an OutlierEvent into a Kafka message keyed by
// the deterministic event ID, so replays land on the same partition.
func serializeToMessage(event domain.OutlierEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize outlier event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "obstype", Value: []byte(event.Obstype)},
			{Key: "flagged_at", Value: []byte(event.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
