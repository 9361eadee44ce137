// Package kafka publishes assessment records to the downstream topic consumed
// by reporting and claims-handling services.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/cropsight/crop-damage-verifier/internal/config"
	"github.com/cropsight/crop-damage-verifier/internal/domain"
)

// Publisher produces assessment records to a Kafka topic. It implements the
// http adapter's Sink.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured assessment topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaAssessmentTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// Record serializes and publishes one assessment record. Deterministic
// assessment IDs as message keys make replays idempotent for downstream
// consumers.
func (p *Publisher) Record(ctx context.Context, rec domain.AssessmentRecord) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// Name identifies the sink in logs and metrics.
func (p *Publisher) Name() string { return "kafka" }

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals an assessment record into a Kafka message.
func serializeToMessage(rec domain.AssessmentRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assessment record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(rec.EventType)},
			{Key: "generated_at", Value: []byte(rec.GeneratedAt.Format(time.RFC3339))},
		},
	}, nil
}
