package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/godfrey-tankan/document-insight-view/internal/models"
	"github.com/segmentio/kafka-go"
)

// Publisher announces finished analyses to downstream consumers.
type Publisher interface {
	PublishAnalysisCompleted(ctx context.Context, event models.AnalysisCompletedEvent) error
	Close() error
}

const eventType = "analysis.completed"

type kafkaPublisher struct {
	writer *kafka.Writer
}

func NewKafkaPublisher(brokers []string, topic string) Publisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			MaxAttempts:  3,
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

func (p *kafkaPublisher) PublishAnalysisCompleted(ctx context.Context, event models.AnalysisCompletedEvent) error {
	msg, err := messageFor(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish: %w", err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

// messageFor keys events by fingerprint so re-analyses of one document land
// on one partition in order.
func messageFor(event models.AnalysisCompletedEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(event.Fingerprint),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "document_id", Value: []byte(event.DocumentID)},
		},
		Time: time.Unix(event.Timestamp, 0).UTC(),
	}, nil
}

type nopPublisher struct{}

// NewNopPublisher is used when no Kafka brokers are configured.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) PublishAnalysisCompleted(context.Context, models.AnalysisCompletedEvent) error {
	return nil
}

func (nopPublisher) Close() error { return nil }
