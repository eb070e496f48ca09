package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer used by the forwarder.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a writer for the given brokers and topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
}

// KafkaForwarder пересылает события записей из шины в Kafka.
type KafkaForwarder struct {
	writer  MessageWriter
	timeout time.Duration
	logger  *zerolog.Logger
}

func NewKafkaForwarder(writer MessageWriter, logger *zerolog.Logger) *KafkaForwarder {
	return &KafkaForwarder{writer: writer, timeout: 5 * time.Second, logger: logger}
}

// Attach subscribes the forwarder to every appointment event. Pass an AsyncQueue
// to keep broker writes off the publisher's goroutine.
func (f *KafkaForwarder) Attach(bus Subscriber) {
	for _, eventType := range AppointmentEvents {
		bus.Subscribe(eventType, f.Handle)
	}
}

func (f *KafkaForwarder) Handle(event *Event) error {
	var payload AppointmentEventPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode event %s: %w", event.Type, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(payload.AppointmentID),
		Value: event.Payload,
		Time:  event.CreatedAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		f.logger.Error().Err(err).Str("event_type", event.Type).Str("appointment_id", payload.AppointmentID).Msg("kafka publish failed")
		return fmt.Errorf("write kafka message: %w", err)
	}
	return nil
}

func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}
