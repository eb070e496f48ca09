package events

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaForwarder(t *testing.T) {
	logger := zerolog.Nop()
	writer := &fakeWriter{}
	fwd := NewKafkaForwarder(writer, &logger)

	bus := NewEventBus()
	fwd.Attach(bus)

	require.NoError(t, bus.PublishJSON(EventAppointmentCreated, AppointmentEventPayload{AppointmentID: "a-1"}))
	require.NoError(t, bus.PublishJSON(EventAppointmentCanceled, AppointmentEventPayload{AppointmentID: "a-1"}))
	require.NoError(t, bus.PublishJSON("unrelated", AppointmentEventPayload{AppointmentID: "a-2"}))

	require.Len(t, writer.messages, 2)
	assert.Equal(t, []byte("a-1"), writer.messages[0].Key)
	assert.Equal(t, "event_type", writer.messages[1].Headers[0].Key)
	assert.Equal(t, []byte(EventAppointmentCanceled), writer.messages[1].Headers[0].Value)

	require.NoError(t, fwd.Close())
	assert.True(t, writer.closed)
}

func TestKafkaForwarderWriteError(t *testing.T) {
	logger := zerolog.Nop()
	fwd := NewKafkaForwarder(&fakeWriter{err: errors.New("broker down")}, &logger)

	err := fwd.Handle(&Event{Type: EventAppointmentCreated, Payload: []byte(`{"appointment_id":"x"}`)})
	assert.Error(t, err)

	err = fwd.Handle(&Event{Type: EventAppointmentCreated, Payload: []byte(`not json`)})
	assert.Error(t, err)
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "appointment-events")
	assert.Equal(t, "appointment-events", w.Topic)
	assert.NoError(t, w.Close())
}
