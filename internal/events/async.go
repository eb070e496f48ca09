package events

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned when an async queue cannot take another event.
var ErrQueueFull = errors.New("event queue is full")

// Subscriber registers handlers for event types. EventBus and AsyncQueue implement it.
type Subscriber interface {
	Subscribe(eventType string, handler EventHandler)
}

type asyncJob struct {
	handler EventHandler
	event   *Event
}

// AsyncQueue subscribes handlers to a bus but runs them on its own goroutine,
// so slow network handlers never hold up the publisher.
type AsyncQueue struct {
	bus    *EventBus
	name   string
	jobs   chan asyncJob
	logger *zerolog.Logger
}

func NewAsyncQueue(bus *EventBus, name string, size int, logger *zerolog.Logger) *AsyncQueue {
	if size <= 0 {
		size = 64
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AsyncQueue{bus: bus, name: name, jobs: make(chan asyncJob, size), logger: logger}
}

// Subscribe registers handler on the bus behind the queue.
func (q *AsyncQueue) Subscribe(eventType string, handler EventHandler) {
	q.bus.Subscribe(eventType, func(event *Event) error {
		select {
		case q.jobs <- asyncJob{handler: handler, event: event}:
			return nil
		default:
			return ErrQueueFull
		}
	})
}

// Run handles queued events until ctx is done.
func (q *AsyncQueue) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			if n := len(q.jobs); n > 0 {
				q.logger.Warn().Str("queue", q.name).Int("dropped", n).Msg("event queue stopped with pending events")
			}
			return
		case job := <-q.jobs:
			if err := job.handler(job.event); err != nil {
				q.logger.Error().Err(err).Str("queue", q.name).Str("event", job.event.Type).Msg("async event handler failed")
			}
		}
	}
}
