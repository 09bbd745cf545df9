package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"shareit/internal/events"
	"shareit/internal/metrics"
	"shareit/internal/notification"

	"github.com/rs/zerolog"
)

// ErrQueueFull is returned by Handle when the delivery queue has no room.
var ErrQueueFull = errors.New("notification queue full")

type delivery struct {
	sink      notification.Sink
	eventType string
	booking   events.BookingEventPayload
}

// NotifyWorker delivers booking events to every sink asynchronously, retrying
// each failed delivery with exponential backoff.
type NotifyWorker struct {
	sinks       []notification.Sink
	queue       chan delivery
	retryPolicy RetryPolicy
	logger      *zerolog.Logger
	wg          sync.WaitGroup
}

// NewNotifyWorker builds a worker with sane defaults.
func NewNotifyWorker(sinks []notification.Sink, queueSize int, retry RetryPolicy, logger *zerolog.Logger) *NotifyWorker {
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &NotifyWorker{
		sinks:       sinks,
		queue:       make(chan delivery, queueSize),
		retryPolicy: retry.withDefaults(),
		logger:      logger,
	}
}

// Handle is an events.EventHandler: it queues one delivery per sink and
// never blocks the publisher. Sinks that find the queue full are skipped and
// counted as dropped; the others still get the event.
func (w *NotifyWorker) Handle(event *events.Event) error {
	var payload events.BookingEventPayload
	if err := event.Decode(&payload); err != nil {
		return fmt.Errorf("decode %s payload: %w", event.Type, err)
	}

	var dropped []string
	for _, sink := range w.sinks {
		select {
		case w.queue <- delivery{sink: sink, eventType: event.Type, booking: payload}:
		default:
			metrics.IncNotification(sink.Name(), "dropped")
			dropped = append(dropped, sink.Name())
		}
	}
	if len(dropped) > 0 {
		return fmt.Errorf("%w: %s for booking %d not queued for %s",
			ErrQueueFull, event.Type, payload.BookingID, strings.Join(dropped, ", "))
	}
	return nil
}

// Start runs the given number of consumers until ctx is done. Wait blocks
// until they exit.
func (w *NotifyWorker) Start(ctx context.Context, workers int) {
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case d := <-w.queue:
					w.deliver(ctx, d)
				}
			}
		}()
	}
}

func (w *NotifyWorker) Wait() {
	w.wg.Wait()
}

func (w *NotifyWorker) deliver(ctx context.Context, d delivery) {
	sinkName := d.sink.Name()
	for attempt := 1; ; attempt++ {
		err := d.sink.Deliver(ctx, d.eventType, d.booking)
		if err == nil {
			metrics.IncNotification(sinkName, "ok")
			return
		}
		if w.retryPolicy.Exhausted(attempt) || ctx.Err() != nil {
			metrics.IncNotification(sinkName, "dropped")
			w.logger.Error().
				Err(err).
				Str("sink", sinkName).
				Str("event_type", d.eventType).
				Int64("booking_id", d.booking.BookingID).
				Int("attempts", attempt).
				Msg("notification dropped")
			return
		}

		metrics.IncNotification(sinkName, "retry")
		delay := w.retryPolicy.NextDelay(attempt)
		w.logger.Warn().
			Err(err).
			Str("sink", sinkName).
			Int64("booking_id", d.booking.BookingID).
			Dur("retry_in", delay).
			Msg("notification failed; retrying")

		if err := w.retryPolicy.Sleep(ctx, attempt); err != nil {
			metrics.IncNotification(sinkName, "dropped")
			return
		}
	}
}
