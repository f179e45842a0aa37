// Package host delivers notifications from any number of sources to the
// sync engine one at a time, in arrival order.
package host

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gluesync/internal/domain"
	"gluesync/internal/event"
)

// ErrStopped is returned by Submit once the worker has exited.
var ErrStopped = errors.New("host stopped")

// Dispatcher applies a single notification. gluesync.Listener implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, n domain.Notification) error
}

type job struct {
	ctx   context.Context
	event event.Event
	reply chan error
}

// Host owns the single worker goroutine that calls the Dispatcher. Submit is
// safe for concurrent use; Dispatch is never called concurrently.
type Host struct {
	dispatcher Dispatcher
	logger     *slog.Logger
	jobs       chan job
	done       chan struct{}
}

// New creates a Host with a submission queue of queueSize pending jobs.
func New(dispatcher Dispatcher, logger *slog.Logger, queueSize int) *Host {
	if queueSize < 0 {
		queueSize = 0
	}
	return &Host{
		dispatcher: dispatcher,
		logger:     logger,
		jobs:       make(chan job, queueSize),
		done:       make(chan struct{}),
	}
}

// Run processes submitted notifications until ctx is canceled. It must be
// called exactly once. Jobs still queued at shutdown fail with ErrStopped.
func (h *Host) Run(ctx context.Context) error {
	defer close(h.done)
	h.logger.Info("notification host started")
	for {
		select {
		case <-ctx.Done():
			h.drain()
			h.logger.Info("notification host stopped")
			return nil
		case j := <-h.jobs:
			j.reply <- h.apply(j)
		}
	}
}

func (h *Host) apply(j job) error {
	if err := j.ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	err := h.dispatcher.Dispatch(j.ctx, j.event.Notification)
	h.logger.Debug("notification applied",
		"event_id", j.event.ID,
		"event_type", string(j.event.Notification.Type()),
		"duration", time.Since(start),
		"ok", err == nil)
	return err
}

func (h *Host) drain() {
	for {
		select {
		case j := <-h.jobs:
			j.reply <- ErrStopped
		default:
			return
		}
	}
}

// Submit queues ev and waits for it to be applied, returning the
// dispatcher's error. It returns early if ctx is canceled before the
// worker picks the job up, or ErrStopped if the host is not running.
func (h *Host) Submit(ctx context.Context, ev event.Event) error {
	if ev.Notification == nil {
		return domain.ErrValidation("event %q has no notification", ev.ID)
	}
	j := job{ctx: ctx, event: ev, reply: make(chan error, 1)}

	select {
	case h.jobs <- j:
	case <-h.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-j.reply:
		return err
	case <-h.done:
		// The worker may have replied just before exiting.
		select {
		case err := <-j.reply:
			return err
		default:
			return ErrStopped
		}
	}
}
