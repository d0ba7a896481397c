package bot

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/abhisek/cardbot/internal/chat"
	"github.com/abhisek/cardbot/internal/logging"
	"github.com/abhisek/cardbot/internal/metrics"
)

// DefaultWorkers caps how many users are served at once when no limit
// is configured.
const DefaultWorkers = 64

// Handler processes decoded inbound events. *Bot implements it.
type Handler interface {
	HandleMessage(ctx context.Context, msg chat.Message)
	HandleCallback(ctx context.Context, cb chat.Callback)
}

var _ Handler = (*Bot)(nil)

// Dispatcher runs events concurrently. Each user with pending events gets
// its own goroutine that drains that user's queue in arrival order, so a
// slow event only delays later events of the same user.
type Dispatcher struct {
	handler Handler
	workers int
	log     *logging.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	pending map[int64][]chat.Event // present while a drain goroutine runs
}

// DispatcherOptions configures a Dispatcher. Zero values pick defaults.
type DispatcherOptions struct {
	Workers int // users handled at once
	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// NewDispatcher creates a Dispatcher delivering to h.
func NewDispatcher(h Handler, opts DispatcherOptions) *Dispatcher {
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	d := &Dispatcher{
		handler: h,
		workers: opts.Workers,
		log:     log.Named("dispatcher"),
		metrics: opts.Metrics,
		pending: make(map[int64][]chat.Event),
	}
	if d.workers < 1 {
		d.workers = DefaultWorkers
	}
	return d
}

// Run consumes events until the channel is closed or ctx is done, then
// waits for running handlers. It returns ctx.Err() when cancelled.
func (d *Dispatcher) Run(ctx context.Context, events <-chan chat.Event) error {
	g := new(errgroup.Group)
	g.SetLimit(d.workers)

	err := d.feed(ctx, events, g)
	g.Wait()
	return err
}

func (d *Dispatcher) feed(ctx context.Context, events <-chan chat.Event, g *errgroup.Group) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			user := ev.UserID()
			if d.enqueue(user, ev) {
				g.Go(func() error {
					d.drain(ctx, user)
					return nil
				})
			}
		}
	}
}

// enqueue appends ev to the user's queue. It reports whether the user
// had no drain goroutine yet.
func (d *Dispatcher) enqueue(user int64, ev chat.Event) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	q, active := d.pending[user]
	d.pending[user] = append(q, ev)
	return !active
}

// drain handles the user's events until the queue is empty. Events still
// queued when ctx is done are dropped.
func (d *Dispatcher) drain(ctx context.Context, user int64) {
	for {
		d.mu.Lock()
		q := d.pending[user]
		if len(q) == 0 || ctx.Err() != nil {
			delete(d.pending, user)
			d.mu.Unlock()
			return
		}
		ev := q[0]
		d.pending[user] = q[1:]
		d.mu.Unlock()

		d.handle(ctx, ev)
	}
}

// handle runs one event under its own request id. A panic is logged and
// counted; the user's queue carries on with the next event.
func (d *Dispatcher) handle(ctx context.Context, ev chat.Event) {
	ctx = logging.WithRequestID(ctx, uuid.NewString())
	defer func() {
		if r := recover(); r != nil {
			d.metrics.RecordPanic()
			d.log.Error(ctx, "event handler panicked",
				zap.Int64("user.platform_id", ev.UserID()),
				zap.String("panic", fmt.Sprint(r)),
				zap.Stack("stack"),
			)
		}
	}()

	switch {
	case ev.Message != nil:
		d.handler.HandleMessage(ctx, *ev.Message)
	case ev.Callback != nil:
		d.handler.HandleCallback(ctx, *ev.Callback)
	default:
		d.log.Warn(ctx, "empty event dropped")
	}
}
