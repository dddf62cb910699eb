package serializer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"reelsmith/internal/logging"
)

// Item is a single deferred upstream action. It runs exactly once and is
// discarded afterwards; the serializer never retries it. The error return
// exists for logging only, it is not surfaced to the enqueuer.
type Item func(ctx context.Context) error

type entry struct {
	label string
	run   Item
}

// Serializer executes enqueued items one at a time in FIFO order with a
// fixed cooldown between the completion of one item and the start of the
// next. Construct with New; the zero value is not usable.
type Serializer struct {
	cooldown time.Duration
	logger   *slog.Logger

	// afterFunc schedules the cooldown expiry. Injectable for tests.
	afterFunc func(time.Duration, func()) *time.Timer

	mu     sync.Mutex
	queue  []entry
	busy   bool
	closed bool
	timer  *time.Timer

	inflight sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// Option customizes a Serializer.
type Option func(*Serializer)

// WithLogger attaches a logger for queue progress events.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Serializer) {
		if logger != nil {
			s.logger = logging.WithComponent(logger, "serializer")
		}
	}
}

// WithAfterFunc overrides cooldown timer scheduling (useful for tests).
func WithAfterFunc(fn func(time.Duration, func()) *time.Timer) Option {
	return func(s *Serializer) {
		if fn != nil {
			s.afterFunc = fn
		}
	}
}

// New constructs a serializer with the given cooldown. A non-positive
// cooldown is clamped to zero, which still guarantees FIFO order and
// mutual exclusion but no spacing.
func New(cooldown time.Duration, opts ...Option) *Serializer {
	if cooldown < 0 {
		cooldown = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Serializer{
		cooldown:  cooldown,
		logger:    logging.NewNop(),
		afterFunc: time.AfterFunc,
		ctx:       ctx,
		cancel:    cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Enqueue appends an item to the tail of the queue and triggers
// processing if idle. It is synchronous, non-blocking, and always
// succeeds; after Close it drops the item. The label is used only for
// log output.
func (s *Serializer) Enqueue(label string, item Item) {
	if item == nil {
		return
	}
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("item dropped, serializer closed", logging.String("label", label))
		return
	}
	s.queue = append(s.queue, entry{label: label, run: item})
	depth := len(s.queue)
	s.mu.Unlock()

	s.logger.Debug("item enqueued", logging.String("label", label), logging.Int("depth", depth))
	s.kick()
}

// kick starts the next item when idle. Safe to call redundantly: while
// busy, closed, or with an empty queue it is a no-op, so it never
// double-schedules timers or skips items.
func (s *Serializer) kick() {
	s.mu.Lock()
	if s.busy || s.closed || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	next := s.queue[0]
	s.queue = s.queue[1:]
	s.busy = true
	s.inflight.Add(1)
	s.mu.Unlock()

	go s.run(next)
}

func (s *Serializer) run(e entry) {
	defer s.inflight.Done()

	started := time.Now()
	err := s.execute(e)
	elapsed := time.Since(started)
	if err != nil {
		// The item owns its own error reporting; this is progress logging only.
		s.logger.Debug("item failed",
			logging.String("label", e.label),
			logging.Duration("elapsed", elapsed),
			logging.Error(err))
	} else {
		s.logger.Debug("item completed",
			logging.String("label", e.label),
			logging.Duration("elapsed", elapsed))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.busy = false
		return
	}
	// Cooldown starts only after the item settles, success or failure.
	s.timer = s.afterFunc(s.cooldown, s.release)
}

// execute runs the item, converting panics into errors so one bad item
// can never stall the queue.
func (s *Serializer) execute(e entry) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("work item panic: %v", r)
		}
	}()
	return e.run(s.ctx)
}

func (s *Serializer) release() {
	s.mu.Lock()
	s.busy = false
	s.timer = nil
	s.mu.Unlock()
	s.kick()
}

// Len reports the number of items waiting (not counting one in flight).
func (s *Serializer) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Busy reports whether an item is executing or cooling down.
func (s *Serializer) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.busy
}

// Cooldown returns the configured cooldown duration.
func (s *Serializer) Cooldown() time.Duration {
	return s.cooldown
}

// Close stops the serializer: the in-flight item (if any) is allowed to
// settle, pending items are dropped, and the cooldown timer is stopped.
// It returns the number of items dropped without executing.
func (s *Serializer) Close() int {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return 0
	}
	s.closed = true
	drained := len(s.queue)
	s.queue = nil
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.inflight.Wait()
	if drained > 0 {
		s.logger.Debug("serializer closed with pending items", logging.Int("dropped", drained))
	}
	return drained
}
