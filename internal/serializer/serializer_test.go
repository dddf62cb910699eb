package serializer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// manualTimer collects scheduled cooldown callbacks so tests can fire
// them deterministically.
type manualTimer struct {
	mu        sync.Mutex
	callbacks []func()
	delays    []time.Duration
	total     int
}

func (m *manualTimer) afterFunc(d time.Duration, fn func()) *time.Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, fn)
	m.delays = append(m.delays, d)
	m.total++
	// Park a real timer far in the future so Stop has something to act on.
	return time.NewTimer(time.Hour)
}

func (m *manualTimer) fire(t *testing.T) {
	t.Helper()
	m.mu.Lock()
	if len(m.callbacks) == 0 {
		m.mu.Unlock()
		t.Fatal("no cooldown timer scheduled")
	}
	fn := m.callbacks[0]
	m.callbacks = m.callbacks[1:]
	m.mu.Unlock()
	fn()
}

func (m *manualTimer) pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.callbacks)
}

func (m *manualTimer) scheduled() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

func (m *manualTimer) delay(i int) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.delays) {
		return -1
	}
	return m.delays[i]
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestFIFOOrder(t *testing.T) {
	timers := &manualTimer{}
	s := New(time.Minute, WithAfterFunc(timers.afterFunc))
	defer s.Close()

	var mu sync.Mutex
	var order []string
	record := func(name string) Item {
		return func(context.Context) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	s.Enqueue("a", record("a"))
	s.Enqueue("b", record("b"))
	s.Enqueue("c", record("c"))

	waitFor(t, time.Second, func() bool { return timers.scheduled() == 1 })
	timers.fire(t)
	waitFor(t, time.Second, func() bool { return timers.scheduled() == 2 })
	timers.fire(t)
	waitFor(t, time.Second, func() bool { return timers.scheduled() == 3 })

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Fatalf("expected a,b,c execution order, got %v", order)
	}
}

func TestMutualExclusionAndMinimumSpacing(t *testing.T) {
	const cooldown = 50 * time.Second
	timers := &manualTimer{}
	s := New(cooldown, WithAfterFunc(timers.afterFunc))
	defer s.Close()

	var mu sync.Mutex
	var active, maxActive, runs int
	release := make(chan struct{})
	item := func(context.Context) error {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		runs++
		mu.Unlock()
		<-release
		mu.Lock()
		active--
		mu.Unlock()
		return nil
	}

	for i := 0; i < 3; i++ {
		s.Enqueue("guarded", item)
	}

	// The first item is in flight; no cooldown exists until it settles
	// and nothing else may start.
	waitFor(t, time.Second, func() bool { mu.Lock(); defer mu.Unlock(); return runs == 1 })
	if timers.scheduled() != 0 {
		t.Fatalf("cooldown scheduled before the item settled (%d timers)", timers.scheduled())
	}

	for i := 1; i <= 3; i++ {
		release <- struct{}{}
		waitFor(t, time.Second, func() bool { return timers.scheduled() == i })
		if d := timers.delay(i - 1); d != cooldown {
			t.Fatalf("cooldown %d scheduled for %s, want %s", i, d, cooldown)
		}
		if i == 3 {
			break
		}
		// While cooling down the next item must wait for the timer.
		mu.Lock()
		started := runs
		mu.Unlock()
		if started != i {
			t.Fatalf("item %d started during cooldown %d", started, i)
		}
		timers.fire(t)
		waitFor(t, time.Second, func() bool { mu.Lock(); defer mu.Unlock(); return runs == i+1 })
	}

	mu.Lock()
	defer mu.Unlock()
	if runs != 3 {
		t.Fatalf("expected 3 executions, got %d", runs)
	}
	if maxActive != 1 {
		t.Fatalf("items overlapped: %d in flight at once", maxActive)
	}
}

func TestLivenessUnderFailure(t *testing.T) {
	timers := &manualTimer{}
	s := New(time.Minute, WithAfterFunc(timers.afterFunc))
	defer s.Close()

	executed := make(chan string, 2)
	s.Enqueue("failing", func(context.Context) error {
		executed <- "failing"
		return errors.New("quota exceeded")
	})
	s.Enqueue("next", func(context.Context) error {
		executed <- "next"
		return nil
	})

	if got := <-executed; got != "failing" {
		t.Fatalf("expected failing item first, got %q", got)
	}
	// A failure still consumes exactly one cooldown slot.
	waitFor(t, time.Second, func() bool { return timers.scheduled() == 1 })
	timers.fire(t)
	if got := <-executed; got != "next" {
		t.Fatalf("expected next item after cooldown, got %q", got)
	}
}

func TestPanicDoesNotStallQueue(t *testing.T) {
	timers := &manualTimer{}
	s := New(time.Minute, WithAfterFunc(timers.afterFunc))
	defer s.Close()

	executed := make(chan string, 1)
	s.Enqueue("panicking", func(context.Context) error {
		panic("boom")
	})
	s.Enqueue("survivor", func(context.Context) error {
		executed <- "survivor"
		return nil
	})

	waitFor(t, time.Second, func() bool { return timers.scheduled() == 1 })
	timers.fire(t)
	select {
	case got := <-executed:
		if got != "survivor" {
			t.Fatalf("unexpected item %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("queue stalled after panic")
	}
}

func TestKickIsIdempotent(t *testing.T) {
	timers := &manualTimer{}
	s := New(time.Minute, WithAfterFunc(timers.afterFunc))
	defer s.Close()

	// Empty queue: redundant triggers are no-ops.
	for i := 0; i < 5; i++ {
		s.kick()
	}
	if timers.scheduled() != 0 {
		t.Fatalf("expected no timers, got %d", timers.scheduled())
	}

	block := make(chan struct{})
	ran := make(chan struct{}, 2)
	s.Enqueue("first", func(context.Context) error {
		ran <- struct{}{}
		<-block
		return nil
	})
	<-ran
	s.Enqueue("second", func(context.Context) error {
		ran <- struct{}{}
		return nil
	})

	// Busy: redundant triggers must not start the second item.
	for i := 0; i < 5; i++ {
		s.kick()
	}
	select {
	case <-ran:
		t.Fatal("second item started while first was in flight")
	case <-time.After(20 * time.Millisecond):
	}

	close(block)
	waitFor(t, time.Second, func() bool { return timers.scheduled() == 1 })
	timers.fire(t)
	select {
	case <-ran:
	case <-time.After(time.Second):
		t.Fatal("second item never ran")
	}
	// Exactly one timer per completed item, despite redundant triggers.
	waitFor(t, time.Second, func() bool { return timers.scheduled() == 2 })
	if timers.scheduled() != 2 {
		t.Fatalf("expected 2 scheduled timers, got %d", timers.scheduled())
	}
}

func TestCooldownScenarioTiming(t *testing.T) {
	const cooldown = 65 * time.Second
	timers := &manualTimer{}
	s := New(cooldown, WithAfterFunc(timers.afterFunc))
	defer s.Close()

	ran := make(chan string, 3)
	item := func(name string) Item {
		return func(context.Context) error {
			ran <- name
			return nil
		}
	}

	// An idle serializer starts the first item immediately.
	s.Enqueue("first", item("first"))
	if got := <-ran; got != "first" {
		t.Fatalf("expected first item, got %q", got)
	}
	waitFor(t, time.Second, func() bool { return timers.scheduled() == 1 })
	if d := timers.delay(0); d != cooldown {
		t.Fatalf("cooldown scheduled for %s, want %s", d, cooldown)
	}

	// Enqueued during the cooldown: held until the timer fires.
	s.Enqueue("second", item("second"))
	select {
	case got := <-ran:
		t.Fatalf("item %q started during cooldown", got)
	default:
	}
	timers.fire(t)
	if got := <-ran; got != "second" {
		t.Fatalf("expected second item after cooldown, got %q", got)
	}
	waitFor(t, time.Second, func() bool { return timers.scheduled() == 2 })

	// Cooldown already expired with an empty queue: the next item
	// starts immediately rather than waiting a fresh interval.
	timers.fire(t)
	s.Enqueue("third", item("third"))
	if got := <-ran; got != "third" {
		t.Fatalf("expected third item to start immediately, got %q", got)
	}
	waitFor(t, time.Second, func() bool { return timers.scheduled() == 3 })
}

func TestCloseDropsPendingItems(t *testing.T) {
	s := New(10 * time.Millisecond)

	started := make(chan struct{})
	s.Enqueue("inflight", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	<-started
	s.Enqueue("pending-1", func(context.Context) error { return nil })
	s.Enqueue("pending-2", func(context.Context) error { return nil })

	dropped := s.Close()
	if dropped != 2 {
		t.Fatalf("expected 2 dropped items, got %d", dropped)
	}
	if s.Busy() {
		t.Fatal("serializer should not report busy after close")
	}
}

func TestEnqueueAfterCloseIsNoop(t *testing.T) {
	s := New(time.Millisecond)
	s.Close()

	ran := make(chan struct{}, 1)
	s.Enqueue("late", func(context.Context) error {
		ran <- struct{}{}
		return nil
	})
	select {
	case <-ran:
		t.Fatal("item ran after close")
	case <-time.After(50 * time.Millisecond):
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", s.Len())
	}
}
