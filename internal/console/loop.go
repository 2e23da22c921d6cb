package console

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/complications/internal/complication"
)

// ListSource is the external owner of the complication list.
// complication.Board implements it.
type ListSource interface {
	Snapshot() complication.List
	Version() uint64
}

// DefaultTick is how often the loop advances the logical clock from wall
// time when no input arrives.
const DefaultTick = 16 * time.Millisecond

// Loop runs a Console on a single goroutine.
//
// All mutation happens inside Run: queued commands, the periodic clock
// advance and list reconciliation. Other goroutines talk to the loop through
// Enqueue and Do, and read immutable View snapshots through Snapshot and
// Subscribe.
type Loop struct {
	console *Console
	source  ListSource
	queue   *commandQueue
	tick    time.Duration
	now     func() time.Time
	log     *slog.Logger

	seenVersion uint64
	reconciled  bool

	mu   sync.RWMutex
	view View

	subMu  sync.Mutex
	nextID int
	subs   map[int]chan View
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithTick sets the wall-clock tick.
func WithTick(d time.Duration) LoopOption {
	return func(l *Loop) {
		if d > 0 {
			l.tick = d
		}
	}
}

// WithNow replaces the wall clock, for tests.
func WithNow(now func() time.Time) LoopOption {
	return func(l *Loop) { l.now = now }
}

// WithLogger sets the loop logger.
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) { l.log = logger }
}

// NewLoop wraps c. The loop reads the complication list from source.
func NewLoop(c *Console, source ListSource, opts ...LoopOption) *Loop {
	l := &Loop{
		console: c,
		source:  source,
		queue:   newCommandQueue(),
		tick:    DefaultTick,
		now:     time.Now,
		log:     slog.Default(),
		subs:    make(map[int]chan View),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.view = c.View()
	return l
}

// Enqueue queues a player input. It returns false after the loop stopped.
func (l *Loop) Enqueue(in Input) bool {
	return l.queue.Enqueue(command{input: &in})
}

// Do queues fn to run on the loop goroutine with exclusive access to the
// Console. It returns false after the loop stopped.
func (l *Loop) Do(fn func(*Console)) bool {
	return l.queue.Enqueue(command{fn: fn})
}

// Snapshot returns the most recently published view.
func (l *Loop) Snapshot() View {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.view
}

// Subscribe returns a channel that receives the latest view after every
// change, and a function that ends the subscription. Slow readers only
// ever see the newest view.
func (l *Loop) Subscribe() (<-chan View, func()) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	l.nextID++
	id := l.nextID
	ch := make(chan View, 1)
	l.subs[id] = ch
	ch <- l.Snapshot()

	return ch, func() {
		l.subMu.Lock()
		defer l.subMu.Unlock()
		if _, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(ch)
		}
	}
}

// Stop closes the queue; Run returns once it has drained.
func (l *Loop) Stop() {
	l.queue.Close()
}

// Run owns the Console until ctx is cancelled or Stop is called. On return
// every engine has been torn down.
func (l *Loop) Run(ctx context.Context) error {
	l.log.Info("console loop starting", "tick", l.tick)
	ticker := time.NewTicker(l.tick)
	defer ticker.Stop()
	defer l.console.Teardown()

	last := l.now()
	l.reconcile()
	l.publish()

	for {
		if cmd, ok := l.queue.TryDequeue(); ok {
			// Input applies to the list as it is now, not as of the last tick.
			l.reconcile()
			l.process(cmd)
			l.reconcile()
			l.publish()
			continue
		}

		select {
		case <-ctx.Done():
			l.log.Info("console loop stopping: context cancelled")
			l.queue.Close()
			return ctx.Err()

		case <-ticker.C:
			now := l.now()
			if elapsed := now.Sub(last); elapsed > 0 {
				l.console.Advance(elapsed)
			}
			last = now
			l.reconcile()
			l.publish()

		case <-l.queue.Wait():
			if l.queue.Closed() && l.queue.Len() == 0 {
				select {
				case <-ctx.Done():
				default:
					l.log.Info("console loop stopping: queue closed")
					return nil
				}
			}
		}
	}
}

// process runs one command. A panicking closure is logged and the loop
// continues.
func (l *Loop) process(cmd command) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Error("console command panicked", "panic", r)
		}
	}()

	switch {
	case cmd.input != nil:
		if err := l.console.Handle(*cmd.input); err != nil {
			l.log.Debug("input dropped", "error", err)
		}
	case cmd.fn != nil:
		cmd.fn(l.console)
	}
}

// reconcile pulls the list when it changed since the last pull. Resolves
// triggered by input usually change it synchronously.
func (l *Loop) reconcile() {
	v := l.source.Version()
	if l.reconciled && v == l.seenVersion {
		return
	}
	l.seenVersion = v
	l.reconciled = true
	l.console.Update(l.source.Snapshot())
}

func (l *Loop) publish() {
	v := l.console.View()

	l.mu.Lock()
	l.view = v
	l.mu.Unlock()

	l.subMu.Lock()
	defer l.subMu.Unlock()
	for _, ch := range l.subs {
		// Drop a stale unread view so the newest one always fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- v:
		default:
		}
	}
}
