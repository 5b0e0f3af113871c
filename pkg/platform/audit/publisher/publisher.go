package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	id "lectern/pkg/domain"
	audit "lectern/pkg/platform/audit"
	"lectern/pkg/platform/circuit"
)

// Publisher appends events to a store and forwards them to sinks. In sync
// mode Emit returns after every write; with an async buffer Emit enqueues and
// a background goroutine drains, dropping events when the buffer is full.
type Publisher struct {
	store  audit.Store
	sinks  []guardedSink
	logger *slog.Logger
	now    func() time.Time

	queue   chan queued
	wg      sync.WaitGroup
	closeMu sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

type queued struct {
	ctx   context.Context
	event audit.Event
}

// guardedSink pairs a sink with a breaker so a dead broker is skipped
// instead of being retried on every event.
type guardedSink struct {
	sink    audit.Sink
	breaker *circuit.Breaker
}

type Option func(*Publisher)

// WithAsyncBuffer enables background delivery through a buffer of size n.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.queue = make(chan queued, n)
		}
	}
}

// WithSink adds a secondary destination. Breaker options tune when the sink
// is skipped after consecutive failures.
func WithSink(s audit.Sink, breakerOpts ...circuit.Option) Option {
	return func(p *Publisher) {
		if s == nil {
			return
		}
		name := fmt.Sprintf("%T", s)
		p.sinks = append(p.sinks, guardedSink{sink: s, breaker: circuit.New(name, breakerOpts...)})
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) { p.now = now }
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.queue != nil {
		p.wg.Add(1)
		go p.drain()
	}
	return p
}

// Emit fills ID, timestamp and category when unset and delivers the event.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	if event.Category == "" {
		event.Category = audit.CategoryFor(event.Action)
	}

	if p.queue == nil {
		return p.deliver(ctx, event)
	}

	p.closeMu.RLock()
	defer p.closeMu.RUnlock()
	if p.closed {
		return p.deliver(ctx, event)
	}
	select {
	case p.queue <- queued{ctx: context.WithoutCancel(ctx), event: event}:
	default:
		p.dropped.Add(1)
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"record_id", event.RecordID.String(),
		)
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, recordID id.RecordID) ([]audit.Event, error) {
	return p.store.ListByRecord(ctx, recordID)
}

// Dropped reports how many events were discarded because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close stops accepting async events and waits for the buffer to drain.
func (p *Publisher) Close() {
	if p.queue == nil {
		return
	}
	p.closeMu.Lock()
	if p.closed {
		p.closeMu.Unlock()
		return
	}
	p.closed = true
	close(p.queue)
	p.closeMu.Unlock()
	p.wg.Wait()
}

func (p *Publisher) drain() {
	defer p.wg.Done()
	for q := range p.queue {
		if err := p.deliver(q.ctx, q.event); err != nil {
			p.logger.WarnContext(q.ctx, "audit delivery failed",
				"action", q.event.Action,
				"record_id", q.event.RecordID.String(),
				"error", err,
			)
		}
	}
}

// deliver writes to the store first. Sink failures are logged and do not fail
// the emit; a sink whose breaker is open is skipped until its cooldown ends.
func (p *Publisher) deliver(ctx context.Context, event audit.Event) error {
	if err := p.store.Append(ctx, event); err != nil {
		return err
	}
	for _, s := range p.sinks {
		if !s.breaker.Allow() {
			continue
		}
		if err := s.sink.Append(ctx, event); err != nil {
			p.logger.WarnContext(ctx, "audit sink failed",
				"sink", s.breaker.Name(),
				"action", event.Action,
				"record_id", event.RecordID.String(),
				"error", err,
			)
			if _, change := s.breaker.RecordFailure(); change.Opened {
				p.logger.ErrorContext(ctx, "audit sink circuit opened", "sink", s.breaker.Name())
			}
			continue
		}
		if _, change := s.breaker.RecordSuccess(); change.Closed {
			p.logger.InfoContext(ctx, "audit sink circuit closed", "sink", s.breaker.Name())
		}
	}
	return nil
}
