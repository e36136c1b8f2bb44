// Package publisher delivers audit events to a sink with best-effort semantics.
//
// In sync mode Emit writes through and returns the sink error. In async mode
// Emit enqueues and returns immediately; a background goroutine drains the
// buffer. Either way callers treat a returned error as advisory: a committed
// selection is never rolled back because its audit trail could not be shipped.
package publisher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"reviewdraw/pkg/platform/audit"
	"reviewdraw/pkg/platform/circuit"
)

var (
	ErrBufferFull  = errors.New("audit buffer full")
	ErrCircuitOpen = errors.New("audit sink circuit open")
	ErrClosed      = errors.New("audit publisher closed")
)

const defaultAppendTimeout = 5 * time.Second

type Publisher struct {
	store         audit.Store
	logger        *slog.Logger
	metrics       *Metrics
	breaker       *circuit.Breaker
	appendTimeout time.Duration

	bufferSize int
	buffer     chan audit.Event
	mu         sync.RWMutex
	closed     bool
	done       chan struct{}
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to async mode with a buffer of n events.
func WithAsyncBuffer(n int) Option {
	return func(p *Publisher) {
		p.bufferSize = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// WithCircuitBreaker drops events without touching the sink while b is open.
func WithCircuitBreaker(b *circuit.Breaker) Option {
	return func(p *Publisher) {
		p.breaker = b
	}
}

// WithAppendTimeout bounds each async sink write.
func WithAppendTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.appendTimeout = d
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store:         store,
		logger:        slog.New(slog.DiscardHandler),
		appendTimeout: defaultAppendTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufferSize > 0 {
		p.buffer = make(chan audit.Event, p.bufferSize)
		p.done = make(chan struct{})
		go p.run()
	}
	return p
}

// Emit stamps the event with an id and timestamp when missing and hands it to the sink.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if p.buffer == nil {
		return p.deliver(ctx, event)
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.buffer <- event:
		p.metrics.SetQueueDepth(len(p.buffer))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.metrics.IncBufferDropped()
		p.logger.WarnContext(ctx, "audit buffer full, event dropped",
			"action", event.Action,
			"record_id", event.RecordID,
			"request_id", event.RequestID,
		)
		return ErrBufferFull
	}
}

// Close stops accepting events and, in async mode, waits for the buffer to drain.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.buffer != nil {
		close(p.buffer)
	}
	p.mu.Unlock()

	if p.done != nil {
		<-p.done
	}
	return nil
}

func (p *Publisher) run() {
	defer close(p.done)
	for event := range p.buffer {
		p.metrics.SetQueueDepth(len(p.buffer))
		ctx, cancel := context.WithTimeout(context.Background(), p.appendTimeout)
		_ = p.deliver(ctx, event)
		cancel()
	}
}

func (p *Publisher) deliver(ctx context.Context, event audit.Event) error {
	if p.breaker != nil && !p.breaker.Allow() {
		p.metrics.IncCircuitBreakerDropped()
		return ErrCircuitOpen
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.metrics.IncPersistFailures()
		if p.breaker != nil {
			if _, change := p.breaker.RecordFailure(); change.Opened {
				p.metrics.SetCircuitBreakerState(true)
				p.logger.ErrorContext(ctx, "audit sink circuit opened", "error", err)
			}
		}
		p.logger.WarnContext(ctx, "audit delivery failed",
			"action", event.Action,
			"record_id", event.RecordID,
			"request_id", event.RequestID,
			"error", err,
		)
		return err
	}

	p.metrics.IncDelivered()
	if p.breaker != nil {
		if _, change := p.breaker.RecordSuccess(); change.Closed {
			p.metrics.SetCircuitBreakerState(false)
			p.logger.InfoContext(ctx, "audit sink circuit closed")
		}
	}
	return nil
}
