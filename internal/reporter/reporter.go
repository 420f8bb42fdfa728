package reporter

import (
	"context"
	"fmt"
	"sync"

	"go-dirtycam/internal/logger"
	"go-dirtycam/pkg/models"
)

// Reporter receives the outcome of every screened image
type Reporter interface {
	OnReport(ctx context.Context, report models.FaultReport)
	OnFailure(ctx context.Context, image string, err error)
	Name() string
}

// Publisher fans each outcome out to its subscribers, in subscription
// order. A panicking subscriber is logged and skipped.
type Publisher struct {
	mu        sync.RWMutex
	reporters []Reporter
}

// NewPublisher creates a publisher with the given subscribers
func NewPublisher(reporters ...Reporter) *Publisher {
	p := &Publisher{}
	for _, r := range reporters {
		p.Subscribe(r)
	}
	return p
}

// Subscribe adds a reporter
func (p *Publisher) Subscribe(r Reporter) {
	if r == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reporters = append(p.reporters, r)
}

// Unsubscribe removes the first reporter with the same name
func (p *Publisher) Unsubscribe(r Reporter) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, existing := range p.reporters {
		if existing.Name() == r.Name() {
			p.reporters = append(p.reporters[:i], p.reporters[i+1:]...)
			break
		}
	}
}

// OnReport implements Reporter
func (p *Publisher) OnReport(ctx context.Context, report models.FaultReport) {
	for _, r := range p.snapshot() {
		notify(r, func() { r.OnReport(ctx, report) })
	}
}

// OnFailure implements Reporter
func (p *Publisher) OnFailure(ctx context.Context, image string, err error) {
	for _, r := range p.snapshot() {
		notify(r, func() { r.OnFailure(ctx, image, err) })
	}
}

// Name implements Reporter
func (p *Publisher) Name() string {
	return "publisher"
}

func (p *Publisher) snapshot() []Reporter {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]Reporter, len(p.reporters))
	copy(out, p.reporters)
	return out
}

func notify(r Reporter, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.WithField("reporter", r.Name()).
				WithField("panic", fmt.Sprint(rec)).
				Error("Reporter panicked while handling a result")
		}
	}()
	fn()
}
