package watch

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/netmpowers/bookwatch/internal/model"
)

// Notifier receives the report of a completed run. Delivery is
// best-effort: a notifier failure never affects committed store state.
type Notifier interface {
	Deliver(report *model.Report) error
}

// Poller runs a full pass on a fixed interval and hands each non-empty
// report to the notifier.
type Poller struct {
	runner   *Runner
	notifier Notifier
	interval time.Duration
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPoller creates a background poller.
func NewPoller(runner *Runner, notifier Notifier, interval time.Duration) *Poller {
	return &Poller{
		runner:   runner,
		notifier: notifier,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the polling loop.
func (p *Poller) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			log.Printf("Poller: starting run (interval: %s)", p.interval)
			p.runOnce()
			select {
			case <-p.stopChan:
				return
			case <-time.After(p.interval):
			}
		}
	}()
}

// Stop stops the poller gracefully.
func (p *Poller) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Poller) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	report, err := p.runner.RunAll(ctx)
	if err != nil {
		log.Printf("Poller error: %v", err)
		return
	}
	if report.Empty() {
		log.Printf("Poller: nothing new")
		return
	}
	if err := p.notifier.Deliver(report); err != nil {
		log.Printf("Notification error: %v", err)
	}
}
