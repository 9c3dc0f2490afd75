// Package delivery guarantees best-effort delivery of presence events
// to the automation endpoint without blocking the sighting path:
// bounded inline retries first, then a capacity-bounded in-memory queue
// drained by a background sweep. At-least-once within the process
// lifetime; queue contents are abandoned on shutdown.
package delivery

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config holds the delivery tuning constants.
type Config struct {
	// QueueCapacity bounds the redelivery queue; the oldest item is
	// evicted when a new arrival finds it full.
	QueueCapacity int

	// MaxAttempts is the inline attempt budget per event (first try
	// included).
	MaxAttempts int

	// BackoffBase is the delay before the second inline attempt; it
	// doubles on each further retry.
	BackoffBase time.Duration

	// SweepInterval is how often the background sweep retries queued
	// events.
	SweepInterval time.Duration
}

// Stats is a point-in-time view of delivery activity for the status
// surface.
type Stats struct {
	QueueDepth int
	OldestAge  time.Duration
	Delivered  int
	Dropped    int
}

// Deliverer owns the retry queue and the background sweep.
type Deliverer struct {
	sender Sender
	cfg    Config
	now    func() time.Time

	mu        sync.Mutex
	queue     *ringQueue
	delivered int
	dropped   int
}

// New creates a Deliverer. Run must be started separately for queued
// events to be redelivered.
func New(sender Sender, cfg Config) *Deliverer {
	return &Deliverer{
		sender: sender,
		cfg:    cfg,
		now:    time.Now,
		queue:  newRingQueue(cfg.QueueCapacity),
	}
}

// Deliver attempts immediate delivery within the inline budget, backing
// off between attempts, and queues the event for the sweep if the
// budget is exhausted. It never returns an error to the sighting path:
// a delivery outage degrades to a growing queue, not a failed ingest.
func (d *Deliverer) Deliver(event Event) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = d.cfg.BackoffBase
	eb.Multiplier = 2
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0

	retries := uint64(0)
	if d.cfg.MaxAttempts > 1 {
		retries = uint64(d.cfg.MaxAttempts - 1)
	}

	err := backoff.Retry(func() error {
		return d.sender.Send(event)
	}, backoff.WithMaxRetries(eb, retries))

	if err == nil {
		d.mu.Lock()
		d.delivered++
		d.mu.Unlock()
		return
	}

	log.Printf("delivery: %s for %s failed after %d attempts, queued: %v",
		event.Kind, event.Identity, d.cfg.MaxAttempts, err)
	d.enqueue(queuedItem{event: event, enqueuedAt: d.now()})
}

func (d *Deliverer) enqueue(it queuedItem) {
	d.mu.Lock()
	evicted, ok := d.queue.push(it)
	if ok {
		d.dropped++
	}
	d.mu.Unlock()

	if ok {
		log.Printf("delivery: queue full (%d events), dropped oldest %s for %s",
			d.cfg.QueueCapacity, evicted.event.Kind, evicted.event.Identity)
	}
}

// Run drives the background sweep until the context is cancelled.
// A single goroutine on a ticker: sweeps cannot overlap themselves.
func (d *Deliverer) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Sweep()
		}
	}
}

// Sweep retries every queued event once. The queue lock is never held
// across a network call: the work list is copied out first, failures
// are re-queued with their retry count incremented.
func (d *Deliverer) Sweep() {
	d.mu.Lock()
	items := d.queue.drainAll()
	d.mu.Unlock()

	for _, it := range items {
		if err := d.sender.Send(it.event); err != nil {
			it.retryCount++
			log.Printf("delivery: sweep retry %d for %s %s failed: %v",
				it.retryCount, it.event.Kind, it.event.Identity, err)
			d.enqueue(it)
			continue
		}
		d.mu.Lock()
		d.delivered++
		d.mu.Unlock()
	}
}

// QueueDepth returns the number of events awaiting redelivery.
func (d *Deliverer) QueueDepth() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.queue.len()
}

// Stats returns a snapshot of delivery activity.
func (d *Deliverer) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := Stats{
		QueueDepth: d.queue.len(),
		Delivered:  d.delivered,
		Dropped:    d.dropped,
	}
	if it, ok := d.queue.oldest(); ok {
		s.OldestAge = d.now().Sub(it.enqueuedAt)
	}
	return s
}
