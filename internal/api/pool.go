package api

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"htmx-todo/internal/domain"
)

// DispatcherConfig sizes the event dispatcher.
type DispatcherConfig struct {
	Workers        int
	Buffer         int
	HandoffTimeout time.Duration
	PublishTimeout time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Buffer <= 0 {
		c.Buffer = 256
	}
	if c.HandoffTimeout < 0 {
		c.HandoffTimeout = 0
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 30 * time.Second
	}
	return c
}

// Dispatcher hands events to a fixed pool of workers that deliver them to a
// sink. Events that cannot be handed off in time are dropped and logged.
type Dispatcher struct {
	cfg    DispatcherConfig
	sink   EventSink
	logger *log.Logger

	mu     sync.RWMutex
	closed bool
	jobs   chan domain.Event
	wg     sync.WaitGroup
}

// NewDispatcher starts the worker pool.
func NewDispatcher(sink EventSink, cfg DispatcherConfig, logger *log.Logger) *Dispatcher {
	if sink == nil {
		panic("event sink is required")
	}
	if logger == nil {
		panic("logger is required")
	}
	cfg = cfg.withDefaults()

	d := &Dispatcher{
		cfg:    cfg,
		sink:   sink,
		logger: logger,
		jobs:   make(chan domain.Event, cfg.Buffer),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	logger.Infof("event dispatcher started, workers: %d, buffer: %d, handoff: %v", cfg.Workers, cfg.Buffer, cfg.HandoffTimeout)
	return d
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for ev := range d.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.PublishTimeout)
		err := d.sink.Publish(ctx, ev)
		cancel()

		if err != nil {
			d.logger.Errorf("publish event failed, err: %v, type: %s, todo: %s, worker: %d", err, ev.Type, ev.EntityID, id)
		}
	}
}

// Publish queues ev for delivery. It never blocks longer than the handoff
// timeout and returns false when the event was dropped.
func (d *Dispatcher) Publish(ev domain.Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return false
	}

	select {
	case d.jobs <- ev:
		return true
	default:
	}

	if d.cfg.HandoffTimeout > 0 {
		timer := time.NewTimer(d.cfg.HandoffTimeout)
		defer timer.Stop()
		select {
		case d.jobs <- ev:
			return true
		case <-timer.C:
		}
	}

	d.logger.Warnf("event buffer saturated; dropping %s for todo %s", ev.Type, ev.EntityID)
	return false
}

// Close stops accepting events and waits for queued ones to be delivered.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}
