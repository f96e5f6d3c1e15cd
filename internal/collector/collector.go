// Package collector runs the long-lived poll→drain loop: every interval it
// pulls one batch of raw events from its source and hands it to the pump.
package collector

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tracekit/dtracecol/internal/pump"
)

// Source produces one batch of raw event buffers and the count of events
// lost upstream since the previous poll.
type Source interface {
	Poll() ([][]byte, uint64)
}

// Collector ties a batch source to a pump on a fixed cadence.
type Collector struct {
	source   Source
	pump     *pump.Pump
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
	log      zerolog.Logger
}

// New creates a collector polling at the given interval.
func New(source Source, p *pump.Pump, interval time.Duration) *Collector {
	return &Collector{
		source:   source,
		pump:     p,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		log:      log.With().Str("component", "collector").Logger(),
	}
}

// Start begins the collection loop in a goroutine. It returns immediately
// and runs until the context is cancelled or Stop is called.
func (c *Collector) Start(ctx context.Context) error {
	go c.loop(ctx)
	return nil
}

// Stop signals the collection loop to finish its current cycle and exit,
// then waits for it.
func (c *Collector) Stop() error {
	close(c.stopCh)
	<-c.doneCh
	return nil
}

func (c *Collector) loop(ctx context.Context) {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			// Final drain so events captured since the last tick are not
			// stranded in the buffer.
			c.cycle(ctx)
			return
		case <-ticker.C:
			c.cycle(ctx)
		}
	}
}

func (c *Collector) cycle(ctx context.Context) {
	events, lost := c.source.Poll()
	if len(events) == 0 && lost == 0 {
		return
	}
	committed := c.pump.Drain(ctx, 0, events, lost)
	c.log.Debug().Int("polled", len(events)).Uint64("lost", lost).
		Int("committed", committed).Msg("drained batch")
}
