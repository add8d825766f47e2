package service

import (
	"log"
	"time"
)

// Ticker drives a handler at a fixed period. The delta passed to the handler
// is the wall time measured on the monotonic clock between successive fires,
// not the nominal period, so the simulation is immune to scheduler jitter.
// A panicking handler is logged and the next fire still happens.
type Ticker struct {
	period  time.Duration
	handler func(deltaMs int64)
	stop    chan struct{}
	done    chan struct{}
}

// NewTicker builds a ticker; Start launches it.
func NewTicker(periodMs int64, handler func(deltaMs int64)) *Ticker {
	return &Ticker{
		period:  time.Duration(periodMs) * time.Millisecond,
		handler: handler,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// Start launches the tick loop in its own goroutine.
func (t *Ticker) Start() {
	go t.loop()
}

// Stop halts the loop and waits for it to finish. A fire already in flight
// completes first.
func (t *Ticker) Stop() {
	close(t.stop)
	<-t.done
}

func (t *Ticker) loop() {
	defer close(t.done)

	ticker := time.NewTicker(t.period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-t.stop:
			return
		case now := <-ticker.C:
			delta := now.Sub(last).Milliseconds()
			last = now
			t.fire(delta)
		}
	}
}

func (t *Ticker) fire(deltaMs int64) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Tick handler panicked: %v", r)
		}
	}()
	t.handler(deltaMs)
}
