// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"fmt"
	"sync"

	"go.uber.org/multierr"
)

// Sink receives one record per cycle.
type Sink interface {
	Emit(Record) error
	Close() error
}

// SinkFunc adapts a function to a Sink with a no-op Close.
type SinkFunc func(Record) error

// Emit implements Sink.
func (f SinkFunc) Emit(r Record) error { return f(r) }

// Close implements Sink.
func (f SinkFunc) Close() error { return nil }

type namedSink struct {
	name string
	sink Sink
}

// Fanout hands every record to all registered sinks. A failing sink does not
// stop the others.
type Fanout struct {
	mu    sync.Mutex
	sinks []namedSink
}

// NewFanout returns an empty fan-out.
func NewFanout() *Fanout {
	return &Fanout{}
}

// Add registers a sink under a name used in error messages.
func (f *Fanout) Add(name string, s Sink) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinks = append(f.sinks, namedSink{name: name, sink: s})
}

// Len returns the number of registered sinks.
func (f *Fanout) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sinks)
}

// Emit implements Sink. The returned error combines the failures of every
// sink that rejected the record.
func (f *Fanout) Emit(r Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	for _, ns := range f.sinks {
		if e := ns.sink.Emit(r); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", ns.name, e))
		}
	}
	return err
}

// Close implements Sink. Every sink is closed, even after a failure.
func (f *Fanout) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var err error
	for _, ns := range f.sinks {
		if e := ns.sink.Close(); e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: close: %w", ns.name, e))
		}
	}
	f.sinks = nil
	return err
}
