// Package sink delivers finished session results to their destinations.
package sink

import (
	"context"
	"errors"
	"fmt"

	"github.com/verte-zerg/keyrush/internal/model"
)

// ResultSink receives one finalized result per session.
type ResultSink interface {
	Record(ctx context.Context, res model.Result) error
}

// Fanout forwards each result to every sink in order.
type Fanout struct {
	sinks []ResultSink
}

// NewFanout builds a fanout over sinks, skipping nil entries.
func NewFanout(sinks ...ResultSink) *Fanout {
	f := &Fanout{}
	for _, s := range sinks {
		if s != nil {
			f.sinks = append(f.sinks, s)
		}
	}
	return f
}

// Record delivers res to every sink once. A failing sink does not stop the others.
func (f *Fanout) Record(ctx context.Context, res model.Result) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Record(ctx, res); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len reports how many sinks are attached.
func (f *Fanout) Len() int {
	return len(f.sinks)
}

// Func adapts a plain function to ResultSink.
type Func func(ctx context.Context, res model.Result) error

// Record calls f.
func (f Func) Record(ctx context.Context, res model.Result) error {
	return f(ctx, res)
}

func labeled(name string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}
