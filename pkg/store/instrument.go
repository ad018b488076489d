package store

import (
	"context"
	"time"

	"github.com/matzehuels/crewboard/pkg/diagram"
	"github.com/matzehuels/crewboard/pkg/observability"
)

// Instrumented reports every operation of the wrapped store to the
// registered observability.StoreHooks.
type Instrumented struct {
	Store
	backend string
}

// Instrument wraps s. The backend name labels every reported operation.
func Instrument(s Store, backend string) *Instrumented {
	return &Instrumented{Store: s, backend: backend}
}

func (s *Instrumented) report(ctx context.Context, op string, start time.Time, err error) {
	observability.Store().OnStoreOp(ctx, s.backend, op, time.Since(start), err)
}

// List implements Store.
func (s *Instrumented) List(ctx context.Context) ([]Entry, error) {
	start := time.Now()
	entries, err := s.Store.List(ctx)
	s.report(ctx, "list", start, err)
	return entries, err
}

// Get implements Store.
func (s *Instrumented) Get(ctx context.Context, filename string) (*diagram.Diagram, error) {
	start := time.Now()
	d, err := s.Store.Get(ctx, filename)
	s.report(ctx, "get", start, err)
	return d, err
}

// Save implements Store.
func (s *Instrumented) Save(ctx context.Context, name string, d *diagram.Diagram) (string, error) {
	start := time.Now()
	filename, err := s.Store.Save(ctx, name, d)
	s.report(ctx, "save", start, err)
	return filename, err
}

// Delete implements Store.
func (s *Instrumented) Delete(ctx context.Context, filename string) error {
	start := time.Now()
	err := s.Store.Delete(ctx, filename)
	s.report(ctx, "delete", start, err)
	return err
}

// Backend returns the label used for reported operations.
func (s *Instrumented) Backend() string { return s.backend }
