// Package sequence hands out contract numbers.
//
// A number is reserved before a document is generated and committed only
// once the document exists. Until the holder commits or releases, every
// other Reserve call waits, so two generations can never hold the same
// number. A released number is handed out again by the next reservation.
package sequence

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrReservationDone is returned when committing a reservation twice or
// after it was released.
var ErrReservationDone = errors.New("sequence: reservation already finished")

// Counter is a process-wide contract number source.
type Counter interface {
	// Next returns the number the next successful generation will use.
	Next(ctx context.Context) (int, error)

	// Reserve blocks until the caller holds the next number exclusively.
	Reserve(ctx context.Context) (*Reservation, error)

	// Close releases any resources held by the counter.
	Close() error
}

// Reservation is an exclusive claim on a number. Exactly one of Commit or
// Release takes effect; later calls are no-ops or return ErrReservationDone.
type Reservation struct {
	Number int

	mu     sync.Mutex
	done   bool
	commit func() error
	gate   *semaphore.Weighted
}

// Commit advances the counter past Number.
func (r *Reservation) Commit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return ErrReservationDone
	}
	if err := r.commit(); err != nil {
		return err
	}
	r.done = true
	r.gate.Release(1)
	return nil
}

// Release gives Number back without advancing the counter.
func (r *Reservation) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.done {
		return
	}
	r.done = true
	r.gate.Release(1)
}

// gate is the exclusive reservation slot shared by the drivers.
type gate struct {
	sem *semaphore.Weighted
}

func newGate() gate {
	return gate{sem: semaphore.NewWeighted(1)}
}

func (g gate) reserve(ctx context.Context, number func() (int, error), commit func(int) error) (*Reservation, error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	n, err := number()
	if err != nil {
		g.sem.Release(1)
		return nil, err
	}
	return &Reservation{
		Number: n,
		gate:   g.sem,
		commit: func() error { return commit(n) },
	}, nil
}
