// Package dedup guards the completion pipeline against re-delivered job events.
package dedup

import (
	"context"
	"time"
)

// Store claims idempotency keys.
//
// Claim takes a lease on a key that expires after Expiry.Lease, so a claim held by an
// invocation that was killed mid-flight lapses and the redelivery runs again.
// Complete turns the lease into a done marker kept for Expiry.Done.
type Store interface {
	Claim(ctx context.Context, key string) (bool, error)
	Complete(ctx context.Context, key string) error
	Release(ctx context.Context, key string) error
	Close() error
}

const (
	// DefaultTTL is how long a completed key is remembered.
	DefaultTTL = 24 * time.Hour
	// DefaultLease matches the longest Lambda timeout.
	DefaultLease = 15 * time.Minute
)

const (
	valueLease = "in-progress"
	valueDone  = "done"
)

// Expiry holds the lifetimes of a lease and of a done marker.
type Expiry struct {
	Lease time.Duration
	Done  time.Duration
}

func (e Expiry) withDefaults() Expiry {
	if e.Lease <= 0 {
		e.Lease = DefaultLease
	}
	if e.Done <= 0 {
		e.Done = DefaultTTL
	}
	return e
}

// Key builds the idempotency key of a job status event.
func Key(jobID, status string) string {
	return jobID + ":" + status
}

// Noop claims every key. Used when deduplication is disabled.
type Noop struct{}

// Claim always succeeds.
func (Noop) Claim(context.Context, string) (bool, error) { return true, nil }

// Complete is a no-op.
func (Noop) Complete(context.Context, string) error { return nil }

// Release is a no-op.
func (Noop) Release(context.Context, string) error { return nil }

// Close is a no-op.
func (Noop) Close() error { return nil }
