package dedup

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	domainerrors "github.com/crawlora/aws-platform-engineering/internal/errors"
)

const badgerPrefix = "dedup:"

// Badger keeps claims in a local Badger database.
type Badger struct {
	db     *badger.DB
	expiry Expiry
	logger *slog.Logger
}

// NewBadger opens (or creates) the claim database at path.
func NewBadger(path string, expiry Expiry, logger *slog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	opts.SyncWrites = true
	opts.CompactL0OnClose = true

	db, err := badger.Open(opts)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to open dedup database")
	}

	expiry = expiry.withDefaults()
	logger.Info("Dedup database opened", "path", path, "lease", expiry.Lease, "ttl", expiry.Done)

	return &Badger{db: db, expiry: expiry, logger: logger}, nil
}

// Claim leases key unless a lease or done marker is present.
func (b *Badger) Claim(_ context.Context, key string) (bool, error) {
	k := []byte(badgerPrefix + key)
	claimed := false

	err := b.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(k)
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		claimed = true
		return txn.SetEntry(badger.NewEntry(k, []byte(valueLease)).WithTTL(b.expiry.Lease))
	})

	// A conflicting transaction means another invocation claimed the key first.
	if errors.Is(err, badger.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, domainerrors.Wrapf(err, domainerrors.CodeInternal, "failed to claim %s", key)
	}
	return claimed, nil
}

// Complete replaces the lease on key with a done marker.
func (b *Badger) Complete(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry([]byte(badgerPrefix+key), []byte(valueDone)).WithTTL(b.expiry.Done))
	})
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeInternal, "failed to complete %s", key)
	}
	return nil
}

// Release forgets key.
func (b *Badger) Release(_ context.Context, key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(badgerPrefix + key))
	})
	if err != nil {
		return domainerrors.Wrapf(err, domainerrors.CodeInternal, "failed to release %s", key)
	}
	return nil
}

// Close closes the database.
func (b *Badger) Close() error {
	b.logger.Info("Closing dedup database")
	return b.db.Close()
}
