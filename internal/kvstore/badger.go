// AI Java Interviewer - Resume-driven mock interview backend
// Copyright 2026 Muyu1uz
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Muyu1uz/ai-java-interviewer

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"k8s.io/utils/clock"
)

// maxConflictRetries bounds optimistic transaction retries.
const maxConflictRetries = 16

// Badger is an embedded single-node backend.
type Badger struct {
	db    *badger.DB
	clock clock.PassiveClock

	mu     sync.RWMutex
	closed bool
}

// bucketState is the stored form of a token bucket.
type bucketState struct {
	Tokens float64 `json:"tokens"`
	TS     int64   `json:"ts"`
}

// OpenBadger opens (or creates) a database at path. inMemory ignores path.
func OpenBadger(path string, inMemory bool, clk clock.PassiveClock) (*Badger, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return NewBadgerFromDB(db, clk), nil
}

// NewBadgerFromDB wraps an open database. Close closes db.
func NewBadgerFromDB(db *badger.DB, clk clock.PassiveClock) *Badger {
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &Badger{db: db, clock: clk}
}

func (b *Badger) check() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	return nil
}

// update runs fn in a read-write transaction, retrying on conflict.
func (b *Badger) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = b.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

// Ping implements Store.
func (b *Badger) Ping(_ context.Context) error {
	return b.check()
}

// Close implements Store.
func (b *Badger) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

// Get implements Cache.
func (b *Badger) Get(_ context.Context, key string) ([]byte, bool, error) {
	if err := b.check(); err != nil {
		return nil, false, err
	}
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger get %s: %w", key, err)
	}
	return out, true, nil
}

// Set implements Cache.
func (b *Badger) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := b.check(); err != nil {
		return err
	}
	err := b.update(ctx, func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("badger set %s: %w", key, err)
	}
	return nil
}

// SetNX implements Cache.
func (b *Badger) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	if err := b.check(); err != nil {
		return false, err
	}
	var stored bool
	err := b.update(ctx, func(txn *badger.Txn) error {
		stored = false
		_, err := txn.Get([]byte(key))
		if err == nil {
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		e := badger.NewEntry([]byte(key), value)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		stored = true
		return txn.SetEntry(e)
	})
	if err != nil {
		return false, fmt.Errorf("badger setnx %s: %w", key, err)
	}
	return stored, nil
}

// Delete implements Cache and Sets.
func (b *Badger) Delete(ctx context.Context, key string) error {
	if err := b.check(); err != nil {
		return err
	}
	err := b.update(ctx, func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("badger delete %s: %w", key, err)
	}
	return nil
}

// SetAdd implements Sets. The set is stored as a sorted JSON array.
func (b *Badger) SetAdd(ctx context.Context, key string, ttl time.Duration, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := b.check(); err != nil {
		return err
	}
	err := b.update(ctx, func(txn *badger.Txn) error {
		existing, err := readSet(txn, key)
		if err != nil {
			return err
		}
		set := make(map[string]struct{}, len(existing)+len(members))
		for _, m := range existing {
			set[m] = struct{}{}
		}
		for _, m := range members {
			set[m] = struct{}{}
		}
		merged := make([]string, 0, len(set))
		for m := range set {
			merged = append(merged, m)
		}
		sort.Strings(merged)

		data, err := json.Marshal(merged)
		if err != nil {
			return err
		}
		e := badger.NewEntry([]byte(key), data)
		if ttl > 0 {
			e = e.WithTTL(ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("badger sadd %s: %w", key, err)
	}
	return nil
}

// SetMembers implements Sets.
func (b *Badger) SetMembers(_ context.Context, key string) ([]string, error) {
	if err := b.check(); err != nil {
		return nil, err
	}
	var out []string
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = readSet(txn, key)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("badger smembers %s: %w", key, err)
	}
	return out, nil
}

// SetRemove implements Sets. The remaining TTL is carried over.
func (b *Badger) SetRemove(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := b.check(); err != nil {
		return err
	}
	err := b.update(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		expiresAt := item.ExpiresAt()
		existing, err := readSet(txn, key)
		if err != nil {
			return err
		}
		drop := make(map[string]struct{}, len(members))
		for _, m := range members {
			drop[m] = struct{}{}
		}
		kept := existing[:0]
		for _, m := range existing {
			if _, ok := drop[m]; !ok {
				kept = append(kept, m)
			}
		}
		if len(kept) == 0 {
			return txn.Delete([]byte(key))
		}
		data, err := json.Marshal(kept)
		if err != nil {
			return err
		}
		e := badger.NewEntry([]byte(key), data)
		if expiresAt > 0 {
			e.ExpiresAt = expiresAt
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("badger srem %s: %w", key, err)
	}
	return nil
}

func readSet(txn *badger.Txn, key string) ([]string, error) {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var members []string
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &members)
	})
	return members, err
}

// TakeToken implements Buckets.
func (b *Badger) TakeToken(ctx context.Context, key string, capacity int, rate float64) (Take, error) {
	if err := b.check(); err != nil {
		return Take{}, err
	}
	var take Take
	err := b.update(ctx, func(txn *badger.Txn) error {
		var st bucketState
		item, err := txn.Get([]byte(key))
		switch {
		case err == nil:
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &st)
			}); err != nil {
				return err
			}
		case !errors.Is(err, badger.ErrKeyNotFound):
			return err
		}

		var last time.Time
		if st.TS != 0 {
			last = time.UnixMilli(st.TS)
		}
		var newLast time.Time
		take, newLast = refill(st.Tokens, last, b.clock.Now(), capacity, rate)

		data, err := json.Marshal(bucketState{Tokens: take.Remaining, TS: newLast.UnixMilli()})
		if err != nil {
			return err
		}
		return txn.SetEntry(badger.NewEntry([]byte(key), data).WithTTL(bucketTTL(capacity, rate)))
	})
	if err != nil {
		return Take{}, fmt.Errorf("badger token bucket %s: %w", key, err)
	}
	return take, nil
}
