package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/airlock-labs/airlock/pkg/contracts"
	"github.com/airlock-labs/airlock/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddr(n byte) contracts.Address {
	var a contracts.Address
	a[19] = n
	a[18] = 0x20
	return a
}

func testDigest(n byte) contracts.Digest {
	var d contracts.Digest
	for i := range d {
		d[i] = n
	}
	return d
}

func openTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "airlock.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_FreshLoadIsZero(t *testing.T) {
	s := openTestStore(t)

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, store.State{}, snap.State)
	assert.Empty(t, snap.Entries)
	assert.Empty(t, snap.Proposers)
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created := time.Date(2026, 6, 1, 10, 30, 0, 0, time.UTC)
	require.NoError(t, s.AppendEntry(ctx,
		store.Entry{Slot: 0, Commitment: testDigest(0xaa), CreatedAt: created},
		store.State{Tail: 1}))

	st := store.State{Cursor: 1, Tail: 2, ApprovedCount: 1, SaltCounter: 3}
	require.NoError(t, s.AppendEntry(ctx,
		store.Entry{Slot: 1, Commitment: testDigest(0xbb), CreatedAt: created.Add(time.Minute)},
		st))
	require.NoError(t, s.SaveProposers(ctx, []contracts.Address{testAddr(1), testAddr(2)}))

	snap, err := s.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, st, snap.State)
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, testDigest(0xaa), snap.Entries[0].Commitment)
	assert.True(t, snap.Entries[0].CreatedAt.Equal(created))
	assert.Equal(t, uint64(1), snap.Entries[1].Slot)
	assert.Equal(t, []contracts.Address{testAddr(1), testAddr(2)}, snap.Proposers)
}

func TestSQLiteStore_AppendEntryIsAtomic(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.AppendEntry(ctx,
		store.Entry{Slot: 0, Commitment: testDigest(1), CreatedAt: time.Now()},
		store.State{Tail: 1}))

	// A duplicate slot violates the primary key; the state write in the
	// same transaction must roll back with it.
	err := s.AppendEntry(ctx,
		store.Entry{Slot: 0, Commitment: testDigest(2), CreatedAt: time.Now()},
		store.State{Tail: 2})
	require.Error(t, err)

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.State.Tail)
	assert.Len(t, snap.Entries, 1)
}

func TestSQLiteStore_SaveStateIsUpsert(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveState(ctx, store.State{Cursor: 0, Tail: 1}))
	require.NoError(t, s.SaveState(ctx, store.State{Cursor: 1, Tail: 1}))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.State.Cursor)
}

func TestSQLiteStore_SaveProposersReplaces(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	require.NoError(t, s.SaveProposers(ctx, []contracts.Address{testAddr(1), testAddr(2)}))
	require.NoError(t, s.SaveProposers(ctx, []contracts.Address{testAddr(3)}))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []contracts.Address{testAddr(3)}, snap.Proposers)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemoryStore()

	require.NoError(t, m.AppendEntry(ctx, store.Entry{Slot: 0, Commitment: testDigest(1), CreatedAt: time.Now()}, store.State{Tail: 1}))
	require.NoError(t, m.SaveProposers(ctx, []contracts.Address{testAddr(9)}))

	snap, err := m.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Entries, 1)
	assert.Equal(t, uint64(1), snap.State.Tail)
	assert.Equal(t, []contracts.Address{testAddr(9)}, snap.Proposers)
}
