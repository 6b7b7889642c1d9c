// Package statetest provides a populated account state for screen and
// command tests.
package statetest

import (
	"context"
	_ "embed"
	"path/filepath"
	"testing"

	"github.com/neomestre/neomestre/internal/state"
	"github.com/neomestre/neomestre/internal/store"
	"github.com/neomestre/neomestre/internal/unimestre"
)

// SnapshotJSON is a successful portal response for person 4821 with two
// sections (310 and 355).
//
//go:embed snapshot.json
var SnapshotJSON []byte

// Snapshot decodes SnapshotJSON.
func Snapshot(t testing.TB) unimestre.Snapshot {
	t.Helper()
	snap, err := unimestre.Decode(SnapshotJSON)
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return *snap
}

// Open returns a State backed by a fresh SQLite file holding snaps. The
// first upsert selects its account and last section.
func Open(t testing.TB, snaps ...unimestre.Snapshot) *state.State {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "neomestre.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	st, err := state.Open(ctx, db)
	if err != nil {
		t.Fatalf("open state: %v", err)
	}
	for _, s := range snaps {
		if _, err := st.Upsert(ctx, s); err != nil {
			t.Fatalf("upsert: %v", err)
		}
	}
	return st
}
