package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/neomestre/neomestre/internal/unimestre"
)

// Blob keys.
const (
	keyAccounts    = "accounts"
	keyPreferences = "preferences"
)

type blobRow struct {
	Key       string `db:"key"`
	Data      string `db:"data"`
	UpdatedAt string `db:"updated_at"`
}

const upsertBlob = `
	INSERT INTO blobs (key, data, updated_at)
	VALUES (:key, :data, :updated_at)
	ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`

func (s *Store) Load(ctx context.Context) (Data, error) {
	var rows []blobRow
	if err := s.db.SelectContext(ctx, &rows, "SELECT key, data, updated_at FROM blobs"); err != nil {
		return Data{}, fmt.Errorf("query blobs: %w", err)
	}

	var d Data
	for _, r := range rows {
		switch r.Key {
		case keyAccounts:
			if err := json.Unmarshal([]byte(r.Data), &d.Accounts); err != nil {
				return Data{}, fmt.Errorf("decode %s: %w", r.Key, err)
			}
			t, err := time.Parse(time.RFC3339Nano, r.UpdatedAt)
			if err != nil {
				return Data{}, fmt.Errorf("decode %s timestamp: %w", r.Key, err)
			}
			d.UpdatedAt = t
		case keyPreferences:
			if err := json.Unmarshal([]byte(r.Data), &d.Preferences); err != nil {
				return Data{}, fmt.Errorf("decode %s: %w", r.Key, err)
			}
		}
	}
	return d, nil
}

func (s *Store) Save(ctx context.Context, accounts []unimestre.Snapshot, prefs Preferences) error {
	if accounts == nil {
		accounts = []unimestre.Snapshot{}
	}
	accountsJSON, err := json.Marshal(accounts)
	if err != nil {
		return fmt.Errorf("encode accounts: %w", err)
	}
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	now := s.now().UTC().Format(time.RFC3339Nano)
	rows := []blobRow{
		{Key: keyAccounts, Data: string(accountsJSON), UpdatedAt: now},
		{Key: keyPreferences, Data: string(prefsJSON), UpdatedAt: now},
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range rows {
		if _, err := tx.NamedExecContext(ctx, upsertBlob, r); err != nil {
			return fmt.Errorf("write %s: %w", r.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
