package store

import (
	"context"
	"time"

	"github.com/neomestre/neomestre/internal/unimestre"
)

// Selection points at the account and section the views show.
// Nil means nothing is selected.
type Selection struct {
	CurrentAccountID *int `json:"current_account_id"`
	CurrentSectionID *int `json:"current_section_id"`
}

// Settings holds user preferences.
type Settings struct {
	Biometrics bool `json:"biometrics"`
}

// Preferences is the persisted selection plus settings.
type Preferences struct {
	Selection
	Settings
}

// Data is everything persisted between runs.
type Data struct {
	// Accounts in login order.
	Accounts    []unimestre.Snapshot
	Preferences Preferences

	// UpdatedAt is when the account list was last written. Zero if never.
	UpdatedAt time.Time
}

// Repo loads and saves the persisted data.
type Repo interface {
	// Load returns the stored data, or zero Data if nothing was saved yet.
	Load(ctx context.Context) (Data, error)

	// Save replaces the stored accounts and preferences atomically.
	Save(ctx context.Context, accounts []unimestre.Snapshot, prefs Preferences) error
}
