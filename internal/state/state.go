// Package state owns the cached accounts, the current selection and the
// user settings. Every mutation is persisted before it becomes visible, and
// the selection is repaired after any change that could leave it dangling.
package state

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/neomestre/neomestre/internal/query"
	"github.com/neomestre/neomestre/internal/store"
	"github.com/neomestre/neomestre/internal/unimestre"
)

var (
	// ErrAccountNotFound is returned when removing an account that is not cached.
	ErrAccountNotFound = errors.New("account not found")

	// ErrNoOwner is returned when upserting a snapshot without people.
	ErrNoOwner = errors.New("snapshot has no owner")
)

// State is the application's single source of account data. It is safe for
// concurrent use.
type State struct {
	repo store.Repo

	mu        sync.RWMutex
	accounts  []unimestre.Snapshot
	prefs     store.Preferences
	updatedAt time.Time
}

// Open loads the persisted data from repo and repairs the selection. A
// repaired selection is written back.
func Open(ctx context.Context, repo store.Repo) (*State, error) {
	d, err := repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	s := &State{
		repo:      repo,
		accounts:  d.Accounts,
		prefs:     d.Preferences,
		updatedAt: d.UpdatedAt,
	}

	repaired := repair(s.accounts, s.prefs.Selection)
	if !sameSelection(repaired, s.prefs.Selection) {
		prefs := s.prefs
		prefs.Selection = repaired
		if err := s.commit(ctx, s.accounts, prefs); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// commit persists accounts and prefs, then makes them current. The caller
// must hold the write lock (or be the only owner). On error nothing changes.
func (s *State) commit(ctx context.Context, accounts []unimestre.Snapshot, prefs store.Preferences) error {
	if err := s.repo.Save(ctx, accounts, prefs); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	s.accounts = accounts
	s.prefs = prefs
	s.updatedAt = time.Now()
	return nil
}

// Upsert stores snap. An account with the same identity is replaced in
// place; otherwise snap is appended. It reports whether snap was new.
func (s *State) Upsert(ctx context.Context, snap unimestre.Snapshot) (bool, error) {
	if len(snap.People) == 0 {
		return false, ErrNoOwner
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	accounts := slices.Clone(s.accounts)
	idx := indexOf(accounts, snap.AccountID())
	added := idx < 0
	if added {
		accounts = append(accounts, snap)
	} else {
		accounts[idx] = snap
	}

	prefs := s.prefs
	prefs.Selection = repair(accounts, prefs.Selection)
	if err := s.commit(ctx, accounts, prefs); err != nil {
		return false, err
	}
	return added, nil
}

// Replace swaps the cached account with snap's identity for snap, keeping its
// position. Unlike Upsert it never adds: an identity that is not cached
// (e.g. removed while a refresh was in flight) yields ErrAccountNotFound.
func (s *State) Replace(ctx context.Context, snap unimestre.Snapshot) error {
	if len(snap.People) == 0 {
		return ErrNoOwner
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.accounts, snap.AccountID())
	if idx < 0 {
		return fmt.Errorf("replace %d: %w", snap.AccountID(), ErrAccountNotFound)
	}
	accounts := slices.Clone(s.accounts)
	accounts[idx] = snap

	prefs := s.prefs
	prefs.Selection = repair(accounts, prefs.Selection)
	return s.commit(ctx, accounts, prefs)
}

// Remove deletes the account with the given identity.
func (s *State) Remove(ctx context.Context, accountID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.accounts, accountID)
	if idx < 0 {
		return fmt.Errorf("remove %d: %w", accountID, ErrAccountNotFound)
	}
	accounts := slices.Delete(slices.Clone(s.accounts), idx, idx+1)

	prefs := s.prefs
	prefs.Selection = repair(accounts, prefs.Selection)
	return s.commit(ctx, accounts, prefs)
}

// ClearAll removes every account and resets settings and selection.
func (s *State) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, nil, store.Preferences{})
}

// SelectAccount makes the account current. Unless the current section
// belongs to it, the section moves to the account's most recent one. An
// unknown account is ignored and reported as false.
func (s *State) SelectAccount(ctx context.Context, accountID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.accounts, accountID)
	if idx < 0 {
		return false, nil
	}
	acct := s.accounts[idx]

	sel := store.Selection{CurrentAccountID: intPtr(accountID)}
	if cur := s.prefs.CurrentSectionID; cur != nil {
		if _, ok := acct.Section(*cur); ok {
			sel.CurrentSectionID = intPtr(*cur)
		}
	}
	if sel.CurrentSectionID == nil {
		sel.CurrentSectionID = defaultSection(acct)
	}

	prefs := s.prefs
	prefs.Selection = sel
	if err := s.commit(ctx, s.accounts, prefs); err != nil {
		return false, err
	}
	return true, nil
}

// SelectSection makes a section of the current account current. A section
// the current account does not have is ignored and reported as false.
func (s *State) SelectSection(ctx context.Context, sectionID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, ok := findAccount(s.accounts, s.prefs.CurrentAccountID)
	if !ok {
		return false, nil
	}
	if _, ok := acct.Section(sectionID); !ok {
		return false, nil
	}

	prefs := s.prefs
	prefs.CurrentSectionID = intPtr(sectionID)
	if err := s.commit(ctx, s.accounts, prefs); err != nil {
		return false, err
	}
	return true, nil
}

// SetBiometrics sets the biometric gate preference.
func (s *State) SetBiometrics(ctx context.Context, on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs := s.prefs
	prefs.Biometrics = on
	return s.commit(ctx, s.accounts, prefs)
}

// Count returns the number of cached accounts.
func (s *State) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// IsConfigured reports whether at least one account is cached.
func (s *State) IsConfigured() bool {
	return s.Count() > 0
}

// Accounts returns the cached accounts in login order. The slice is a copy;
// the snapshots must be treated as read-only.
func (s *State) Accounts() []unimestre.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.accounts)
}

// Account returns the cached account with the given identity.
func (s *State) Account(accountID int) (unimestre.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findAccount(s.accounts, &accountID)
}

// Selection returns a copy of the current selection.
func (s *State) Selection() store.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copySelection(s.prefs.Selection)
}

// Settings returns the current settings.
func (s *State) Settings() store.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.Settings
}

// UpdatedAt returns when the state was last written, or zero if never.
func (s *State) UpdatedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.updatedAt
}

// Query returns a read-only view of the current accounts and selection.
// Later mutations do not affect it.
func (s *State) Query() query.Query {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return query.New(slices.Clone(s.accounts), copySelection(s.prefs.Selection))
}

func copySelection(sel store.Selection) store.Selection {
	out := store.Selection{}
	if sel.CurrentAccountID != nil {
		out.CurrentAccountID = intPtr(*sel.CurrentAccountID)
	}
	if sel.CurrentSectionID != nil {
		out.CurrentSectionID = intPtr(*sel.CurrentSectionID)
	}
	return out
}

func sameSelection(a, b store.Selection) bool {
	return equalPtr(a.CurrentAccountID, b.CurrentAccountID) && equalPtr(a.CurrentSectionID, b.CurrentSectionID)
}
