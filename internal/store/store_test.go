package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/neomestre/neomestre/internal/unimestre"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func intPtr(v int) *int { return &v }

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
		{"user_version", "1"},
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestLoadEmpty(t *testing.T) {
	s := openTestStore(t)

	d, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Accounts) != 0 {
		t.Errorf("accounts = %d, want 0", len(d.Accounts))
	}
	if d.Preferences.CurrentAccountID != nil || d.Preferences.Biometrics {
		t.Errorf("preferences = %+v, want zero", d.Preferences)
	}
	if !d.UpdatedAt.IsZero() {
		t.Errorf("UpdatedAt = %v, want zero", d.UpdatedAt)
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := openTestStore(t)
	fixed := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }
	ctx := context.Background()

	score := "9,5"
	accounts := []unimestre.Snapshot{
		{
			People:   []unimestre.Person{{ID: 10, Name: "Ana"}},
			Sections: []unimestre.Section{{ID: 1, Key: "A"}, {ID: 2, Key: "B"}},
			GradeEntries: []unimestre.GradeEntry{
				{SubjectID: 3, SubjectName: "FÍSICA", Score: &score, SectionID: 2, StageNumber: 1},
			},
		},
		{People: []unimestre.Person{{ID: 20, Name: "Bruno"}}},
	}
	prefs := Preferences{
		Selection: Selection{CurrentAccountID: intPtr(10), CurrentSectionID: intPtr(2)},
		Settings:  Settings{Biometrics: true},
	}

	if err := s.Save(ctx, accounts, prefs); err != nil {
		t.Fatalf("Save: %v", err)
	}

	d, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Accounts) != 2 {
		t.Fatalf("accounts = %d, want 2", len(d.Accounts))
	}
	if d.Accounts[0].AccountID() != 10 || d.Accounts[1].AccountID() != 20 {
		t.Errorf("account order = %d,%d, want 10,20", d.Accounts[0].AccountID(), d.Accounts[1].AccountID())
	}
	e := d.Accounts[0].GradeEntries[0]
	if e.Score == nil || *e.Score != "9,5" || e.SectionID != 2 {
		t.Errorf("grade entry = %+v", e)
	}
	if got := d.Preferences.CurrentAccountID; got == nil || *got != 10 {
		t.Errorf("CurrentAccountID = %v, want 10", got)
	}
	if got := d.Preferences.CurrentSectionID; got == nil || *got != 2 {
		t.Errorf("CurrentSectionID = %v, want 2", got)
	}
	if !d.Preferences.Biometrics {
		t.Error("Biometrics = false, want true")
	}
	if !d.UpdatedAt.Equal(fixed) {
		t.Errorf("UpdatedAt = %v, want %v", d.UpdatedAt, fixed)
	}
}

func TestSaveReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := []unimestre.Snapshot{{People: []unimestre.Person{{ID: 1}}}}
	if err := s.Save(ctx, first, Preferences{Selection: Selection{CurrentAccountID: intPtr(1)}}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, nil, Preferences{}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	d, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Accounts) != 0 {
		t.Errorf("accounts = %d, want 0", len(d.Accounts))
	}
	if d.Preferences.CurrentAccountID != nil {
		t.Errorf("CurrentAccountID = %v, want nil", *d.Preferences.CurrentAccountID)
	}

	var n int
	if err := s.DB().Get(&n, "SELECT COUNT(*) FROM blobs"); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Errorf("blob rows = %d, want 2", n)
	}
}

func TestPreferencesWireShape(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	prefs := Preferences{Selection: Selection{CurrentAccountID: intPtr(7)}}
	if err := s.Save(ctx, nil, prefs); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var raw string
	if err := s.DB().Get(&raw, "SELECT data FROM blobs WHERE key = ?", keyPreferences); err != nil {
		t.Fatalf("select: %v", err)
	}
	want := `{"current_account_id":7,"current_section_id":null,"biometrics":false}`
	if raw != want {
		t.Errorf("preferences blob = %s, want %s", raw, want)
	}
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Save(ctx, []unimestre.Snapshot{{People: []unimestre.Person{{ID: 5}}}}, Preferences{}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	d, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(d.Accounts) != 1 || d.Accounts[0].AccountID() != 5 {
		t.Errorf("accounts = %+v", d.Accounts)
	}
}

func TestOpenRejectsNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.DB().Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set version: %v", err)
	}
	s.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("expected error for newer schema version")
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Run("env override", func(t *testing.T) {
		want := filepath.Join(dir, "custom", "db.sqlite")
		t.Setenv("NEOMESTRE_DB", want)
		got, err := DefaultDBPath()
		if err != nil {
			t.Fatalf("DefaultDBPath: %v", err)
		}
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("NEOMESTRE_DB", "")
		t.Setenv("XDG_DATA_HOME", dir)
		got, err := DefaultDBPath()
		if err != nil {
			t.Fatalf("DefaultDBPath: %v", err)
		}
		want := filepath.Join(dir, "neomestre", "neomestre.db")
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})
}
