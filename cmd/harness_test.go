package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/neomestre/neomestre/internal/state/statetest"
	"github.com/neomestre/neomestre/internal/unimestre"
)

// harness runs commands against one temporary database.
type harness struct {
	t      *testing.T
	dbPath string
	mock   *unimestre.MockTransport
}

func newHarness(t *testing.T, responses ...unimestre.MockResponse) *harness {
	t.Helper()
	// Keep the user's config file out of the test.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	return &harness{
		t:      t,
		dbPath: filepath.Join(t.TempDir(), "neomestre.db"),
		mock:   unimestre.NewMockTransport(responses...),
	}
}

// run executes args and returns stdout.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	root := NewRootCommand(WithTransport(h.mock))
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--db", h.dbPath}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// mustRun executes args and fails the test on error.
func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%v: %v", args, err)
	}
	return out
}

// loggedIn returns a harness whose database holds the fixture account.
func loggedIn(t *testing.T, responses ...unimestre.MockResponse) *harness {
	t.Helper()
	h := newHarness(t, unimestre.MockResponse{Body: statetest.SnapshotJSON})
	h.mustRun("login", "--user", "ana.souza", "--password", "s3cret", "--institution", "17")
	for _, r := range responses {
		h.mock.AddResponse(r)
	}
	return h
}

// assertGolden compares got against testdata/golden/<name>.golden.
func assertGolden(t *testing.T, name string, got []byte) {
	t.Helper()
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, got)
}
