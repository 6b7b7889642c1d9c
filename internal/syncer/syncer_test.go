package syncer

import (
	"context"
	"encoding/base64"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/neomestre/neomestre/internal/credentials"
	"github.com/neomestre/neomestre/internal/state"
	"github.com/neomestre/neomestre/internal/store"
	"github.com/neomestre/neomestre/internal/unimestre"
)

func newState(t *testing.T) *state.State {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st, err := state.Open(context.Background(), db)
	require.NoError(t, err)
	return st
}

func body(t *testing.T, personID int, sections ...int) []byte {
	t.Helper()
	snap := &unimestre.Snapshot{People: []unimestre.Person{{ID: personID, Name: "Aluno"}}}
	for _, id := range sections {
		snap.Sections = append(snap.Sections, unimestre.Section{ID: id})
	}
	raw, err := unimestre.Encode(snap)
	require.NoError(t, err)
	return raw
}

func manual(t *testing.T) credentials.Payload {
	t.Helper()
	p, err := credentials.Manual("ana", "segredo", "77")
	require.NoError(t, err)
	return p
}

func TestLogin_FirstAccount(t *testing.T) {
	st := newState(t)
	mock := unimestre.NewMockTransport(unimestre.MockResponse{Body: body(t, 42, 1, 2, 3)})
	s := New(mock, st, zap.NewNop())

	out, err := s.Login(context.Background(), manual(t))
	require.NoError(t, err)
	assert.Equal(t, 42, out.AccountID)
	assert.True(t, out.Added)
	assert.False(t, out.Skipped)
	assert.NotEmpty(t, out.AttemptID)

	assert.Equal(t, 1, st.Count())
	sel := st.Selection()
	require.NotNil(t, sel.CurrentAccountID)
	require.NotNil(t, sel.CurrentSectionID)
	assert.Equal(t, 42, *sel.CurrentAccountID)
	assert.Equal(t, 3, *sel.CurrentSectionID)

	require.Len(t, mock.Calls, 1)
	assert.JSONEq(t, `{"ds_login":"ana","ds_senha":"segredo","cd_cliente":"77","ds_criptografia":"md5"}`, string(mock.Calls[0].Payload))
	assert.Equal(t, Succeeded, s.Status("login:77/ana"))
}

func TestLogin_ExistingAccountIsReplaced(t *testing.T) {
	st := newState(t)
	mock := unimestre.NewMockTransport(
		unimestre.MockResponse{Body: body(t, 42, 1)},
		unimestre.MockResponse{Body: body(t, 42, 1, 2)},
	)
	s := New(mock, st, zap.NewNop())

	_, err := s.Login(context.Background(), manual(t))
	require.NoError(t, err)
	out, err := s.Login(context.Background(), manual(t))
	require.NoError(t, err)
	assert.False(t, out.Added)
	assert.Equal(t, 1, st.Count())
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		resp     unimestre.MockResponse
		wantKind unimestre.Kind
	}{
		{"rejected", unimestre.MockResponse{Body: []byte(`{"sucesso":false}`)}, unimestre.LoginRejected},
		{"malformed", unimestre.MockResponse{Body: []byte(`{"sucesso":true,"resultado":{}}`)}, unimestre.MalformedPayload},
		{"offline", unimestre.MockResponse{Err: unimestre.TransportFailure(errors.New("no route"))}, unimestre.TransportError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := newState(t)
			s := New(unimestre.NewMockTransport(tt.resp), st, nil)

			out, err := s.Login(context.Background(), manual(t))
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Equal(t, tt.wantKind, unimestre.KindOf(err))

			var uerr *unimestre.Error
			require.True(t, errors.As(err, &uerr))
			assert.Equal(t, unimestre.MethodManual, uerr.Method)

			assert.Equal(t, 0, st.Count(), "failed login leaves the store untouched")
			assert.Equal(t, Failed, s.Status("login:77/ana"))
		})
	}
}

func TestLoginWithQR(t *testing.T) {
	st := newState(t)
	mock := unimestre.NewMockTransport(unimestre.MockResponse{Body: body(t, 7, 70)})
	s := New(mock, st, zap.NewNop())

	doc := `{"ds_login":"bia","ds_senha":"x","cd_cliente":"3"}`
	out, err := s.LoginWithQR(context.Background(), base64.StdEncoding.EncodeToString([]byte(doc)))
	require.NoError(t, err)
	assert.Equal(t, 7, out.AccountID)
	assert.Equal(t, doc, string(mock.Calls[0].Payload))
}

func TestLoginWithQR_RejectedMessageIsQRSpecific(t *testing.T) {
	st := newState(t)
	mock := unimestre.NewMockTransport(unimestre.MockResponse{Body: []byte(`{"sucesso":false}`)})
	s := New(mock, st, zap.NewNop())

	doc := `{"ds_login":"bia","ds_senha":"x","cd_cliente":"3"}`
	_, err := s.LoginWithQR(context.Background(), base64.StdEncoding.EncodeToString([]byte(doc)))
	require.Error(t, err)

	var uerr *unimestre.Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, unimestre.LoginRejected, uerr.Kind)
	assert.Contains(t, uerr.Message(), "QR code")
}

func TestLoginWithQR_BadCodeNeverCallsNetwork(t *testing.T) {
	for _, code := range []string{
		"not base64!!",
		base64.StdEncoding.EncodeToString([]byte(`{"ds_login":"a"}`)),
		"",
	} {
		st := newState(t)
		mock := unimestre.NewMockTransport()
		s := New(mock, st, zap.NewNop())

		_, err := s.LoginWithQR(context.Background(), code)
		require.Error(t, err)
		assert.True(t, unimestre.IsMalformed(err) || unimestre.IsCodeRead(err), "got %v", err)
		assert.Equal(t, 0, mock.CallCount())
		assert.Equal(t, 0, st.Count())
	}
}

func TestRefresh_ReplacesAndRepairs(t *testing.T) {
	st := newState(t)
	mock := unimestre.NewMockTransport(
		unimestre.MockResponse{Body: body(t, 42, 1, 2)},
		unimestre.MockResponse{Body: body(t, 42, 2, 3)},
	)
	s := New(mock, st, zap.NewNop())
	ctx := context.Background()

	_, err := s.Login(ctx, manual(t))
	require.NoError(t, err)
	ok, err := st.SelectSection(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	out, err := s.Refresh(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 42, out.AccountID)
	assert.Equal(t, 42, mock.Calls[1].PersonID)

	sel := st.Selection()
	assert.Equal(t, 42, *sel.CurrentAccountID)
	assert.Equal(t, 3, *sel.CurrentSectionID, "vanished section is repaired to the last one")
	assert.Equal(t, Succeeded, s.Status(AccountKey(42)))
}

func TestRefresh_KeepsValidSelection(t *testing.T) {
	st := newState(t)
	mock := unimestre.NewMockTransport(
		unimestre.MockResponse{Body: body(t, 42, 1, 2)},
		unimestre.MockResponse{Body: body(t, 42, 1, 2, 3)},
	)
	s := New(mock, st, zap.NewNop())
	ctx := context.Background()

	_, err := s.Login(ctx, manual(t))
	require.NoError(t, err)
	_, err = s.Refresh(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, *st.Selection().CurrentSectionID)
}

func TestRefresh_IdentityMismatch(t *testing.T) {
	st := newState(t)
	mock := unimestre.NewMockTransport(
		unimestre.MockResponse{Body: body(t, 42, 1)},
		unimestre.MockResponse{Body: body(t, 43, 1)},
	)
	s := New(mock, st, zap.NewNop())
	ctx := context.Background()

	_, err := s.Login(ctx, manual(t))
	require.NoError(t, err)

	_, err = s.Refresh(ctx, 42)
	require.Error(t, err)
	assert.True(t, unimestre.IsMalformed(err))
	assert.Equal(t, 1, st.Count())
	assert.Equal(t, Failed, s.Status(AccountKey(42)))
}

func TestRefresh_UnknownAccount(t *testing.T) {
	mock := unimestre.NewMockTransport()
	s := New(mock, newState(t), zap.NewNop())

	_, err := s.Refresh(context.Background(), 5)
	assert.ErrorIs(t, err, state.ErrAccountNotFound)
	assert.Equal(t, 0, mock.CallCount())
}

func TestRefresh_InFlightIsSkipped(t *testing.T) {
	st := newState(t)
	mock := unimestre.NewMockTransport(
		unimestre.MockResponse{Body: body(t, 42, 1)},
		unimestre.MockResponse{Body: body(t, 42, 1)},
	)
	s := New(mock, st, zap.NewNop())
	ctx := context.Background()

	_, err := s.Login(ctx, manual(t))
	require.NoError(t, err)

	gate := make(chan struct{})
	mock.Gate = gate

	done := make(chan error, 1)
	go func() {
		_, err := s.Refresh(ctx, 42)
		done <- err
	}()

	require.Eventually(t, func() bool {
		return s.Status(AccountKey(42)) == InFlight && mock.CallCount() == 2
	}, 2*time.Second, 5*time.Millisecond)

	out, err := s.Refresh(ctx, 42)
	require.NoError(t, err)
	assert.True(t, out.Skipped)
	assert.Equal(t, 2, mock.CallCount(), "skipped refresh makes no request")

	close(gate)
	require.NoError(t, <-done)
	assert.Equal(t, Succeeded, s.Status(AccountKey(42)))
}

func TestRefresh_AccountRemovedWhileInFlight(t *testing.T) {
	st := newState(t)
	mock := unimestre.NewMockTransport(
		unimestre.MockResponse{Body: body(t, 42, 1)},
		unimestre.MockResponse{Body: body(t, 7, 1)},
		unimestre.MockResponse{Body: body(t, 42, 1, 2)},
	)
	s := New(mock, st, zap.NewNop())
	ctx := context.Background()

	_, err := s.Login(ctx, manual(t))
	require.NoError(t, err)
	p, err := credentials.Manual("bia", "segredo", "77")
	require.NoError(t, err)
	_, err = s.Login(ctx, p)
	require.NoError(t, err)

	gate := make(chan struct{})
	mock.Gate = gate

	done := make(chan error, 1)
	go func() {
		_, err := s.Refresh(ctx, 42)
		done <- err
	}()
	require.Eventually(t, func() bool { return mock.CallCount() == 3 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, st.Remove(ctx, 42))
	require.Equal(t, 1, st.Count())

	close(gate)
	err = <-done
	assert.ErrorIs(t, err, state.ErrAccountNotFound)

	var ids []int
	for _, a := range st.Accounts() {
		ids = append(ids, a.AccountID())
	}
	assert.Equal(t, []int{7}, ids, "a removed account must not come back")
	assert.Equal(t, Failed, s.Status(AccountKey(42)))
}

func TestStatusDefaultsToIdle(t *testing.T) {
	s := New(unimestre.NewMockTransport(), newState(t), nil)
	assert.Equal(t, Idle, s.Status(AccountKey(1)))
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "in_flight", InFlight.String())
}
