// Package syncer runs the login and refresh exchanges with the portal and
// merges their results into the local state.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/neomestre/neomestre/internal/credentials"
	"github.com/neomestre/neomestre/internal/state"
	"github.com/neomestre/neomestre/internal/unimestre"
)

// Status is the state of the latest attempt for a key.
type Status int

const (
	Idle Status = iota
	InFlight
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Outcome describes a finished attempt.
type Outcome struct {
	AttemptID string
	AccountID int
	Name      string

	// Added is true when the login created a new account.
	Added bool

	// Skipped is true when another attempt for the same key was in flight
	// and nothing was done.
	Skipped bool
}

// Syncer coordinates portal requests with the local state. At most one
// attempt per key runs at a time.
type Syncer struct {
	transport unimestre.Transport
	state     *state.State
	logger    *zap.Logger

	mu     sync.Mutex
	status map[string]Status
}

// New creates a Syncer.
func New(t unimestre.Transport, st *state.State, logger *zap.Logger) *Syncer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		transport: t,
		state:     st,
		logger:    logger.Named("syncer"),
		status:    make(map[string]Status),
	}
}

// AccountKey is the attempt key for refreshing an account.
func AccountKey(accountID int) string {
	return "account:" + strconv.Itoa(accountID)
}

// Status returns the state of the latest attempt for key.
func (s *Syncer) Status(key string) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status[key]
}

// begin marks key in flight. It returns false if it already was.
func (s *Syncer) begin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status[key] == InFlight {
		return false
	}
	s.status[key] = InFlight
	return true
}

func (s *Syncer) finish(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status[key] = Failed
		return
	}
	s.status[key] = Succeeded
}

// Login authenticates with p and stores the returned account. The first
// account ever stored becomes the current one.
func (s *Syncer) Login(ctx context.Context, p credentials.Payload) (*Outcome, error) {
	key := p.Key()
	return s.run(key, func(log *zap.Logger) (*Outcome, error) {
		body, err := p.JSON()
		if err != nil {
			return nil, unimestre.Malformed(fmt.Errorf("encode credentials: %w", err)).WithMethod(p.Method)
		}

		raw, err := s.transport.Login(ctx, body)
		if err != nil {
			return nil, withMethod(err, p.Method)
		}
		snap, err := unimestre.Decode(raw)
		if err != nil {
			return nil, withMethod(err, p.Method)
		}

		added, err := s.state.Upsert(ctx, *snap)
		if err != nil {
			return nil, err
		}
		log.Info("login stored", zap.Int("account_id", snap.AccountID()), zap.Bool("added", added))
		return &Outcome{AccountID: snap.AccountID(), Name: snap.Self().Name, Added: added}, nil
	})
}

// LoginWithQR decodes a scanned QR code and logs in with it. An unreadable
// code fails before any request is made.
func (s *Syncer) LoginWithQR(ctx context.Context, code string) (*Outcome, error) {
	p, err := credentials.DecodeQR(code)
	if err != nil {
		s.logger.Debug("qr code rejected", zap.Error(err))
		return nil, err
	}
	return s.Login(ctx, p)
}

// Refresh fetches a fresh snapshot for a cached account and replaces it.
// The selection is only changed if the selected section disappeared.
func (s *Syncer) Refresh(ctx context.Context, accountID int) (*Outcome, error) {
	if _, ok := s.state.Account(accountID); !ok {
		return nil, fmt.Errorf("refresh %d: %w", accountID, state.ErrAccountNotFound)
	}

	return s.run(AccountKey(accountID), func(log *zap.Logger) (*Outcome, error) {
		raw, err := s.transport.Sync(ctx, accountID)
		if err != nil {
			return nil, err
		}
		snap, err := unimestre.Decode(raw)
		if err != nil {
			return nil, err
		}
		if got := snap.AccountID(); got != accountID {
			return nil, unimestre.Malformed(fmt.Errorf("refresh of account %d returned account %d", accountID, got))
		}

		if err := s.state.Replace(ctx, *snap); err != nil {
			return nil, err
		}
		log.Info("account refreshed", zap.Int("account_id", accountID))
		return &Outcome{AccountID: accountID, Name: snap.Self().Name}, nil
	})
}

// run executes fn under the in-flight gate for key.
func (s *Syncer) run(key string, fn func(log *zap.Logger) (*Outcome, error)) (*Outcome, error) {
	if !s.begin(key) {
		s.logger.Debug("attempt already in flight", zap.String("key", key))
		return &Outcome{Skipped: true}, nil
	}

	id := uuid.NewString()
	log := s.logger.With(zap.String("attempt_id", id), zap.String("key", key))
	start := time.Now()
	log.Debug("attempt started")

	out, err := fn(log)
	s.finish(key, err)
	if err != nil {
		log.Warn("attempt failed",
			zap.Stringer("kind", unimestre.KindOf(err)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return nil, err
	}
	out.AttemptID = id
	return out, nil
}

// withMethod tags portal failures with the credential method so the message
// matches how the user logged in.
func withMethod(err error, m unimestre.Method) error {
	var uerr *unimestre.Error
	if errors.As(err, &uerr) {
		return uerr.WithMethod(m)
	}
	return unimestre.TransportFailure(err).WithMethod(m)
}
