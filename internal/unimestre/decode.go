package unimestre

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// envelope is the portal's response wrapper.
type envelope struct {
	Success bool            `json:"sucesso"`
	Result  json.RawMessage `json:"resultado,omitempty"`
}

// ErrNoResult is wrapped by LoginRejected failures when the portal reports
// failure or omits the result.
var ErrNoResult = errors.New("portal reported failure or returned no result")

// Decode validates and decodes a raw portal response into a Snapshot.
//
// Failures are *Error values of kind LoginRejected or MalformedPayload. On
// success the snapshot is canonicalized: support subjects by name descending,
// materials by date descending, both stable.
func Decode(raw []byte) (*Snapshot, error) {
	envSchema, snapSchema, err := schemas()
	if err != nil {
		return nil, Malformed(fmt.Errorf("load schema: %w", err))
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, Malformed(fmt.Errorf("invalid JSON: %w", err))
	}
	if err := envSchema.Validate(parsed); err != nil {
		return nil, Malformed(fmt.Errorf("envelope: %w", err))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, Malformed(fmt.Errorf("envelope: %w", err))
	}
	result := bytes.TrimSpace(env.Result)
	if !env.Success || len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, Rejected(ErrNoResult)
	}

	resultParsed := parsed.(map[string]any)["resultado"]
	if err := snapSchema.Validate(resultParsed); err != nil {
		return nil, Malformed(fmt.Errorf("resultado: %w", err))
	}

	var snap Snapshot
	if err := json.Unmarshal(result, &snap); err != nil {
		return nil, Malformed(fmt.Errorf("resultado: %w", err))
	}
	if len(snap.People) == 0 {
		return nil, Malformed(errors.New("resultado: pessoas is empty"))
	}

	if err := canonicalize(&snap); err != nil {
		return nil, Malformed(err)
	}
	return &snap, nil
}

// Encode renders a snapshot as a successful portal envelope.
func Encode(snap *Snapshot) ([]byte, error) {
	result, err := json.Marshal(nonNil(*snap))
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return json.Marshal(envelope{Success: true, Result: result})
}

// canonicalize applies the ordering every view relies on.
func canonicalize(snap *Snapshot) error {
	slices.SortStableFunc(snap.SupportSubjects, func(a, b SupportSubject) int {
		return strings.Compare(b.SubjectName, a.SubjectName)
	})

	type dated struct {
		m Material
		t time.Time
	}
	ds := make([]dated, len(snap.Materials))
	for i, m := range snap.Materials {
		t, err := m.ParsedDate()
		if err != nil {
			return fmt.Errorf("material %d: %w", m.ID, err)
		}
		ds[i] = dated{m: m, t: t}
	}
	slices.SortStableFunc(ds, func(a, b dated) int {
		return b.t.Compare(a.t)
	})
	for i := range ds {
		snap.Materials[i] = ds[i].m
	}
	return nil
}

// nonNil replaces nil collections with empty ones so the encoded form always
// satisfies the schema.
func nonNil(s Snapshot) Snapshot {
	if s.People == nil {
		s.People = []Person{}
	}
	if s.Sections == nil {
		s.Sections = []Section{}
	}
	if s.Enrollments == nil {
		s.Enrollments = []Enrollment{}
	}
	if s.GradeStages == nil {
		s.GradeStages = []GradeStage{}
	}
	if s.GradeEntries == nil {
		s.GradeEntries = []GradeEntry{}
	}
	if s.SupportSubjects == nil {
		s.SupportSubjects = []SupportSubject{}
	}
	if s.Materials == nil {
		s.Materials = []Material{}
	}
	if s.MaterialFiles == nil {
		s.MaterialFiles = []MaterialFile{}
	}
	return s
}
