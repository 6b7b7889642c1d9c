// Package query derives everything the views show from the cached accounts
// and the current selection. All lookups are total: missing data is reported
// with a false ok value, never a panic or an error.
package query

import (
	"slices"
	"time"

	"github.com/neomestre/neomestre/internal/store"
	"github.com/neomestre/neomestre/internal/unimestre"
)

// Query is a read-only view over a set of accounts and a selection.
// It is a value; building one does not copy the snapshots.
type Query struct {
	accounts []unimestre.Snapshot
	sel      store.Selection
	loc      *time.Location
}

// New returns a Query over accounts (in login order) and sel. sel must
// already be repaired against accounts (state.Query does this); a dangling
// selection is not corrected here and reads as absent.
func New(accounts []unimestre.Snapshot, sel store.Selection) Query {
	return Query{accounts: accounts, sel: sel, loc: time.Local}
}

// In returns a copy of q whose date filter uses the calendar of loc.
func (q Query) In(loc *time.Location) Query {
	if loc == nil {
		loc = time.Local
	}
	q.loc = loc
	return q
}

// Selection returns the selection the query was built with.
func (q Query) Selection() store.Selection {
	return q.sel
}

// Accounts returns every account in login order.
func (q Query) Accounts() []unimestre.Snapshot {
	return q.accounts
}

// Account returns the account with the given identity.
func (q Query) Account(id int) (unimestre.Snapshot, bool) {
	for _, a := range q.accounts {
		if a.AccountID() == id {
			return a, true
		}
	}
	return unimestre.Snapshot{}, false
}

func (q Query) CurrentAccount() (unimestre.Snapshot, bool) {
	if q.sel.CurrentAccountID == nil {
		return unimestre.Snapshot{}, false
	}
	return q.Account(*q.sel.CurrentAccountID)
}

// Person returns the owner of the current account.
func (q Query) Person() (unimestre.Person, bool) {
	acct, ok := q.CurrentAccount()
	if !ok {
		return unimestre.Person{}, false
	}
	return acct.Self(), true
}

// Sections returns the current account's sections in listed order.
func (q Query) Sections() []unimestre.Section {
	acct, ok := q.CurrentAccount()
	if !ok {
		return nil
	}
	return acct.Sections
}

func (q Query) CurrentSection() (unimestre.Section, bool) {
	acct, ok := q.CurrentAccount()
	if !ok || q.sel.CurrentSectionID == nil {
		return unimestre.Section{}, false
	}
	return acct.Section(*q.sel.CurrentSectionID)
}

// CurrentEnrollment returns the enrollment linked to the current section.
func (q Query) CurrentEnrollment() (unimestre.Enrollment, bool) {
	acct, sec, ok := q.current()
	if !ok {
		return unimestre.Enrollment{}, false
	}
	for _, e := range acct.Enrollments {
		if e.SectionID == sec.ID {
			return e, true
		}
	}
	return unimestre.Enrollment{}, false
}

// CurrentGradeStages returns the grading periods of the current enrollment
// ordered by Order. Stages with equal Order keep their listed order.
func (q Query) CurrentGradeStages() ([]unimestre.GradeStage, bool) {
	enr, ok := q.CurrentEnrollment()
	if !ok {
		return nil, false
	}
	acct, _ := q.CurrentAccount()

	var stages []unimestre.GradeStage
	for _, s := range acct.GradeStages {
		if s.EnrollmentID == enr.ID {
			stages = append(stages, s)
		}
	}
	slices.SortStableFunc(stages, func(a, b unimestre.GradeStage) int {
		return a.Order - b.Order
	})
	return stages, true
}

// GradeEntriesForStage returns the current section's grades for stage.
func (q Query) GradeEntriesForStage(stage unimestre.GradeStage) []unimestre.GradeEntry {
	acct, sec, ok := q.current()
	if !ok {
		return nil
	}
	var entries []unimestre.GradeEntry
	for _, e := range acct.GradeEntries {
		if e.SectionID.Int() == sec.ID && e.StageNumber.Int() == stage.Order {
			entries = append(entries, e)
		}
	}
	return entries
}

// CurrentSupportSubjects returns the subjects with materials in the current
// section, in decoded order (name descending).
func (q Query) CurrentSupportSubjects() ([]unimestre.SupportSubject, bool) {
	acct, sec, ok := q.current()
	if !ok {
		return nil, false
	}
	var subjects []unimestre.SupportSubject
	for _, s := range acct.SupportSubjects {
		if s.SectionID == sec.ID {
			subjects = append(subjects, s)
		}
	}
	return subjects, true
}

// CurrentMaterials returns the current section's materials, newest first.
func (q Query) CurrentMaterials() ([]unimestre.Material, bool) {
	acct, sec, ok := q.current()
	if !ok {
		return nil, false
	}
	var materials []unimestre.Material
	for _, m := range acct.Materials {
		if m.SectionID == sec.ID {
			materials = append(materials, m)
		}
	}
	return materials, true
}

// MaterialFilter narrows CurrentMaterials. Zero fields do not filter.
type MaterialFilter struct {
	SubjectID *int
	OnDate    *time.Time
	Search    string
}

// Active reports whether any filter is set.
func (f MaterialFilter) Active() bool {
	return f.SubjectID != nil || f.OnDate != nil || f.Search != ""
}

// MaterialsFiltered applies f to CurrentMaterials: subject, then calendar
// day, then title search. The search text is used as typed, spaces
// included. The result keeps the CurrentMaterials order.
func (q Query) MaterialsFiltered(f MaterialFilter) ([]unimestre.Material, bool) {
	materials, ok := q.CurrentMaterials()
	if !ok {
		return nil, false
	}

	if f.SubjectID != nil {
		materials = slices.DeleteFunc(materials, func(m unimestre.Material) bool {
			return m.SubjectID != *f.SubjectID
		})
	}

	if f.OnDate != nil {
		y, mo, d := f.OnDate.In(q.loc).Date()
		materials = slices.DeleteFunc(materials, func(m unimestre.Material) bool {
			t, err := m.ParsedDate()
			if err != nil {
				return true
			}
			ty, tmo, td := t.In(q.loc).Date()
			return ty != y || tmo != mo || td != d
		})
	}

	if f.Search != "" {
		materials = slices.DeleteFunc(materials, func(m unimestre.Material) bool {
			return !containsFolded(m.Title, f.Search)
		})
	}
	return materials, true
}

// FilesForMaterial returns the files attached to m in the current account.
func (q Query) FilesForMaterial(m unimestre.Material) []unimestre.MaterialFile {
	acct, ok := q.CurrentAccount()
	if !ok {
		return nil
	}
	var files []unimestre.MaterialFile
	for _, f := range acct.MaterialFiles {
		if f.MaterialID == m.ID {
			files = append(files, f)
		}
	}
	return files
}

// MaterialByID finds a material of the current account by id.
func (q Query) MaterialByID(id int) (unimestre.Material, bool) {
	acct, ok := q.CurrentAccount()
	if !ok {
		return unimestre.Material{}, false
	}
	for _, m := range acct.Materials {
		if m.ID == id {
			return m, true
		}
	}
	return unimestre.Material{}, false
}

// SubjectByID returns the first support subject of the current account with
// the given subject id.
func (q Query) SubjectByID(subjectID int) (unimestre.SupportSubject, bool) {
	acct, ok := q.CurrentAccount()
	if !ok {
		return unimestre.SupportSubject{}, false
	}
	for _, s := range acct.SupportSubjects {
		if s.SubjectID == subjectID {
			return s, true
		}
	}
	return unimestre.SupportSubject{}, false
}

// MaterialsForSubject returns every material of the current account posted
// for subject, across all sections.
func (q Query) MaterialsForSubject(subject unimestre.SupportSubject) []unimestre.Material {
	acct, ok := q.CurrentAccount()
	if !ok {
		return nil
	}
	var materials []unimestre.Material
	for _, m := range acct.Materials {
		if m.SubjectID == subject.SubjectID {
			materials = append(materials, m)
		}
	}
	return materials
}

func (q Query) current() (unimestre.Snapshot, unimestre.Section, bool) {
	acct, ok := q.CurrentAccount()
	if !ok {
		return unimestre.Snapshot{}, unimestre.Section{}, false
	}
	sec, ok := q.CurrentSection()
	if !ok {
		return unimestre.Snapshot{}, unimestre.Section{}, false
	}
	return acct, sec, true
}
