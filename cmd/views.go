package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/neomestre/neomestre/internal/query"
	"github.com/neomestre/neomestre/internal/unimestre"
)

// Structured output types for json and yaml. Text output renders the same
// values as padded tables.

type accountView struct {
	ID       int    `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Sections int    `json:"sections" yaml:"sections"`
	Current  bool   `json:"current" yaml:"current"`
}

type sectionView struct {
	ID          int    `json:"id" yaml:"id"`
	Key         string `json:"key" yaml:"key"`
	Term        string `json:"term" yaml:"term"`
	Description string `json:"description" yaml:"description"`
	Current     bool   `json:"current" yaml:"current"`
}

type gradeView struct {
	SubjectID    int      `json:"subject_id" yaml:"subject_id"`
	Subject      string   `json:"subject" yaml:"subject"`
	Score        *string  `json:"score" yaml:"score"`
	FinalAverage *float64 `json:"final_average" yaml:"final_average"`
	Status       *string  `json:"status" yaml:"status"`
	HasExam      bool     `json:"has_exam" yaml:"has_exam"`
}

type stageView struct {
	ID     int         `json:"id" yaml:"id"`
	Label  string      `json:"label" yaml:"label"`
	Short  string      `json:"short" yaml:"short"`
	Order  int         `json:"order" yaml:"order"`
	Grades []gradeView `json:"grades" yaml:"grades"`
}

type materialView struct {
	ID          int     `json:"id" yaml:"id"`
	SubjectID   int     `json:"subject_id" yaml:"subject_id"`
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Date        string  `json:"date" yaml:"date"`
	Link        *string `json:"link" yaml:"link"`
	Files       int     `json:"files" yaml:"files"`
}

type fileView struct {
	ID   int    `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

type subjectView struct {
	ID        int    `json:"id" yaml:"id"`
	Name      string `json:"name" yaml:"name"`
	Materials int    `json:"materials" yaml:"materials"`
}

type syncView struct {
	AccountID int    `json:"account_id" yaml:"account_id"`
	Name      string `json:"name" yaml:"name"`
	Added     bool   `json:"added" yaml:"added"`
	Skipped   bool   `json:"skipped" yaml:"skipped"`
}

func accountViews(q query.Query) []accountView {
	sel := q.Selection()
	views := make([]accountView, 0, len(q.Accounts()))
	for _, a := range q.Accounts() {
		views = append(views, accountView{
			ID:       a.AccountID(),
			Name:     a.Self().Name,
			Sections: len(a.Sections),
			Current:  sel.CurrentAccountID != nil && *sel.CurrentAccountID == a.AccountID(),
		})
	}
	return views
}

func sectionViews(q query.Query) []sectionView {
	cur, _ := q.CurrentSection()
	views := make([]sectionView, 0)
	for _, s := range q.Sections() {
		views = append(views, sectionView{
			ID:          s.ID,
			Key:         s.Key,
			Term:        s.Term,
			Description: s.Description,
			Current:     s.ID == cur.ID,
		})
	}
	return views
}

func stageViews(q query.Query, stages []unimestre.GradeStage) []stageView {
	views := make([]stageView, 0, len(stages))
	for _, st := range stages {
		grades := make([]gradeView, 0)
		for _, e := range q.GradeEntriesForStage(st) {
			grades = append(grades, gradeView{
				SubjectID:    e.SubjectID.Int(),
				Subject:      e.SubjectName,
				Score:        e.Score,
				FinalAverage: e.FinalAverage,
				Status:       e.Status,
				HasExam:      e.HasExam,
			})
		}
		views = append(views, stageView{
			ID:     st.ID,
			Label:  st.Description,
			Short:  st.ShortLabel,
			Order:  st.Order,
			Grades: grades,
		})
	}
	return views
}

func materialViews(q query.Query, materials []unimestre.Material) []materialView {
	views := make([]materialView, 0, len(materials))
	for _, m := range materials {
		views = append(views, materialView{
			ID:          m.ID,
			SubjectID:   m.SubjectID,
			Title:       m.Title,
			Description: m.Description,
			Date:        m.FormattedDate(),
			Link:        m.Link,
			Files:       len(q.FilesForMaterial(m)),
		})
	}
	return views
}

// marker renders the current-row indicator.
func marker(current bool) string {
	if current {
		return "*"
	}
	return " "
}

// orDash renders optional text.
func orDash(s *string) string {
	if s == nil || *s == "" {
		return "-"
	}
	return *s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func rule(w io.Writer, n int) {
	fmt.Fprintln(w, strings.Repeat("─", n))
}
