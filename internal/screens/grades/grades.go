package grades

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/neomestre/neomestre/internal/query"
	"github.com/neomestre/neomestre/internal/screen"
	"github.com/neomestre/neomestre/internal/ui/layout"
	"github.com/neomestre/neomestre/internal/ui/theme"
	"github.com/neomestre/neomestre/internal/unimestre"
)

// GradesScreen shows the current section's grades with one tab per grading
// stage.
type GradesScreen struct {
	q      query.Query
	stages []unimestre.GradeStage
	tab    int
}

var _ screen.Screen = (*GradesScreen)(nil)

// New creates a GradesScreen over a read-only view of the state.
func New(q query.Query) *GradesScreen {
	stages, _ := q.CurrentGradeStages()
	return &GradesScreen{q: q, stages: stages}
}

func (g *GradesScreen) Init() tea.Cmd {
	return nil
}

func (g *GradesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return g, nil
	}
	switch kmsg.String() {
	case "left", "h", "shift+tab":
		if g.tab > 0 {
			g.tab--
		}
	case "right", "l", "tab":
		if g.tab < len(g.stages)-1 {
			g.tab++
		}
	}
	return g, nil
}

// Stage returns the stage whose tab is active.
func (g *GradesScreen) Stage() (unimestre.GradeStage, bool) {
	if len(g.stages) == 0 {
		return unimestre.GradeStage{}, false
	}
	return g.stages[g.tab], true
}

func (g *GradesScreen) View(width, height int) string {
	if len(g.stages) == 0 {
		return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center,
			theme.Hint.Render("Nenhuma etapa cadastrada para esta turma."))
	}

	var b strings.Builder
	b.WriteString(g.renderTabs())
	b.WriteString("\n\n")

	stage := g.stages[g.tab]
	b.WriteString(theme.Body.Bold(true).Render(stage.Description))
	b.WriteString("\n\n")

	entries := g.q.GradeEntriesForStage(stage)
	if len(entries) == 0 {
		b.WriteString(theme.Hint.Render("Sem notas lançadas nesta etapa."))
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	nameWidth := max(width-40, 16)
	header := fmt.Sprintf("%-*s  %-6s  %-6s  %s", nameWidth, "DISCIPLINA", "NOTA", "MÉDIA", "SITUAÇÃO")
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(header))
	b.WriteString("\n")
	for _, e := range entries {
		score := "-"
		if e.Score != nil && *e.Score != "" {
			score = *e.Score
		}
		row := fmt.Sprintf("%-*s  %-6s  %-6s  ", nameWidth,
			layout.Truncate(e.SubjectName, nameWidth), score, unimestre.FormatAverage(e.FinalAverage))
		b.WriteString(theme.Body.Render(row))
		b.WriteString(renderStatus(e))
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (g *GradesScreen) renderTabs() string {
	tabs := make([]string, 0, len(g.stages))
	for i, st := range g.stages {
		label := st.ShortLabel
		if label == "" {
			label = st.Description
		}
		if i == g.tab {
			tabs = append(tabs, theme.TabActive.Render(label))
		} else {
			tabs = append(tabs, theme.Tab.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderStatus colors the situation text. Exam entries are flagged.
func renderStatus(e unimestre.GradeEntry) string {
	var s string
	switch {
	case e.Status == nil || *e.Status == "":
		s = theme.Pending.Render("-")
	case strings.HasPrefix(strings.ToLower(*e.Status), "aprov"):
		s = theme.Approved.Render(*e.Status)
	case strings.HasPrefix(strings.ToLower(*e.Status), "reprov"):
		s = theme.Failed.Render(*e.Status)
	default:
		s = theme.Body.Render(*e.Status)
	}
	if e.HasExam {
		s += theme.Hint.Render(" · exame")
	}
	return s
}

func (g *GradesScreen) Title() string {
	return "Notas"
}

func (g *GradesScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "←→", Description: "Etapa"},
		{Key: "Esc", Description: "Voltar"},
	}
}
