package materials

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/neomestre/neomestre/internal/query"
	"github.com/neomestre/neomestre/internal/router"
	"github.com/neomestre/neomestre/internal/screen"
	"github.com/neomestre/neomestre/internal/ui/components"
	"github.com/neomestre/neomestre/internal/ui/layout"
	"github.com/neomestre/neomestre/internal/ui/theme"
	"github.com/neomestre/neomestre/internal/unimestre"
)

// MaterialsScreen lists the current section's support materials with subject,
// same-day and title filters.
type MaterialsScreen struct {
	q        query.Query
	subjects []unimestre.SupportSubject
	subject  int // index into subjects; -1 means all
	filter   query.MaterialFilter
	search   components.SearchInput
	items    []unimestre.Material
	cursor   int
}

var (
	_ screen.Screen          = (*MaterialsScreen)(nil)
	_ screen.InputCapturer   = (*MaterialsScreen)(nil)
	_ screen.KeyHintProvider = (*MaterialsScreen)(nil)
)

// New creates a MaterialsScreen over a read-only view of the state.
func New(q query.Query) *MaterialsScreen {
	subjects, _ := q.CurrentSupportSubjects()
	m := &MaterialsScreen{
		q:        q,
		subjects: subjects,
		subject:  -1,
		search:   components.NewSearchInput("buscar por título", 60),
	}
	m.apply()
	return m
}

// apply recomputes the visible list and clamps the cursor.
func (m *MaterialsScreen) apply() {
	m.filter.Search = m.search.Value()
	m.items, _ = m.q.MaterialsFiltered(m.filter)
	if m.cursor >= len(m.items) {
		m.cursor = max(len(m.items)-1, 0)
	}
}

func (m *MaterialsScreen) Init() tea.Cmd {
	return nil
}

func (m *MaterialsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.search.Focused() {
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	if m.search.Focused() {
		switch kmsg.String() {
		case "enter":
			m.search.Blur()
		case "esc":
			m.search.Blur()
			m.search.Clear()
			m.apply()
		default:
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.apply()
			return m, cmd
		}
		return m, nil
	}

	switch kmsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "/":
		return m, m.search.Focus()
	case "s":
		m.cycleSubject()
		m.apply()
	case "d":
		m.toggleDay()
		m.apply()
	case "c":
		m.subject = -1
		m.filter = query.MaterialFilter{}
		m.search.Clear()
		m.apply()
	case "enter":
		if sel, ok := m.Selected(); ok {
			files := NewFiles(m.q, sel)
			return m, func() tea.Msg {
				return router.PushScreenMsg{Screen: files}
			}
		}
	}
	return m, nil
}

// cycleSubject steps the subject filter through all subjects and back to
// none.
func (m *MaterialsScreen) cycleSubject() {
	m.subject++
	if m.subject >= len(m.subjects) {
		m.subject = -1
		m.filter.SubjectID = nil
		return
	}
	id := m.subjects[m.subject].SubjectID
	m.filter.SubjectID = &id
}

// toggleDay filters to the highlighted material's day, or clears the day
// filter if one is set.
func (m *MaterialsScreen) toggleDay() {
	if m.filter.OnDate != nil {
		m.filter.OnDate = nil
		return
	}
	sel, ok := m.Selected()
	if !ok {
		return
	}
	t, err := sel.ParsedDate()
	if err != nil {
		return
	}
	m.filter.OnDate = &t
}

// Selected returns the highlighted material.
func (m *MaterialsScreen) Selected() (unimestre.Material, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return unimestre.Material{}, false
	}
	return m.items[m.cursor], true
}

// Items returns the visible materials.
func (m *MaterialsScreen) Items() []unimestre.Material {
	return m.items
}

// CapturingInput keeps Esc inside the screen while the search box is open.
func (m *MaterialsScreen) CapturingInput() bool {
	return m.search.Focused()
}

func (m *MaterialsScreen) View(width, height int) string {
	var b strings.Builder

	if chips := m.renderFilters(); chips != "" {
		b.WriteString(chips)
		b.WriteString("\n")
	}
	if sv := m.search.View(); sv != "" {
		b.WriteString(sv)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if len(m.items) == 0 {
		msg := "Nenhum material de apoio nesta turma."
		if m.filter.Active() {
			msg = "Nenhum material encontrado com esses filtros."
		}
		b.WriteString(theme.Hint.Render(msg))
		return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
	}

	titleWidth := max(width-30, 20)
	for i, it := range m.items {
		files := len(m.q.FilesForMaterial(it))
		line := fmt.Sprintf("%-8s  %-*s  %s", it.FormattedDate(), titleWidth,
			layout.Truncate(it.Title, titleWidth), fileCount(files))
		if i == m.cursor {
			b.WriteString(theme.Selected.Render("▸ " + line))
		} else {
			b.WriteString(theme.Unselected.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m *MaterialsScreen) renderFilters() string {
	var chips []string
	if m.subject >= 0 {
		chips = append(chips, m.subjects[m.subject].DisplayName())
	}
	if m.filter.OnDate != nil {
		chips = append(chips, m.filter.OnDate.Format("02/01/06"))
	}
	if q := m.search.Value(); q != "" && !m.search.Focused() {
		chips = append(chips, fmt.Sprintf("%q", q))
	}
	if len(chips) == 0 {
		return ""
	}
	return lipgloss.NewStyle().Foreground(theme.Accent).Render("filtros: " + strings.Join(chips, " · "))
}

func fileCount(n int) string {
	switch n {
	case 0:
		return ""
	case 1:
		return "1 arquivo"
	default:
		return fmt.Sprintf("%d arquivos", n)
	}
}

func (m *MaterialsScreen) Title() string {
	return "Materiais de apoio"
}

func (m *MaterialsScreen) KeyHints() []layout.KeyHint {
	if m.search.Focused() {
		return []layout.KeyHint{
			{Key: "Enter", Description: "Aplicar"},
			{Key: "Esc", Description: "Limpar"},
		}
	}
	return []layout.KeyHint{
		{Key: "/", Description: "Buscar"},
		{Key: "s", Description: "Disciplina"},
		{Key: "d", Description: "Mesmo dia"},
		{Key: "c", Description: "Limpar"},
		{Key: "Enter", Description: "Arquivos"},
		{Key: "Esc", Description: "Voltar"},
	}
}
