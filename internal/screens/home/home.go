package home

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/neomestre/neomestre/internal/router"
	"github.com/neomestre/neomestre/internal/screen"
	"github.com/neomestre/neomestre/internal/screens/accounts"
	"github.com/neomestre/neomestre/internal/screens/grades"
	"github.com/neomestre/neomestre/internal/screens/materials"
	"github.com/neomestre/neomestre/internal/screens/placeholder"
	"github.com/neomestre/neomestre/internal/state"
	"github.com/neomestre/neomestre/internal/syncer"
	"github.com/neomestre/neomestre/internal/ui/components"
)

// HomeScreen greets the student with today's date, the current account and
// section, and the main menu.
type HomeScreen struct {
	state      *state.State
	syncer     *syncer.Syncer
	menu       components.Menu
	menuLabels []string
	now        func() time.Time
}

var _ screen.Screen = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(st *state.State, sy *syncer.Syncer) *HomeScreen {
	h := &HomeScreen{
		state:      st,
		syncer:     sy,
		menuLabels: []string{"NOTAS", "MATERIAIS", "CONTAS", "SAIR"},
		now:        time.Now,
	}

	items := []components.MenuItem{
		{Label: h.menuLabels[0], Shortcut: "n", Action: func() tea.Cmd { return push(h.gradesScreen()) }},
		{Label: h.menuLabels[1], Shortcut: "m", Action: func() tea.Cmd { return push(h.materialsScreen()) }},
		{Label: h.menuLabels[2], Shortcut: "c", Action: func() tea.Cmd { return push(accounts.New(h.state, h.syncer)) }},
		{Label: h.menuLabels[3], Shortcut: "q", Action: func() tea.Cmd { return tea.Quit }},
	}
	h.menu = components.NewMenu(items)
	return h
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg {
		return router.PushScreenMsg{Screen: s}
	}
}

func (h *HomeScreen) gradesScreen() screen.Screen {
	q := h.state.Query()
	if _, ok := q.CurrentEnrollment(); !ok {
		return placeholder.New("Notas", "Não há matrícula para a turma atual.")
	}
	return grades.New(q)
}

func (h *HomeScreen) materialsScreen() screen.Screen {
	q := h.state.Query()
	if _, ok := q.CurrentSection(); !ok {
		return placeholder.New("Materiais de apoio", "Nenhuma turma selecionada.")
	}
	return materials.New(q)
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := contentWidth(width)
	q := h.state.Query()

	name, section, detail := "Nenhuma conta cadastrada", "use `neomestre login`", ""
	if p, ok := q.Person(); ok {
		name = p.Name
		section = "sem turma"
		if sec, ok := q.CurrentSection(); ok {
			section = fmt.Sprintf("%s · %s", sec.Key, sec.Term)
			detail = sec.Description
		}
	}

	sections := []string{
		renderDateTitle(DateTitle(h.now()), cw),
		renderProfileCard(name, section, detail, cw),
		renderMenu(h.menuLabels, h.menu.Selected, cw, nil),
	}
	return renderFrame(strings.Join(sections, "\n\n"), width, height)
}

func (h *HomeScreen) Title() string {
	return "Início"
}
