package grades

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/neomestre/neomestre/internal/state/statetest"
)

func newTestScreen(t *testing.T) *GradesScreen {
	t.Helper()
	st := statetest.Open(t, statetest.Snapshot(t))
	return New(st.Query())
}

func TestStagesOrderedByOrder(t *testing.T) {
	g := newTestScreen(t)

	var labels []string
	for _, st := range g.stages {
		labels = append(labels, st.ShortLabel)
	}
	if strings.Join(labels, ",") != "E1,E2,EX" {
		t.Errorf("expected tabs E1,E2,EX, got %v", labels)
	}
}

func TestTabNavigationIsBounded(t *testing.T) {
	g := newTestScreen(t)

	g.Update(tea.KeyPressMsg{Code: tea.KeyLeft})
	if st, _ := g.Stage(); st.ShortLabel != "E1" {
		t.Errorf("left at first tab should stay on E1, got %s", st.ShortLabel)
	}

	for range 5 {
		g.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	}
	if st, _ := g.Stage(); st.ShortLabel != "EX" {
		t.Errorf("right past last tab should stay on EX, got %s", st.ShortLabel)
	}
}

func TestViewShowsStageEntries(t *testing.T) {
	g := newTestScreen(t)
	g.Update(tea.KeyPressMsg{Code: tea.KeyRight}) // E2

	view := g.View(100, 30)
	for _, want := range []string{"Segunda etapa", "ALGORITMOS", "8,5", "Aprovado", "BANCO DE DADOS", "exame"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewEmptyStage(t *testing.T) {
	g := newTestScreen(t)
	g.Update(tea.KeyPressMsg{Code: tea.KeyRight})
	g.Update(tea.KeyPressMsg{Code: tea.KeyRight}) // EX: the exam row uses nr_etapa 20

	if !strings.Contains(g.View(100, 30), "Sem notas lançadas") {
		t.Error("expected empty-stage hint")
	}
}

func TestTitle(t *testing.T) {
	if New(statetest.Open(t).Query()).Title() != "Notas" {
		t.Error("unexpected title")
	}
}
