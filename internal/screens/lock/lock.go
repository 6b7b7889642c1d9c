package lock

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/neomestre/neomestre/internal/router"
	"github.com/neomestre/neomestre/internal/screen"
	"github.com/neomestre/neomestre/internal/ui/theme"
)

const lockArt = `  ╭─────╮
  │     │
╭─┴─────┴─╮
│    ●    │
│    ┃    │
╰─────────╯`

// LockScreen gates the app when the biometric lock setting is on. A terminal
// has no biometric sensor, so unlocking is an explicit Enter.
type LockScreen struct {
	next     func() screen.Screen
	unlocked bool
}

var _ screen.Screen = (*LockScreen)(nil)

// New creates a LockScreen that replaces itself with the screen produced by
// next once unlocked.
func New(next func() screen.Screen) *LockScreen {
	return &LockScreen{next: next}
}

func (l *LockScreen) Title() string {
	return ""
}

func (l *LockScreen) Init() tea.Cmd {
	return nil
}

func (l *LockScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || kmsg.String() != "enter" {
		return l, nil
	}
	return l, l.unlock()
}

func (l *LockScreen) unlock() tea.Cmd {
	if l.unlocked {
		return nil
	}
	l.unlocked = true
	next := l.next()
	return func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: next}
	}
}

func (l *LockScreen) View(width, height int) string {
	sections := []string{
		lipgloss.NewStyle().Foreground(theme.Primary).Render(lockArt),
		"",
		lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render("neomestre está bloqueado"),
		"",
		lipgloss.NewStyle().Foreground(theme.TextDim).Italic(true).Render("pressione Enter para desbloquear"),
	}
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n"))
}
