package app

import (
	"fmt"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/neomestre/neomestre/internal/router"
	"github.com/neomestre/neomestre/internal/screen"
	"github.com/neomestre/neomestre/internal/screens/home"
	"github.com/neomestre/neomestre/internal/screens/lock"
	"github.com/neomestre/neomestre/internal/state"
	"github.com/neomestre/neomestre/internal/syncer"
	"github.com/neomestre/neomestre/internal/ui/layout"
)

// Options holds the dependencies the screens need.
type Options struct {
	State  *state.State
	Syncer *syncer.Syncer
	Logger *zap.Logger
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	state  *state.State
	logger *zap.Logger
	width  int
	height int
}

// newAppModel creates a new AppModel with the home screen, behind the lock
// screen when the biometric lock is on.
func newAppModel(opts Options) AppModel {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	homeFactory := func() screen.Screen {
		return home.New(opts.State, opts.Syncer)
	}

	var initial screen.Screen
	if opts.State.Settings().Biometrics {
		initial = lock.New(homeFactory)
	} else {
		initial = homeFactory()
	}

	return AppModel{
		router: router.New(initial),
		state:  opts.State,
		logger: logger.Named("tui"),
	}
}

func (m AppModel) Init() tea.Cmd {
	return m.router.Active().Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if c, ok := m.router.Active().(screen.InputCapturer); ok && c.CapturingInput() {
				break
			}
			if m.router.Depth() > 1 {
				return m, func() tea.Msg { return router.PopScreenMsg{} }
			}
			return m, nil
		}

	case router.PushScreenMsg:
		m.logger.Debug("push screen", zap.String("title", msg.Screen.Title()))
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := active.Title()
	account := ""
	if _, locked := active.(*lock.LockScreen); !locked {
		title = breadcrumb(m.router.Titles(), m.width/2)
		if p, ok := m.state.Query().Person(); ok {
			account = p.Name
		}
	}
	header := layout.RenderHeader(title, account, m.width)

	footer := layout.RenderFooter(m.footerHints(active), m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// breadcrumb joins the open screens' titles, dropping the oldest ones until
// the trail fits in width.
func breadcrumb(titles []string, width int) string {
	for len(titles) > 1 && lipgloss.Width(strings.Join(titles, " › ")) > width {
		titles = titles[1:]
	}
	return layout.Truncate(strings.Join(titles, " › "), width)
}

func (m AppModel) footerHints(active screen.Screen) []layout.KeyHint {
	if p, ok := active.(screen.KeyHintProvider); ok {
		return append(p.KeyHints(), layout.KeyHint{Key: "Ctrl+C", Description: "Sair"})
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Voltar"},
			{Key: "Ctrl+C", Description: "Sair"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navegar"},
		{Key: "Enter", Description: "Selecionar"},
		{Key: "Ctrl+C", Description: "Sair"},
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
