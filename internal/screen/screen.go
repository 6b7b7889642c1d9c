package screen

import (
	tea "charm.land/bubbletea/v2"

	"github.com/neomestre/neomestre/internal/ui/layout"
)

// Screen is one page of the TUI. The app draws the header and footer; a
// screen only renders the area between them.
type Screen interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (Screen, tea.Cmd)
	View(width, height int) string

	// Title names the screen in the header breadcrumb.
	Title() string
}

// KeyHintProvider is implemented by screens with their own footer hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// InputCapturer is implemented by screens that own a text input. While
// CapturingInput is true, Esc goes to the screen instead of closing it.
type InputCapturer interface {
	CapturingInput() bool
}
