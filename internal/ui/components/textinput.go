package components

import (
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/neomestre/neomestre/internal/ui/theme"
)

// SearchInput wraps bubbles/textinput as a one-line filter box. It starts
// blurred; the owning screen focuses it on "/".
type SearchInput struct {
	Model textinput.Model
}

// NewSearchInput creates a blurred search input.
func NewSearchInput(placeholder string, maxWidth int) SearchInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = "/ "
	if maxWidth > 0 {
		ti.CharLimit = maxWidth
	}
	return SearchInput{Model: ti}
}

// Focus starts editing.
func (s *SearchInput) Focus() tea.Cmd {
	return s.Model.Focus()
}

// Blur stops editing and keeps the value.
func (s *SearchInput) Blur() {
	s.Model.Blur()
}

// Focused reports whether the input is being edited.
func (s SearchInput) Focused() bool {
	return s.Model.Focused()
}

// Clear empties the input.
func (s *SearchInput) Clear() {
	s.Model.SetValue("")
}

// Update handles messages.
func (s SearchInput) Update(msg tea.Msg) (SearchInput, tea.Cmd) {
	var cmd tea.Cmd
	s.Model, cmd = s.Model.Update(msg)
	return s, cmd
}

// View renders the input. A blurred empty input renders nothing.
func (s SearchInput) View() string {
	if !s.Focused() && s.Value() == "" {
		return ""
	}
	view := s.Model.View()
	if !s.Focused() {
		view = lipgloss.NewStyle().Foreground(theme.TextDim).Render(view)
	}
	return view
}

// Value returns the query as typed.
func (s SearchInput) Value() string {
	return s.Model.Value()
}
