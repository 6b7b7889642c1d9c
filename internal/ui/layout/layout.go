package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/neomestre/neomestre/internal/ui/theme"
)

const (
	MinWidth  = 80
	MinHeight = 24
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// Truncate shortens s to at most width cells, marking the cut with an
// ellipsis.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	msg := lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal muito pequeno!\n\nRedimensione para pelo\nmenos %d x %d\n\nAtual: %d x %d",
			MinWidth, MinHeight, width, height,
		))
	return msg
}

var (
	barStyle = lipgloss.NewStyle().
			Background(theme.BgCard).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border)

	brandStyle   = lipgloss.NewStyle().Foreground(theme.Primary).Bold(true)
	titleStyle   = lipgloss.NewStyle().Foreground(theme.Text)
	accountStyle = lipgloss.NewStyle().Foreground(theme.Accent)
	keyStyle     = lipgloss.NewStyle().Foreground(theme.Text).Bold(true)
	descStyle    = lipgloss.NewStyle().Foreground(theme.TextDim)
)

// RenderHeader renders the top bar: the app name and title on the left and
// the current account owner, if any, on the right. The account name gives
// way to the title when both do not fit.
func RenderHeader(title, account string, width int) string {
	inner := max(width-4, 0)

	left := brandStyle.Render("  neomestre") + "  " + titleStyle.Render(title)
	room := inner - lipgloss.Width(left) - 3
	right := ""
	if account != "" && room > 2 {
		right = accountStyle.Render(Truncate("● "+account, room))
	}

	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return barStyle.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// RenderFooter renders the key hints. Hints that do not fit are dropped from
// the middle so the last one (quit) always shows.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		parts = append(parts, keyStyle.Render(h.Key)+" "+descStyle.Render(h.Description))
	}

	inner := max(width-4, 0)
	for len(parts) > 1 && lipgloss.Width("  "+strings.Join(parts, "   ")) > inner {
		parts = append(parts[:len(parts)-2], parts[len(parts)-1])
	}
	return barStyle.Width(width).Render("  " + strings.Join(parts, "   "))
}

// RenderFrame stacks header, content and footer, padding the content to
// fill the terminal.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	body := lipgloss.NewStyle().Width(width).Height(contentHeight).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}
