package materials

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/neomestre/neomestre/internal/query"
	"github.com/neomestre/neomestre/internal/screen"
	"github.com/neomestre/neomestre/internal/ui/theme"
	"github.com/neomestre/neomestre/internal/unimestre"
)

// FilesScreen shows one material with its link and attached files.
type FilesScreen struct {
	material unimestre.Material
	subject  string
	files    []unimestre.MaterialFile
}

var _ screen.Screen = (*FilesScreen)(nil)

// NewFiles creates a FilesScreen for m.
func NewFiles(q query.Query, m unimestre.Material) *FilesScreen {
	f := &FilesScreen{material: m, files: q.FilesForMaterial(m)}
	if s, ok := q.SubjectByID(m.SubjectID); ok {
		f.subject = s.DisplayName()
	}
	return f
}

func (f *FilesScreen) Init() tea.Cmd {
	return nil
}

func (f *FilesScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	return f, nil
}

func (f *FilesScreen) View(width, height int) string {
	var b strings.Builder
	b.WriteString(theme.Body.Bold(true).Render(f.material.Title))
	b.WriteString("\n")

	meta := f.material.FormattedDate()
	if f.subject != "" {
		meta = f.subject + " · " + meta
	}
	b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(meta))
	b.WriteString("\n\n")

	if f.material.Description != "" {
		b.WriteString(lipgloss.NewStyle().Width(max(width-4, 20)).Render(f.material.Description))
		b.WriteString("\n\n")
	}
	if f.material.Link != nil && *f.material.Link != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Secondary).Render("link: " + *f.material.Link))
		b.WriteString("\n\n")
	}

	if len(f.files) == 0 {
		b.WriteString(theme.Hint.Render("Nenhum arquivo anexado."))
	} else {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("%d arquivo(s)", len(f.files))))
		b.WriteString("\n")
		for _, file := range f.files {
			b.WriteString(theme.Body.Render("  • " + file.FileName))
			b.WriteString("\n")
		}
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (f *FilesScreen) Title() string {
	return "Arquivos"
}
