package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/neomestre/neomestre/internal/query"
	"github.com/neomestre/neomestre/internal/unimestre"
)

func newMaterialsCmd(opts *rootOptions) *cobra.Command {
	var (
		subjectID int
		date      string
		search    string
	)

	cmd := &cobra.Command{
		Use:   "materials",
		Short: "List the current section's support materials, newest first",
		Example: `  neomestre materials --subject 11
  neomestre materials --date 2024-08-05
  neomestre materials --search calculo`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var f query.MaterialFilter
			if cmd.Flags().Changed("subject") {
				f.SubjectID = &subjectID
			}
			if date != "" {
				d, err := time.ParseInLocation("2006-01-02", date, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", date)
				}
				f.OnDate = &d
			}
			f.Search = search

			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				q := e.state.Query()
				if _, ok := q.CurrentAccount(); !ok {
					return errNotConfigured
				}
				materials, _ := q.MaterialsFiltered(f)
				views := materialViews(q, materials)
				return e.out.Success(views, func(w io.Writer) {
					if len(views) == 0 {
						fmt.Fprintln(w, "nenhum material encontrado.")
						return
					}
					fmt.Fprintf(w, "%-6s  %-8s  %-30s  %s\n", "ID", "DATA", "TÍTULO", "ARQUIVOS")
					rule(w, 60)
					for _, v := range views {
						fmt.Fprintf(w, "%-6d  %-8s  %-30s  %d\n", v.ID, v.Date, truncate(v.Title, 30), v.Files)
					}
					fmt.Fprintf(w, "\n%d materiais\n", len(views))
				})
			})
		},
	}

	cmd.Flags().IntVar(&subjectID, "subject", 0, "Only materials of this subject id")
	cmd.Flags().StringVar(&date, "date", "", "Only materials posted on this day (YYYY-MM-DD, local time)")
	cmd.Flags().StringVar(&search, "search", "", "Only materials whose title contains this text (accent and case insensitive)")
	return cmd
}

func newFilesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "files MATERIAL_ID",
		Short: "Show a material and its attached files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				q := e.state.Query()
				if _, ok := q.CurrentAccount(); !ok {
					return errNotConfigured
				}
				m, ok := q.MaterialByID(id)
				if !ok {
					return failure("material_not_found", fmt.Sprintf("material %d não encontrado.", id))
				}

				files := make([]fileView, 0)
				for _, f := range q.FilesForMaterial(m) {
					files = append(files, fileView{ID: f.ID, Name: f.FileName})
				}
				view := struct {
					Material materialView `json:"material" yaml:"material"`
					Files    []fileView   `json:"files" yaml:"files"`
				}{materialViews(q, []unimestre.Material{m})[0], files}

				return e.out.Success(view, func(w io.Writer) {
					fmt.Fprintf(w, "%s (%s)\n", m.Title, m.FormattedDate())
					if m.Description != "" {
						fmt.Fprintln(w, m.Description)
					}
					if m.Link != nil && *m.Link != "" {
						fmt.Fprintln(w, "link:", *m.Link)
					}
					fmt.Fprintln(w)
					if len(files) == 0 {
						fmt.Fprintln(w, "nenhum arquivo anexado.")
						return
					}
					for _, f := range files {
						fmt.Fprintf(w, "  %-6d  %s\n", f.ID, f.Name)
					}
				})
			})
		},
	}
}

func newSubjectsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subjects",
		Short: "List the current section's subjects that have support materials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				q := e.state.Query()
				if _, ok := q.CurrentAccount(); !ok {
					return errNotConfigured
				}
				subjects, _ := q.CurrentSupportSubjects()
				views := make([]subjectView, 0, len(subjects))
				for _, s := range subjects {
					id := s.SubjectID
					materials, _ := q.MaterialsFiltered(query.MaterialFilter{SubjectID: &id})
					views = append(views, subjectView{ID: id, Name: s.DisplayName(), Materials: len(materials)})
				}
				return e.out.Success(views, func(w io.Writer) {
					if len(views) == 0 {
						fmt.Fprintln(w, "nenhuma disciplina com material de apoio.")
						return
					}
					fmt.Fprintf(w, "%-6s  %-30s  %s\n", "ID", "DISCIPLINA", "MATERIAIS")
					rule(w, 50)
					for _, v := range views {
						fmt.Fprintf(w, "%-6d  %-30s  %d\n", v.ID, truncate(v.Name, 30), v.Materials)
					}
				})
			})
		},
	}
}
