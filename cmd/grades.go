package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/neomestre/neomestre/internal/unimestre"
)

func newGradesCmd(opts *rootOptions) *cobra.Command {
	var order int

	cmd := &cobra.Command{
		Use:   "grades",
		Short: "Show the current section's grades, one block per grading stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				q := e.state.Query()
				if _, ok := q.CurrentAccount(); !ok {
					return errNotConfigured
				}
				stages, ok := q.CurrentGradeStages()
				if !ok {
					return failure("no_enrollment", "não há matrícula para a turma atual.")
				}
				if cmd.Flags().Changed("stage") {
					var picked []unimestre.GradeStage
					for _, st := range stages {
						if st.Order == order {
							picked = append(picked, st)
						}
					}
					if len(picked) == 0 {
						return failure("stage_not_found", fmt.Sprintf("etapa %d não encontrada.", order))
					}
					stages = picked
				}

				views := stageViews(q, stages)
				return e.out.Success(views, func(w io.Writer) {
					for i, st := range views {
						if i > 0 {
							fmt.Fprintln(w)
						}
						fmt.Fprintf(w, "%s (%s)\n", st.Label, st.Short)
						if len(st.Grades) == 0 {
							fmt.Fprintln(w, "  sem notas lançadas.")
							continue
						}
						fmt.Fprintf(w, "  %-30s  %-6s  %-6s  %s\n", "DISCIPLINA", "NOTA", "MÉDIA", "SITUAÇÃO")
						for _, g := range st.Grades {
							status := orDash(g.Status)
							if g.HasExam {
								status += " (exame)"
							}
							fmt.Fprintf(w, "  %-30s  %-6s  %-6s  %s\n",
								truncate(g.Subject, 30), orDash(g.Score), unimestre.FormatAverage(g.FinalAverage), status)
						}
					}
				})
			})
		},
	}

	cmd.Flags().IntVar(&order, "stage", 0, "Only show the stage with this order number")
	return cmd
}
