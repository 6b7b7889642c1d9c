package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newSectionsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sections",
		Short: "List the current account's sections (* marks the current one)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				q := e.state.Query()
				if _, ok := q.CurrentAccount(); !ok {
					return errNotConfigured
				}
				views := sectionViews(q)
				return e.out.Success(views, func(w io.Writer) {
					fmt.Fprintf(w, "  %-6s  %-12s  %-8s  %s\n", "ID", "CHAVE", "PERÍODO", "DESCRIÇÃO")
					rule(w, 72)
					for _, v := range views {
						fmt.Fprintf(w, "%s %-6d  %-12s  %-8s  %s\n",
							marker(v.Current), v.ID, v.Key, v.Term, truncate(v.Description, 40))
					}
				})
			})
		},
	}
}
