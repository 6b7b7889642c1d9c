package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/neomestre/neomestre/internal/state"
)

func newAccountsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List cached accounts (* marks the current one)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				views := accountViews(e.state.Query())
				return e.out.Success(views, func(w io.Writer) {
					if len(views) == 0 {
						fmt.Fprintln(w, "nenhuma conta cadastrada.")
						return
					}
					fmt.Fprintf(w, "  %-8s  %-30s  %s\n", "ID", "NOME", "TURMAS")
					rule(w, 50)
					for _, v := range views {
						fmt.Fprintf(w, "%s %-8d  %-30s  %d\n",
							marker(v.Current), v.ID, truncate(v.Name, 30), v.Sections)
					}
				})
			})
		},
	}
}

func newUseCmd(opts *rootOptions) *cobra.Command {
	var sectionID int

	cmd := &cobra.Command{
		Use:   "use ACCOUNT_ID",
		Short: "Make an account (and optionally one of its sections) current",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				ctx := cmd.Context()
				ok, err := e.state.SelectAccount(ctx, id)
				if err != nil {
					return err
				}
				if !ok {
					return failure("account_not_found", fmt.Sprintf("conta %d não encontrada.", id))
				}
				if cmd.Flags().Changed("section") {
					ok, err := e.state.SelectSection(ctx, sectionID)
					if err != nil {
						return err
					}
					if !ok {
						return failure("section_not_found", fmt.Sprintf("turma %d não encontrada nesta conta.", sectionID))
					}
				}

				q := e.state.Query()
				person, _ := q.Person()
				section, hasSection := q.CurrentSection()
				view := struct {
					Account accountView `json:"account" yaml:"account"`
					Section sectionView `json:"section" yaml:"section"`
				}{
					Account: accountView{ID: person.ID, Name: person.Name, Sections: len(q.Sections()), Current: true},
					Section: sectionView{ID: section.ID, Key: section.Key, Term: section.Term, Description: section.Description, Current: true},
				}
				return e.out.Success(view, func(w io.Writer) {
					fmt.Fprintf(w, "conta atual: %s (%d)\n", person.Name, person.ID)
					if hasSection {
						fmt.Fprintf(w, "turma atual: %s (%s)\n", section.Key, section.Term)
					} else {
						fmt.Fprintln(w, "turma atual: -")
					}
				})
			})
		},
	}

	cmd.Flags().IntVar(&sectionID, "section", 0, "Section to select within the account")
	return cmd
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	var wipe bool

	cmd := &cobra.Command{
		Use:   "remove ACCOUNT_ID",
		Short: "Remove a cached account",
		Long: `Remove a cached account.

Removing the only remaining account clears every local setting as well and
requires --wipe.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				ctx := cmd.Context()
				if _, ok := e.state.Account(id); !ok {
					return failure("account_not_found", fmt.Sprintf("conta %d não encontrada.", id))
				}

				if e.state.Count() == 1 {
					if !wipe {
						return failure("last_account", "esta é a única conta cadastrada. use --wipe para apagar todos os dados.")
					}
					if err := e.state.ClearAll(ctx); err != nil {
						return err
					}
				} else if err := e.state.Remove(ctx, id); err != nil {
					if errors.Is(err, state.ErrAccountNotFound) {
						return failure("account_not_found", fmt.Sprintf("conta %d não encontrada.", id))
					}
					return err
				}

				view := map[string]any{"removed": id, "remaining": e.state.Count()}
				return e.out.Success(view, func(w io.Writer) {
					fmt.Fprintf(w, "conta %d removida.\n", id)
				})
			})
		},
	}

	cmd.Flags().BoolVar(&wipe, "wipe", false, "Allow removing the last account (clears all local data)")
	return cmd
}
