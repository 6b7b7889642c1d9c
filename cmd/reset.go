package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newResetCmd(opts *rootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every cached account and setting",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("reset deletes all local data; pass --yes to confirm")
			}
			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				removed := e.state.Count()
				if err := e.state.ClearAll(cmd.Context()); err != nil {
					return err
				}
				return e.out.Success(map[string]int{"removed": removed}, func(w io.Writer) {
					fmt.Fprintf(w, "dados locais apagados (%d contas).\n", removed)
				})
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	return cmd
}
