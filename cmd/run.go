package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/neomestre/neomestre/internal/app"
)

// runApp launches the TUI over the opened environment.
func runApp(cmd *cobra.Command, e *env) error {
	if !e.state.IsConfigured() {
		fmt.Fprintln(cmd.OutOrStdout(), "nenhuma conta cadastrada.")
		fmt.Fprintln(cmd.OutOrStdout(), "use `neomestre login --user U --password P --institution C` ou `neomestre login --qr CODIGO`.")
		return nil
	}

	return app.Run(app.Options{
		State:  e.state,
		Syncer: e.syncer,
		Logger: e.logger,
	})
}
