package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change local settings",
	}
	cmd.AddCommand(newBiometricsCmd(opts))
	return cmd
}

func newBiometricsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "biometrics [on|off]",
		Short:     "Show or set the biometric lock preference",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				if len(args) == 1 {
					if err := e.state.SetBiometrics(cmd.Context(), args[0] == "on"); err != nil {
						return err
					}
				}
				settings := e.state.Settings()
				return e.out.Success(settings, func(w io.Writer) {
					status := "desativada"
					if settings.Biometrics {
						status = "ativada"
					}
					fmt.Fprintf(w, "biometria: %s\n", status)
				})
			})
		},
	}
}
