package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/neomestre/neomestre/internal/credentials"
	"github.com/neomestre/neomestre/internal/syncer"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var user, password, institution, qr string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Add an account with portal credentials or a QR code payload",
		Example: `  neomestre login --user ana.souza --password s3cret --institution 17
  neomestre login --qr eyJkc19sb2dpbiI6...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			manual := user != "" || password != "" || institution != ""
			switch {
			case qr != "" && manual:
				return fmt.Errorf("use --qr or --user/--password/--institution, not both")
			case qr == "" && !manual:
				return fmt.Errorf("either --qr or --user/--password/--institution is required")
			}

			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				var (
					out *syncer.Outcome
					err error
				)
				if qr != "" {
					out, err = e.syncer.LoginWithQR(cmd.Context(), strings.TrimSpace(qr))
				} else {
					var p credentials.Payload
					p, err = credentials.Manual(user, password, institution)
					if err == nil {
						out, err = e.syncer.Login(cmd.Context(), p)
					}
				}
				if err != nil {
					return err
				}

				view := syncView{AccountID: out.AccountID, Name: out.Name, Added: out.Added, Skipped: out.Skipped}
				return e.out.Success(view, func(w io.Writer) {
					switch {
					case out.Skipped:
						fmt.Fprintln(w, "um login com essas credenciais já está em andamento.")
					case out.Added:
						fmt.Fprintf(w, "conta adicionada: %s (%d)\n", out.Name, out.AccountID)
					default:
						fmt.Fprintf(w, "conta atualizada: %s (%d)\n", out.Name, out.AccountID)
					}
				})
			})
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Portal login")
	cmd.Flags().StringVar(&password, "password", "", "Portal password")
	cmd.Flags().StringVar(&institution, "institution", "", "Institution code (cd_cliente)")
	cmd.Flags().StringVar(&qr, "qr", "", "Base64 payload read from the portal's login QR code")
	cmd.MarkFlagsRequiredTogether("user", "password", "institution")

	return cmd
}
