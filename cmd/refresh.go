package cmd

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/neomestre/neomestre/internal/state"
)

func newRefreshCmd(opts *rootOptions) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "refresh [ACCOUNT_ID]",
		Short: "Download fresh data for an account (default: the current one)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("use ACCOUNT_ID or --all, not both")
			}

			return withEnv(cmd, opts, func(cmd *cobra.Command, e *env) error {
				var ids []int
				switch {
				case all:
					for _, a := range e.state.Accounts() {
						ids = append(ids, a.AccountID())
					}
				case len(args) == 1:
					id, err := parseID(args[0])
					if err != nil {
						return err
					}
					ids = []int{id}
				default:
					sel := e.state.Selection()
					if sel.CurrentAccountID == nil {
						return errNotConfigured
					}
					ids = []int{*sel.CurrentAccountID}
				}

				if len(ids) == 0 {
					return errNotConfigured
				}

				views := make([]syncView, 0, len(ids))
				var firstErr error
				for _, id := range ids {
					out, err := e.syncer.Refresh(cmd.Context(), id)
					if errors.Is(err, state.ErrAccountNotFound) {
						return failure("account_not_found", fmt.Sprintf("conta %d não encontrada.", id))
					}
					if err != nil {
						e.logger.Warn("refresh failed", zap.Int("account_id", id), zap.Error(err))
						if firstErr == nil {
							firstErr = err
						}
						continue
					}
					views = append(views, syncView{AccountID: out.AccountID, Name: out.Name, Skipped: out.Skipped})
				}
				if firstErr != nil && len(views) == 0 {
					return firstErr
				}

				if err := e.out.Success(views, func(w io.Writer) {
					for _, v := range views {
						fmt.Fprintf(w, "conta atualizada: %s (%d)\n", v.Name, v.AccountID)
					}
				}); err != nil {
					return err
				}
				return firstErr
			})
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Refresh every account, one after the other")
	return cmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
