package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/httpapi"
)

func newTokenCmd(app *App) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token ADDRESS",
		Short: "Issue an API bearer token for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Config.JWT.Secret == "" {
				return errors.New("token needs jwt.secret (or TRANCHE_JWT_SECRET)")
			}
			addr, err := domain.ParseIdentity(args[0])
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = app.Config.JWT.TTL
			}
			token, err := httpapi.IssueToken(app.Config.JWT.Secret, app.Config.JWT.Issuer, addr, ttl, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to jwt.ttl)")
	return cmd
}
