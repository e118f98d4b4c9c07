package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/tranche/internal/cli/formatter"
	"github.com/alexanderramin/tranche/internal/domain"
)

func newAccountCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Inspect payout accounts",
	}
	cmd.AddCommand(newAccountBalanceCmd(app), newAccountRejectCmd(app))
	return cmd
}

func newAccountBalanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "balance ADDRESS",
		Short: "Show the funds an address has received from escrow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := domain.ParseIdentity(args[0])
			if err != nil {
				return err
			}
			acct, err := app.Accounts.GetAccount(cmd.Context(), addr)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", acct.Address, formatter.Bold(acct.Balance.String()))
			if acct.RejectsFunds {
				fmt.Fprintln(out, formatter.StyleRed.Render("rejects incoming transfers"))
			}
			return nil
		},
	}
}

func newAccountRejectCmd(app *App) *cobra.Command {
	var off bool

	cmd := &cobra.Command{
		Use:   "reject ADDRESS",
		Short: "Make an account refuse incoming transfers",
		Long: `Make an account refuse incoming transfers. Any approval or withdrawal
paying this address then fails and rolls back. Use --off to accept funds again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := domain.ParseIdentity(args[0])
			if err != nil {
				return err
			}
			if err := app.Accounts.SetAccountRejectsFunds(cmd.Context(), addr, !off); err != nil {
				return err
			}
			state := "rejects"
			if off {
				state = "accepts"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now %s incoming transfers\n", addr, state)
			return nil
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "accept transfers again")
	return cmd
}
