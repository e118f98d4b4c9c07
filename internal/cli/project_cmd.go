package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/tranche/internal/cli/formatter"
	"github.com/alexanderramin/tranche/internal/domain"
	"github.com/alexanderramin/tranche/internal/service"
)

func newProjectCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "project",
		Aliases: []string{"p"},
		Short:   "Create, fund and inspect escrow projects",
	}
	cmd.AddCommand(
		newProjectCreateCmd(app),
		newProjectShowCmd(app),
		newProjectListCmd(app),
		newProjectDepositCmd(app),
		newProjectWithdrawCmd(app),
		newProjectStatsCmd(app),
		newProjectImportCmd(app),
	)
	return cmd
}

func newProjectCreateCmd(app *App) *cobra.Command {
	var f createFlags

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a project as its creator",
		Example: `  tranche project create --as 0x11… --name "DeFi platform" --sponsor 0x22… \
    --milestone "Setup|1.0|2026-01-15" --milestone "Launch|4.0|2026-03-01"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.caller()
			if err != nil {
				return err
			}
			if f.interactive {
				if !app.interactive() {
					return errors.New("--interactive needs a terminal")
				}
				if err := runCreateForm(&f); err != nil {
					return err
				}
			}
			in, err := f.input()
			if err != nil {
				return err
			}

			id, err := app.Projects.CreateProject(cmd.Context(), caller, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project #%d %s\n", id, formatter.Dim("("+f.name+")"))
			return nil
		},
	}

	cmd.Flags().StringVar(&f.name, "name", "", "project name")
	cmd.Flags().StringVar(&f.description, "description", "", "project description")
	cmd.Flags().StringVar(&f.sponsor, "sponsor", "", "sponsor address")
	cmd.Flags().StringArrayVarP(&f.milestones, "milestone", "m", nil, `milestone as "description|amount|YYYY-MM-DD" (repeatable, in order)`)
	cmd.Flags().BoolVarP(&f.interactive, "interactive", "i", false, "fill in the project with a form")
	return cmd
}

func newProjectShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a project with its ledger and milestones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			p, err := app.Projects.GetProject(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectCard(p, app.now()))
			return nil
		},
	}
}

func newProjectListCmd(app *App) *cobra.Command {
	var creator, sponsor string
	var page service.Page

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List projects, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if creator != "" && sponsor != "" {
				return errors.New("use only one of --creator and --sponsor")
			}
			if creator == "" && sponsor == "" {
				res, err := app.Projects.ListProjects(ctx, page)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectList(res.Projects, res.Total))
				return nil
			}

			var ids []int64
			if creator != "" {
				addr, err := domain.ParseIdentity(creator)
				if err != nil {
					return fmt.Errorf("--creator: %w", err)
				}
				ids, err = app.Projects.GetProjectsByCreator(ctx, addr)
				if err != nil {
					return err
				}
			} else {
				addr, err := domain.ParseIdentity(sponsor)
				if err != nil {
					return fmt.Errorf("--sponsor: %w", err)
				}
				ids, err = app.Projects.GetProjectsBySponsor(ctx, addr)
				if err != nil {
					return err
				}
			}

			projects := make([]*domain.Project, 0, len(ids))
			for _, id := range ids {
				p, err := app.Projects.GetProject(ctx, id)
				if err != nil {
					return err
				}
				projects = append(projects, p)
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatProjectList(projects, len(projects)))
			return nil
		},
	}

	cmd.Flags().StringVar(&creator, "creator", "", "only projects created by this address")
	cmd.Flags().StringVar(&sponsor, "sponsor", "", "only projects sponsored by this address")
	cmd.Flags().IntVar(&page.Limit, "limit", service.DefaultPageLimit, "page size")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "projects to skip")
	return cmd
}

func newProjectDepositCmd(app *App) *cobra.Command {
	var amount amountFlag

	cmd := &cobra.Command{
		Use:   "deposit ID",
		Short: "Deposit funds into a project's escrow as its sponsor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.caller()
			if err != nil {
				return err
			}
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			if err := app.Projects.DepositFunds(cmd.Context(), caller, id, amount.value); err != nil {
				return err
			}
			balance, err := app.Projects.GetEscrowBalance(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deposited %s into project #%d (escrow %s)\n", amount.value, id, balance)
			return nil
		},
	}

	cmd.Flags().Var(&amount, "amount", "amount to deposit, e.g. 1.5")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newProjectWithdrawCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "withdraw ID",
		Short: "Refund the escrow balance to the sponsor and close the project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := app.caller()
			if err != nil {
				return err
			}
			id, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			refunded, err := app.Projects.EmergencyWithdraw(cmd.Context(), caller, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Refunded %s to the sponsor; project #%d is closed\n", refunded, id)
			return nil
		},
	}
}

func newProjectStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show totals across all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.Projects.GetStats(cmd.Context())
			if err != nil {
				return err
			}
			balance, err := app.Projects.GetContractBalance(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatStats(stats, balance))
			return nil
		},
	}
}
