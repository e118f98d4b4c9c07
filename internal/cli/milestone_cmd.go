package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/tranche/internal/cli/formatter"
	"github.com/alexanderramin/tranche/internal/domain"
)

func newMilestoneCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "milestone",
		Aliases: []string{"m"},
		Short:   "Complete, approve and list milestones",
	}
	cmd.AddCommand(
		newMilestoneListCmd(app),
		newMilestoneCompleteCmd(app),
		newMilestoneApproveCmd(app),
	)
	return cmd
}

func newMilestoneListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT_ID",
		Short: "List a project's milestones",
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
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatMilestones(p.Milestones, p.CurrentMilestone, app.now()))
			return nil
		},
	}
}

func newMilestoneCompleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "complete PROJECT_ID INDEX",
		Short: "Mark the current milestone completed as the project creator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.milestoneAction(cmd, args, func(caller domain.Identity, id int64, index int) error {
				if err := app.Projects.CompleteMilestone(cmd.Context(), caller, id, index); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Milestone %d of project #%d completed; awaiting sponsor approval\n", index, id)
				return nil
			})
		},
	}
}

func newMilestoneApproveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "approve PROJECT_ID INDEX",
		Short: "Approve a completed milestone and release its amount to the creator",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.milestoneAction(cmd, args, func(caller domain.Identity, id int64, index int) error {
				if err := app.Projects.ApproveMilestone(cmd.Context(), caller, id, index); err != nil {
					return err
				}
				p, err := app.Projects.GetProject(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Milestone %d of project #%d approved; released %s to %s\n",
					index, id, p.Milestones[index].Amount, p.Creator.Short())
				if !p.Active {
					fmt.Fprintln(out, formatter.StylePurple.Render("All milestones paid; project completed."))
				}
				return nil
			})
		},
	}
}

func (a *App) milestoneAction(cmd *cobra.Command, args []string, fn func(domain.Identity, int64, int) error) error {
	caller, err := a.caller()
	if err != nil {
		return err
	}
	id, err := parseProjectID(args[0])
	if err != nil {
		return err
	}
	index, err := parseIndex(args[1])
	if err != nil {
		return err
	}
	return fn(caller, id, index)
}
