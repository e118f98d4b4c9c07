package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/tranche/internal/cli/formatter"
)

const failedListLimit = 20

func newOutboxCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outbox",
		Short: "Inspect and drain the event outbox",
	}
	cmd.AddCommand(newOutboxStatusCmd(app), newOutboxDispatchCmd(app), newOutboxReplayCmd(app))
	return cmd
}

func newOutboxStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Count messages by status and list failures",
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := app.Outbox.CountByStatus(cmd.Context())
			if err != nil {
				return err
			}
			failed, err := app.Outbox.ListFailed(cmd.Context(), failedListLimit)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatOutbox(counts, failed))
			return nil
		},
	}
}

func newOutboxDispatchCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Publish every message currently due, once",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, closePub, err := app.Publisher()
			if err != nil {
				return err
			}
			defer closePub()

			res, err := app.Dispatcher(pub).DispatchOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent %d, retrying %d, failed %d\n", res.Sent, res.Retried, res.Failed)
			return nil
		},
	}
}

func newOutboxReplayCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "replay MESSAGE_ID",
		Short: "Queue a sent or failed message for publishing again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, closePub, err := app.Publisher()
			if err != nil {
				return err
			}
			defer closePub()

			if err := app.Dispatcher(pub).Replay(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Requeued %s\n", args[0])
			return nil
		},
	}
}
