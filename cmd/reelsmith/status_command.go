package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status and queue depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, resp.Status)
				}
				status := resp.Status
				rows := [][]string{
					{"Running", yesNo(status.Running)},
					{"PID", fmt.Sprintf("%d", status.PID)},
					{"Busy", yesNo(status.Busy)},
					{"Queue depth", fmt.Sprintf("%d", status.QueueDepth)},
					{"Cooldown", fmt.Sprintf("%ds", status.CooldownSeconds)},
					{"Pending", fmt.Sprintf("%d", status.Pending)},
					{"Active", fmt.Sprintf("%d", status.Active)},
					{"Completed", fmt.Sprintf("%d", status.Completed)},
					{"Failed", fmt.Sprintf("%d", status.Failed)},
					{"History DB", status.HistoryDBPath},
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"Field", "Value"}, rows,
					[]columnAlignment{alignLeft, alignLeft}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print raw JSON output")
	return cmd
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop()
				if err != nil {
					return err
				}
				if resp.Stopped {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				}
				return nil
			})
		},
	}
}

func newTestSheetLogCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-sheetlog",
		Short: "Post a test row to the sheet log webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TestSheetLog()
				if err != nil {
					if resp != nil && resp.Message != "" {
						fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
					}
					return err
				}
				switch {
				case resp.Message != "":
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
				case resp.Sent:
					fmt.Fprintln(cmd.OutOrStdout(), "Test entry posted")
				default:
					fmt.Fprintln(cmd.OutOrStdout(), "Entry not posted")
				}
				return nil
			})
		},
	}
}
