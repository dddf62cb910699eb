package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"reelsmith/internal/api"
	"reelsmith/internal/history"
	"reelsmith/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect the generation request history",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var status string
	var limit int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent generation requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			var records []api.RequestRecord
			err := ctx.withHistory(
				func(client *ipc.Client) error {
					resp, err := client.HistoryList(ipc.HistoryListRequest{Status: status, Limit: limit})
					if err != nil {
						return err
					}
					records = resp.Requests
					return nil
				},
				func(runCtx context.Context, store *history.Store) error {
					found, err := listRecords(runCtx, store, strings.TrimSpace(status), limit)
					if err != nil {
						return err
					}
					records = api.FromRecords(found)
					return nil
				})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No requests recorded")
				return nil
			}
			rows := make([][]string, 0, len(records))
			for _, record := range records {
				detail := record.ErrorCategory
				if detail == "" && record.AssetPath != "" {
					detail = record.AssetPath
				}
				rows = append(rows, []string{
					record.ID,
					record.Kind,
					record.Status,
					truncateCell(record.Prompt, 48),
					detail,
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Kind", "Status", "Prompt", "Detail"}, rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (pending, running, completed, failed)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of requests to show")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print raw JSON output")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one generation request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := strings.TrimSpace(args[0])
			var record api.RequestRecord
			err := ctx.withHistory(
				func(client *ipc.Client) error {
					resp, err := client.HistoryDescribe(id)
					if err != nil {
						return err
					}
					record = resp.Request
					return nil
				},
				func(runCtx context.Context, store *history.Store) error {
					found, err := store.Get(runCtx, id)
					if errors.Is(err, history.ErrNotFound) {
						return fmt.Errorf("request %s not found", id)
					}
					if err != nil {
						return err
					}
					record = api.FromRecord(found)
					return nil
				})
			if err != nil {
				return err
			}
			if jsonOut {
				return writeJSON(cmd, record)
			}
			printRecord(cmd, record)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print raw JSON output")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var failedOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished requests from the history",
		RunE: func(cmd *cobra.Command, args []string) error {
			var removed int64
			err := ctx.withHistory(
				func(client *ipc.Client) error {
					if failedOnly {
						resp, err := client.HistoryClearFailed()
						if err != nil {
							return err
						}
						removed = resp.Removed
						return nil
					}
					resp, err := client.HistoryClear()
					if err != nil {
						return err
					}
					removed = resp.Removed
					return nil
				},
				func(runCtx context.Context, store *history.Store) error {
					var err error
					if failedOnly {
						removed, err = store.ClearFailed(runCtx)
					} else {
						removed, err = store.ClearTerminal(runCtx)
					}
					return err
				})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d request(s)\n", removed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&failedOnly, "failed", false, "Remove only failed requests")
	return cmd
}

func printRecord(cmd *cobra.Command, record api.RequestRecord) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %s\n", record.ID)
	fmt.Fprintf(out, "Kind:     %s\n", record.Kind)
	fmt.Fprintf(out, "Status:   %s\n", record.Status)
	fmt.Fprintf(out, "Model:    %s\n", record.Model)
	fmt.Fprintf(out, "Created:  %s\n", record.CreatedAt)
	fmt.Fprintf(out, "Updated:  %s\n", record.UpdatedAt)
	if record.DurationMS > 0 {
		fmt.Fprintf(out, "Duration: %s\n", time.Duration(record.DurationMS)*time.Millisecond)
	}
	fmt.Fprintf(out, "Prompt:   %s\n", record.Prompt)
	if record.AssetPath != "" {
		fmt.Fprintf(out, "Asset:    %s\n", record.AssetPath)
	}
	if record.ErrorCategory != "" || record.ErrorMessage != "" {
		fmt.Fprintf(out, "Error:    [%s] %s\n", record.ErrorCategory, record.ErrorMessage)
	}
	if record.ResultJSON != "" {
		fmt.Fprintf(out, "Result:   %s\n", truncateCell(record.ResultJSON, 200))
	}
}

func truncateCell(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit-3] + "..."
}
