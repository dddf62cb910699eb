package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"reelsmith/internal/ipc"
)

// errGenerationFailed signals an upstream failure that was already
// explained to the user; main still exits non-zero.
var errGenerationFailed = errors.New("generation failed")

// renderFailure prints the classified failure, if any, and reports
// whether the response was a failure.
func renderFailure(cmd *cobra.Command, resp *ipc.GenerationResponse) bool {
	if resp == nil || !resp.Failed {
		return false
	}
	errOut := cmd.ErrOrStderr()
	colorize := shouldColorize(errOut)
	fmt.Fprintln(errOut, renderStatusLine("Generation", statusError, resp.Message, colorize))
	if resp.RequestID != "" {
		fmt.Fprintf(errOut, "Request %s recorded as failed (%s)\n", resp.RequestID, resp.Category)
	}
	return true
}

// writeRawJSON re-indents a JSON payload to stdout.
func writeRawJSON(cmd *cobra.Command, raw string) error {
	var value any
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return writeJSON(cmd, value)
}

func printList(out io.Writer, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(out, "\n%s:\n", label)
	for _, item := range items {
		fmt.Fprintf(out, "  - %s\n", item)
	}
}
