package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// writeJSON prints v as two-space indented JSON on the command's
// stdout, followed by a newline.
func writeJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json output: %w", err)
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return err
}
