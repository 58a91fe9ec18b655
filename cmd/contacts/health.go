package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report OCR availability, configured providers and queue state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		h := proc.Health(cmd.Context())
		if err := printJSON(cmd.OutOrStdout(), h); err != nil {
			return err
		}
		if !h.Ready() {
			return errors.New("pipeline is not ready")
		}
		return nil
	},
}
