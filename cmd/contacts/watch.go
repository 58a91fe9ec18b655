package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contact-extractor/internal/ingest"
)

var (
	watchNoScan     bool
	watchSkipHidden bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <dir>...",
	Short: "Submit files dropped into directories until interrupted",
	Long: `Watch one or more directories (recursively) and submit every supported
file that is created or rewritten. Files already present are submitted first
unless --no-scan is set. Identical content is submitted once.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ing := ingest.NewFSIngestor(proc, logger)
		fmt.Fprintf(cmd.ErrOrStderr(), "Watching %v (Ctrl-C to stop)\n", args)
		return ing.Watch(cmd.Context(), ingest.WatchConfig{
			Roots:       args,
			InitialScan: !watchNoScan,
			SkipHidden:  watchSkipHidden,
			Debounce:    cfg.Ingest.Debounce,
			Logger:      logger,
		})
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchNoScan, "no-scan", false, "do not submit files already present")
	watchCmd.Flags().BoolVar(&watchSkipHidden, "skip-hidden", true, "skip hidden files and directories")
}
