package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contact-extractor/internal/entity"
)

var (
	submitPoll time.Duration
	submitOut  string
)

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Queue a file as an asynchronous job and wait for its result",
	Long: `Submit a file through the asynchronous path: the job identifier is printed
to stderr right away, then the command polls the job until it reaches a
terminal state and prints its final status as JSON.

Examples:
  contacts submit scan.png
  contacts submit scan.png --out scan.xlsx`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

func init() {
	submitCmd.Flags().DurationVar(&submitPoll, "poll", 250*time.Millisecond, "status polling interval")
	submitCmd.Flags().StringVarP(&submitOut, "out", "o", "", "write the job's contacts to an XLSX workbook")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	ctx := cmd.Context()
	id, err := proc.Submit(ctx, data, filepath.Base(path), "")
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Submitted %s as job %s\n", path, id)

	t := time.NewTicker(submitPoll)
	defer t.Stop()
	var st entity.JobStatus
	for {
		st, err = proc.Status(ctx, id)
		if err != nil {
			return err
		}
		if st.Terminal() {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	if submitOut != "" && st.Result != nil {
		if err := writeWorkbook(submitOut, []entity.Result{*st.Result}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", submitOut)
	}
	if err := printJSON(cmd.OutOrStdout(), st); err != nil {
		return err
	}
	if st.ErrorCode != "" {
		return fmt.Errorf("job %s ended %s: %s", id, st.State, st.ErrorCode)
	}
	return nil
}
