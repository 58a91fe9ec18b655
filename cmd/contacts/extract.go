package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/contact-extractor/internal/entity"
	"github.com/joseph-ayodele/contact-extractor/internal/export"
	"github.com/joseph-ayodele/contact-extractor/internal/ingest"
)

var (
	extractOut         string
	extractConcurrency int
	extractSkipHidden  bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file|dir>...",
	Short: "Extract contacts from files synchronously",
	Long: `Run a synchronous extraction for every file given. Directories are walked
and every file with a supported extension is included.

Results are printed as JSON. With --out the contacts are written to an XLSX
workbook instead.

Examples:
  contacts extract card.png
  contacts extract ./inbox --out contacts.xlsx
  contacts extract a.vcf b.pdf -j 8`,
	Args: cobra.MinimumNArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringVarP(&extractOut, "out", "o", "", "write an XLSX workbook to this path")
	extractCmd.Flags().IntVarP(&extractConcurrency, "jobs", "j", 4, "files extracted in parallel")
	extractCmd.Flags().BoolVar(&extractSkipHidden, "skip-hidden", true, "skip hidden files and directories")
}

func runExtract(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args, extractSkipHidden)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), "No supported files found.")
		return nil
	}

	results := make([]entity.Result, len(files))
	failed := make([]bool, len(files))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(1, extractConcurrency))
	for i, path := range files {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			res, err := proc.Extract(ctx, data, filepath.Base(path), "")
			if err != nil {
				failed[i] = true
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			}
			res.Filename = path
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if extractOut != "" {
		if err := writeWorkbook(extractOut, results); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", extractOut)
	} else if err := printJSON(cmd.OutOrStdout(), results); err != nil {
		return err
	}

	n := 0
	for _, f := range failed {
		if f {
			n++
		}
	}
	if n > 0 {
		return fmt.Errorf("%d of %d files failed", n, len(files))
	}
	return nil
}

func writeWorkbook(path string, results []entity.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.NewService(logger).WriteContactsXLSX(f, results); err != nil {
		_ = f.Close()
		return fmt.Errorf("write workbook: %w", err)
	}
	return f.Close()
}

// collectFiles expands directories into their supported files. Explicit file arguments
// are kept as given so unsupported ones still produce an error.
func collectFiles(args []string, skipHidden bool) ([]string, error) {
	var out []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			out = append(out, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if skipHidden && p != arg && ingest.IsHidden(p) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if ingest.AllowedExt(filepath.Ext(p)) {
				out = append(out, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
