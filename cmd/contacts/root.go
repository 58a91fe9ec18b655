package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
	"github.com/joseph-ayodele/contact-extractor/internal/pipeline"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	envFile   string
	vocabFile string

	cfg      *common.Config
	logger   *slog.Logger
	closeLog = func() error { return nil }
	proc     *pipeline.Processor
)

var rootCmd = &cobra.Command{
	Use:   "contacts",
	Short: "Extract business contacts from cards, documents and contact lists",
	Long: `contacts runs the extraction pipeline locally: files are classified, read
(OCR for images), parsed by the offline entity extractor and the configured LLM
providers, and fused into ranked contact records.

Providers and OCR settings come from the environment (or a .env file).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if envFile != "" {
			if err := godotenv.Load(envFile); err != nil {
				return fmt.Errorf("load env file: %w", err)
			}
		} else {
			_ = godotenv.Load()
		}

		cfg = common.LoadConfig()
		if vocabFile != "" {
			cfg.VocabularyFile = vocabFile
		}
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		logger, closeLog = common.SetupLogger(level, cfg.Logging.File)

		if cmd.Name() == "config" {
			return nil
		}
		vocab, err := common.LoadVocabulary(cfg.VocabularyFile)
		if err != nil {
			return err
		}
		proc, err = pipeline.Build(cmd.Context(), cfg, vocab, logger)
		if err != nil {
			return fmt.Errorf("build pipeline: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and runs it.
func Execute(ctx context.Context) error {
	defer cleanup()
	return rootCmd.ExecuteContext(ctx)
}

// cleanup shuts the pipeline down and closes the log file.
func cleanup() {
	if proc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Request.Timeout)
		defer cancel()
		proc.Shutdown(ctx)
	}
	if err := closeLog(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment from this file instead of ./.env")
	rootCmd.PersistentFlags().StringVar(&vocabFile, "vocabulary", "", "category vocabulary YAML (overrides VOCABULARY_FILE)")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(configCmd)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
