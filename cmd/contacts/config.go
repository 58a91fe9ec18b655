package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/contact-extractor/internal/common"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML, with credentials masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *cfg
		shown.LLM.Providers = make([]common.ProviderSettings, len(cfg.LLM.Providers))
		for i, p := range cfg.LLM.Providers {
			if p.APIKey != "" {
				p.APIKey = "****"
			}
			shown.LLM.Providers[i] = p
		}

		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(shown); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
		return cfg.Validate()
	},
}
