package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/person-enricher/internal/config"
)

var (
	cfg         *config.Config
	cfgFile     string
	logLevelArg string
)

var rootCmd = &cobra.Command{
	Use:   "person-enricher",
	Short: "Cost-aware contact enrichment",
	Long: `Fills missing contact fields (title, email, LinkedIn, company domain and
description) from paid lookup APIs, calling only what each contact still needs.

API keys are read from config.yaml or ENRICHER_* environment variables, e.g.
ENRICHER_SERPAPI_KEY and ENRICHER_ANYMAILFINDER_KEY.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if logLevelArg != "" {
			c.Log.Level = logLevelArg
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevelArg, "log-level", "", "override log.level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
