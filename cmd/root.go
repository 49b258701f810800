package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/HartreeWorks/bestofn/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "bestofn",
	Short: "Best-of-N sampling across multiple LLMs",
	Long: "Fans a prompt out to multiple models, samples each N times with varied " +
		"temperature, judges the best sample per model, and optionally synthesizes " +
		"a final cross-model answer.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
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

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
