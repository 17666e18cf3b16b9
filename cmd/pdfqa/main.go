// Command pdfqa uploads PDF documents and answers questions about them.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pdfqa/internal/config"
	"pdfqa/internal/logger"
)

var (
	cfgPath string
	cfg     *config.AppConfig
)

var rootCmd = &cobra.Command{
	Use:   "pdfqa",
	Short: "Ask questions about your PDF documents",
	Long: `pdfqa extracts text from uploaded PDFs, indexes it as embedded chunks
and answers natural-language questions from the most similar passages.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		_ = godotenv.Load()
		var err error
		if cfgPath == "" {
			cfg, _, err = config.LoadDefault()
		} else {
			cfg, err = config.Load(cfgPath)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return cfg.Validate()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "",
		"path to YAML config file (default ./config.yaml or ~/.config/pdfqa/config.yaml)")
}

func main() {
	rootCmd.SetOut(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger() error {
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	if err != nil {
		return err
	}
	appLog = log
	return nil
}
