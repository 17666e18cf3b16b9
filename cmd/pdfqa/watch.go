package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pdfqa/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Ingest PDFs dropped into the inbox directory",
	Long: `Watches the configured inbox and uploads every PDF written to it once
it stops changing. Handled files are moved to processed/ or failed/.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watcher.New(cfg.Watch.Inbox, time.Duration(cfg.Watch.DebounceMS)*time.Millisecond, a.svc, a.log)
	runErr := w.Run(ctx)
	if err := a.save(); err != nil {
		a.log.Error("failed to save vector store", "error", err)
	}
	return runErr
}
