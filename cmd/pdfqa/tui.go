package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"pdfqa/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive terminal UI",
	Long: `Launch an interactive session for asking questions.

Controls:
  Enter          - Ask the question in the input box
  /upload <path> - Upload a PDF
  ↑, ↓           - Browse the sources of the last answer
  Ctrl+C         - Quit`,
	Args: cobra.NoArgs,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	st := a.svc.Stats()
	summary := fmt.Sprintf("%d documents, %d chunks indexed", st.TotalDocuments, st.TotalChunks)
	m := tui.New(cmd.Context(), a.svc, cfg.Limits.MaxResults, summary)
	_, runErr := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(cmd.OutOrStdout())).Run()
	if err := a.save(); err != nil {
		a.log.Error("failed to save vector store", "error", err)
	}
	return runErr
}
