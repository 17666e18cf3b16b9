package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"pdfqa/internal/service"
)

var (
	askResults int
	askJSON    bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Answer a question from the indexed documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askResults, "results", "n", 0, "number of passages to retrieve (default from config)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	res, err := a.svc.Ask(cmd.Context(), strings.Join(args, " "), askResults)
	if err != nil {
		return err
	}
	if askJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printAnswer(cmd, res)
	return nil
}

func printAnswer(cmd *cobra.Command, res service.AskResult) {
	cmd.Println(res.Answer)
	if len(res.Sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, s := range res.Sources {
		cmd.Printf("  [%d] %s, page %d (%.4f)\n", i+1, s.Filename, s.PageNumber, s.SimilarityScore)
		cmd.Printf("      %s\n", strings.ReplaceAll(s.Content, "\n", " "))
	}
}
