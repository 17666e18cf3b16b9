package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pdfqa/internal/service"
)

var uploadJSON bool

var uploadCmd = &cobra.Command{
	Use:   "upload <file.pdf> [file.pdf ...]",
	Short: "Extract, chunk and index PDF files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runUpload,
}

func init() {
	uploadCmd.Flags().BoolVar(&uploadJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var (
		results []service.UploadResult
		failed  int
	)
	for _, path := range args {
		res, err := a.svc.UploadFile(cmd.Context(), path)
		if err != nil {
			failed++
			cmd.PrintErrf("%s: %v\n", path, err)
			continue
		}
		results = append(results, res)
		if !uploadJSON {
			cmd.Printf("%s: %d pages, %d chunks (id %s, %s)\n",
				res.Filename, res.PagesProcessed, res.ChunksCount, res.DocumentID, res.ProcessingTime.Round(time.Millisecond))
		}
	}
	if uploadJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d uploads failed", failed, len(args))
	}
	return nil
}
