package main

import (
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show vector store statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	st := a.svc.Stats()
	if statsJSON {
		data, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal stats: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	cmd.Printf("Documents: %d\nChunks:    %d\nIndexed:   %d\n", st.TotalDocuments, st.TotalChunks, st.IndexSize)
	for _, d := range st.Documents {
		cmd.Printf("  %s  %d pages, %d chunks, %s, uploaded %s\n",
			d.Filename, d.PagesCount, d.ChunksCount, humanize.IBytes(uint64(d.FileSize)), humanize.Time(d.UploadTime))
	}
	return nil
}
