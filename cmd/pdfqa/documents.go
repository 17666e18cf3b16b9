package main

import (
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"pdfqa/internal/catalog"
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List ingested documents with their identifiers",
	Args:  cobra.NoArgs,
	RunE:  runDocuments,
}

func init() {
	rootCmd.AddCommand(documentsCmd)
}

func runDocuments(cmd *cobra.Command, _ []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	var entries []catalog.Entry
	if a.catalog != nil {
		entries, err = a.catalog.List(cmd.Context())
		if err != nil {
			return err
		}
	} else {
		for id, meta := range a.store.Documents() {
			entries = append(entries, catalog.Entry{ID: id, DocumentMetadata: meta})
		}
		sort.Slice(entries, func(i, j int) bool {
			return entries[i].UploadTime.Before(entries[j].UploadTime)
		})
	}
	if len(entries) == 0 {
		cmd.Println("No documents uploaded.")
		return nil
	}
	for _, e := range entries {
		cmd.Printf("%s  %s  %d pages  %s  %s\n",
			e.ID, e.Filename, e.PagesCount, humanize.IBytes(uint64(e.FileSize)), e.UploadTime.Local().Format("2006-01-02 15:04"))
	}
	return nil
}
