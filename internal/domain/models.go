package domain

import (
	"strconv"
	"time"
)

// PageRecord is the sanitized text of a single non-empty PDF page.
type PageRecord struct {
	PageNumber int    `json:"page_number"`
	Content    string `json:"content"`
	CharCount  int    `json:"char_count"`
}

// PartialMetadata locates a chunk within its document. Document identity
// fields are filled in by the upload handler.
type PartialMetadata struct {
	PageNumber int `json:"page_number"`
	ChunkIndex int `json:"chunk_index"`
}

// ChunkMetadata describes a single indexed chunk.
type ChunkMetadata struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	PageNumber int    `json:"page_number"`
	ChunkIndex int    `json:"chunk_index"`
	ChunkID    string `json:"chunk_id"`
	FileHash   string `json:"file_hash"`
}

// DocumentMetadata summarizes one successfully ingested document.
type DocumentMetadata struct {
	Filename    string    `json:"filename"`
	PagesCount  int       `json:"pages_count"`
	ChunksCount int       `json:"chunks_count"`
	UploadTime  time.Time `json:"upload_time"`
	FileHash    string    `json:"file_hash"`
	FileSize    int64     `json:"file_size"`
}

// SearchResult is a retrieved chunk with its raw inner-product score.
type SearchResult struct {
	Content         string        `json:"content"`
	Metadata        ChunkMetadata `json:"metadata"`
	SimilarityScore float64       `json:"similarity_score"`
}

// Stats reports the size of the vector store.
type Stats struct {
	TotalDocuments int                `json:"total_documents"`
	TotalChunks    int                `json:"total_chunks"`
	IndexSize      int                `json:"index_size"`
	Documents      []DocumentMetadata `json:"documents"`
}

// ChunkID derives the deterministic identifier of a chunk.
func ChunkID(documentID string, pageNumber, chunkIndex int) string {
	return documentID + "_page_" + strconv.Itoa(pageNumber) + "_chunk_" + strconv.Itoa(chunkIndex)
}

// Match is an index position with its inner-product score.
type Match struct {
	Position int
	Score    float64
}
