package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"invalid document", fmt.Errorf("open: %w", ErrInvalidDocument), http.StatusBadRequest},
		{"no content", ErrNoContent, http.StatusBadRequest},
		{"invalid input", ErrInvalidInput, http.StatusBadRequest},
		{"capacity", fmt.Errorf("add: %w", ErrCapacityExceeded), http.StatusRequestEntityTooLarge},
		{"file too large", ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{"remote throttled", fmt.Errorf("embed: %w", ErrRemoteRateLimited), http.StatusTooManyRequests},
		{"local throttled", ErrRateLimited, http.StatusTooManyRequests},
		{"remote auth", ErrRemoteAuth, http.StatusInternalServerError},
		{"remote failure", ErrRemoteProcessing, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestChunkID(t *testing.T) {
	assert.Equal(t, "doc-1_page_3_chunk_0", ChunkID("doc-1", 3, 0))
}

func TestErrors_AreDistinct(t *testing.T) {
	all := []error{
		ErrInvalidDocument, ErrNoContent, ErrCapacityExceeded, ErrRemoteRateLimited,
		ErrRemoteAuth, ErrRemoteProcessing, ErrPersistence, ErrInvalidInput, ErrFileTooLarge, ErrRateLimited,
	}
	for i := range all {
		for j := range all {
			if i != j {
				assert.False(t, errors.Is(all[i], all[j]), "%v should not match %v", all[i], all[j])
			}
		}
	}
}
