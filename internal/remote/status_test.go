package remote

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"pdfqa/internal/domain"
)

func TestCheckStatus(t *testing.T) {
	assert.NoError(t, CheckStatus("openai", http.StatusOK, nil))

	err := CheckStatus("openai", http.StatusTooManyRequests, []byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
	assert.ErrorIs(t, err, domain.ErrRemoteRateLimited)
	assert.Contains(t, err.Error(), "slow down")

	assert.ErrorIs(t, CheckStatus("openai", http.StatusUnauthorized, nil), domain.ErrRemoteAuth)
	assert.ErrorIs(t, CheckStatus("openai", http.StatusForbidden, nil), domain.ErrRemoteAuth)

	err = CheckStatus("openai", http.StatusBadGateway, []byte("upstream down"))
	assert.ErrorIs(t, err, domain.ErrRemoteProcessing)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestTransport(t *testing.T) {
	err := Transport("openai", errors.New("dial tcp: refused"))
	assert.ErrorIs(t, err, domain.ErrRemoteProcessing)
}

func TestMessage_Truncates(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	assert.Len(t, Message(long), 200)
}
