package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRate(t *testing.T) {
	tests := []struct {
		spec string
		n    int
		per  time.Duration
		ok   bool
	}{
		{"100/hour", 100, time.Hour, true},
		{"5/minute", 5, time.Minute, true},
		{" 10 / s ", 10, time.Second, true},
		{"2 per day", 2, 24 * time.Hour, true},
		{"1/hours", 1, time.Hour, true},
		{"0/hour", 0, 0, false},
		{"ten/hour", 0, 0, false},
		{"10/fortnight", 0, 0, false},
		{"100", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			n, per, err := ParseRate(tt.spec)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.n, n)
			assert.Equal(t, tt.per, per)
		})
	}
}

func TestLimiter_AllowsBurstThenBlocks(t *testing.T) {
	l, err := NewLimiter("3/hour")
	require.NoError(t, err)
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.True(t, l.Allow())
	assert.False(t, l.Allow())
}

func TestLimiter_EmptySpecIsUnlimited(t *testing.T) {
	l, err := NewLimiter("")
	require.NoError(t, err)
	for i := 0; i < 1000; i++ {
		require.True(t, l.Allow())
	}
}
