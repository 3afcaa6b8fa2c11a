package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeWinningResult(t *testing.T) {
	testCases := []struct {
		name     string
		raw      uint8
		resolved bool
		expected WinningResult
	}{
		{"unresolved zero", 0, false, NoResult()},
		{"resolved zero", 0, true, NumberResult(0)},
		{"resolved number", 17, true, NumberResult(17)},
		{"force stopped", 254, false, ForceStoppedResult()},
		{"recovered", 255, true, RecoveredResult()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeWinningResult(tc.raw, tc.resolved)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}

	_, err := DecodeWinningResult(37, true)
	assert.Error(t, err)
}

func TestSentinelsAreNotNumbers(t *testing.T) {
	for _, r := range []WinningResult{ForceStoppedResult(), RecoveredResult(), NoResult()} {
		_, ok := r.Number()
		assert.False(t, ok, r.String())
	}

	n, ok := NumberResult(36).Number()
	assert.True(t, ok)
	assert.Equal(t, 36, n)
}

func TestWinningResultRawRoundTrip(t *testing.T) {
	for _, r := range []WinningResult{NumberResult(5), ForceStoppedResult(), RecoveredResult(), NoResult()} {
		raw, resolved := r.Raw()
		back, err := DecodeWinningResult(raw, resolved)
		require.NoError(t, err)
		assert.Equal(t, r, back)
	}
}

func TestSnapshotDerivedFlags(t *testing.T) {
	s := GameStatusSnapshot{RequestExists: true}
	assert.True(t, s.AwaitingRandomness())
	assert.True(t, s.HasActivity())

	s = GameStatusSnapshot{RequestExists: true, RequestProcessed: true}
	assert.False(t, s.AwaitingRandomness())

	assert.False(t, GameStatusSnapshot{}.HasActivity())
}
