package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNoData(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"decode signal", errors.New("could not decode result data (value=\"0x\")"), true},
		{"empty unmarshal", fmt.Errorf("getGameStatus: %w", errors.New("abi: attempting to unmarshall an empty string while arguments are expected")), true},
		{"no code", errors.New("no contract code at given address"), true},
		{"network", errors.New("dial tcp: connection refused"), false},
		{"revert", errors.New("execution reverted: game active"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsNoData(tc.err))
		})
	}
}

func TestCapabilities(t *testing.T) {
	current := CapabilitiesFor(InterfaceCurrent)
	assert.True(t, current.HasHistory)
	assert.True(t, current.HasSelfRecovery)

	legacy := CapabilitiesFor(InterfaceLegacy)
	assert.False(t, legacy.HasHistory)
	assert.False(t, legacy.HasSelfRecovery)
	assert.Equal(t, "legacy", legacy.Interface.String())
}

func TestParseInterface(t *testing.T) {
	iface, ok, err := ParseInterface("Legacy")
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, InterfaceLegacy, iface)

	_, ok, err = ParseInterface("auto")
	assert.NoError(t, err)
	assert.False(t, ok)

	_, _, err = ParseInterface("v0")
	assert.Error(t, err)
}
