package ledger

import (
	"errors"
	"strings"
)

// ErrUserRejected is returned by a signer when the player declined the transaction
var ErrUserRejected = errors.New("user rejected the request")

// ErrUnsupported is returned for calls the connected contract does not have
var ErrUnsupported = errors.New("not supported by this ledger")

var noDataSignals = []string{
	"could not decode result data",
	"abi: attempting to unmarshall an empty string",
	"no contract code at given address",
}

// IsNoData reports whether err means the contract returned nothing yet, as it does for
// an account that has never played. Such errors are empty results, not failures.
func IsNoData(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, signal := range noDataSignals {
		if strings.Contains(msg, signal) {
			return true
		}
	}
	return false
}
