package ledger

import (
	"fmt"
	"strings"
)

// Interface is the generation of the deployed game contract
type Interface int

const (
	InterfaceCurrent Interface = iota
	InterfaceLegacy
)

func (i Interface) String() string {
	if i == InterfaceLegacy {
		return "legacy"
	}
	return "current"
}

// ParseInterface reads a LEDGER_INTERFACE value. auto is resolved by the caller with ok=false.
func ParseInterface(s string) (iface Interface, ok bool, err error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "current":
		return InterfaceCurrent, true, nil
	case "legacy":
		return InterfaceLegacy, true, nil
	case "", "auto":
		return InterfaceCurrent, false, nil
	default:
		return InterfaceCurrent, false, fmt.Errorf("unknown ledger interface %q", s)
	}
}

// Capabilities is resolved once when the ledger connects and never re-probed
type Capabilities struct {
	Interface       Interface
	HasHistory      bool
	HasSelfRecovery bool
}

// CapabilitiesFor returns the fixed capability set of an interface generation
func CapabilitiesFor(iface Interface) Capabilities {
	if iface == InterfaceLegacy {
		return Capabilities{Interface: InterfaceLegacy}
	}
	return Capabilities{Interface: InterfaceCurrent, HasHistory: true, HasSelfRecovery: true}
}
