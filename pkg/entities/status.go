package entities

import (
	"fmt"
	"math/big"
	"strconv"
	"time"
)

// Raw result codes the contract uses in place of a winning number
const (
	RawForceStopped uint8 = 254
	RawRecovered    uint8 = 255
	MaxNumber             = 36
)

// ResultKind tags the variant held by a WinningResult
type ResultKind int

const (
	ResultNone ResultKind = iota
	ResultNumber
	ResultForceStopped
	ResultRecovered
)

// WinningResult is either a drawn number, a force-stop or a recovery.
// The zero value means no result yet.
type WinningResult struct {
	kind   ResultKind
	number int
}

// NoResult is the result of a round that has not resolved
func NoResult() WinningResult { return WinningResult{} }

// NumberResult wraps a drawn pocket 0-36
func NumberResult(n int) WinningResult { return WinningResult{kind: ResultNumber, number: n} }

// ForceStoppedResult marks an administratively terminated round
func ForceStoppedResult() WinningResult { return WinningResult{kind: ResultForceStopped} }

// RecoveredResult marks a round refunded after a randomness timeout
func RecoveredResult() WinningResult { return WinningResult{kind: ResultRecovered} }

// DecodeWinningResult is the only place raw contract result codes are interpreted.
// resolved tells whether the contract considers the draw done; an unresolved 0 means no result.
func DecodeWinningResult(raw uint8, resolved bool) (WinningResult, error) {
	switch {
	case raw == RawForceStopped:
		return ForceStoppedResult(), nil
	case raw == RawRecovered:
		return RecoveredResult(), nil
	case !resolved:
		return NoResult(), nil
	case raw <= MaxNumber:
		return NumberResult(int(raw)), nil
	default:
		return NoResult(), fmt.Errorf("unexpected result code %d", raw)
	}
}

// Kind returns the variant tag
func (r WinningResult) Kind() ResultKind { return r.kind }

// Number returns the drawn pocket, ok is false for every other variant
func (r WinningResult) Number() (int, bool) {
	if r.kind != ResultNumber {
		return 0, false
	}
	return r.number, true
}

func (r WinningResult) IsNone() bool         { return r.kind == ResultNone }
func (r WinningResult) IsForceStopped() bool { return r.kind == ResultForceStopped }
func (r WinningResult) IsRecovered() bool    { return r.kind == ResultRecovered }

// Raw encodes the result back to the contract convention, for persistence
func (r WinningResult) Raw() (raw uint8, resolved bool) {
	switch r.kind {
	case ResultNumber:
		return uint8(r.number), true
	case ResultForceStopped:
		return RawForceStopped, true
	case ResultRecovered:
		return RawRecovered, true
	default:
		return 0, false
	}
}

func (r WinningResult) String() string {
	switch r.kind {
	case ResultNumber:
		return strconv.Itoa(r.number)
	case ResultForceStopped:
		return "force-stopped"
	case ResultRecovered:
		return "recovered"
	default:
		return "-"
	}
}

// GameStatusSnapshot is the decoded game status of one account at one point in time.
// Snapshots are replaced wholesale and never mutated after construction.
type GameStatusSnapshot struct {
	Account           string
	IsActive          bool
	RequestExists     bool
	RequestProcessed  bool
	RecoveryEligible  bool
	LastPlayTimestamp time.Time
	RequestID         string
	WinningResult     WinningResult
	TotalAmount       *big.Int
	TotalPayout       *big.Int
}

// AwaitingRandomness is true while a randomness request is outstanding
func (s GameStatusSnapshot) AwaitingRandomness() bool {
	return s.RequestExists && !s.RequestProcessed
}

// HasActivity reports whether the account has ever played
func (s GameStatusSnapshot) HasActivity() bool {
	return s.IsActive || s.RequestExists || !s.LastPlayTimestamp.IsZero()
}
