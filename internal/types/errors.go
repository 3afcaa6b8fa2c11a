package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type
type ErrorCode string

const (
	// Wager errors
	ErrValidation         ErrorCode = "VALIDATION_ERROR"
	ErrLimitExceeded      ErrorCode = "LIMIT_EXCEEDED"
	ErrDescriptorNotFound ErrorCode = "DESCRIPTOR_NOT_FOUND"

	// Funding errors
	ErrInsufficientFunds     ErrorCode = "INSUFFICIENT_FUNDS"
	ErrInsufficientAllowance ErrorCode = "INSUFFICIENT_ALLOWANCE"

	// Ledger errors
	ErrUserRejected       ErrorCode = "USER_REJECTED"
	ErrNetworkCongestion  ErrorCode = "NETWORK_CONGESTION"
	ErrPriceTooLow        ErrorCode = "PRICE_TOO_LOW"
	ErrContractReverted   ErrorCode = "CONTRACT_REVERTED"
	ErrStaleOrMissingData ErrorCode = "STALE_OR_MISSING_DATA"
	ErrTimeout            ErrorCode = "TIMEOUT"
	ErrUnsupported        ErrorCode = "UNSUPPORTED"

	// Session errors
	ErrInvalidState     ErrorCode = "INVALID_STATE"
	ErrInvalidCommand   ErrorCode = "INVALID_COMMAND"
	ErrInvalidArgument  ErrorCode = "INVALID_ARGUMENT"
	ErrPermissionDenied ErrorCode = "PERMISSION_DENIED"

	// System errors
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
	ErrNetworkError  ErrorCode = "NETWORK_ERROR"
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrRateLimited   ErrorCode = "RATE_LIMITED"
)

// Reason narrows a validation or limit failure down to the rule that was broken
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnknownBetType  Reason = "unknown_bet_type"
	ReasonInvalidNumbers  Reason = "invalid_numbers"
	ReasonInvalidAmount   Reason = "invalid_amount"
	ReasonEmptyBatch      Reason = "empty_batch"
	ReasonDuplicateBet    Reason = "duplicate_bet"
	ReasonAmountBelowMin  Reason = "per_bet_min"
	ReasonAmountAboveMax  Reason = "per_bet_max"
	ReasonMaxBetsPerSpin  Reason = "max_bets_per_spin"
	ReasonMaxTotalAmount  Reason = "max_total_amount"
	ReasonMaxPayout       Reason = "max_possible_payout"
	ReasonNoHistory       Reason = "no_history"
	ReasonNoSelfRecovery  Reason = "no_self_recovery"
	ReasonNotRecoverable  Reason = "not_recoverable"
	ReasonRoundInProgress Reason = "round_in_progress"
)

// GameError represents a game-related error
type GameError struct {
	Code    ErrorCode
	Reason  Reason
	Message string
	Err     error // Underlying error, if any
}

// Error implements the error interface
func (e *GameError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *GameError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the pipeline may resubmit after this error
func (e *GameError) Retryable() bool {
	return e.Code == ErrNetworkCongestion || e.Code == ErrPriceTooLow
}

// NewGameError creates a new GameError
func NewGameError(code ErrorCode, message string) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error in a GameError
func WrapError(code ErrorCode, message string, err error) *GameError {
	return &GameError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewValidationError creates a VALIDATION_ERROR with the broken rule attached
func NewValidationError(reason Reason, message string) *GameError {
	return &GameError{
		Code:    ErrValidation,
		Reason:  reason,
		Message: message,
	}
}

// NewLimitError creates a LIMIT_EXCEEDED error with the broken ceiling attached
func NewLimitError(reason Reason, message string) *GameError {
	return &GameError{
		Code:    ErrLimitExceeded,
		Reason:  reason,
		Message: message,
	}
}

// IsGameError checks if an error is a GameError and has a specific code
func IsGameError(err error, code ErrorCode) bool {
	var gameErr *GameError
	if err == nil {
		return false
	}
	if ok := As(err, &gameErr); !ok {
		return false
	}
	return gameErr.Code == code
}

// CodeOf returns the code of the first GameError in the chain, or ErrInternalError
func CodeOf(err error) ErrorCode {
	var gameErr *GameError
	if As(err, &gameErr) {
		return gameErr.Code
	}
	return ErrInternalError
}

// ReasonOf returns the reason of the first GameError in the chain
func ReasonOf(err error) Reason {
	var gameErr *GameError
	if As(err, &gameErr) {
		return gameErr.Reason
	}
	return ReasonNone
}

// As is a helper function to find a GameError anywhere in the error chain
func As(err error, target **GameError) bool {
	if target == nil || err == nil {
		return false
	}
	return errors.As(err, target)
}
