package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (s *ErrorTestSuite) TestNewGameError() {
	// Setup
	code := ErrInsufficientFunds
	message := "not enough tokens"

	// Execute
	err := NewGameError(code, message)

	// Assert
	s.Equal(code, err.Code, "Error code should match")
	s.Equal(message, err.Message, "Error message should match")
	s.Equal(ReasonNone, err.Reason, "Reason should be empty")
	s.Nil(err.Err, "Underlying error should be nil")
}

func (s *ErrorTestSuite) TestWrapError() {
	// Setup
	code := ErrInternalError
	message := "database error"
	underlying := errors.New("connection failed")

	// Execute
	err := WrapError(code, message, underlying)

	// Assert
	s.Equal(code, err.Code, "Error code should match")
	s.Equal(message, err.Message, "Error message should match")
	s.Equal(underlying, err.Err, "Underlying error should match")
	s.ErrorIs(err, underlying, "Unwrap should expose the cause")
}

func (s *ErrorTestSuite) TestErrorString() {
	testCases := []struct {
		name     string
		err      *GameError
		expected string
	}{
		{
			name:     "Simple error",
			err:      NewLimitError(ReasonMaxBetsPerSpin, "too many bets"),
			expected: "LIMIT_EXCEEDED: too many bets",
		},
		{
			name:     "Wrapped error",
			err:      WrapError(ErrInternalError, "database error", errors.New("connection failed")),
			expected: "INTERNAL_ERROR: database error (connection failed)",
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, tc.err.Error(), "Error string should match expected format")
		})
	}
}

func (s *ErrorTestSuite) TestIsGameErrorThroughWrapping() {
	// Setup
	gameErr := NewValidationError(ReasonInvalidNumbers, "bad numbers")
	wrapped := fmt.Errorf("select: %w", gameErr)
	regularErr := errors.New("regular error")

	testCases := []struct {
		name     string
		err      error
		code     ErrorCode
		expected bool
	}{
		{"direct match", gameErr, ErrValidation, true},
		{"wrapped match", wrapped, ErrValidation, true},
		{"code mismatch", gameErr, ErrLimitExceeded, false},
		{"regular error", regularErr, ErrValidation, false},
		{"nil error", nil, ErrValidation, false},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.Equal(tc.expected, IsGameError(tc.err, tc.code))
		})
	}
}

func (s *ErrorTestSuite) TestCodeAndReasonOf() {
	err := fmt.Errorf("outer: %w", NewLimitError(ReasonMaxPayout, "payout too large"))

	s.Equal(ErrLimitExceeded, CodeOf(err))
	s.Equal(ReasonMaxPayout, ReasonOf(err))
	s.Equal(ErrInternalError, CodeOf(errors.New("plain")))
	s.Equal(ReasonNone, ReasonOf(errors.New("plain")))
}

func (s *ErrorTestSuite) TestRetryable() {
	s.True(NewGameError(ErrNetworkCongestion, "busy").Retryable())
	s.True(NewGameError(ErrPriceTooLow, "underpriced").Retryable())
	s.False(NewGameError(ErrUserRejected, "declined").Retryable())
	s.False(NewGameError(ErrContractReverted, "reverted").Retryable())
	s.False(NewGameError(ErrInsufficientFunds, "broke").Retryable())
}
