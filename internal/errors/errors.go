// Package errors defines the error taxonomy for the fixed-ratio trading core.
//
// Every failure carries a stable string code plus a numeric program error
// code (1001+), so hosts and client tooling can distinguish failure kinds
// (authorization, validation, state conflicts, arithmetic, resource
// exhaustion, timing, pause) without parsing messages.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the trading core.
const (
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeMissingSigner          = "MISSING_SIGNER"
	ErrCodeInvalidAccountAddress  = "INVALID_ACCOUNT_ADDRESS"
	ErrCodeAccountNotWritable     = "ACCOUNT_NOT_WRITABLE"
	ErrCodeInvalidAccountCount    = "INVALID_ACCOUNT_COUNT"
	ErrCodeInvalidInstructionData = "INVALID_INSTRUCTION_DATA"
	ErrCodePoolAlreadyExists      = "POOL_ALREADY_EXISTS"
	ErrCodeSystemAlreadyExists    = "SYSTEM_ALREADY_INITIALIZED"
	ErrCodeSystemNotInitialized   = "SYSTEM_NOT_INITIALIZED"
	ErrCodePoolNotFound           = "POOL_NOT_FOUND"
	ErrCodeChangeAlreadyPending   = "CHANGE_ALREADY_PENDING"
	ErrCodeNoChangePending        = "NO_CHANGE_PENDING"
	ErrCodeSystemAlreadyPaused    = "SYSTEM_ALREADY_PAUSED"
	ErrCodeSystemNotPaused        = "SYSTEM_NOT_PAUSED"
	ErrCodeInvalidRatio           = "INVALID_RATIO"
	ErrCodeInvalidTokenPair       = "INVALID_TOKEN_PAIR"
	ErrCodeInvalidMint            = "INVALID_MINT"
	ErrCodeZeroAmount             = "ZERO_AMOUNT"
	ErrCodeArithmeticOverflow     = "ARITHMETIC_OVERFLOW"
	ErrCodeDustOutput             = "DUST_OUTPUT_REJECTED"
	ErrCodeInsufficientLiquidity  = "INSUFFICIENT_LIQUIDITY"
	ErrCodeInsufficientLpBalance  = "INSUFFICIENT_LP_BALANCE"
	ErrCodeInsufficientVault      = "INSUFFICIENT_VAULT_BALANCE"
	ErrCodeInsufficientFunds      = "INSUFFICIENT_FUNDS"
	ErrCodeTimelockNotElapsed     = "TIMELOCK_NOT_ELAPSED"
	ErrCodeCooldownActive         = "COOLDOWN_ACTIVE"
	ErrCodeSystemPaused           = "SYSTEM_PAUSED"
	ErrCodePoolPaused             = "POOL_PAUSED"
	ErrCodePoolSwapsPaused        = "POOL_SWAPS_PAUSED"
	ErrCodeOwnerOnlySwaps         = "OWNER_ONLY_SWAPS"
	ErrCodeInvalidPoolCount       = "INVALID_POOL_COUNT"
)

// programCodes maps string codes to stable numeric program error codes.
// Numbering follows the on-chain 1001+ scheme.
var programCodes = map[string]uint32{
	ErrCodeUnauthorized:           1001,
	ErrCodeMissingSigner:          1002,
	ErrCodeInvalidAccountAddress:  1003,
	ErrCodeAccountNotWritable:     1004,
	ErrCodeInvalidAccountCount:    1005,
	ErrCodeInvalidInstructionData: 1006,
	ErrCodePoolAlreadyExists:      1007,
	ErrCodeSystemAlreadyExists:    1008,
	ErrCodeSystemNotInitialized:   1009,
	ErrCodePoolNotFound:           1010,
	ErrCodeChangeAlreadyPending:   1011,
	ErrCodeNoChangePending:        1012,
	ErrCodeSystemAlreadyPaused:    1013,
	ErrCodeSystemNotPaused:        1014,
	ErrCodeInvalidRatio:           1015,
	ErrCodeInvalidTokenPair:       1016,
	ErrCodeInvalidMint:            1017,
	ErrCodeZeroAmount:             1018,
	ErrCodeArithmeticOverflow:     1019,
	ErrCodeDustOutput:             1020,
	ErrCodeInsufficientLiquidity:  1021,
	ErrCodeInsufficientLpBalance:  1022,
	ErrCodeInsufficientVault:      1023,
	ErrCodeInsufficientFunds:      1024,
	ErrCodeTimelockNotElapsed:     1025,
	ErrCodeCooldownActive:         1026,
	ErrCodeSystemPaused:           1027,
	ErrCodePoolPaused:             1028,
	ErrCodePoolSwapsPaused:        1029,
	ErrCodeOwnerOnlySwaps:         1030,
	ErrCodeInvalidPoolCount:       1031,
}

// ProgramError represents a failure in the trading core.
type ProgramError struct {
	// Code is a unique error code for this error kind.
	Code string

	// Message is a human-readable error message.
	Message string

	// Cause is the underlying error, if any.
	Cause error

	// Details contains additional error context.
	Details map[string]any
}

// Error implements the error interface.
func (e *ProgramError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProgramError) Unwrap() error {
	return e.Cause
}

// Is reports whether the error matches the target.
func (e *ProgramError) Is(target error) bool {
	t, ok := target.(*ProgramError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// ProgramCode returns the numeric program error code for e.
func (e *ProgramError) ProgramCode() uint32 {
	return programCodes[e.Code]
}

// WithCause returns a copy of the error with a cause attached.
func (e *ProgramError) WithCause(cause error) *ProgramError {
	c := *e
	c.Cause = cause
	return &c
}

// WithDetails returns a copy of the error with details attached.
func (e *ProgramError) WithDetails(details map[string]any) *ProgramError {
	c := *e
	c.Details = details
	return &c
}

// NewError creates a new ProgramError.
func NewError(code, message string) *ProgramError {
	return &ProgramError{
		Code:    code,
		Message: message,
	}
}

// Pre-defined errors, one per failure kind.
var (
	ErrUnauthorized           = NewError(ErrCodeUnauthorized, "signer is not the required authority")
	ErrMissingSigner          = NewError(ErrCodeMissingSigner, "required account did not sign")
	ErrInvalidAccountAddress  = NewError(ErrCodeInvalidAccountAddress, "account does not match derived address")
	ErrAccountNotWritable     = NewError(ErrCodeAccountNotWritable, "account must be writable")
	ErrInvalidAccountCount    = NewError(ErrCodeInvalidAccountCount, "wrong number of accounts for instruction")
	ErrInvalidInstructionData = NewError(ErrCodeInvalidInstructionData, "malformed instruction data")
	ErrPoolAlreadyExists      = NewError(ErrCodePoolAlreadyExists, "pool already exists for this token pair")
	ErrSystemAlreadyExists    = NewError(ErrCodeSystemAlreadyExists, "system state already initialized")
	ErrSystemNotInitialized   = NewError(ErrCodeSystemNotInitialized, "system state not initialized")
	ErrPoolNotFound           = NewError(ErrCodePoolNotFound, "pool state account not found")
	ErrChangeAlreadyPending   = NewError(ErrCodeChangeAlreadyPending, "an admin change is already pending")
	ErrNoChangePending        = NewError(ErrCodeNoChangePending, "no admin change is pending")
	ErrSystemAlreadyPaused    = NewError(ErrCodeSystemAlreadyPaused, "system is already paused")
	ErrSystemNotPaused        = NewError(ErrCodeSystemNotPaused, "system is not paused")
	ErrInvalidRatio           = NewError(ErrCodeInvalidRatio, "ratio values must be non-zero")
	ErrInvalidTokenPair       = NewError(ErrCodeInvalidTokenPair, "token mints must be distinct")
	ErrInvalidMint            = NewError(ErrCodeInvalidMint, "mint does not belong to this pool")
	ErrZeroAmount             = NewError(ErrCodeZeroAmount, "amount must be greater than zero")
	ErrArithmeticOverflow     = NewError(ErrCodeArithmeticOverflow, "arithmetic overflow")
	ErrDustOutput             = NewError(ErrCodeDustOutput, "computed output amount is zero")
	ErrInsufficientLiquidity  = NewError(ErrCodeInsufficientLiquidity, "output vault cannot cover swap")
	ErrInsufficientLpBalance  = NewError(ErrCodeInsufficientLpBalance, "insufficient LP token balance")
	ErrInsufficientVault      = NewError(ErrCodeInsufficientVault, "insufficient vault balance")
	ErrInsufficientFunds      = NewError(ErrCodeInsufficientFunds, "insufficient lamports")
	ErrTimelockNotElapsed     = NewError(ErrCodeTimelockNotElapsed, "admin change timelock has not elapsed")
	ErrCooldownActive         = NewError(ErrCodeCooldownActive, "treasury withdrawal cooldown active")
	ErrSystemPaused           = NewError(ErrCodeSystemPaused, "system is paused")
	ErrPoolPaused             = NewError(ErrCodePoolPaused, "pool liquidity operations are paused")
	ErrPoolSwapsPaused        = NewError(ErrCodePoolSwapsPaused, "pool swaps are paused")
	ErrOwnerOnlySwaps         = NewError(ErrCodeOwnerOnlySwaps, "pool swaps are restricted to the designated owner")
	ErrInvalidPoolCount       = NewError(ErrCodeInvalidPoolCount, "pool count must be between 1 and 20")
)

// InsufficientFunds creates an insufficient-lamports error with balances attached.
func InsufficientFunds(required, available uint64) *ProgramError {
	return ErrInsufficientFunds.WithDetails(map[string]any{
		"required":  required,
		"available": available,
	})
}

// AddressMismatch creates an address-validation error naming the role that failed.
func AddressMismatch(role, expected, got string) *ProgramError {
	return ErrInvalidAccountAddress.WithDetails(map[string]any{
		"role":     role,
		"expected": expected,
		"got":      got,
	})
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
