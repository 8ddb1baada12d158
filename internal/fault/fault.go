// Package fault defines the error taxonomy for vault operations.
//
// Every rejected operation returns an *Error carrying a Kind, a stable Code and
// structured Details naming the offending values. Callers inspect errors with
// IsValidation, IsState, IsAuthorization and HasCode, all of which see through
// wrapping added by github.com/cockroachdb/errors.
package fault

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// Kind classifies a rejected operation.
type Kind string

const (
	// KindValidation covers malformed input: bad addresses, oversize payloads,
	// unknown ids, amounts below minimums.
	KindValidation Kind = "validation"

	// KindState covers inputs that are well-formed but conflict with the current
	// ledger state.
	KindState Kind = "state"

	// KindAuthorization covers callers acting without the required right.
	KindAuthorization Kind = "authorization"
)

// Code identifies the specific rejection reason.
type Code string

// Validation codes.
const (
	CodeZeroAddress         Code = "ZERO_ADDRESS"
	CodeEmptyBatch          Code = "EMPTY_BATCH"
	CodeLengthMismatch      Code = "LENGTH_MISMATCH"
	CodePayloadTooLong      Code = "PAYLOAD_TOO_LONG"
	CodeDuplicateTerm       Code = "DUPLICATE_TERM"
	CodeUnknownTerm         Code = "UNKNOWN_TERM"
	CodeUnknownCurve        Code = "UNKNOWN_CURVE"
	CodeNotAnAtom           Code = "NOT_AN_ATOM"
	CodeDepositBelowMinimum Code = "DEPOSIT_BELOW_MINIMUM"
	CodeInsufficientValue   Code = "INSUFFICIENT_VALUE"
	CodeZeroShares          Code = "ZERO_SHARES"
	CodeAmountOverflow      Code = "AMOUNT_OVERFLOW"
	CodeInvalidConfig       Code = "INVALID_CONFIG"
	CodeInvalidRights       Code = "INVALID_RIGHTS"
)

// State codes.
const (
	CodePaused                  Code = "PAUSED"
	CodeInsufficientShares      Code = "INSUFFICIENT_SHARES"
	CodeSlippage                Code = "SLIPPAGE"
	CodeCounterStake            Code = "COUNTER_STAKE"
	CodeBelowGhostFloor         Code = "BELOW_GHOST_FLOOR"
	CodeInsufficientVaultAssets Code = "INSUFFICIENT_VAULT_ASSETS"
	CodeInsufficientBalance     Code = "INSUFFICIENT_BALANCE"
	CodeInsufficientAllowance   Code = "INSUFFICIENT_ALLOWANCE"
	CodeEpochNotClosed          Code = "EPOCH_NOT_CLOSED"
	CodeAlreadySwept            Code = "ALREADY_SWEPT"
)

// Authorization codes.
const (
	CodeNotApproved  Code = "NOT_APPROVED"
	CodeNotWallet    Code = "NOT_WALLET"
	CodeSelfApproval Code = "SELF_APPROVAL"
)

// Error is a classified rejection.
type Error struct {
	Kind    Kind
	Code    Code
	Message string

	// Details holds the offending values, e.g. "term" -> the duplicate id.
	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + e.Details[k]
	}
	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, strings.Join(parts, ", "))
}

// With returns a copy of e with an extra detail.
func (e *Error) With(key string, value any) *Error {
	details := make(map[string]string, len(e.Details)+1)
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = fmt.Sprint(value)
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Details: details}
}

func newError(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a validation error.
func Validation(code Code, format string, args ...any) *Error {
	return newError(KindValidation, code, format, args...)
}

// State builds a state error.
func State(code Code, format string, args ...any) *Error {
	return newError(KindState, code, format, args...)
}

// Authorization builds an authorization error.
func Authorization(code Code, format string, args ...any) *Error {
	return newError(KindAuthorization, code, format, args...)
}

// As extracts the *Error from err, if any.
func As(err error) (*Error, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	fe, ok := As(err)
	return ok && fe.Kind == KindValidation
}

// IsState reports whether err is a state error.
func IsState(err error) bool {
	fe, ok := As(err)
	return ok && fe.Kind == KindState
}

// IsAuthorization reports whether err is an authorization error.
func IsAuthorization(err error) bool {
	fe, ok := As(err)
	return ok && fe.Kind == KindAuthorization
}

// HasCode reports whether err is a fault with the given code.
func HasCode(err error, code Code) bool {
	fe, ok := As(err)
	return ok && fe.Code == code
}

// CodeOf returns the fault code of err, or "" if err is not a fault.
func CodeOf(err error) Code {
	if fe, ok := As(err); ok {
		return fe.Code
	}
	return ""
}
