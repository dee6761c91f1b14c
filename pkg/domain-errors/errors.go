// Package domainerrors carries coded errors across the service boundary.
//
// Stores return sentinel errors (see pkg/platform/sentinel); services translate
// them into a Code so transports can map outcomes without knowing which
// dependency failed. Wrap keeps the underlying cause reachable through
// errors.Unwrap for diagnostics.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code identifies a closed set of domain outcomes.
type Code string

const (
	// Validation faults: caller input is malformed.
	CodeValidation           Code = "validation_error"
	CodeBadRequest           Code = "bad_request"
	CodeInvalidAccountNumber Code = "invalid_account_number"

	// Business-rule faults: legitimate domain outcomes.
	CodeInvalidCardBrand     Code = "invalid_card_brand"
	CodeAccountAlreadyExists Code = "account_already_exists"
	CodeAccountNotFound      Code = "account_not_found"
	CodeTokenNotFound        Code = "token_not_found"
	CodeNotFound             Code = "not_found"
	CodeConflict             Code = "conflict"
	CodeRateLimited          Code = "rate_limited"

	// Infrastructure faults: a dependency failed.
	CodeFailedToTokenize       Code = "failed_to_tokenize"
	CodeFailedToUpdateAccount  Code = "failed_to_update_account"
	CodeFailedToFindToken      Code = "failed_to_find_token"
	CodeFailedToDisableAccount Code = "failed_to_disable_account"
	CodeFailedToResolveToken   Code = "failed_to_resolve_token"
	CodeInternal               Code = "internal_error"

	// CodeInvariantViolation marks a broken aggregate invariant. It is the
	// only code that signals an unexpected condition rather than an outcome.
	CodeInvariantViolation Code = "invariant_violation"
)

// Error is a coded domain error.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a coded error without a cause.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Wrap builds a coded error that retains err as its cause.
func Wrap(err error, code Code, msg string) error {
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost domain error in the chain, or
// CodeInternal when err carries none.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether the outermost domain error in err's chain has code.
func HasCode(err error, code Code) bool {
	if err == nil {
		return false
	}
	var de *Error
	if !errors.As(err, &de) {
		return false
	}
	return de.Code == code
}

// Is is an alias of HasCode kept for call sites that read better with it.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// IsInfrastructure reports whether the code describes a dependency failure.
func (c Code) IsInfrastructure() bool {
	switch c {
	case CodeFailedToTokenize, CodeFailedToUpdateAccount, CodeFailedToFindToken,
		CodeFailedToDisableAccount, CodeFailedToResolveToken, CodeInternal:
		return true
	}
	return false
}
