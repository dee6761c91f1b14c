package models

import (
	dErrors "tokenvault/pkg/domain-errors"
)

const (
	MinExternalTokenLength = 16
	MaxExternalTokenLength = 64
)

// TokenSource selects how the token of a new account is obtained.
// It is either Generated or CallerSupplied.
type TokenSource interface {
	tokenSource()
}

// Generated asks the vault to mint a fresh random token.
type Generated struct{}

// CallerSupplied uses a token chosen by the caller verbatim. The caller
// guarantees uniqueness; only the shape is validated.
type CallerSupplied struct {
	Value string
}

func (Generated) tokenSource()      {}
func (CallerSupplied) tokenSource() {}

// ValidateExternalToken checks the shape of a caller supplied token.
func ValidateExternalToken(token string) error {
	if len(token) < MinExternalTokenLength || len(token) > MaxExternalTokenLength {
		return dErrors.New(dErrors.CodeValidation, "external token must be between 16 and 64 characters")
	}
	for _, r := range token {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return dErrors.New(dErrors.CodeValidation, "external token contains invalid characters")
		}
	}
	return nil
}

// TokenSourceFor maps an optional caller value onto a TokenSource.
func TokenSourceFor(externalToken string) TokenSource {
	if externalToken == "" {
		return Generated{}
	}
	return CallerSupplied{Value: externalToken}
}
