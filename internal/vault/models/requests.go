package models

import (
	"strings"

	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

// CreateAccountRequest asks the vault to tokenize an account number.
type CreateAccountRequest struct {
	AccountNumber  string
	ExpirationDate string
	HolderEmail    string
	ClientID       id.ClientID
	TokenSource    TokenSource
}

// UpdateAccountRequest rewrites the account owning Token.
type UpdateAccountRequest struct {
	AccountNumber  string
	ExpirationDate string
	HolderEmail    string
	Token          string
	ClientID       id.ClientID
}

// CreateAccountResult is the success payload of CreateAccount.
type CreateAccountResult struct {
	AccountID         id.AccountID
	Token             string
	NewAccountCreated bool
}

// ResolvedAccount is a token resolved back to its clear account number.
type ResolvedAccount struct {
	AccountID      id.AccountID
	Token          string
	AccountNumber  string
	ExpirationDate string
	HolderEmail    string
	CardBinID      id.CardBinID
}

func (r *CreateAccountRequest) Normalize() {
	r.AccountNumber = strings.TrimSpace(r.AccountNumber)
	r.ExpirationDate = strings.TrimSpace(r.ExpirationDate)
	r.HolderEmail = strings.TrimSpace(r.HolderEmail)
	if r.TokenSource == nil {
		r.TokenSource = Generated{}
	}
}

func (r *CreateAccountRequest) Validate() error {
	if r.ClientID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "client id is required")
	}
	if supplied, ok := r.TokenSource.(CallerSupplied); ok {
		return ValidateExternalToken(supplied.Value)
	}
	return nil
}

func (r *UpdateAccountRequest) Normalize() {
	r.AccountNumber = strings.TrimSpace(r.AccountNumber)
	r.ExpirationDate = strings.TrimSpace(r.ExpirationDate)
	r.HolderEmail = strings.TrimSpace(r.HolderEmail)
	r.Token = strings.TrimSpace(r.Token)
}

func (r *UpdateAccountRequest) Validate() error {
	if r.ClientID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "client id is required")
	}
	if r.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	return nil
}
