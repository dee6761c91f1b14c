package handler

import (
	"tokenvault/internal/vault/models"
	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

// maxAccountNumberInput caps the account number accepted over HTTP. The
// fingerprint itself has no upper bound.
const maxAccountNumberInput = 64

func validateAccountNumberInput(accountNumber string) error {
	if len(accountNumber) > maxAccountNumberInput {
		return dErrors.New(dErrors.CodeValidation, "account_number is too long")
	}
	return nil
}

// CreateAccountRequest is the body of POST /v1/accounts. ExternalToken is
// optional; when empty the vault generates one.
type CreateAccountRequest struct {
	AccountNumber  string `json:"account_number"`
	ExpirationDate string `json:"expiration_date"`
	HolderEmail    string `json:"holder_email"`
	ExternalToken  string `json:"external_token,omitempty"`
}

func (r CreateAccountRequest) Validate() error {
	return validateAccountNumberInput(r.AccountNumber)
}

func (r CreateAccountRequest) ToModel(clientID id.ClientID) *models.CreateAccountRequest {
	return &models.CreateAccountRequest{
		AccountNumber:  r.AccountNumber,
		ExpirationDate: r.ExpirationDate,
		HolderEmail:    r.HolderEmail,
		ClientID:       clientID,
		TokenSource:    models.TokenSourceFor(r.ExternalToken),
	}
}

// UpdateAccountRequest is the body of PUT /v1/accounts/{token}.
type UpdateAccountRequest struct {
	AccountNumber  string `json:"account_number"`
	ExpirationDate string `json:"expiration_date"`
	HolderEmail    string `json:"holder_email"`
}

func (r UpdateAccountRequest) Validate() error {
	return validateAccountNumberInput(r.AccountNumber)
}

func (r UpdateAccountRequest) ToModel(token string, clientID id.ClientID) *models.UpdateAccountRequest {
	return &models.UpdateAccountRequest{
		AccountNumber:  r.AccountNumber,
		ExpirationDate: r.ExpirationDate,
		HolderEmail:    r.HolderEmail,
		Token:          token,
		ClientID:       clientID,
	}
}

// FindTokenRequest is the body of POST /v1/tokens/search. The account number
// travels in the body so it never lands in access logs.
type FindTokenRequest struct {
	AccountNumber string `json:"account_number"`
}

func (r FindTokenRequest) Validate() error {
	return validateAccountNumberInput(r.AccountNumber)
}
