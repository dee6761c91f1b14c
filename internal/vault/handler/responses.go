package handler

import "tokenvault/internal/vault/models"

type CreateAccountResponse struct {
	AccountID         string `json:"account_id"`
	Token             string `json:"token"`
	NewAccountCreated bool   `json:"new_account_created"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type ResolvedAccountResponse struct {
	AccountID      string `json:"account_id"`
	Token          string `json:"token"`
	AccountNumber  string `json:"account_number"`
	ExpirationDate string `json:"expiration_date"`
	HolderEmail    string `json:"holder_email"`
	CardBinID      int    `json:"card_bin_id"`
}

// FromResolved converts a resolved account to its HTTP response.
func FromResolved(a *models.ResolvedAccount) ResolvedAccountResponse {
	return ResolvedAccountResponse{
		AccountID:      a.AccountID.String(),
		Token:          a.Token,
		AccountNumber:  a.AccountNumber,
		ExpirationDate: a.ExpirationDate,
		HolderEmail:    a.HolderEmail,
		CardBinID:      int(a.CardBinID),
	}
}
