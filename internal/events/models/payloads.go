package models

import (
	"encoding/json"
	"fmt"

	id "tokenvault/pkg/domain"
	dErrors "tokenvault/pkg/domain-errors"
)

// AccountCreated announces a newly tokenized account. It never carries the
// clear account number.
type AccountCreated struct {
	AccountID string `json:"account_id"`
	Token     string `json:"token"`
	Masked    string `json:"masked"`
	CardBinID int    `json:"card_bin_id"`

	accountID id.AccountID
}

type AccountUpdated struct {
	AccountID string `json:"account_id"`
	Token     string `json:"token"`
	Masked    string `json:"masked"`

	accountID id.AccountID
}

type AccountDeleted struct {
	AccountID string `json:"account_id"`

	accountID id.AccountID
}

// ParsedAccountID is the account id checked by Validate. It is nil until
// the payload went through DecodePayload.
func (p *AccountCreated) ParsedAccountID() id.AccountID { return p.accountID }

func (p *AccountUpdated) ParsedAccountID() id.AccountID { return p.accountID }

func (p *AccountDeleted) ParsedAccountID() id.AccountID { return p.accountID }

func (p *AccountCreated) Validate() error {
	accountID, err := id.ParseAccountID(p.AccountID)
	if err != nil {
		return err
	}
	if p.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	if p.CardBinID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "card bin id is required")
	}
	p.accountID = accountID
	return nil
}

func (p *AccountUpdated) Validate() error {
	accountID, err := id.ParseAccountID(p.AccountID)
	if err != nil {
		return err
	}
	if p.Token == "" {
		return dErrors.New(dErrors.CodeValidation, "token is required")
	}
	p.accountID = accountID
	return nil
}

func (p *AccountDeleted) Validate() error {
	accountID, err := id.ParseAccountID(p.AccountID)
	if err != nil {
		return err
	}
	p.accountID = accountID
	return nil
}

// payload is satisfied by pointers to the payload structs above.
type payload[T any] interface {
	*T
	Validate() error
}

// DecodePayload strictly decodes and validates the payload of e into T.
func DecodePayload[T any, P payload[T]](e IntegrationEvent) (T, error) {
	var decoded T
	if len(e.Payload) == 0 {
		return decoded, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s event has no payload", e.Type))
	}
	if err := json.Unmarshal(e.Payload, &decoded); err != nil {
		return decoded, dErrors.Wrap(err, dErrors.CodeValidation, fmt.Sprintf("malformed %s payload", e.Type))
	}
	if err := P(&decoded).Validate(); err != nil {
		return decoded, err
	}
	return decoded, nil
}
