package models

import (
	dErrors "tokenvault/pkg/domain-errors"
)

const (
	// FingerprintPrefixLength is the number of leading digits kept in clear.
	FingerprintPrefixLength = 8
	// FingerprintSuffixLength is the number of trailing digits kept in clear.
	FingerprintSuffixLength = 4
	// MinAccountNumberLength is the shortest number a fingerprint can be derived from.
	MinAccountNumberLength = FingerprintPrefixLength + FingerprintSuffixLength
)

// Fingerprint is the clear-text lookup fragment of an account number.
// Together with the tenant it forms the dedup key of an account.
type Fingerprint struct {
	Prefix string
	Suffix string
}

// DeriveFingerprint splits a raw account number into its lookup fragments.
// It is pure and used identically by create, update and find. Any numeric
// string of at least MinAccountNumberLength digits is accepted; length caps on
// untrusted input belong to the transport layer.
func DeriveFingerprint(accountNumber string) (Fingerprint, error) {
	if len(accountNumber) < MinAccountNumberLength {
		return Fingerprint{}, dErrors.New(dErrors.CodeInvalidAccountNumber, "account number is too short")
	}
	for i := 0; i < len(accountNumber); i++ {
		if accountNumber[i] < '0' || accountNumber[i] > '9' {
			return Fingerprint{}, dErrors.New(dErrors.CodeInvalidAccountNumber, "account number must be numeric")
		}
	}
	return Fingerprint{
		Prefix: accountNumber[:FingerprintPrefixLength],
		Suffix: accountNumber[len(accountNumber)-FingerprintSuffixLength:],
	}, nil
}

// Masked renders the fingerprint for logs, e.g. "41111111****1111".
func (f Fingerprint) Masked() string {
	return f.Prefix + "****" + f.Suffix
}

func (f Fingerprint) IsZero() bool {
	return f.Prefix == "" && f.Suffix == ""
}
