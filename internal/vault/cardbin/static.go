// Package cardbin classifies account-number prefixes into card brands.
package cardbin

import (
	"context"
	"strconv"

	id "tokenvault/pkg/domain"
)

// Brand identifiers. Stored on accounts as card_bin_id, so values are stable.
const (
	Visa       id.CardBinID = 1
	Mastercard id.CardBinID = 2
	Amex       id.CardBinID = 3
	Discover   id.CardBinID = 4
	JCB        id.CardBinID = 5
	Diners     id.CardBinID = 6
)

// Range maps the leading Digits digits of a prefix in [Low, High] to a brand.
type Range struct {
	Digits int
	Low    int
	High   int
	BinID  id.CardBinID
}

// DefaultRanges is the built-in IIN table, most specific ranges first.
var DefaultRanges = []Range{
	{Digits: 4, Low: 6011, High: 6011, BinID: Discover},
	{Digits: 4, Low: 2221, High: 2720, BinID: Mastercard},
	{Digits: 4, Low: 3528, High: 3589, BinID: JCB},
	{Digits: 3, Low: 644, High: 649, BinID: Discover},
	{Digits: 3, Low: 300, High: 305, BinID: Diners},
	{Digits: 2, Low: 51, High: 55, BinID: Mastercard},
	{Digits: 2, Low: 34, High: 34, BinID: Amex},
	{Digits: 2, Low: 37, High: 37, BinID: Amex},
	{Digits: 2, Low: 36, High: 36, BinID: Diners},
	{Digits: 2, Low: 38, High: 38, BinID: Diners},
	{Digits: 2, Low: 65, High: 65, BinID: Discover},
	{Digits: 1, Low: 4, High: 4, BinID: Visa},
}

// Static classifies prefixes against an in-process range table.
type Static struct {
	ranges []Range
}

// NewStatic builds a classifier. Nil ranges means DefaultRanges.
func NewStatic(ranges []Range) *Static {
	if ranges == nil {
		ranges = DefaultRanges
	}
	return &Static{ranges: ranges}
}

// Classify returns the first matching brand. An unrecognized prefix is a
// valid outcome reported as ok=false.
func (s *Static) Classify(_ context.Context, prefix string) (id.CardBinID, bool, error) {
	for _, r := range s.ranges {
		if len(prefix) < r.Digits {
			continue
		}
		lead, err := strconv.Atoi(prefix[:r.Digits])
		if err != nil {
			return 0, false, nil
		}
		if lead >= r.Low && lead <= r.High {
			return r.BinID, true, nil
		}
	}
	return 0, false, nil
}
