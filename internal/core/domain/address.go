package domain

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^A-Za-z0-9]`)

// payment identifiers are valid only at these lengths once stripped of
// non-alphanumeric characters
const (
	shortPaymentIDLength = 16
	longPaymentIDLength  = 64
)

// PayeeAddress is the result of parsing an account identifier into a
// destination address and an optional payment identifier.
type PayeeAddress struct {
	Address   string
	PaymentID string
	// Standalone marks addresses that must settle in their own
	// single-destination batch: either a self-describing integrated address or
	// an address carrying a valid explicit payment identifier.
	Standalone bool
}

// HasPaymentID reports whether an explicit payment identifier was parsed.
func (a PayeeAddress) HasPaymentID() bool {
	return a.PaymentID != ""
}

// AddressParser splits account identifiers into address and payment
// identifier following the pool's configured separators.
type AddressParser struct {
	// PaymentIDSeparator splits "<address><sep><paymentID>" identifiers.
	PaymentIDSeparator string
	// FixedDiffSeparator, when non empty, strips the fixed-difficulty suffix
	// miners append to their address. Applied after payment-id parsing.
	FixedDiffSeparator string
	// IsIntegrated reports whether a bare address is a self-describing
	// combined address+identifier. May be nil, in which case no bare address
	// qualifies.
	IsIntegrated func(addr string) bool
}

// Parse splits an account identifier. An explicit payment identifier is
// accepted only if it is exactly 16 or 64 characters long after stripping
// non-alphanumeric characters; otherwise it is discarded and the identifier is
// treated as address-only.
func (p AddressParser) Parse(account string) PayeeAddress {
	address := account
	paymentID := ""
	standalone := false

	parts := strings.Split(account, p.PaymentIDSeparator)
	integrated := len(parts) == 1 && p.IsIntegrated != nil && p.IsIntegrated(account)
	if integrated || len(parts) >= 2 {
		standalone = true
		if len(parts) >= 2 {
			address = parts[0]
			paymentID = nonAlphanumeric.ReplaceAllString(parts[1], "")
			if len(paymentID) != shortPaymentIDLength && len(paymentID) != longPaymentIDLength {
				standalone = false
				paymentID = ""
			}
		}
	}

	if p.FixedDiffSeparator != "" {
		if split := strings.Split(address, p.FixedDiffSeparator); len(split) >= 2 {
			address = split[0]
		}
	}

	return PayeeAddress{Address: address, PaymentID: paymentID, Standalone: standalone}
}

// ShortAddress truncates an address for display, keeping the first and last 7
// characters.
func ShortAddress(address string) string {
	if len(address) <= 14 {
		return address
	}
	return address[:7] + "..." + address[len(address)-7:]
}
