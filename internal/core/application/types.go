package application

import "github.com/cryptonote-pool/payoutd/internal/core/domain"

// RunReport summarizes one settlement run.
type RunReport struct {
	// Accounts is the number of enumerated accounts.
	Accounts int
	// Eligible is the number of (account, asset) pairs that passed the payout
	// filter.
	Eligible int
	// Batches is the number of transfer batches built.
	Batches int
	// Sent and Failed count dispatched batches by outcome.
	Sent   int
	Failed int
	// Paid is the total amount settled across succeeded batches, all assets
	// summed in atomic units.
	Paid int64
}

// balanceSheet holds the per-account, per-asset values read during the
// collection phase.
type balanceSheet map[string]map[domain.Asset]int64

// paidDestination is a destination of a succeeded batch queued for
// notification.
type paidDestination struct {
	address string
	asset   domain.Asset
	amount  int64
}
