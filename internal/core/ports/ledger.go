package ports

import (
	"context"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
)

// LedgerStore is the key-value ledger holding per-account balances, payout
// preferences and payment history. The settlement core consumes it only
// through these primitives, mutation is always a relative atomic
// multi-operation scoped to one batch.
type LedgerStore interface {
	// AccountAddresses enumerates every known account identifier for the
	// configured coin namespace, in deterministic order.
	AccountAddresses(ctx context.Context) ([]string, error)
	// ReadFields performs a batched read of the given hash fields for every
	// account. The result has one row per account aligned with the input
	// slice, one column per field; missing fields yield empty strings.
	ReadFields(ctx context.Context, accounts, fields []string) ([][]string, error)
	// Apply executes the staged commands as a single atomic multi-operation.
	// Either all commands are applied or none.
	Apply(ctx context.Context, commands []domain.LedgerCommand) error
	Close()
}
