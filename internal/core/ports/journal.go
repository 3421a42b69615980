package ports

import (
	"context"
	"time"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
)

type JournalStatus string

const (
	// JournalStatusPending marks a batch about to be dispatched. A batch stuck
	// in this state after a crash needs manual reconciliation: the transfer
	// may or may not have left the wallet.
	JournalStatusPending JournalStatus = "pending"
	// JournalStatusConfirmed marks a batch whose ledger update was applied.
	JournalStatusConfirmed JournalStatus = "confirmed"
	// JournalStatusFailed marks a batch whose transfer request returned an
	// error. The process observed the failure, no funds left the wallet and
	// no recovery is needed.
	JournalStatusFailed JournalStatus = "failed"
	// JournalStatusInconsistent marks a batch whose transfer succeeded but
	// whose ledger update failed. Funds left the pool without the ledger being
	// debited, never retried automatically.
	JournalStatusInconsistent JournalStatus = "inconsistent"
)

// JournalEntry is the write-ahead record of one transfer batch.
type JournalEntry struct {
	BatchID      string
	Asset        string
	Destinations []domain.Destination
	Amount       int64
	Fee          int64
	TxID         string
	Status       JournalStatus
	Reason       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// SettlementJournal persists the write-ahead record of every batch so that a
// crash between the transfer call and the ledger update can be reconciled by
// an operator without guessing.
type SettlementJournal interface {
	MarkPending(ctx context.Context, batch *domain.TransferBatch) error
	MarkConfirmed(ctx context.Context, batchID, txid string) error
	MarkFailed(ctx context.Context, batchID, reason string) error
	MarkInconsistent(ctx context.Context, batchID, txid, reason string) error
	// Unresolved returns every entry still needing operator attention:
	// pending and inconsistent ones, not those confirmed or observed failed.
	Unresolved(ctx context.Context) ([]JournalEntry, error)
	Close()
}
