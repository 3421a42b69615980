package badgerjournal_test

import (
	"context"
	"testing"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	"github.com/cryptonote-pool/payoutd/internal/core/ports"
	badgerjournal "github.com/cryptonote-pool/payoutd/internal/infrastructure/journal/badger"
	"github.com/stretchr/testify/require"
)

func newJournal(t *testing.T) ports.SettlementJournal {
	journal, err := badgerjournal.NewSettlementJournal("", nil)
	require.NoError(t, err)
	t.Cleanup(journal.Close)
	return journal
}

func testBatch(id string) *domain.TransferBatch {
	return &domain.TransferBatch{
		ID:    id,
		Asset: "XMR",
		Destinations: []domain.Destination{
			{Amount: 1000, Address: "addr1"},
		},
		Amount: 1000,
		Fee:    10,
	}
}

func TestJournalLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	journal := newJournal(t)

	require.NoError(t, journal.MarkPending(ctx, testBatch("batch-1")))

	entries, err := journal.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "batch-1", entries[0].BatchID)
	require.Equal(t, ports.JournalStatusPending, entries[0].Status)
	require.Equal(t, int64(1000), entries[0].Amount)

	require.NoError(t, journal.MarkConfirmed(ctx, "batch-1", "txid1"))

	entries, err = journal.Unresolved(ctx)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestJournalInconsistent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	journal := newJournal(t)

	require.NoError(t, journal.MarkPending(ctx, testBatch("batch-1")))
	require.NoError(t, journal.MarkPending(ctx, testBatch("batch-2")))

	require.NoError(t, journal.MarkConfirmed(ctx, "batch-1", "txid1"))
	require.NoError(t,
		journal.MarkInconsistent(ctx, "batch-2", "txid2", "connection reset"))

	entries, err := journal.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "batch-2", entries[0].BatchID)
	require.Equal(t, ports.JournalStatusInconsistent, entries[0].Status)
	require.Equal(t, "txid2", entries[0].TxID)
	require.Equal(t, "connection reset", entries[0].Reason)
}

func TestJournalObservedFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	journal := newJournal(t)

	require.NoError(t, journal.MarkPending(ctx, testBatch("batch-1")))
	require.NoError(t, journal.MarkPending(ctx, testBatch("batch-2")))

	// an observed RPC failure resolves the entry, only the still-pending
	// sibling needs operator attention
	require.NoError(t, journal.MarkFailed(ctx, "batch-1", "daemon is busy"))

	entries, err := journal.Unresolved(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "batch-2", entries[0].BatchID)
	require.Equal(t, ports.JournalStatusPending, entries[0].Status)
}

func TestJournalUpdateUnknownBatch(t *testing.T) {
	t.Parallel()

	journal := newJournal(t)
	require.Error(t, journal.MarkConfirmed(context.Background(), "missing", "txid1"))
}
