package badgerjournal

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	"github.com/cryptonote-pool/payoutd/internal/core/ports"
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/timshannon/badgerhold/v4"
)

const journalStoreDir = "journal"

type journalEntryDTO struct {
	BatchID      string `badgerhold:"key"`
	Asset        string
	Destinations []domain.Destination
	Amount       int64
	Fee          int64
	TxID         string
	Status       string
	Reason       string
	CreatedAt    int64
	UpdatedAt    int64
}

type settlementJournal struct {
	store *badgerhold.Store
}

// NewSettlementJournal returns a badger-backed settlement journal. An empty
// baseDir opens an in-memory store.
func NewSettlementJournal(
	baseDir string, logger badger.Logger,
) (ports.SettlementJournal, error) {
	var dir string
	if len(baseDir) > 0 {
		dir = filepath.Join(baseDir, journalStoreDir)
	}

	store, err := createDB(dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal store: %s", err)
	}

	return &settlementJournal{store}, nil
}

func (j *settlementJournal) MarkPending(
	_ context.Context, batch *domain.TransferBatch,
) error {
	now := time.Now().Unix()
	return j.store.Upsert(batch.ID, &journalEntryDTO{
		BatchID:      batch.ID,
		Asset:        string(batch.Asset),
		Destinations: batch.Destinations,
		Amount:       batch.Amount,
		Fee:          batch.Fee,
		Status:       string(ports.JournalStatusPending),
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (j *settlementJournal) MarkConfirmed(_ context.Context, batchID, txid string) error {
	return j.update(batchID, txid, ports.JournalStatusConfirmed, "")
}

func (j *settlementJournal) MarkFailed(_ context.Context, batchID, reason string) error {
	return j.update(batchID, "", ports.JournalStatusFailed, reason)
}

func (j *settlementJournal) MarkInconsistent(
	_ context.Context, batchID, txid, reason string,
) error {
	return j.update(batchID, txid, ports.JournalStatusInconsistent, reason)
}

func (j *settlementJournal) update(
	batchID, txid string, status ports.JournalStatus, reason string,
) error {
	var dto journalEntryDTO
	if err := j.store.Get(batchID, &dto); err != nil {
		return fmt.Errorf("failed to get journal entry %s: %w", batchID, err)
	}

	dto.TxID = txid
	dto.Status = string(status)
	dto.Reason = reason
	dto.UpdatedAt = time.Now().Unix()
	return j.store.Update(batchID, &dto)
}

func (j *settlementJournal) Unresolved(_ context.Context) ([]ports.JournalEntry, error) {
	var dtos []journalEntryDTO
	query := badgerhold.Where("Status").
		Ne(string(ports.JournalStatusConfirmed)).
		And("Status").Ne(string(ports.JournalStatusFailed))
	if err := j.store.Find(&dtos, query); err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}

	entries := make([]ports.JournalEntry, 0, len(dtos))
	for _, dto := range dtos {
		entries = append(entries, ports.JournalEntry{
			BatchID:      dto.BatchID,
			Asset:        dto.Asset,
			Destinations: dto.Destinations,
			Amount:       dto.Amount,
			Fee:          dto.Fee,
			TxID:         dto.TxID,
			Status:       ports.JournalStatus(dto.Status),
			Reason:       dto.Reason,
			CreatedAt:    time.Unix(dto.CreatedAt, 0),
			UpdatedAt:    time.Unix(dto.UpdatedAt, 0),
		})
	}
	return entries, nil
}

func (j *settlementJournal) Close() {
	// nolint:errcheck
	j.store.Close()
}

func createDB(dbDir string, logger badger.Logger) (*badgerhold.Store, error) {
	isInMemory := len(dbDir) <= 0

	opts := badger.DefaultOptions(dbDir)
	opts.Logger = logger

	if isInMemory {
		opts.InMemory = true
	} else {
		opts.Compression = options.ZSTD
	}

	return badgerhold.Open(badgerhold.Options{
		Encoder:          badgerhold.DefaultEncode,
		Decoder:          badgerhold.DefaultDecode,
		SequenceBandwith: 100,
		Options:          opts,
	})
}
