package application

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	"github.com/cryptonote-pool/payoutd/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

const defaultPaymentIDSeparator = "+"

// SettlementService is the periodic settlement batcher. Once per interval it
// converts accumulated per-account balances into grouped withdrawal requests
// against the wallet daemon and reconciles the ledger with the outcome of each
// request.
//
// A run is strictly sequential: collection, filtering, batching, per-batch
// dispatch and ledger reconciliation execute one step at a time. The next run
// is armed only after the current one fully settled, so there is never more
// than one in-flight settlement cycle.
type SettlementService struct {
	ledger    ports.LedgerStore
	transfer  ports.TransferClient
	scheduler ports.SchedulerService
	notifier  ports.Notifier
	journal   ports.SettlementJournal

	parser   domain.AddressParser
	policies domain.PolicyTable
	interval int64

	running atomic.Bool
	stopped atomic.Bool
}

// NewSettlementService returns a settlement service ready to be started.
// Interval is expressed in seconds.
func NewSettlementService(
	ledger ports.LedgerStore, transfer ports.TransferClient,
	scheduler ports.SchedulerService, notifier ports.Notifier,
	journal ports.SettlementJournal, validator ports.AddressValidator,
	policies domain.PolicyTable, paymentIDSeparator, fixedDiffSeparator string,
	interval int64,
) (*SettlementService, error) {
	if err := policies.Validate(); err != nil {
		return nil, fmt.Errorf("invalid asset policies: %w", err)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("invalid interval, must be greater than 0")
	}
	if paymentIDSeparator == "" {
		paymentIDSeparator = defaultPaymentIDSeparator
	}

	parser := domain.AddressParser{
		PaymentIDSeparator: paymentIDSeparator,
		FixedDiffSeparator: fixedDiffSeparator,
	}
	if validator != nil {
		parser.IsIntegrated = validator.IsIntegrated
	}

	return &SettlementService{
		ledger:    ledger,
		transfer:  transfer,
		scheduler: scheduler,
		notifier:  notifier,
		journal:   journal,
		parser:    parser,
		policies:  policies,
		interval:  interval,
	}, nil
}

// Start recovers unresolved journal entries from a previous life of the
// process, starts the scheduler and arms the first settlement run.
func (s *SettlementService) Start() error {
	if err := s.recoverJournal(); err != nil {
		return err
	}

	s.scheduler.Start()

	log.Info("payments processor started")
	return s.scheduler.ScheduleTaskOnce(s.scheduler.AddNow(1), s.runAndReschedule)
}

// Stop prevents further runs from being armed and stops the scheduler. A run
// already in flight is not cancelled.
func (s *SettlementService) Stop() {
	s.stopped.Store(true)
	s.scheduler.Stop()
	s.notifier.Close()
	s.journal.Close()
	s.ledger.Close()
}

func (s *SettlementService) runAndReschedule() {
	if !s.running.CompareAndSwap(false, true) {
		log.Warn("settlement run already in progress, skipping")
		return
	}

	report, err := s.RunOnce(context.Background())
	s.running.Store(false)

	if err != nil {
		log.WithError(err).Error("settlement run aborted")
	} else if report.Eligible > 0 {
		log.Infof(
			"payments splintered and %d successfully sent, %d failed",
			report.Sent, report.Failed,
		)
	}

	if s.stopped.Load() {
		return
	}
	if err := s.scheduler.ScheduleTaskOnce(
		s.scheduler.AddNow(s.interval), s.runAndReschedule,
	); err != nil {
		log.WithError(err).Error("failed to arm next settlement run")
	}
}

// RunOnce executes one full settlement cycle. A store error during collection
// aborts the run; an empty eligible set is a benign no-op. Errors local to one
// batch never abort processing of its siblings.
func (s *SettlementService) RunOnce(ctx context.Context) (*RunReport, error) {
	accounts, err := s.ledger.AccountAddresses(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate accounts: %w", err)
	}

	balances, err := s.collectBalances(ctx, accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to collect balances: %w", err)
	}

	levels, err := s.collectPayoutLevels(ctx, accounts)
	if err != nil {
		return nil, fmt.Errorf("failed to collect payout levels: %w", err)
	}

	entries := s.filterPayouts(accounts, balances, levels)
	report := &RunReport{Accounts: len(accounts), Eligible: len(entries)}
	if len(entries) == 0 {
		log.Info("no accounts' balances reached the minimum payment threshold")
		return report, nil
	}

	batches := s.buildBatches(entries)
	report.Batches = len(batches)

	notifies := s.dispatch(ctx, batches, report)
	s.notifyPaid(ctx, notifies)

	return report, nil
}

func (s *SettlementService) recoverJournal() error {
	entries, err := s.journal.Unresolved(context.Background())
	if err != nil {
		return fmt.Errorf("failed to read settlement journal: %w", err)
	}
	for _, entry := range entries {
		switch entry.Status {
		case ports.JournalStatusPending:
			log.Warnf(
				"journal: batch %s of %d destinations (%d %s) left pending, "+
					"verify whether the transfer was sent before the crash",
				entry.BatchID, len(entry.Destinations), entry.Amount, entry.Asset,
			)
		case ports.JournalStatusInconsistent:
			log.Errorf(
				"journal: batch %s (txid %s) paid but never debited from the ledger, "+
					"manual reconciliation required: %s",
				entry.BatchID, entry.TxID, entry.Reason,
			)
		}
	}
	return nil
}
