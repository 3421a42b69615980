package application

import (
	"context"
	"strings"
	"time"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

var txidDelimiters = strings.NewReplacer("<", "", ">", "")

// dispatch issues one transfer request per batch, strictly in sequence, and
// reconciles the ledger on each success. A failed batch leaves its ledger
// untouched and never aborts its siblings.
func (s *SettlementService) dispatch(
	ctx context.Context, batches []*domain.TransferBatch, report *RunReport,
) []paidDestination {
	notifies := make([]paidDestination, 0)

	// offsets same-second history timestamps so ordered-set keys stay unique
	// within one run
	timeOffset := int64(0)

	for _, batch := range batches {
		if err := s.journal.MarkPending(ctx, batch); err != nil {
			log.WithError(err).Errorf("failed to journal batch %s before dispatch", batch.ID)
		}

		txids, err := s.transfer.Transfer(ctx, batch)
		if err != nil {
			log.WithError(err).Errorf(
				"error with %s RPC request to wallet daemon", batch.RPCMethod,
			)
			log.Errorf("payments failed to send to %+v", batch.Destinations)
			// the failure was observed, nothing left the wallet: resolve the
			// journal entry so the recovery pass only flags crash windows
			if jerr := s.journal.MarkFailed(ctx, batch.ID, err.Error()); jerr != nil {
				log.WithError(jerr).Errorf("failed to journal failed batch %s", batch.ID)
			}
			report.Failed++
			continue
		}

		now := time.Now().Unix() + timeOffset
		timeOffset++

		txid := txidDelimiters.Replace(strings.Join(txids, ","))

		record := domain.SettlementRecord{
			TxID:         txid,
			Amount:       batch.Amount,
			Fee:          batch.Fee,
			Anonymity:    batch.Anonymity(),
			Destinations: len(batch.Destinations),
			Timestamp:    now,
		}
		batch.Commands = append(batch.Commands,
			domain.HistoryCommand("", now, record.EncodeGlobal()))

		paid := make([]paidDestination, 0, len(batch.Destinations))
		for _, destination := range batch.Destinations {
			address := destination.Address
			if batch.PaymentID != "" {
				address += s.parser.PaymentIDSeparator + batch.PaymentID
			}

			destRecord := record
			destRecord.Amount = destination.Amount
			batch.Commands = append(batch.Commands,
				domain.HistoryCommand(address, now, destRecord.EncodeDestination()))

			paid = append(paid, paidDestination{
				address: address, asset: batch.Asset, amount: destination.Amount,
			})
		}

		log.Infof("payments sent via wallet daemon: %s", txid)

		if err := s.ledger.Apply(ctx, batch.Commands); err != nil {
			log.WithError(err).Error(
				"super critical error! payments sent yet failing to update " +
					"balance in ledger, double payouts likely to happen",
			)
			log.Errorf("double payments likely to be sent to %+v", batch.Destinations)
			if jerr := s.journal.MarkInconsistent(ctx, batch.ID, txid, err.Error()); jerr != nil {
				log.WithError(jerr).Errorf("failed to journal inconsistent batch %s", batch.ID)
			}
			report.Failed++
			continue
		}

		if err := s.journal.MarkConfirmed(ctx, batch.ID, txid); err != nil {
			log.WithError(err).Errorf("failed to journal confirmed batch %s", batch.ID)
		}

		notifies = append(notifies, paid...)
		report.Sent++
		report.Paid += batch.Amount
	}

	return notifies
}

// notifyPaid emits one payment event per successfully paid destination.
func (s *SettlementService) notifyPaid(ctx context.Context, notifies []paidDestination) {
	for _, notify := range notifies {
		amount := s.policies.Policy(notify.asset).FormatAmount(notify.amount)
		log.Infof("payment of %s to %s", amount, notify.address)
		if err := s.notifier.NotifyPayment(ctx, notify.address, amount); err != nil {
			log.WithError(err).Warnf("failed to notify payment to %s", notify.address)
		}
	}
}
