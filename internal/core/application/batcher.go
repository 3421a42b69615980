package application

import (
	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	"github.com/google/uuid"
)

// buildBatches packs eligible payouts into transfer batches, per asset,
// honoring the destination-count limit, the cumulative-amount limit and
// payment-identifier boundaries. Ledger decrements are staged on each batch
// but not executed.
func (s *SettlementService) buildBatches(entries []domain.PayoutEntry) []*domain.TransferBatch {
	batches := make([]*domain.TransferBatch, 0)
	for _, asset := range s.policies.Assets() {
		assetEntries := make([]domain.PayoutEntry, 0, len(entries))
		for _, entry := range entries {
			if entry.Asset == asset {
				assetEntries = append(assetEntries, entry)
			}
		}
		if len(assetEntries) > 0 {
			batches = append(batches, s.buildAssetBatches(asset, assetEntries)...)
		}
	}
	return batches
}

func (s *SettlementService) buildAssetBatches(
	asset domain.Asset, entries []domain.PayoutEntry,
) []*domain.TransferBatch {
	policy := s.policies.Policy(asset)

	batches := make([]*domain.TransferBatch, 0)
	var current *domain.TransferBatch
	destinations := 0
	batchAmount := int64(0)

	closeBatch := func() {
		current = nil
		destinations = 0
		batchAmount = 0
	}

	for _, entry := range entries {
		amount := entry.Amount
		// Amounts above the per-batch ceiling are truncated, the excess stays
		// in the ledger balance and re-qualifies on the next run.
		if policy.MaxTransferAmount > 0 && amount+batchAmount > policy.MaxTransferAmount {
			amount = policy.MaxTransferAmount - batchAmount
		}

		payee := s.parser.Parse(entry.Account)
		// A batch carrying a payment identifier holds exactly one destination,
		// close the current batch before adding this one.
		if payee.Standalone && destinations > 0 {
			closeBatch()
		}

		if current == nil {
			current = &domain.TransferBatch{
				ID:         uuid.NewString(),
				Asset:      asset,
				Fee:        policy.TransferFee,
				Priority:   policy.Priority,
				RingSize:   policy.RingSize,
				Mixin:      policy.Mixin,
				RPCMethod:  policy.RPCMethod,
				UnlockTime: 0,
			}
			batches = append(batches, current)
		}

		current.Destinations = append(current.Destinations, domain.Destination{
			Amount: amount, Address: payee.Address,
		})
		if payee.HasPaymentID() {
			current.PaymentID = payee.PaymentID
		}

		balanceField := s.policies.BalanceField(asset)
		current.Commands = append(current.Commands,
			domain.IncrementCommand(entry.Account, balanceField, -amount))
		if policy.DynamicFee && policy.MinerPaysFee {
			current.Commands = append(current.Commands,
				domain.IncrementCommand(entry.Account, balanceField, -policy.TransferFee))
		}
		current.Commands = append(current.Commands,
			domain.IncrementCommand(entry.Account, s.policies.PaidField(asset), amount))
		current.Amount += amount

		destinations++
		batchAmount += amount

		if policy.DynamicFee {
			current.Fee = policy.TransferFee * int64(destinations)
		}

		if destinations >= policy.MaxDestinations ||
			(policy.MaxTransferAmount > 0 && batchAmount >= policy.MaxTransferAmount) ||
			payee.Standalone {
			closeBatch()
		}
	}
	return batches
}
