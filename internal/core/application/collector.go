package application

import (
	"context"
	"strconv"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	log "github.com/sirupsen/logrus"
)

// collectBalances reads the current balance of every account for every
// tracked asset. Absent or unparseable values read as 0.
func (s *SettlementService) collectBalances(
	ctx context.Context, accounts []string,
) (balanceSheet, error) {
	assets := s.policies.Assets()
	fields := make([]string, 0, len(assets))
	for _, asset := range assets {
		fields = append(fields, s.policies.BalanceField(asset))
	}

	rows, err := s.ledger.ReadFields(ctx, accounts, fields)
	if err != nil {
		return nil, err
	}

	balances := make(balanceSheet, len(accounts))
	for i, account := range accounts {
		balances[account] = make(map[domain.Asset]int64, len(assets))
		for j, asset := range assets {
			balances[account][asset] = parseAmount(rows[i][j])
		}
	}
	return balances, nil
}

// collectPayoutLevels reads the per-account payout thresholds for every
// tracked asset, clamped to [MinPayment, MaxPayment] and defaulting to the
// asset's configured minimum when absent or invalid.
func (s *SettlementService) collectPayoutLevels(
	ctx context.Context, accounts []string,
) (balanceSheet, error) {
	assets := s.policies.Assets()
	fields := make([]string, 0, len(assets))
	for _, asset := range assets {
		fields = append(fields, s.policies.PayoutLevelField(asset))
	}

	rows, err := s.ledger.ReadFields(ctx, accounts, fields)
	if err != nil {
		return nil, err
	}

	levels := make(balanceSheet, len(accounts))
	for i, account := range accounts {
		levels[account] = make(map[domain.Asset]int64, len(assets))
		for j, asset := range assets {
			policy := s.policies.Policy(asset)

			level := parseAmount(rows[i][j])
			if level == 0 {
				level = policy.MinPayment
			}
			if level < policy.MinPayment {
				level = policy.MinPayment
			}
			if policy.MaxPayment > 0 && level > policy.MaxPayment {
				level = policy.MaxPayment
			}
			levels[account][asset] = level

			if level != policy.MinPayment {
				log.Infof(
					"using payout level of %s for %s (default: %s)",
					policy.FormatAmount(level), account,
					policy.FormatAmount(policy.MinPayment),
				)
			}
		}
	}
	return levels, nil
}

// filterPayouts applies denomination rounding, threshold checks and the
// up-front miner-paid dynamic fee deduction. Entries with a negative resulting
// amount are dropped, never batched. The result preserves account enumeration
// order within each asset.
func (s *SettlementService) filterPayouts(
	accounts []string, balances, levels balanceSheet,
) []domain.PayoutEntry {
	entries := make([]domain.PayoutEntry, 0)
	for _, asset := range s.policies.Assets() {
		policy := s.policies.Policy(asset)
		for _, account := range accounts {
			balance := balances[account][asset]
			if balance < levels[account][asset] {
				continue
			}

			payout := balance - balance%policy.Denomination
			if policy.DynamicFee && policy.MinerPaysFee {
				payout -= policy.TransferFee
			}
			if payout < 0 {
				continue
			}

			entries = append(entries, domain.PayoutEntry{
				Account: account, Asset: asset, Amount: payout,
			})
		}
	}
	return entries
}

func parseAmount(value string) int64 {
	amount, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return amount
}
