package redisledger

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	"github.com/cryptonote-pool/payoutd/internal/core/ports"
	"github.com/redis/go-redis/v9"
)

const (
	accountsKeyPrefix = "accounts"
	paymentsKeyPrefix = "payments"
	globalPaymentsKey = "all"

	scanBatchSize = 1000
)

type ledgerStore struct {
	rdb          *redis.Client
	coin         string
	numOfRetries int
}

// NewLedgerStore returns a redis-backed ledger store scoped to the given coin
// namespace. All mutation goes through transactional pipelines retried up to
// numOfRetries times.
func NewLedgerStore(rdb *redis.Client, coin string, numOfRetries int) ports.LedgerStore {
	return &ledgerStore{rdb: rdb, coin: coin, numOfRetries: numOfRetries}
}

func (s *ledgerStore) accountKey(account string) string {
	return fmt.Sprintf("%s:%s:%s", s.coin, accountsKeyPrefix, account)
}

func (s *ledgerStore) paymentsKey(address string) string {
	if address == "" {
		address = globalPaymentsKey
	}
	return fmt.Sprintf("%s:%s:%s", s.coin, paymentsKeyPrefix, address)
}

func (s *ledgerStore) AccountAddresses(ctx context.Context) ([]string, error) {
	prefix := fmt.Sprintf("%s:%s:", s.coin, accountsKeyPrefix)

	accounts := make([]string, 0)
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, prefix+"*", scanBatchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan account keys: %w", err)
		}
		for _, key := range keys {
			accounts = append(accounts, strings.TrimPrefix(key, prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	sort.Strings(accounts)
	return accounts, nil
}

func (s *ledgerStore) ReadFields(
	ctx context.Context, accounts, fields []string,
) ([][]string, error) {
	cmds := make([]*redis.StringCmd, 0, len(accounts)*len(fields))
	pipe := s.rdb.Pipeline()
	for _, account := range accounts {
		for _, field := range fields {
			cmds = append(cmds, pipe.HGet(ctx, s.accountKey(account), field))
		}
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to read account fields: %w", err)
	}

	rows := make([][]string, len(accounts))
	for i := range accounts {
		rows[i] = make([]string, len(fields))
		for j := range fields {
			value, err := cmds[i*len(fields)+j].Result()
			if err != nil {
				if err != redis.Nil {
					return nil, fmt.Errorf("failed to read account fields: %w", err)
				}
				continue
			}
			rows[i][j] = value
		}
	}
	return rows, nil
}

func (s *ledgerStore) Apply(ctx context.Context, commands []domain.LedgerCommand) error {
	return retryOnTxFailure(s.numOfRetries, func() error {
		_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, cmd := range commands {
				switch cmd.Op {
				case domain.LedgerIncrBy:
					pipe.HIncrBy(ctx, s.accountKey(cmd.Account), cmd.Field, cmd.Delta)
				case domain.LedgerAppendHistory:
					pipe.ZAdd(ctx, s.paymentsKey(cmd.Address), redis.Z{
						Score:  float64(cmd.Timestamp),
						Member: cmd.Record,
					})
				default:
					return fmt.Errorf("unknown ledger op %d", cmd.Op)
				}
			}
			return nil
		})
		return err
	})
}

// retryOnTxFailure re-runs apply only when redis rejected the transaction
// before committing it. Any other error, an I/O failure included, may mean
// the commands already committed server-side; re-sending them would apply
// every increment twice, so those errors surface to the caller instead.
func retryOnTxFailure(numOfRetries int, apply func() error) (err error) {
	for attempt := 0; attempt < numOfRetries; attempt++ {
		if err = apply(); err == nil || err != redis.TxFailedErr {
			return err
		}
	}
	return err
}

func (s *ledgerStore) Close() {
	// nolint:errcheck
	s.rdb.Close()
}
