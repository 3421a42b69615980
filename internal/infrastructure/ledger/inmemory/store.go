package inmemoryledger

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	"github.com/cryptonote-pool/payoutd/internal/core/ports"
)

// HistoryEntry is one record of an in-memory payment log.
type HistoryEntry struct {
	Timestamp int64
	Record    string
}

type ledgerStore struct {
	lock     sync.RWMutex
	accounts map[string]map[string]int64
	history  map[string][]HistoryEntry
}

// NewLedgerStore returns an in-memory ledger store. It mirrors the redis
// adapter's semantics and is meant for development setups and tests.
func NewLedgerStore() ports.LedgerStore {
	return &ledgerStore{
		accounts: make(map[string]map[string]int64),
		history:  make(map[string][]HistoryEntry),
	}
}

// SetField seeds an account field, creating the account if needed.
func SetField(store ports.LedgerStore, account, field string, value int64) {
	s := store.(*ledgerStore)
	s.lock.Lock()
	defer s.lock.Unlock()
	if _, ok := s.accounts[account]; !ok {
		s.accounts[account] = make(map[string]int64)
	}
	s.accounts[account][field] = value
}

// Field reads an account field, 0 if absent.
func Field(store ports.LedgerStore, account, field string) int64 {
	s := store.(*ledgerStore)
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.accounts[account][field]
}

// History returns the payment log of the given address, empty string for the
// global log.
func History(store ports.LedgerStore, address string) []HistoryEntry {
	s := store.(*ledgerStore)
	s.lock.RLock()
	defer s.lock.RUnlock()
	return append([]HistoryEntry(nil), s.history[address]...)
}

func (s *ledgerStore) AccountAddresses(_ context.Context) ([]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	accounts := make([]string, 0, len(s.accounts))
	for account := range s.accounts {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	return accounts, nil
}

func (s *ledgerStore) ReadFields(
	_ context.Context, accounts, fields []string,
) ([][]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	rows := make([][]string, len(accounts))
	for i, account := range accounts {
		rows[i] = make([]string, len(fields))
		for j, field := range fields {
			if value, ok := s.accounts[account][field]; ok {
				rows[i][j] = fmt.Sprintf("%d", value)
			}
		}
	}
	return rows, nil
}

func (s *ledgerStore) Apply(_ context.Context, commands []domain.LedgerCommand) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, cmd := range commands {
		switch cmd.Op {
		case domain.LedgerIncrBy:
			if _, ok := s.accounts[cmd.Account]; !ok {
				s.accounts[cmd.Account] = make(map[string]int64)
			}
			s.accounts[cmd.Account][cmd.Field] += cmd.Delta
		case domain.LedgerAppendHistory:
			s.history[cmd.Address] = append(s.history[cmd.Address], HistoryEntry{
				Timestamp: cmd.Timestamp,
				Record:    cmd.Record,
			})
		default:
			return fmt.Errorf("unknown ledger op %d", cmd.Op)
		}
	}
	return nil
}

func (s *ledgerStore) Close() {}
