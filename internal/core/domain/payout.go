package domain

import (
	"fmt"
	"strings"
)

// PayoutEntry is an eligible payout for one (account, asset) pair. The amount
// is denomination-rounded and fee-adjusted, always greater than or equal to 0.
type PayoutEntry struct {
	Account string
	Asset   Asset
	Amount  int64
}

// Destination is one output of a transfer batch.
type Destination struct {
	Amount  int64  `json:"amount"`
	Address string `json:"address"`
}

// LedgerOp enumerates the atomic mutations supported by the ledger store.
type LedgerOp int

const (
	// LedgerIncrBy increments (or decrements) a numeric account field.
	LedgerIncrBy LedgerOp = iota
	// LedgerAppendHistory appends a record to a payment history ordered set.
	LedgerAppendHistory
)

// LedgerCommand is one staged ledger mutation. Commands are accumulated while
// a batch is built and applied as a single atomic multi-operation once its
// transfer succeeds.
type LedgerCommand struct {
	Op LedgerOp

	// IncrBy target.
	Account string
	Field   string
	Delta   int64

	// AppendHistory target. An empty address selects the global payment log.
	Address   string
	Timestamp int64
	Record    string
}

// IncrementCommand stages a counter increment on an account field.
func IncrementCommand(account, field string, delta int64) LedgerCommand {
	return LedgerCommand{Op: LedgerIncrBy, Account: account, Field: field, Delta: delta}
}

// HistoryCommand stages a payment history append. Pass an empty address for
// the global log.
func HistoryCommand(address string, timestamp int64, record string) LedgerCommand {
	return LedgerCommand{
		Op: LedgerAppendHistory, Address: address, Timestamp: timestamp, Record: record,
	}
}

// TransferBatch is one outbound transfer request grouping one or more
// destinations under shared fee and anonymity parameters. If a batch carries a
// payment identifier it contains exactly one destination.
type TransferBatch struct {
	ID           string
	Asset        Asset
	Destinations []Destination
	Amount       int64
	Fee          int64
	Priority     int
	RingSize     int
	Mixin        int
	PaymentID    string
	RPCMethod    string
	UnlockTime   int64

	// Commands holds the ledger mutations staged for this batch. They are not
	// executed until the transfer request succeeded.
	Commands []LedgerCommand
}

// Anonymity returns the privacy parameter carried by the batch.
func (b *TransferBatch) Anonymity() int {
	if b.RingSize > 0 {
		return b.RingSize
	}
	return b.Mixin
}

// SettlementRecord is the history entry appended after a batch succeeds, both
// to the global payment log and to each destination's log. Append-only.
type SettlementRecord struct {
	TxID         string
	Amount       int64
	Fee          int64
	Anonymity    int
	Destinations int
	Timestamp    int64
}

// EncodeGlobal serializes the record for the global payment log.
func (r SettlementRecord) EncodeGlobal() string {
	return strings.Join([]string{
		r.TxID,
		fmt.Sprintf("%d", r.Amount),
		fmt.Sprintf("%d", r.Fee),
		fmt.Sprintf("%d", r.Anonymity),
		fmt.Sprintf("%d", r.Destinations),
	}, ":")
}

// EncodeDestination serializes the record for a destination's payment log.
func (r SettlementRecord) EncodeDestination() string {
	return strings.Join([]string{
		r.TxID,
		fmt.Sprintf("%d", r.Amount),
		fmt.Sprintf("%d", r.Fee),
		fmt.Sprintf("%d", r.Anonymity),
	}, ":")
}
