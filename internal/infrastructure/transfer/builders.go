package transfer

import (
	"encoding/json"
	"fmt"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
)

type defaultRequest struct {
	Destinations []domain.Destination `json:"destinations"`
	Fee          int64                `json:"fee"`
	Priority     int                  `json:"priority"`
	UnlockTime   int64                `json:"unlock_time"`
	RingSize     int                  `json:"ring_size,omitempty"`
	Mixin        int                  `json:"mixin,omitempty"`
	PaymentID    string               `json:"payment_id,omitempty"`
}

type defaultResponse struct {
	TxHash     string   `json:"tx_hash"`
	TxHashList []string `json:"tx_hash_list"`
}

type defaultBuilder struct{}

func (defaultBuilder) buildRequest(batch *domain.TransferBatch) (string, interface{}) {
	ringSize, mixin := anonymityFields(batch)
	return batch.RPCMethod, defaultRequest{
		Destinations: batch.Destinations,
		Fee:          batch.Fee,
		Priority:     batch.Priority,
		UnlockTime:   batch.UnlockTime,
		RingSize:     ringSize,
		Mixin:        mixin,
		PaymentID:    batch.PaymentID,
	}
}

// anonymityFields maps the batch's privacy parameter to exactly one request
// field: ring_size when configured, the legacy mixin otherwise.
func anonymityFields(batch *domain.TransferBatch) (ringSize, mixin int) {
	if batch.RingSize > 0 {
		return batch.RingSize, 0
	}
	return 0, batch.Mixin
}

func (defaultBuilder) extractTxids(result json.RawMessage) ([]string, error) {
	resp := defaultResponse{}
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode wallet response: %w", err)
	}
	if len(resp.TxHashList) > 0 {
		return resp.TxHashList, nil
	}
	if resp.TxHash == "" {
		return nil, fmt.Errorf("wallet response carries no transaction id")
	}
	return []string{resp.TxHash}, nil
}

type bytecoinRequest struct {
	Transfers  []domain.Destination `json:"transfers"`
	Fee        int64                `json:"fee"`
	Anonymity  int                  `json:"anonymity"`
	UnlockTime int64                `json:"unlockTime"`
	PaymentID  string               `json:"paymentId,omitempty"`
}

type bytecoinResponse struct {
	TransactionHash string `json:"transactionHash"`
}

type bytecoinBuilder struct{}

func (bytecoinBuilder) buildRequest(batch *domain.TransferBatch) (string, interface{}) {
	return "sendTransaction", bytecoinRequest{
		Transfers:  batch.Destinations,
		Fee:        batch.Fee,
		Anonymity:  batch.Anonymity(),
		UnlockTime: batch.UnlockTime,
		PaymentID:  batch.PaymentID,
	}
}

func (bytecoinBuilder) extractTxids(result json.RawMessage) ([]string, error) {
	resp := bytecoinResponse{}
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode wallet response: %w", err)
	}
	if resp.TransactionHash == "" {
		return nil, fmt.Errorf("wallet response carries no transaction id")
	}
	return []string{resp.TransactionHash}, nil
}

type havenRequest struct {
	Destinations []domain.Destination `json:"destinations"`
	Fee          int64                `json:"fee"`
	Priority     int                  `json:"priority"`
	UnlockTime   int64                `json:"unlock_time"`
	AssetType    string               `json:"asset_type"`
	RingSize     int                  `json:"ring_size,omitempty"`
	Mixin        int                  `json:"mixin,omitempty"`
	PaymentID    string               `json:"payment_id,omitempty"`
}

type havenResponse struct {
	TxHashList []string `json:"tx_hash_list"`
}

type havenBuilder struct{}

func (havenBuilder) buildRequest(batch *domain.TransferBatch) (string, interface{}) {
	ringSize, mixin := anonymityFields(batch)
	return batch.RPCMethod, havenRequest{
		Destinations: batch.Destinations,
		Fee:          batch.Fee,
		Priority:     batch.Priority,
		UnlockTime:   batch.UnlockTime,
		AssetType:    string(batch.Asset),
		RingSize:     ringSize,
		Mixin:        mixin,
		PaymentID:    batch.PaymentID,
	}
}

func (havenBuilder) extractTxids(result json.RawMessage) ([]string, error) {
	resp := havenResponse{}
	if err := json.Unmarshal(result, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode wallet response: %w", err)
	}
	if len(resp.TxHashList) == 0 {
		return nil, fmt.Errorf("wallet response carries no transaction id")
	}
	return resp.TxHashList, nil
}
