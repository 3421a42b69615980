package transfer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/AccumulateNetwork/jsonrpc2/v15"
	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	"github.com/cryptonote-pool/payoutd/internal/core/ports"
)

// Family selects the wallet daemon dialect the client talks to. Request and
// response shapes differ between coin families.
type Family string

const (
	// FamilyDefault covers monero-style wallets: method from the asset
	// policy, destinations/fee/ring_size request, tx_hash or tx_hash_list
	// response.
	FamilyDefault Family = "default"
	// FamilyBytecoin covers bytecoin-style wallets: sendTransaction method,
	// transfers/anonymity request, transactionHash response.
	FamilyBytecoin Family = "bytecoin"
	// FamilyHaven covers haven-style wallets: per-asset method carrying an
	// asset_type field, tx_hash_list response.
	FamilyHaven Family = "haven"
)

const defaultRequestTimeout = 2 * time.Minute

// requestBuilder turns a transfer batch into the family-specific RPC payload
// and extracts transaction ids from the family-specific response.
type requestBuilder interface {
	buildRequest(batch *domain.TransferBatch) (method string, params interface{})
	extractTxids(result json.RawMessage) ([]string, error)
}

type walletClient struct {
	client  jsonrpc2.Client
	url     string
	builder requestBuilder
}

// NewWalletClient returns a transfer client speaking the given coin family
// dialect against the wallet daemon JSON-RPC endpoint.
func NewWalletClient(url string, family Family) (ports.TransferClient, error) {
	var builder requestBuilder
	switch family {
	case FamilyDefault, "":
		builder = defaultBuilder{}
	case FamilyBytecoin:
		builder = bytecoinBuilder{}
	case FamilyHaven:
		builder = havenBuilder{}
	default:
		return nil, fmt.Errorf("unknown daemon family %s", family)
	}

	client := jsonrpc2.Client{}
	client.Timeout = defaultRequestTimeout

	return &walletClient{client: client, url: url, builder: builder}, nil
}

func (c *walletClient) Transfer(
	ctx context.Context, batch *domain.TransferBatch,
) ([]string, error) {
	method, params := c.builder.buildRequest(batch)

	var result json.RawMessage
	if err := c.client.Request(ctx, c.url, method, params, &result); err != nil {
		return nil, err
	}
	return c.builder.extractTxids(result)
}
