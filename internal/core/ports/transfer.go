package ports

import (
	"context"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
)

// TransferClient issues one transfer request per batch against the external
// funds-transfer service. Implementations are parameterized over the target
// coin family since request and response shapes differ between wallet daemons.
type TransferClient interface {
	// Transfer sends the batch and returns the transaction identifiers
	// reported by the wallet daemon, one or more depending on the method.
	Transfer(ctx context.Context, batch *domain.TransferBatch) ([]string, error)
}
