package application

import (
	"context"
	"testing"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	inmemoryledger "github.com/cryptonote-pool/payoutd/internal/infrastructure/ledger/inmemory"
	"github.com/stretchr/testify/require"
)

func testService(policy domain.AssetPolicy) *SettlementService {
	return &SettlementService{
		parser: domain.AddressParser{PaymentIDSeparator: "+"},
		policies: domain.PolicyTable{
			Base:     "XMR",
			Policies: map[domain.Asset]domain.AssetPolicy{"XMR": policy},
		},
	}
}

func basePolicy() domain.AssetPolicy {
	return domain.AssetPolicy{
		MinPayment:      100,
		Denomination:    10,
		TransferFee:     1,
		MaxDestinations: 3,
		RingSize:        11,
		RPCMethod:       "transfer",
		Units:           100,
		Symbol:          "XMR",
	}
}

func entries(amounts map[string]int64, order []string) []domain.PayoutEntry {
	out := make([]domain.PayoutEntry, 0, len(order))
	for _, account := range order {
		out = append(out, domain.PayoutEntry{
			Account: account, Asset: "XMR", Amount: amounts[account],
		})
	}
	return out
}

func TestBuildBatchesMaxDestinations(t *testing.T) {
	t.Parallel()

	svc := testService(basePolicy())

	batches := svc.buildBatches(entries(
		map[string]int64{"a": 100, "b": 100, "c": 100, "d": 100},
		[]string{"a", "b", "c", "d"},
	))

	require.Len(t, batches, 2)
	require.Len(t, batches[0].Destinations, 3)
	require.Len(t, batches[1].Destinations, 1)
	require.Equal(t, int64(300), batches[0].Amount)
	require.Equal(t, int64(100), batches[1].Amount)
	require.NotEqual(t, batches[0].ID, batches[1].ID)
}

func TestBuildBatchesMaxAmount(t *testing.T) {
	t.Parallel()

	policy := basePolicy()
	policy.MaxTransferAmount = 250
	svc := testService(policy)

	batches := svc.buildBatches(entries(
		map[string]int64{"a": 100, "b": 100, "c": 100},
		[]string{"a", "b", "c"},
	))

	// third payout is truncated to fit the 250 ceiling; the excess is not
	// carried to another batch, it stays on the ledger balance and
	// re-qualifies next run
	require.Len(t, batches, 1)
	require.Equal(t, int64(250), batches[0].Amount)
	require.Equal(t, []domain.Destination{
		{Amount: 100, Address: "a"},
		{Amount: 100, Address: "b"},
		{Amount: 50, Address: "c"},
	}, batches[0].Destinations)

	// the ledger decrement matches the truncated amount, not the original
	require.Contains(t, batches[0].Commands,
		domain.IncrementCommand("c", "balance", -50))
	require.Contains(t, batches[0].Commands,
		domain.IncrementCommand("c", "paid", 50))
}

func TestBuildBatchesPaymentIDIsolation(t *testing.T) {
	t.Parallel()

	svc := testService(basePolicy())

	batches := svc.buildBatches([]domain.PayoutEntry{
		{Account: "a", Asset: "XMR", Amount: 100},
		{Account: "b+abcd1234abcd1234", Asset: "XMR", Amount: 100},
		{Account: "c", Asset: "XMR", Amount: 100},
		{Account: "d", Asset: "XMR", Amount: 100},
	})

	require.Len(t, batches, 3)

	require.Equal(t, []domain.Destination{{Amount: 100, Address: "a"}},
		batches[0].Destinations)
	require.Empty(t, batches[0].PaymentID)

	require.Equal(t, []domain.Destination{{Amount: 100, Address: "b"}},
		batches[1].Destinations)
	require.Equal(t, "abcd1234abcd1234", batches[1].PaymentID)

	require.Equal(t, []domain.Destination{
		{Amount: 100, Address: "c"}, {Amount: 100, Address: "d"},
	}, batches[2].Destinations)
	require.Empty(t, batches[2].PaymentID)

	// the decrement targets the full account identifier, pid included
	require.Contains(t, batches[1].Commands,
		domain.IncrementCommand("b+abcd1234abcd1234", "balance", -100))
}

func TestBuildBatchesDynamicFee(t *testing.T) {
	t.Parallel()

	policy := basePolicy()
	policy.DynamicFee = true
	policy.TransferFee = 5
	svc := testService(policy)

	batches := svc.buildBatches(entries(
		map[string]int64{"a": 100, "b": 100},
		[]string{"a", "b"},
	))

	require.Len(t, batches, 1)
	require.Equal(t, int64(10), batches[0].Fee)
}

func TestBuildBatchesMinerPaysFee(t *testing.T) {
	t.Parallel()

	policy := basePolicy()
	policy.DynamicFee = true
	policy.MinerPaysFee = true
	policy.TransferFee = 5
	svc := testService(policy)

	batches := svc.buildBatches(entries(map[string]int64{"a": 100}, []string{"a"}))

	require.Len(t, batches, 1)
	require.Equal(t, []domain.LedgerCommand{
		domain.IncrementCommand("a", "balance", -100),
		domain.IncrementCommand("a", "balance", -5),
		domain.IncrementCommand("a", "paid", 100),
	}, batches[0].Commands)
}

func TestFilterPayouts(t *testing.T) {
	t.Parallel()

	policy := basePolicy()
	policy.MinPayment = 500
	policy.Denomination = 100
	svc := testService(policy)

	accounts := []string{"below", "exact", "rounded"}
	balances := balanceSheet{
		"below":   {"XMR": 499},
		"exact":   {"XMR": 500},
		"rounded": {"XMR": 777},
	}
	levels := balanceSheet{
		"below":   {"XMR": 500},
		"exact":   {"XMR": 500},
		"rounded": {"XMR": 500},
	}

	got := svc.filterPayouts(accounts, balances, levels)
	require.Equal(t, []domain.PayoutEntry{
		{Account: "exact", Asset: "XMR", Amount: 500},
		{Account: "rounded", Asset: "XMR", Amount: 700},
	}, got)
}

func TestFilterPayoutsMinerPaidFee(t *testing.T) {
	t.Parallel()

	policy := basePolicy()
	policy.MinPayment = 100
	policy.Denomination = 100
	policy.DynamicFee = true
	policy.MinerPaysFee = true
	policy.TransferFee = 150
	svc := testService(policy)

	// the fee deduction can push the payout negative, such entries are
	// dropped entirely
	got := svc.filterPayouts(
		[]string{"a", "b"},
		balanceSheet{"a": {"XMR": 100}, "b": {"XMR": 300}},
		balanceSheet{"a": {"XMR": 100}, "b": {"XMR": 100}},
	)
	require.Equal(t, []domain.PayoutEntry{
		{Account: "b", Asset: "XMR", Amount: 150},
	}, got)
}

func TestCollectAndFilterIdempotence(t *testing.T) {
	t.Parallel()

	policy := basePolicy()
	policy.MinPayment = 500
	svc := testService(policy)

	ledger := inmemoryledger.NewLedgerStore()
	inmemoryledger.SetField(ledger, "miner1", "balance", 1000)
	inmemoryledger.SetField(ledger, "miner2", "balance", 250)
	svc.ledger = ledger

	ctx := context.Background()
	accounts, err := svc.ledger.AccountAddresses(ctx)
	require.NoError(t, err)

	collect := func() []domain.PayoutEntry {
		balances, err := svc.collectBalances(ctx, accounts)
		require.NoError(t, err)
		levels, err := svc.collectPayoutLevels(ctx, accounts)
		require.NoError(t, err)
		return svc.filterPayouts(accounts, balances, levels)
	}

	first := collect()
	second := collect()
	require.Equal(t, first, second)
	require.Equal(t, []domain.PayoutEntry{
		{Account: "miner1", Asset: "XMR", Amount: 1000},
	}, first)
}

func TestBuildBatchesMultiAsset(t *testing.T) {
	t.Parallel()

	svc := &SettlementService{
		parser: domain.AddressParser{PaymentIDSeparator: "+"},
		policies: domain.PolicyTable{
			Base: "XHV",
			Policies: map[domain.Asset]domain.AssetPolicy{
				"XHV":  basePolicy(),
				"XUSD": basePolicy(),
			},
		},
	}

	batches := svc.buildBatches([]domain.PayoutEntry{
		{Account: "a", Asset: "XHV", Amount: 100},
		{Account: "a", Asset: "XUSD", Amount: 200},
		{Account: "b", Asset: "XHV", Amount: 100},
	})

	// assets never share a batch
	require.Len(t, batches, 2)
	require.Equal(t, domain.Asset("XHV"), batches[0].Asset)
	require.Len(t, batches[0].Destinations, 2)
	require.Equal(t, domain.Asset("XUSD"), batches[1].Asset)
	require.Len(t, batches[1].Destinations, 1)

	// non-base asset decrements the suffixed field
	require.Contains(t, batches[1].Commands,
		domain.IncrementCommand("a", "balance-XUSD", -200))
}
