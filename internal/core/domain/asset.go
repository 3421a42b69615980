package domain

import (
	"fmt"
	"sort"
)

// Asset identifies one fungible unit type tracked by the ledger, e.g. the base
// coin of the pool or a pegged token on coins that support several at once.
type Asset string

// AssetPolicy is the per-asset payout configuration. It is immutable for the
// duration of a settlement run.
type AssetPolicy struct {
	// MinPayment is the default payout threshold in atomic units.
	MinPayment int64 `json:"minPayment"`
	// MaxPayment caps the per-account payout threshold, 0 means no cap.
	MaxPayment int64 `json:"maxPayment"`
	// Denomination is the rounding unit applied to payout amounts.
	Denomination int64 `json:"denomination"`
	// TransferFee is the flat fee, or the per-destination fee when DynamicFee
	// is set.
	TransferFee int64 `json:"transferFee"`
	DynamicFee  bool  `json:"dynamicTransferFee"`
	// MinerPaysFee deducts the transfer fee from the payee instead of the pool.
	MinerPaysFee bool `json:"minerPayFee"`
	Priority     int  `json:"priority"`
	// MaxDestinations limits how many destinations fit in one transfer batch.
	MaxDestinations int `json:"maxAddresses"`
	// MaxTransferAmount limits the cumulative amount of one batch, 0 means
	// unlimited.
	MaxTransferAmount int64 `json:"maxTransactionAmount"`
	RingSize          int   `json:"ringSize"`
	Mixin             int   `json:"mixin"`
	// RPCMethod is the wallet daemon method used to settle this asset.
	RPCMethod string `json:"rpcMethod"`
	// Units is the number of atomic units per displayed coin.
	Units  int64  `json:"units"`
	Symbol string `json:"symbol"`
}

// UsesRingSize reports whether the transfer request carries a ring_size field
// instead of the legacy mixin one.
func (p AssetPolicy) UsesRingSize() bool {
	return p.RingSize > 0
}

// Anonymity returns the transfer-privacy parameter passed through to the
// wallet daemon unmodified.
func (p AssetPolicy) Anonymity() int {
	if p.RingSize > 0 {
		return p.RingSize
	}
	return p.Mixin
}

// FormatAmount renders an atomic amount as a human-readable coin string.
func (p AssetPolicy) FormatAmount(amount int64) string {
	units := p.Units
	if units <= 0 {
		units = 1
	}
	decimals := 0
	for u := units; u > 1; u /= 10 {
		decimals++
	}
	whole := amount / units
	frac := amount % units
	if frac < 0 {
		frac = -frac
	}
	if decimals == 0 {
		return fmt.Sprintf("%d %s", whole, p.Symbol)
	}
	return fmt.Sprintf("%d.%0*d %s", whole, decimals, frac, p.Symbol)
}

// PolicyTable maps every tracked asset to its payout policy. Single-asset
// coins are the size-1 case, there is no dedicated code path for them.
type PolicyTable struct {
	// Base is the coin's native asset. Its ledger fields use the bare names
	// while every other asset gets a "-<asset>" suffix.
	Base     Asset                 `json:"base"`
	Policies map[Asset]AssetPolicy `json:"assets"`
}

// Assets returns the tracked assets in deterministic order: base first, then
// the remaining ones sorted lexicographically.
func (t PolicyTable) Assets() []Asset {
	assets := make([]Asset, 0, len(t.Policies))
	for asset := range t.Policies {
		if asset == t.Base {
			continue
		}
		assets = append(assets, asset)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i] < assets[j] })
	if _, ok := t.Policies[t.Base]; ok {
		assets = append([]Asset{t.Base}, assets...)
	}
	return assets
}

// Policy returns the policy for the given asset.
func (t PolicyTable) Policy(asset Asset) AssetPolicy {
	return t.Policies[asset]
}

func (t PolicyTable) field(name string, asset Asset) string {
	if asset == t.Base {
		return name
	}
	return fmt.Sprintf("%s-%s", name, asset)
}

// BalanceField returns the ledger hash field holding the asset balance.
func (t PolicyTable) BalanceField(asset Asset) string {
	return t.field("balance", asset)
}

// PaidField returns the ledger hash field holding the asset paid total.
func (t PolicyTable) PaidField(asset Asset) string {
	return t.field("paid", asset)
}

// PayoutLevelField returns the ledger hash field holding the account's custom
// payout threshold for the asset.
func (t PolicyTable) PayoutLevelField(asset Asset) string {
	return t.field("minPayoutLevel", asset)
}

// Validate checks the table is usable for settlement.
func (t PolicyTable) Validate() error {
	if len(t.Policies) == 0 {
		return fmt.Errorf("no asset policies configured")
	}
	if _, ok := t.Policies[t.Base]; !ok {
		return fmt.Errorf("base asset %s has no policy", t.Base)
	}
	for asset, policy := range t.Policies {
		if policy.Denomination <= 0 {
			return fmt.Errorf("asset %s: denomination must be greater than 0", asset)
		}
		if policy.MinPayment <= 0 {
			return fmt.Errorf("asset %s: min payment must be greater than 0", asset)
		}
		if policy.MaxPayment > 0 && policy.MaxPayment < policy.MinPayment {
			return fmt.Errorf("asset %s: max payment lower than min payment", asset)
		}
		if policy.MaxDestinations <= 0 {
			return fmt.Errorf("asset %s: max destinations must be greater than 0", asset)
		}
		if policy.RingSize == 0 && policy.Mixin == 0 {
			return fmt.Errorf("asset %s: either ring size or mixin must be set", asset)
		}
		if policy.RPCMethod == "" {
			return fmt.Errorf("asset %s: rpc method is missing", asset)
		}
	}
	return nil
}
