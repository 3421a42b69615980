package transfer

import (
	"encoding/json"
	"testing"

	"github.com/cryptonote-pool/payoutd/internal/core/domain"
	"github.com/stretchr/testify/require"
)

func testBatch() *domain.TransferBatch {
	return &domain.TransferBatch{
		ID:    "batch-1",
		Asset: "XUSD",
		Destinations: []domain.Destination{
			{Amount: 1000, Address: "addr1"},
			{Amount: 2000, Address: "addr2"},
		},
		Amount:    3000,
		Fee:       10,
		Priority:  2,
		RingSize:  11,
		PaymentID: "abcd1234abcd1234",
		RPCMethod: "transfer",
	}
}

func TestDefaultBuilder(t *testing.T) {
	t.Parallel()

	method, params := defaultBuilder{}.buildRequest(testBatch())
	require.Equal(t, "transfer", method)

	buf, err := json.Marshal(params)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"destinations": [
			{"amount": 1000, "address": "addr1"},
			{"amount": 2000, "address": "addr2"}
		],
		"fee": 10,
		"priority": 2,
		"unlock_time": 0,
		"ring_size": 11,
		"payment_id": "abcd1234abcd1234"
	}`, string(buf))

	txids, err := defaultBuilder{}.extractTxids([]byte(`{"tx_hash": "aaa"}`))
	require.NoError(t, err)
	require.Equal(t, []string{"aaa"}, txids)

	txids, err = defaultBuilder{}.extractTxids([]byte(`{"tx_hash_list": ["aaa", "bbb"]}`))
	require.NoError(t, err)
	require.Equal(t, []string{"aaa", "bbb"}, txids)

	_, err = defaultBuilder{}.extractTxids([]byte(`{}`))
	require.Error(t, err)
}

func TestDefaultBuilderMixin(t *testing.T) {
	t.Parallel()

	batch := testBatch()
	batch.RingSize = 0
	batch.Mixin = 4

	_, params := defaultBuilder{}.buildRequest(batch)
	buf, err := json.Marshal(params)
	require.NoError(t, err)

	// legacy daemons take mixin, ring_size must be absent
	require.NotContains(t, string(buf), "ring_size")
	require.Contains(t, string(buf), `"mixin":4`)
}

func TestBuildersPickOneAnonymityField(t *testing.T) {
	t.Parallel()

	// a policy carrying both parameters settles on ring_size, the request
	// never serializes both
	batch := testBatch()
	batch.RingSize = 11
	batch.Mixin = 4

	for _, builder := range []requestBuilder{defaultBuilder{}, havenBuilder{}} {
		_, params := builder.buildRequest(batch)
		buf, err := json.Marshal(params)
		require.NoError(t, err)
		require.Contains(t, string(buf), `"ring_size":11`)
		require.NotContains(t, string(buf), "mixin")
	}
}

func TestBytecoinBuilder(t *testing.T) {
	t.Parallel()

	batch := testBatch()
	batch.RingSize = 0
	batch.Mixin = 4

	method, params := bytecoinBuilder{}.buildRequest(batch)
	require.Equal(t, "sendTransaction", method)

	buf, err := json.Marshal(params)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"transfers": [
			{"amount": 1000, "address": "addr1"},
			{"amount": 2000, "address": "addr2"}
		],
		"fee": 10,
		"anonymity": 4,
		"unlockTime": 0,
		"paymentId": "abcd1234abcd1234"
	}`, string(buf))

	txids, err := bytecoinBuilder{}.extractTxids([]byte(`{"transactionHash": "ccc"}`))
	require.NoError(t, err)
	require.Equal(t, []string{"ccc"}, txids)

	_, err = bytecoinBuilder{}.extractTxids([]byte(`{}`))
	require.Error(t, err)
}

func TestHavenBuilder(t *testing.T) {
	t.Parallel()

	method, params := havenBuilder{}.buildRequest(testBatch())
	require.Equal(t, "transfer", method)

	buf, err := json.Marshal(params)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"destinations": [
			{"amount": 1000, "address": "addr1"},
			{"amount": 2000, "address": "addr2"}
		],
		"fee": 10,
		"priority": 2,
		"unlock_time": 0,
		"asset_type": "XUSD",
		"ring_size": 11,
		"payment_id": "abcd1234abcd1234"
	}`, string(buf))

	txids, err := havenBuilder{}.extractTxids([]byte(`{"tx_hash_list": ["ddd"]}`))
	require.NoError(t, err)
	require.Equal(t, []string{"ddd"}, txids)

	_, err = havenBuilder{}.extractTxids([]byte(`{"tx_hash_list": []}`))
	require.Error(t, err)
}

func TestNewWalletClientUnknownFamily(t *testing.T) {
	t.Parallel()

	_, err := NewWalletClient("http://localhost:8082/json_rpc", "dogecoin")
	require.Error(t, err)

	for _, family := range []Family{FamilyDefault, FamilyBytecoin, FamilyHaven} {
		client, err := NewWalletClient("http://localhost:8082/json_rpc", family)
		require.NoError(t, err)
		require.NotNil(t, client)
	}
}
