package ledger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"github.com/veristream/veristream-internal/internal/common/jsonrpc"
)

func newBridgeServer(t *testing.T, gotAccount *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req signRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		*gotAccount = req.Account
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"outcome":"signed","signature":["0x1","0x2"]}`))
	}))
}

func newGatewayServer(t *testing.T, gotSender *string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonrpc.Request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, methodAddInvokeTransaction, req.Method)
		*gotSender = gjson.GetBytes(req.Params, "sender_address").String()
		rsp := jsonrpc.Response{
			JSONRPC: jsonrpc.Version,
			ID:      req.ID,
			Result:  json.RawMessage(`{"transaction_hash":"0xabc"}`),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(&rsp)
	}))
}

func TestSubmitRegistrationRoutesCreatorWallet(t *testing.T) {
	var account, sender string
	bridge := newBridgeServer(t, &account)
	defer bridge.Close()
	gw := newGatewayServer(t, &sender)
	defer gw.Close()

	client := NewGatewayClient(gw.URL, "0xc0ffee")
	signer := NewWalletBridgeSigner(bridge.URL)

	handle, err := client.SubmitRegistration(context.Background(), RegistrationPayload{
		Title:       "Sunset Timelapse",
		StorageHash: "Qm123",
		Creator:     "0xcafe",
	}, signer)
	require.NoError(t, err)
	assert.EqualValues(t, "0xabc", handle)

	// The creator's wallet is the one prompted, and the broadcast carries
	// the creator as sender.
	assert.Equal(t, "0xcafe", account)
	assert.Equal(t, "0xcafe", sender)
}

func TestSubmitIssuanceRoutesBuyerWallet(t *testing.T) {
	var account, sender string
	bridge := newBridgeServer(t, &account)
	defer bridge.Close()
	gw := newGatewayServer(t, &sender)
	defer gw.Close()

	client := NewGatewayClient(gw.URL, "0xc0ffee")
	signer := NewWalletBridgeSigner(bridge.URL)

	_, err := client.SubmitIssuance(context.Background(), IssuancePayload{
		ContentLedgerID: 42,
		Duration:        2,
		PriceMinor:      1999,
		Buyer:           "0xbeef",
	}, signer)
	require.NoError(t, err)
	assert.Equal(t, "0xbeef", account)
	assert.Equal(t, "0xbeef", sender)
}

func TestSubmitRejectsMissingSender(t *testing.T) {
	var account, sender string
	bridge := newBridgeServer(t, &account)
	defer bridge.Close()
	gw := newGatewayServer(t, &sender)
	defer gw.Close()

	client := NewGatewayClient(gw.URL, "0xc0ffee")
	signer := NewWalletBridgeSigner(bridge.URL)

	_, err := client.SubmitRegistration(context.Background(), RegistrationPayload{
		Title:       "Sunset Timelapse",
		StorageHash: "Qm123",
	}, signer)
	require.Error(t, err)
	assert.Empty(t, account)
}
