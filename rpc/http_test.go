package rpc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"contentledger/config"
	"contentledger/core"
	"contentledger/crypto"
	"contentledger/native/content"
	"contentledger/storage"
)

func testAddr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

func bech32Addr(addr [20]byte) string {
	return crypto.NewAddress(crypto.Prefix, addr).String()
}

type rpcClient struct {
	t      *testing.T
	url    string
	token  string
	nextID int
}

func (c *rpcClient) call(method string, params interface{}) (*http.Response, RPCResponse) {
	c.t.Helper()
	c.nextID++
	payload := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      c.nextID,
		"method":  method,
	}
	if params != nil {
		payload["params"] = []interface{}{params}
	}
	body, err := json.Marshal(payload)
	require.NoError(c.t, err)

	req, err := http.NewRequest(http.MethodPost, c.url, bytes.NewReader(body))
	require.NoError(c.t, err)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var decoded RPCResponse
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func (c *rpcClient) mustResult(method string, params, out interface{}) {
	c.t.Helper()
	resp, decoded := c.call(method, params)
	require.Equal(c.t, http.StatusOK, resp.StatusCode)
	require.Nil(c.t, decoded.Error)
	raw, err := json.Marshal(decoded.Result)
	require.NoError(c.t, err)
	require.NoError(c.t, json.Unmarshal(raw, out))
}

func newTestServer(t *testing.T, token string) (*httptest.Server, *rpcClient, [20]byte) {
	t.Helper()
	admin := testAddr(0x01)
	buyer := testAddr(0x10)
	cfg := &config.Config{
		NetworkName:        "cml-test",
		Administrator:      bech32Addr(admin),
		CommissionPermille: 100,
		GenesisAlloc: map[string]string{
			bech32Addr(buyer): "100000",
		},
	}
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	node, err := core.NewNode(db, cfg, nil)
	require.NoError(t, err)

	t.Setenv("CML_RPC_TOKEN", token)
	ts := httptest.NewServer(NewServer(node).Handler())
	t.Cleanup(ts.Close)

	return ts, &rpcClient{t: t, url: ts.URL, token: token}, buyer
}

func TestRPCPurchaseLifecycle(t *testing.T) {
	_, client, buyer := newTestServer(t, "")
	creator := testAddr(0x02)

	var registered contentResult
	client.mustResult("content_register", registerParams{
		Caller:                   bech32Addr(creator),
		ContentID:                1,
		Price:                    "1000",
		CreatorSharePermille:     900,
		MetadataURI:              "ipfs://meta",
		SubscriptionEnabled:      true,
		SubscriptionPeriodBlocks: 25,
	}, &registered)
	require.Equal(t, bech32Addr(creator), registered.Creator)
	require.Equal(t, "1000", registered.Price)

	var purchased purchaseResult
	client.mustResult("content_purchase", purchaseParams{
		Caller:    bech32Addr(buyer),
		ContentID: 1,
	}, &purchased)
	require.True(t, purchased.Active)
	require.Equal(t, "100", purchased.PlatformFee)
	require.Equal(t, "900", purchased.CreatorEarnings)
	require.Equal(t, purchased.PurchasedAtBlock+25, purchased.SubscriptionEndBlock)

	var access accessResult
	client.mustResult("content_isAccessible", purchaseQueryParams{
		Buyer:     bech32Addr(buyer),
		ContentID: 1,
	}, &access)
	require.True(t, access.Accessible)

	var balance balanceResult
	client.mustResult("content_getBalance", balanceQueryParams{
		Creator: bech32Addr(creator),
	}, &balance)
	require.Equal(t, "900", balance.Balance)

	var withdrawn withdrawResult
	client.mustResult("content_withdraw", withdrawParams{
		Caller: bech32Addr(creator),
	}, &withdrawn)
	require.Equal(t, "900", withdrawn.Amount)

	var terminated purchaseResult
	client.mustResult("content_terminate", purchaseParams{
		Caller:    bech32Addr(buyer),
		ContentID: 1,
	}, &terminated)
	require.False(t, terminated.Active)

	var height heightResult
	client.mustResult("ledger_getHeight", nil, &height)
	require.Equal(t, uint64(4), height.Height)
}

func TestRPCLedgerErrorCarriesCode(t *testing.T) {
	_, client, buyer := newTestServer(t, "")

	resp, decoded := client.call("content_purchase", purchaseParams{
		Caller:    bech32Addr(buyer),
		ContentID: 404,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	require.Equal(t, codeLedgerError, decoded.Error.Code)

	data, ok := decoded.Error.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, float64(content.CodeContentNotFound), data["ledgerCode"])
}

func TestRPCRequiresAuthForWrites(t *testing.T) {
	ts, client, buyer := newTestServer(t, "secret")

	// Missing token is rejected before the ledger is touched.
	unauthed := &rpcClient{t: t, url: ts.URL}
	resp, decoded := unauthed.call("content_purchase", purchaseParams{
		Caller:    bech32Addr(buyer),
		ContentID: 1,
	})
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.NotNil(t, decoded.Error)
	require.Equal(t, codeUnauthorized, decoded.Error.Code)

	// Reads stay open.
	var height heightResult
	unauthed.mustResult("ledger_getHeight", nil, &height)
	require.Equal(t, uint64(0), height.Height)

	// The bearer token unlocks writes.
	creator := testAddr(0x02)
	var registered contentResult
	client.mustResult("content_register", registerParams{
		Caller:               bech32Addr(creator),
		ContentID:            1,
		Price:                "50",
		CreatorSharePermille: 500,
	}, &registered)
	require.Equal(t, uint64(1), registered.ID)
}

func TestRPCRejectsMalformedRequests(t *testing.T) {
	ts, client, _ := newTestServer(t, "")

	resp, decoded := client.call("no_such_method", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, codeMethodNotFound, decoded.Error.Code)

	httpResp, err := http.Post(ts.URL, "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer httpResp.Body.Close()
	var parseFail RPCResponse
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&parseFail))
	require.Equal(t, codeParseError, parseFail.Error.Code)

	resp, decoded = client.call("content_register", registerParams{
		Caller: "garbage-address",
		Price:  "10",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, codeInvalidParams, decoded.Error.Code)

	// Version mismatches are refused outright.
	body, err := json.Marshal(map[string]interface{}{"jsonrpc": "1.0", "id": 1, "method": "ledger_getHeight"})
	require.NoError(t, err)
	httpResp, err = http.Post(ts.URL, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer httpResp.Body.Close()
	var versionFail RPCResponse
	require.NoError(t, json.NewDecoder(httpResp.Body).Decode(&versionFail))
	require.Equal(t, codeInvalidRequest, versionFail.Error.Code)
}
