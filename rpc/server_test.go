package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	nativecommon "stablevault/native/common"
	"stablevault/native/pricing"
	"stablevault/native/token"
	"stablevault/native/vault"
	"stablevault/storage"
)

type serverHarness struct {
	server *httptest.Server
	board  *nativecommon.Switchboard
	weth   *token.Ledger
	susd   *token.Ledger
	feed   *pricing.ManualFeed

	module ethcommon.Address
	owner  ethcommon.Address
	user   ethcommon.Address
}

func newServerHarness(t *testing.T) *serverHarness {
	t.Helper()

	module := ethcommon.HexToAddress("0x0000000000000000000000000000000000000001")
	owner := ethcommon.HexToAddress("0x0000000000000000000000000000000000000002")
	user := ethcommon.HexToAddress("0x0000000000000000000000000000000000000010")

	weth := token.NewLedger("WETH", 18)
	susd := token.NewLedger("SUSD", 18)
	feed := pricing.NewManualFeed(8)
	feed.Set(big.NewInt(2000_0000_0000))

	engine := vault.NewEngine(module, owner, vault.RiskParameters{})
	engine.SetState(storage.NewVaultStore(storage.NewMemDB()))
	engine.SetStableToken(susd)
	board := nativecommon.NewSwitchboard()
	engine.SetPauses(board)
	engine.SetBlacklist(board)
	require.NoError(t, engine.Registry().Add(vault.AssetInfo{Symbol: "WETH", Decimals: 18, Token: weth, Feed: feed}))

	open, _ := new(big.Int).SetString("1000000000000000000000000000000", 10)
	require.NoError(t, weth.Mint(user, mustParse(t, "1000000000000000000000")))
	weth.Approve(user, module, open)
	susd.Approve(user, module, open)

	srv := NewServer(engine, board, nil)
	srv.RegisterFeed("WETH", feed)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return &serverHarness{
		server: ts,
		board:  board,
		weth:   weth,
		susd:   susd,
		feed:   feed,
		module: module,
		owner:  owner,
		user:   user,
	}
}

func mustParse(t *testing.T, value string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(value, 10)
	require.True(t, ok, "invalid big integer literal %q", value)
	return v
}

func (h *serverHarness) post(t *testing.T, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(h.server.URL+path, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func (h *serverHarness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(h.server.URL + path)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestDepositEndpoint(t *testing.T) {
	h := newServerHarness(t)

	resp := h.post(t, "/v1/vault/deposit", positionRequest{
		User:   h.user.Hex(),
		Asset:  "WETH",
		Amount: "100000000000000000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pos := decode[positionResponse](t, resp)
	require.Equal(t, "100000000000000000000", pos.Collateral)
	require.Equal(t, "0", pos.Debt)
}

func TestMintFlowWithAccessors(t *testing.T) {
	h := newServerHarness(t)

	resp := h.post(t, "/v1/vault/deposit", positionRequest{User: h.user.Hex(), Asset: "WETH", Amount: "100000000000000000000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/vault/ratio", ratioRequest{User: h.user.Hex(), Asset: "WETH", Ratio: 150})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.get(t, fmt.Sprintf("/v1/vault/positions/WETH/%s/max-mintable", h.user.Hex()))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ceiling := decode[amountResponse](t, resp)
	require.Equal(t, "133333333333333333333333", ceiling.Amount)

	resp = h.post(t, "/v1/vault/mint", positionRequest{User: h.user.Hex(), Asset: "WETH", Amount: "50000000000000000000000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pos := decode[positionResponse](t, resp)
	require.Equal(t, "50000000000000000000000", pos.Debt)

	resp = h.get(t, fmt.Sprintf("/v1/vault/debt/%s", h.user.Hex()))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	total := decode[amountResponse](t, resp)
	require.Equal(t, "50000000000000000000000", total.Amount)
}

func TestErrorStatusMapping(t *testing.T) {
	h := newServerHarness(t)

	resp := h.post(t, "/v1/vault/deposit", positionRequest{User: h.user.Hex(), Asset: "DOGE", Amount: "1"})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/vault/deposit", positionRequest{User: h.user.Hex(), Asset: "WETH", Amount: "0"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/vault/deposit", positionRequest{User: "nope", Asset: "WETH", Amount: "1"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	// Healthy positions cannot be liquidated.
	h.post(t, "/v1/vault/deposit", positionRequest{User: h.user.Hex(), Asset: "WETH", Amount: "1000000000000000000"}).Body.Close()
	h.post(t, "/v1/vault/ratio", ratioRequest{User: h.user.Hex(), Asset: "WETH", Ratio: 150}).Body.Close()
	h.post(t, "/v1/vault/mint", positionRequest{User: h.user.Hex(), Asset: "WETH", Amount: "1000000000000000000000"}).Body.Close()
	resp = h.post(t, "/v1/vault/liquidate", liquidateRequest{
		Liquidator: h.owner.Hex(), User: h.user.Hex(), Asset: "WETH", Amount: "1",
	})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()
}

func TestAdminPriceAndPause(t *testing.T) {
	h := newServerHarness(t)

	resp := h.post(t, "/v1/admin/price", priceRequest{Caller: h.user.Hex(), Asset: "WETH", Answer: "90000000000"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/admin/price", priceRequest{Caller: h.owner.Hex(), Asset: "WETH", Answer: "90000000000"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/admin/pause", pauseRequest{Caller: h.owner.Hex(), Module: "vault", Paused: true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.post(t, "/v1/vault/deposit", positionRequest{User: h.user.Hex(), Asset: "WETH", Amount: "1"})
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestAddAndRemoveAsset(t *testing.T) {
	h := newServerHarness(t)

	resp := h.post(t, "/v1/admin/assets", addAssetRequest{
		Caller: h.owner.Hex(), Symbol: "link", Decimals: 18, FeedDecimals: 8, InitialPrice: "1500000000",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = h.get(t, "/v1/admin/assets")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	listing := decode[map[string][]string](t, resp)
	require.Contains(t, listing["assets"], "LINK")

	req, err := http.NewRequest(http.MethodDelete, h.server.URL+"/v1/admin/assets/LINK", strings.NewReader(`{"caller":"`+h.owner.Hex()+`"}`))
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, del.StatusCode)
	del.Body.Close()
}

func TestBodyLimitAndRateLimit(t *testing.T) {
	h := newServerHarness(t)

	oversized := bytes.Repeat([]byte("a"), requestBodyLimit+1)
	resp, err := http.Post(h.server.URL+"/v1/vault/deposit", "application/json", bytes.NewReader(oversized))
	require.NoError(t, err)
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	resp.Body.Close()

	limiter := newClientLimiter(1, 1)
	require.True(t, limiter.allow("10.0.0.1"))
	require.False(t, limiter.allow("10.0.0.1"))
	require.True(t, limiter.allow("10.0.0.2"))
}
