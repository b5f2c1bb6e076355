package handlers

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/storage"
)

func newTestServer(t *testing.T) (*gin.Engine, *storage.MemoryConnector) {
	gin.SetMode(gin.TestMode)
	conn, err := storage.NewMemoryConnector(&config.MemoryConfig{MaxItems: 1000})
	require.NoError(t, err)
	return NewServer(conn).Router(), conn
}

func doRequest(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestServer(t)
	w := doRequest(router, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetBlock(t *testing.T) {
	router, conn := newTestServer(t)
	require.NoError(t, conn.InsertBlock(common.Block{
		ChainId: big.NewInt(1), Number: big.NewInt(100), Hash: "0xb100",
		GasLimit: big.NewInt(30000000), GasUsed: big.NewInt(12),
	}))

	w := doRequest(router, "/v1/blocks/100")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data common.Block `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "0xb100", resp.Data.Hash)
}

func TestGetBlock_NotFound(t *testing.T) {
	router, _ := newTestServer(t)
	w := doRequest(router, "/v1/blocks/999")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetBlock_InvalidNumber(t *testing.T) {
	router, _ := newTestServer(t)
	w := doRequest(router, "/v1/blocks/abc")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetBalance_NoHistoryReturnsZero(t *testing.T) {
	router, _ := newTestServer(t)

	w := doRequest(router, "/v1/balances/0xalice/0xtoken")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Address string      `json:"address"`
			Amount  json.Number `json:"amount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "0xalice", resp.Data.Address)
	assert.Equal(t, json.Number("0"), resp.Data.Amount)
}

func TestGetBalance_LatestRow(t *testing.T) {
	router, conn := newTestServer(t)
	require.NoError(t, conn.InsertBalanceHistories([]common.BalanceHistory{
		{
			Address: "0xalice", TokenAddress: "0xtoken", Index: 1,
			Amount: big.NewInt(100), BlockNumber: big.NewInt(10),
		},
		{
			Address: "0xalice", TokenAddress: "0xtoken", Index: 2,
			Amount: big.NewInt(250), BlockNumber: big.NewInt(11),
		},
	}))

	w := doRequest(router, "/v1/balances/0xalice/0xtoken")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data common.BalanceHistory `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(2), resp.Data.Index)
	assert.Equal(t, "250", resp.Data.Amount.String())
}

func TestGetTransfers_InvalidLimit(t *testing.T) {
	router, _ := newTestServer(t)
	w := doRequest(router, "/v1/transfers?limit=-5")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSwap_WithPrices(t *testing.T) {
	router, conn := newTestServer(t)
	require.NoError(t, conn.InsertSwaps([]common.Swap{{
		ChainId: big.NewInt(1), Hash: "0xswap1", IsRoot: true,
		TransactionHash: "0xswap1", BlockNumber: big.NewInt(100),
		FromTokenAddress: "0xa", ToTokenAddress: "0xb",
		FromAmount: big.NewInt(2), ToAmount: big.NewInt(1),
	}}))
	require.NoError(t, conn.InsertPrices([]common.Price{
		{Hash: common.PriceHash("0xswap1", 1), SwapHash: "0xswap1", TokenAddress: "0xa", BlockNumber: big.NewInt(100), UsdPrice: "1", EthPrice: "0", BtcPrice: "0"},
		{Hash: common.PriceHash("0xswap1", 2), SwapHash: "0xswap1", TokenAddress: "0xb", BlockNumber: big.NewInt(100), UsdPrice: "2", EthPrice: "0", BtcPrice: "0"},
	}))

	w := doRequest(router, "/v1/swaps/0xswap1")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data struct {
			Swap   common.Swap    `json:"swap"`
			Prices []common.Price `json:"prices"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "0xswap1", resp.Data.Swap.Hash)
	require.Len(t, resp.Data.Prices, 2)
	assert.Equal(t, "2", resp.Data.Prices[1].UsdPrice)
}

func TestGetLatestTokenPrice(t *testing.T) {
	router, conn := newTestServer(t)
	require.NoError(t, conn.InsertPrices([]common.Price{
		{Hash: "0xs1-1", SwapHash: "0xs1", TokenAddress: "0xa", BlockNumber: big.NewInt(10), UsdPrice: "5", EthPrice: "0", BtcPrice: "0"},
	}))

	w := doRequest(router, "/v1/tokens/0xa/price")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data common.Price `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "5", resp.Data.UsdPrice)

	w = doRequest(router, "/v1/tokens/0xa/price?before_block=10")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(router, "/v1/tokens/0xa/price?before_block=nope")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
