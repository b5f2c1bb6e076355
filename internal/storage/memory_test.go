package storage

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/common"
)

func newTestConnector(t *testing.T) *MemoryConnector {
	conn, err := NewMemoryConnector(&config.MemoryConfig{MaxItems: 1000})
	require.NoError(t, err)
	return conn
}

func TestGetBlock_AbsentReturnsNil(t *testing.T) {
	conn := newTestConnector(t)

	block, err := conn.GetBlock(big.NewInt(42))
	require.NoError(t, err)
	assert.Nil(t, block)
}

func TestGetMaxBlockNumber(t *testing.T) {
	conn := newTestConnector(t)

	max, err := conn.GetMaxBlockNumber()
	require.NoError(t, err)
	assert.Equal(t, "0", max.String())

	require.NoError(t, conn.InsertBlock(common.Block{Number: big.NewInt(5), GasLimit: big.NewInt(0), GasUsed: big.NewInt(0)}))
	require.NoError(t, conn.InsertBlock(common.Block{Number: big.NewInt(12), GasLimit: big.NewInt(0), GasUsed: big.NewInt(0)}))

	max, err = conn.GetMaxBlockNumber()
	require.NoError(t, err)
	assert.Equal(t, "12", max.String())
}

func TestGetLatestBalance_LedgerOrdering(t *testing.T) {
	conn := newTestConnector(t)

	histories := []common.BalanceHistory{
		{
			Address: "0xAlice", TokenAddress: "0xToken", Index: 1,
			Amount: big.NewInt(100), BlockNumber: big.NewInt(10),
			TransactionIndex: 0, LogIndex: 0,
			TransferHash: "0xt1", TransactionHash: "0xtx1",
		},
		{
			Address: "0xAlice", TokenAddress: "0xToken", Index: 2,
			Amount: big.NewInt(250), BlockNumber: big.NewInt(10),
			TransactionIndex: 3, LogIndex: 1,
			TransferHash: "0xt2", TransactionHash: "0xtx2",
		},
		{
			Address: "0xAlice", TokenAddress: "0xToken", Index: 3,
			Amount: big.NewInt(50), BlockNumber: big.NewInt(12),
			TransactionIndex: 0, LogIndex: 0,
			TransferHash: "0xt3", TransactionHash: "0xtx3",
		},
	}
	require.NoError(t, conn.InsertBalanceHistories(histories))

	latest, err := conn.GetLatestBalance("0xalice", "0xTOKEN")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, uint64(3), latest.Index)
	assert.Equal(t, "50", latest.Amount.String())
}

func TestGetLatestBalance_BreaksTiesByTransactionIndex(t *testing.T) {
	conn := newTestConnector(t)

	require.NoError(t, conn.InsertBalanceHistories([]common.BalanceHistory{
		{
			Address: "0xalice", TokenAddress: "0xtoken", Index: 1,
			Amount: big.NewInt(100), BlockNumber: big.NewInt(10),
			TransactionIndex: 7, LogIndex: 0,
		},
		{
			Address: "0xalice", TokenAddress: "0xtoken", Index: 2,
			Amount: big.NewInt(40), BlockNumber: big.NewInt(10),
			TransactionIndex: 2, LogIndex: 5,
		},
	}))

	latest, err := conn.GetLatestBalance("0xalice", "0xtoken")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "100", latest.Amount.String())
}

func TestDeleteBalanceHistories_ScopedToTransfer(t *testing.T) {
	conn := newTestConnector(t)

	require.NoError(t, conn.InsertBalanceHistories([]common.BalanceHistory{
		{
			Address: "0xalice", TokenAddress: "0xtoken", Index: 1,
			Amount: big.NewInt(100), BlockNumber: big.NewInt(10),
			TransferHash: "0xt1", TransactionHash: "0xtx1",
		},
		{
			Address: "0xalice", TokenAddress: "0xtoken", Index: 2,
			Amount: big.NewInt(70), BlockNumber: big.NewInt(11),
			TransferHash: "0xt2", TransactionHash: "0xtx2",
		},
	}))

	require.NoError(t, conn.DeleteBalanceHistories("0xtx2", "0xt2"))

	latest, err := conn.GetLatestBalance("0xalice", "0xtoken")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, uint64(1), latest.Index)
	assert.Equal(t, "100", latest.Amount.String())
}

func TestReplaceBlockPrices(t *testing.T) {
	conn := newTestConnector(t)

	require.NoError(t, conn.InsertPrices([]common.Price{
		{Hash: "0xs1-1", SwapHash: "0xs1", TokenAddress: "0xa", BlockNumber: big.NewInt(10), UsdPrice: "0", EthPrice: "0", BtcPrice: "0"},
		{Hash: "0xs1-2", SwapHash: "0xs1", TokenAddress: "0xb", BlockNumber: big.NewInt(10), UsdPrice: "0", EthPrice: "0", BtcPrice: "0"},
		{Hash: "0xs2-1", SwapHash: "0xs2", TokenAddress: "0xa", BlockNumber: big.NewInt(11), UsdPrice: "3", EthPrice: "0", BtcPrice: "0"},
	}))

	require.NoError(t, conn.ReplaceBlockPrices(big.NewInt(10), []common.Price{
		{Hash: "0xs1-1", SwapHash: "0xs1", TokenAddress: "0xa", BlockNumber: big.NewInt(10), UsdPrice: "2", EthPrice: "0", BtcPrice: "0"},
	}))

	inBlock, err := conn.GetPricesByBlock(big.NewInt(10))
	require.NoError(t, err)
	require.Len(t, inBlock, 1)
	assert.Equal(t, "2", inBlock[0].UsdPrice)

	otherBlock, err := conn.GetPricesByBlock(big.NewInt(11))
	require.NoError(t, err)
	assert.Len(t, otherBlock, 1)
}

func TestGetLatestTokenPrice_SkipsUndeterminedRows(t *testing.T) {
	conn := newTestConnector(t)

	require.NoError(t, conn.InsertPrices([]common.Price{
		{Hash: "0xs1-1", SwapHash: "0xs1", TokenAddress: "0xa", BlockNumber: big.NewInt(10), UsdPrice: "5", EthPrice: "0", BtcPrice: "0"},
		{Hash: "0xs2-1", SwapHash: "0xs2", TokenAddress: "0xa", BlockNumber: big.NewInt(11), UsdPrice: "0", EthPrice: "0", BtcPrice: "0"},
	}))

	price, err := conn.GetLatestTokenPrice("0xA", big.NewInt(20))
	require.NoError(t, err)
	require.NotNil(t, price)
	assert.Equal(t, "0xs1-1", price.Hash)
}

func TestGetLatestTokenPrice_ExcludesCurrentAndLaterBlocks(t *testing.T) {
	conn := newTestConnector(t)

	require.NoError(t, conn.InsertPrices([]common.Price{
		{Hash: "0xs1-1", SwapHash: "0xs1", TokenAddress: "0xa", BlockNumber: big.NewInt(10), UsdPrice: "5", EthPrice: "0", BtcPrice: "0"},
	}))

	price, err := conn.GetLatestTokenPrice("0xa", big.NewInt(10))
	require.NoError(t, err)
	assert.Nil(t, price)
}

func TestDeletePricesBySwap(t *testing.T) {
	conn := newTestConnector(t)

	require.NoError(t, conn.InsertPrices([]common.Price{
		{Hash: "0xs1-1", SwapHash: "0xs1", TokenAddress: "0xa", BlockNumber: big.NewInt(10), UsdPrice: "0", EthPrice: "0", BtcPrice: "0"},
		{Hash: "0xs2-1", SwapHash: "0xs2", TokenAddress: "0xa", BlockNumber: big.NewInt(10), UsdPrice: "0", EthPrice: "0", BtcPrice: "0"},
	}))

	require.NoError(t, conn.DeletePricesBySwap("0xs1"))

	remaining, err := conn.GetPricesByBlock(big.NewInt(10))
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "0xs2", remaining[0].SwapHash)
}

func TestGetTransfersByTransaction_OrderedByLogIndex(t *testing.T) {
	conn := newTestConnector(t)

	require.NoError(t, conn.InsertTransfer(common.Transfer{
		Hash: "0xt2", TransactionHash: "0xtx", LogIndex: 4,
		BlockNumber: big.NewInt(10), Amount: big.NewInt(2), ChainId: big.NewInt(1),
	}))
	require.NoError(t, conn.InsertTransfer(common.Transfer{
		Hash: "0xt1", TransactionHash: "0xtx", LogIndex: 1,
		BlockNumber: big.NewInt(10), Amount: big.NewInt(1), ChainId: big.NewInt(1),
	}))

	transfers, err := conn.GetTransfersByTransaction("0xtx")
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	assert.Equal(t, "0xt1", transfers[0].Hash)
	assert.Equal(t, "0xt2", transfers[1].Hash)
}

func TestDeleteReceipt_RemovesItsLogs(t *testing.T) {
	conn := newTestConnector(t)

	receipt := common.Receipt{TransactionHash: "0xtx", BlockNumber: big.NewInt(10), Status: 1}
	logs := []common.Log{
		{LogHash: "0xl1", TransactionHash: "0xtx", BlockNumber: big.NewInt(10), LogIndex: 0},
		{LogHash: "0xl2", TransactionHash: "0xtx", BlockNumber: big.NewInt(10), LogIndex: 1},
	}
	require.NoError(t, conn.InsertReceipt(receipt, logs))

	require.NoError(t, conn.DeleteReceipt("0xtx"))

	stored, storedLogs, err := conn.GetReceipt("0xtx")
	require.NoError(t, err)
	assert.Nil(t, stored)
	assert.Empty(t, storedLogs)

	l, err := conn.GetLog("0xl1")
	require.NoError(t, err)
	assert.Nil(t, l)
}

func TestDeleteBlock_CascadesBlockScopedRows(t *testing.T) {
	conn := newTestConnector(t)
	one := big.NewInt(1)

	require.NoError(t, conn.InsertBlock(common.Block{ChainId: one, Number: big.NewInt(5), GasLimit: big.NewInt(0), GasUsed: big.NewInt(0)}))
	require.NoError(t, conn.InsertTransaction(common.Transaction{ChainId: one, Hash: "0xtx5", BlockNumber: big.NewInt(5), Value: big.NewInt(0), GasPrice: big.NewInt(0)}))
	require.NoError(t, conn.InsertReceipt(
		common.Receipt{ChainId: one, TransactionHash: "0xtx5", BlockNumber: big.NewInt(5), Status: 1, GasUsed: big.NewInt(0)},
		[]common.Log{{ChainId: one, LogHash: "0xlog5", TransactionHash: "0xtx5", BlockNumber: big.NewInt(5)}}))
	require.NoError(t, conn.InsertTransfer(common.Transfer{ChainId: one, Hash: "0xtr5", LogHash: "0xlog5", TransactionHash: "0xtx5", BlockNumber: big.NewInt(5), Amount: big.NewInt(1)}))
	require.NoError(t, conn.InsertBalanceHistories([]common.BalanceHistory{{
		ChainId: one, Address: "0xalice", TokenAddress: "0xtoken", Index: 1, Amount: big.NewInt(1),
		TransferHash: "0xtr5", TransactionHash: "0xtx5", BlockNumber: big.NewInt(5),
	}}))
	require.NoError(t, conn.InsertSwaps([]common.Swap{{
		ChainId: one, Hash: "0xswap5", TransactionHash: "0xtx5", BlockNumber: big.NewInt(5),
		FromAmount: big.NewInt(1), ToAmount: big.NewInt(1),
	}}))
	require.NoError(t, conn.InsertPrices([]common.Price{{
		ChainId: one, Hash: "0xprice5", SwapHash: "0xswap5", TokenAddress: "0xtoken",
		BlockNumber: big.NewInt(5), UsdPrice: "1", EthPrice: "0", BtcPrice: "0",
	}}))
	require.NoError(t, conn.InsertInternalTransactions([]common.InternalTransaction{{
		ChainId: one, TransactionHash: "0xtx5", CallIndex: 0, Value: big.NewInt(0),
	}}))

	// A neighboring block's rows must survive untouched.
	require.NoError(t, conn.InsertTransaction(common.Transaction{ChainId: one, Hash: "0xtx6", BlockNumber: big.NewInt(6), Value: big.NewInt(0), GasPrice: big.NewInt(0)}))

	require.NoError(t, conn.DeleteBlock(big.NewInt(5)))

	tx, err := conn.GetTransaction("0xtx5")
	require.NoError(t, err)
	assert.Nil(t, tx)

	receipt, logs, err := conn.GetReceipt("0xtx5")
	require.NoError(t, err)
	assert.Nil(t, receipt)
	assert.Empty(t, logs)

	transfers, err := conn.GetTransfersByTransaction("0xtx5")
	require.NoError(t, err)
	assert.Empty(t, transfers)

	balance, err := conn.GetLatestBalance("0xalice", "0xtoken")
	require.NoError(t, err)
	assert.Nil(t, balance)

	swaps, err := conn.GetSwapsByBlock(big.NewInt(5))
	require.NoError(t, err)
	assert.Empty(t, swaps)

	prices, err := conn.GetPricesByBlock(big.NewInt(5))
	require.NoError(t, err)
	assert.Empty(t, prices)

	itxs, err := conn.GetInternalTransactions("0xtx5")
	require.NoError(t, err)
	assert.Empty(t, itxs)

	survivor, err := conn.GetTransaction("0xtx6")
	require.NoError(t, err)
	assert.NotNil(t, survivor)
}
