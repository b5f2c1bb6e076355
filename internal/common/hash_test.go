package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogHash_DeterministicAndUnique(t *testing.T) {
	txHash := "0x428e275dcfa7e27b92eaca0939ec8e4674d7345a4b28b91128fce7e260e9e0e8"

	a := LogHash(txHash, 0)
	b := LogHash(txHash, 0)
	c := LogHash(txHash, 1)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, len(a) == 66)
}

func TestTransferHash_DerivedFromLogHash(t *testing.T) {
	logHash := LogHash("0x428e275dcfa7e27b92eaca0939ec8e4674d7345a4b28b91128fce7e260e9e0e8", 0)

	assert.Equal(t, TransferHash(logHash), TransferHash(logHash))
	assert.NotEqual(t, logHash, TransferHash(logHash))
}

func TestSwapHash_RootIsTransactionHash(t *testing.T) {
	assert.Equal(t, "0xabc", SwapHash("0xabc", 0, true))
	assert.Equal(t, "0xabc-1", SwapHash("0xabc", 1, false))
	assert.Equal(t, "0xabc-2", SwapHash("0xabc", 2, false))
}

func TestPriceHash_SidesDiffer(t *testing.T) {
	assert.Equal(t, "0xabc-1", PriceHash("0xabc", 1))
	assert.Equal(t, "0xabc-2", PriceHash("0xabc", 2))
}

func TestTransactionFunctionSelector(t *testing.T) {
	tx := Transaction{Data: "0xA9059CBB000000000000000000000000ff0cb0351a356ad16987e5809a8daaaf34f5adbe"}
	assert.Equal(t, "0xa9059cbb", tx.FunctionSelector())

	empty := Transaction{Data: "0x"}
	assert.Equal(t, "", empty.FunctionSelector())
}
