package decoder

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"testing"
	"time"

	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockpulse/indexer/internal/common"
)

var (
	usdcAddress   = gethCommon.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	wethAddress   = gethCommon.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	daiAddress    = gethCommon.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")
	senderAddress = "0x1111111111111111111111111111111111111111"
	routerAddress = "0x2222222222222222222222222222222222222222"
	poolAddress   = "0x3333333333333333333333333333333333333333"
)

func encodeSwapCall(t *testing.T, d *MultiHopDecoder, steps []hopStep, amountIn int64, minAmountOut int64) string {
	packed, err := d.args.Pack(steps, big.NewInt(amountIn), big.NewInt(minAmountOut))
	require.NoError(t, err)
	return d.selector + hex.EncodeToString(packed)
}

func newSwapTransaction(data string) *common.Transaction {
	return &common.Transaction{
		ChainId:          big.NewInt(1),
		Hash:             "0xswaptx",
		BlockNumber:      big.NewInt(100),
		BlockTimestamp:   time.Unix(1700000000, 0).UTC(),
		TransactionIndex: 3,
		FromAddress:      senderAddress,
		ToAddress:        routerAddress,
		Value:            big.NewInt(0),
		Gas:              21000,
		GasPrice:         big.NewInt(1),
		Data:             data,
	}
}

func addressTopic(address string) string {
	return "0x000000000000000000000000" + address[2:]
}

func newTransferLog(logIndex uint64, token gethCommon.Address, from string, to string, amount int64) common.Log {
	return common.Log{
		ChainId:         big.NewInt(1),
		LogHash:         fmt.Sprintf("0xlog-%d", logIndex),
		TransactionHash: "0xswaptx",
		BlockNumber:     big.NewInt(100),
		LogIndex:        logIndex,
		Address:         token.Hex(),
		Data:            fmt.Sprintf("0x%064x", amount),
		Topics: []string{
			common.TransferEventSignature,
			addressTopic(from),
			addressTopic(to),
		},
	}
}

func TestDecodeSwaps_SingleHop(t *testing.T) {
	d := NewMultiHopDecoder()
	data := encodeSwapCall(t, d, []hopStep{
		{Base: usdcAddress, Quote: wethAddress, Direction: false},
	}, 1000, 500)
	tx := newSwapTransaction(data)
	logs := []common.Log{
		newTransferLog(0, usdcAddress, senderAddress, poolAddress, 1000),
		newTransferLog(1, wethAddress, poolAddress, routerAddress, 600),
	}

	swaps, err := d.DecodeSwaps(tx, logs)
	require.NoError(t, err)
	require.Len(t, swaps, 1)

	swap := swaps[0]
	assert.True(t, swap.IsRoot)
	assert.Equal(t, tx.Hash, swap.Hash)
	assert.Equal(t, routerAddress, swap.DexAddress)
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", swap.FromTokenAddress)
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", swap.ToTokenAddress)
	assert.Equal(t, "1000", swap.FromAmount.String())
	assert.Equal(t, "600", swap.ToAmount.String())
}

func TestDecodeSwaps_ReversedDirection(t *testing.T) {
	d := NewMultiHopDecoder()
	data := encodeSwapCall(t, d, []hopStep{
		{Base: wethAddress, Quote: usdcAddress, Direction: true},
	}, 1000, 500)
	tx := newSwapTransaction(data)
	logs := []common.Log{
		newTransferLog(0, usdcAddress, senderAddress, poolAddress, 1000),
		newTransferLog(1, wethAddress, poolAddress, routerAddress, 600),
	}

	swaps, err := d.DecodeSwaps(tx, logs)
	require.NoError(t, err)
	require.Len(t, swaps, 1)
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", swaps[0].FromTokenAddress)
	assert.Equal(t, "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", swaps[0].ToTokenAddress)
}

func TestDecodeSwaps_MultiHopEmitsChildren(t *testing.T) {
	d := NewMultiHopDecoder()
	data := encodeSwapCall(t, d, []hopStep{
		{Base: usdcAddress, Quote: wethAddress, Direction: false},
		{Base: wethAddress, Quote: daiAddress, Direction: false},
	}, 1000, 500)
	tx := newSwapTransaction(data)
	logs := []common.Log{
		newTransferLog(0, usdcAddress, senderAddress, poolAddress, 1000),
		newTransferLog(1, wethAddress, poolAddress, poolAddress, 42),
		newTransferLog(2, daiAddress, poolAddress, routerAddress, 700),
	}

	swaps, err := d.DecodeSwaps(tx, logs)
	require.NoError(t, err)
	require.Len(t, swaps, 3)

	root := swaps[0]
	assert.True(t, root.IsRoot)
	assert.Equal(t, tx.Hash, root.Hash)
	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", root.FromTokenAddress)
	assert.Equal(t, "0xcccccccccccccccccccccccccccccccccccccccc", root.ToTokenAddress)
	assert.Equal(t, "1000", root.FromAmount.String())
	assert.Equal(t, "700", root.ToAmount.String())

	for _, child := range swaps[1:] {
		assert.False(t, child.IsRoot)
		assert.Equal(t, root.Hash, child.ParentHash)
	}
	assert.Equal(t, "1000", swaps[1].FromAmount.String())
	assert.Equal(t, "0", swaps[1].ToAmount.String())
	assert.Equal(t, "0", swaps[2].FromAmount.String())
	assert.Equal(t, "700", swaps[2].ToAmount.String())
}

func TestDecodeSwaps_MissingInputTransfer(t *testing.T) {
	d := NewMultiHopDecoder()
	data := encodeSwapCall(t, d, []hopStep{
		{Base: usdcAddress, Quote: wethAddress, Direction: false},
	}, 1000, 500)
	tx := newSwapTransaction(data)
	logs := []common.Log{
		newTransferLog(0, wethAddress, poolAddress, routerAddress, 600),
	}

	_, err := d.DecodeSwaps(tx, logs)
	assert.ErrorIs(t, err, common.ErrInvalidSwap)
}

func TestDecodeSwaps_InputAmountMismatch(t *testing.T) {
	d := NewMultiHopDecoder()
	data := encodeSwapCall(t, d, []hopStep{
		{Base: usdcAddress, Quote: wethAddress, Direction: false},
	}, 1000, 500)
	tx := newSwapTransaction(data)
	logs := []common.Log{
		newTransferLog(0, usdcAddress, senderAddress, poolAddress, 999),
		newTransferLog(1, wethAddress, poolAddress, routerAddress, 600),
	}

	_, err := d.DecodeSwaps(tx, logs)
	assert.ErrorIs(t, err, common.ErrInvalidSwap)
}

func TestDecodeSwaps_OutputBelowMinimum(t *testing.T) {
	d := NewMultiHopDecoder()
	data := encodeSwapCall(t, d, []hopStep{
		{Base: usdcAddress, Quote: wethAddress, Direction: false},
	}, 1000, 500)
	tx := newSwapTransaction(data)
	logs := []common.Log{
		newTransferLog(0, usdcAddress, senderAddress, poolAddress, 1000),
		newTransferLog(1, wethAddress, poolAddress, routerAddress, 499),
	}

	_, err := d.DecodeSwaps(tx, logs)
	assert.ErrorIs(t, err, common.ErrInvalidSwap)
}

func TestDecodeSwaps_MissingIntermediateTransfer(t *testing.T) {
	d := NewMultiHopDecoder()
	data := encodeSwapCall(t, d, []hopStep{
		{Base: usdcAddress, Quote: wethAddress, Direction: false},
		{Base: wethAddress, Quote: daiAddress, Direction: false},
	}, 1000, 500)
	tx := newSwapTransaction(data)
	logs := []common.Log{
		newTransferLog(0, usdcAddress, senderAddress, poolAddress, 1000),
		newTransferLog(1, daiAddress, poolAddress, routerAddress, 700),
	}

	_, err := d.DecodeSwaps(tx, logs)
	assert.ErrorIs(t, err, common.ErrInvalidSwap)
}

func TestDecodeSwaps_MalformedCallData(t *testing.T) {
	d := NewMultiHopDecoder()
	tx := newSwapTransaction(d.selector + "deadbeef")

	_, err := d.DecodeSwaps(tx, nil)
	assert.ErrorIs(t, err, common.ErrInvalidSwap)
}

func TestRegistry_LookupBySelector(t *testing.T) {
	d := NewMultiHopDecoder()
	registry := NewRegistry()
	registry.Register(d.Selector(), d)

	tx := newSwapTransaction(d.selector + "00000000")
	found := registry.Lookup(tx)
	assert.Equal(t, d, found)

	other := newSwapTransaction("0x12345678")
	assert.Nil(t, registry.Lookup(other))
}
