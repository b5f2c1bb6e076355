package decoder

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	gethCommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/blockpulse/indexer/internal/common"
)

// hopStep is one leg of a multi-hop route as declared in call data. Direction
// false trades base into quote, true trades quote into base.
type hopStep struct {
	Base      gethCommon.Address `json:"base"`
	Quote     gethCommon.Address `json:"quote"`
	Direction bool               `json:"direction"`
}

const multiHopSignature = "swapMultiHop((address,address,bool)[],uint256,uint256)"

// MultiHopDecoder decodes router calls that trade through an ordered list of
// token pairs, validating the declared route against the receipt's Transfer
// logs before emitting swap facts.
type MultiHopDecoder struct {
	selector string
	args     abi.Arguments
}

func NewMultiHopDecoder() *MultiHopDecoder {
	stepsType, err := abi.NewType("tuple[]", "", []abi.ArgumentMarshaling{
		{Name: "base", Type: "address"},
		{Name: "quote", Type: "address"},
		{Name: "direction", Type: "bool"},
	})
	if err != nil {
		panic(fmt.Sprintf("invalid multi-hop steps type: %v", err))
	}
	uint256Type, err := abi.NewType("uint256", "", nil)
	if err != nil {
		panic(fmt.Sprintf("invalid uint256 type: %v", err))
	}

	return &MultiHopDecoder{
		selector: "0x" + hex.EncodeToString(crypto.Keccak256([]byte(multiHopSignature))[:4]),
		args: abi.Arguments{
			{Name: "steps", Type: stepsType},
			{Name: "amountIn", Type: uint256Type},
			{Name: "minAmountOut", Type: uint256Type},
		},
	}
}

func (d *MultiHopDecoder) Selector() string {
	return d.selector
}

func (d *MultiHopDecoder) DecodeSwaps(tx *common.Transaction, logs []common.Log) ([]common.Swap, error) {
	steps, amountIn, minAmountOut, err := d.decodeCallData(tx.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", common.ErrInvalidSwap, err)
	}
	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: empty route", common.ErrInvalidSwap)
	}

	route := buildRoute(steps)

	transfers := transferLogs(logs)

	inAmount, err := validateFirstLeg(tx, transfers, route[0], amountIn)
	if err != nil {
		return nil, err
	}
	if err := validateIntermediateLegs(transfers, route); err != nil {
		return nil, err
	}
	outAmount, err := validateLastLeg(tx, transfers, route[len(route)-1], minAmountOut)
	if err != nil {
		return nil, err
	}

	rootHash := common.SwapHash(tx.Hash, 0, true)
	swaps := []common.Swap{{
		ChainId:          tx.ChainId,
		Hash:             rootHash,
		ParentHash:       "",
		IsRoot:           true,
		TransactionHash:  tx.Hash,
		TransactionIndex: tx.TransactionIndex,
		BlockNumber:      tx.BlockNumber,
		BlockTimestamp:   tx.BlockTimestamp,
		DexAddress:       tx.ToAddress,
		FromTokenAddress: route[0],
		ToTokenAddress:   route[len(route)-1],
		FromAmount:       inAmount,
		ToAmount:         outAmount,
	}}

	// Hop children are only emitted for routes with more than one leg; a
	// single-hop route is fully described by the root swap. Intermediate
	// amounts are router-internal and left at zero.
	if len(route) > 2 {
		for i := 0; i < len(route)-1; i++ {
			fromAmount := big.NewInt(0)
			toAmount := big.NewInt(0)
			if i == 0 {
				fromAmount = inAmount
			}
			if i == len(route)-2 {
				toAmount = outAmount
			}
			swaps = append(swaps, common.Swap{
				ChainId:          tx.ChainId,
				Hash:             common.SwapHash(tx.Hash, i+1, false),
				ParentHash:       rootHash,
				IsRoot:           false,
				TransactionHash:  tx.Hash,
				TransactionIndex: tx.TransactionIndex,
				BlockNumber:      tx.BlockNumber,
				BlockTimestamp:   tx.BlockTimestamp,
				DexAddress:       tx.ToAddress,
				FromTokenAddress: route[i],
				ToTokenAddress:   route[i+1],
				FromAmount:       fromAmount,
				ToAmount:         toAmount,
			})
		}
	}

	return swaps, nil
}

func (d *MultiHopDecoder) decodeCallData(data string) ([]hopStep, *big.Int, *big.Int, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(data, "0x"))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("malformed call data: %v", err)
	}
	if len(raw) < 4 {
		return nil, nil, nil, fmt.Errorf("call data shorter than a selector")
	}

	values, err := d.args.Unpack(raw[4:])
	if err != nil {
		return nil, nil, nil, fmt.Errorf("abi unpack failed: %v", err)
	}

	steps := *abi.ConvertType(values[0], new([]hopStep)).(*[]hopStep)
	amountIn := abi.ConvertType(values[1], new(big.Int)).(*big.Int)
	minAmountOut := abi.ConvertType(values[2], new(big.Int)).(*big.Int)
	return steps, amountIn, minAmountOut, nil
}

// buildRoute flattens the hop steps into the ordered token path, orienting
// each pair by its direction flag and de-duplicating shared endpoints.
func buildRoute(steps []hopStep) []string {
	route := []string{}
	for _, step := range steps {
		from := strings.ToLower(step.Base.Hex())
		to := strings.ToLower(step.Quote.Hex())
		if step.Direction {
			from, to = to, from
		}
		if len(route) == 0 || route[len(route)-1] != from {
			route = append(route, from)
		}
		route = append(route, to)
	}
	return route
}

func transferLogs(logs []common.Log) []common.Log {
	transfers := []common.Log{}
	for _, l := range logs {
		if l.IsTransfer() {
			transfers = append(transfers, l)
		}
	}
	return transfers
}

// validateFirstLeg requires exactly one Transfer of the route's input token
// sent by the transaction sender for exactly the declared input amount, and
// returns that amount.
func validateFirstLeg(tx *common.Transaction, transfers []common.Log, token string, amountIn *big.Int) (*big.Int, error) {
	matches := []*big.Int{}
	for _, l := range transfers {
		if strings.EqualFold(l.Address, token) &&
			strings.EqualFold(l.TransferFrom(), tx.FromAddress) &&
			l.TransferAmount().Cmp(amountIn) == 0 {
			matches = append(matches, l.TransferAmount())
		}
	}
	if len(matches) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one input transfer of %s on %s from %s, found %d",
			common.ErrInvalidSwap, amountIn.String(), token, tx.FromAddress, len(matches))
	}
	return matches[0], nil
}

// validateIntermediateLegs requires at least one Transfer on each
// intermediate route token. Amounts are not checked; intermediate hops move
// router-internal balances.
func validateIntermediateLegs(transfers []common.Log, route []string) error {
	for _, token := range route[1 : len(route)-1] {
		found := false
		for _, l := range transfers {
			if strings.EqualFold(l.Address, token) {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: no transfer observed on intermediate token %s", common.ErrInvalidSwap, token)
		}
	}
	return nil
}

// validateLastLeg requires exactly one Transfer of the route's output token
// to the transaction's to address for at least the declared minimum output,
// and returns the actual amount.
func validateLastLeg(tx *common.Transaction, transfers []common.Log, token string, minAmountOut *big.Int) (*big.Int, error) {
	matches := []*big.Int{}
	for _, l := range transfers {
		if strings.EqualFold(l.Address, token) &&
			strings.EqualFold(l.TransferTo(), tx.ToAddress) &&
			l.TransferAmount().Cmp(minAmountOut) >= 0 {
			matches = append(matches, l.TransferAmount())
		}
	}
	if len(matches) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one output transfer of at least %s on %s to %s, found %d",
			common.ErrInvalidSwap, minAmountOut.String(), token, tx.ToAddress, len(matches))
	}
	return matches[0], nil
}
