package rpc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	gethCommon "github.com/ethereum/go-ethereum/common"
)

// ERC-20 metadata selectors.
var (
	selectorName        = []byte{0x06, 0xfd, 0xde, 0x03}
	selectorSymbol      = []byte{0x95, 0xd8, 0x9b, 0x41}
	selectorDecimals    = []byte{0x31, 0x3c, 0xe5, 0x67}
	selectorTotalSupply = []byte{0x18, 0x16, 0x0d, 0xdd}
)

var (
	abiString, _  = abi.NewType("string", "", nil)
	abiUint8, _   = abi.NewType("uint8", "", nil)
	abiUint256, _ = abi.NewType("uint256", "", nil)
)

// GetTokenMetadata probes the contract's ERC-20 surface. An error means the
// contract does not answer like a token; the caller decides what that implies.
func (rpc *Client) GetTokenMetadata(ctx context.Context, address string) (*TokenMetadata, error) {
	contract := gethCommon.HexToAddress(address)

	name, err := rpc.callString(ctx, contract, selectorName)
	if err != nil {
		return nil, fmt.Errorf("name() call failed: %v", err)
	}
	symbol, err := rpc.callString(ctx, contract, selectorSymbol)
	if err != nil {
		return nil, fmt.Errorf("symbol() call failed: %v", err)
	}
	decimals, err := rpc.callUint8(ctx, contract, selectorDecimals)
	if err != nil {
		return nil, fmt.Errorf("decimals() call failed: %v", err)
	}
	totalSupply, err := rpc.callUint256(ctx, contract, selectorTotalSupply)
	if err != nil {
		return nil, fmt.Errorf("totalSupply() call failed: %v", err)
	}

	return &TokenMetadata{
		Name:        name,
		Symbol:      symbol,
		Decimals:    decimals,
		TotalSupply: totalSupply,
	}, nil
}

func (rpc *Client) call(ctx context.Context, contract gethCommon.Address, selector []byte) ([]byte, error) {
	return rpc.EthClient.CallContract(ctx, ethereum.CallMsg{
		To:   &contract,
		Data: selector,
	}, nil)
}

func (rpc *Client) callString(ctx context.Context, contract gethCommon.Address, selector []byte) (string, error) {
	output, err := rpc.call(ctx, contract, selector)
	if err != nil {
		return "", err
	}
	args := abi.Arguments{{Type: abiString}}
	values, err := args.Unpack(output)
	if err != nil || len(values) != 1 {
		return "", fmt.Errorf("failed to unpack string return: %v", err)
	}
	s, ok := values[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected return type %T", values[0])
	}
	return s, nil
}

func (rpc *Client) callUint8(ctx context.Context, contract gethCommon.Address, selector []byte) (uint8, error) {
	output, err := rpc.call(ctx, contract, selector)
	if err != nil {
		return 0, err
	}
	args := abi.Arguments{{Type: abiUint8}}
	values, err := args.Unpack(output)
	if err != nil || len(values) != 1 {
		return 0, fmt.Errorf("failed to unpack uint8 return: %v", err)
	}
	v, ok := values[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected return type %T", values[0])
	}
	return v, nil
}

func (rpc *Client) callUint256(ctx context.Context, contract gethCommon.Address, selector []byte) (*big.Int, error) {
	output, err := rpc.call(ctx, contract, selector)
	if err != nil {
		return nil, err
	}
	args := abi.Arguments{{Type: abiUint256}}
	values, err := args.Unpack(output)
	if err != nil || len(values) != 1 {
		return nil, fmt.Errorf("failed to unpack uint256 return: %v", err)
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected return type %T", values[0])
	}
	return v, nil
}
