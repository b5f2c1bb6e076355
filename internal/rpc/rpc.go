package rpc

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	gethRpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog/log"

	gethCommon "github.com/ethereum/go-ethereum/common"

	"github.com/blockpulse/indexer/internal/common"
)

type TokenMetadata struct {
	Name        string
	Symbol      string
	Decimals    uint8
	TotalSupply *big.Int
}

type IRPCClient interface {
	// GetBlockByNumber fetches a block with its transactions. A nil number
	// fetches the latest block. Returns common.ErrNoGetResult when the chain
	// has no block at that height.
	GetBlockByNumber(ctx context.Context, blockNumber *big.Int) (*common.BlockData, error)
	GetLatestBlockNumber(ctx context.Context) (*big.Int, error)
	GetTransactionByHash(ctx context.Context, hash string) (*common.Transaction, error)
	// GetTransactionReceipt fetches a receipt with its ordered logs.
	GetTransactionReceipt(ctx context.Context, hash string) (*common.Receipt, []common.Log, error)
	// TraceTransaction returns the transaction's call graph flattened in
	// call order.
	TraceTransaction(ctx context.Context, hash string) ([]common.InternalTransaction, error)
	HasCode(ctx context.Context, address string) (bool, error)
	GetTokenMetadata(ctx context.Context, address string) (*TokenMetadata, error)
	GetChainID() *big.Int
	GetURL() string
	Close()
}

type Client struct {
	RPCClient *gethRpc.Client
	EthClient *ethclient.Client
	url       string
	chainID   *big.Int
}

func NewClient(ctx context.Context, url string) (IRPCClient, error) {
	if url == "" {
		return nil, fmt.Errorf("rpc url is not set")
	}
	log.Debug().Str("url", url).Msg("Initializing RPC client")
	rpcClient, dialErr := gethRpc.DialContext(ctx, url)
	if dialErr != nil {
		return nil, dialErr
	}

	ethClient := ethclient.NewClient(rpcClient)

	chainID, err := ethClient.ChainID(ctx)
	if err != nil {
		rpcClient.Close()
		return nil, fmt.Errorf("failed to get chain ID: %v", err)
	}

	client := &Client{
		RPCClient: rpcClient,
		EthClient: ethClient,
		url:       url,
		chainID:   chainID,
	}
	return IRPCClient(client), nil
}

func (rpc *Client) GetChainID() *big.Int {
	return rpc.chainID
}

func (rpc *Client) GetURL() string {
	return rpc.url
}

func (rpc *Client) Close() {
	rpc.RPCClient.Close()
	rpc.EthClient.Close()
}

func (rpc *Client) GetLatestBlockNumber(ctx context.Context) (*big.Int, error) {
	blockNumber, err := rpc.EthClient.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest block number: %v", err)
	}
	return new(big.Int).SetUint64(blockNumber), nil
}

func (rpc *Client) GetBlockByNumber(ctx context.Context, blockNumber *big.Int) (*common.BlockData, error) {
	numberParam := "latest"
	if blockNumber != nil {
		numberParam = fmt.Sprintf("0x%x", blockNumber)
	}

	var rawBlock map[string]interface{}
	if err := rpc.RPCClient.CallContext(ctx, &rawBlock, "eth_getBlockByNumber", numberParam, true); err != nil {
		return nil, fmt.Errorf("eth_getBlockByNumber failed: %v", err)
	}
	if rawBlock == nil {
		return nil, common.ErrNoGetResult
	}

	blockData := serializeBlockData(rpc.chainID, rawBlock)
	return &blockData, nil
}

func (rpc *Client) GetTransactionByHash(ctx context.Context, hash string) (*common.Transaction, error) {
	var rawTx map[string]interface{}
	if err := rpc.RPCClient.CallContext(ctx, &rawTx, "eth_getTransactionByHash", hash); err != nil {
		return nil, fmt.Errorf("eth_getTransactionByHash failed: %v", err)
	}
	if rawTx == nil {
		return nil, common.ErrNoGetResult
	}

	tx := serializeTransaction(rpc.chainID, rawTx)
	return &tx, nil
}

func (rpc *Client) GetTransactionReceipt(ctx context.Context, hash string) (*common.Receipt, []common.Log, error) {
	var rawReceipt map[string]interface{}
	if err := rpc.RPCClient.CallContext(ctx, &rawReceipt, "eth_getTransactionReceipt", hash); err != nil {
		return nil, nil, fmt.Errorf("eth_getTransactionReceipt failed: %v", err)
	}
	if rawReceipt == nil {
		return nil, nil, common.ErrNoGetResult
	}

	receipt, logs := serializeReceipt(rpc.chainID, rawReceipt)
	return &receipt, logs, nil
}

func (rpc *Client) TraceTransaction(ctx context.Context, hash string) ([]common.InternalTransaction, error) {
	var rawFrame map[string]interface{}
	err := rpc.RPCClient.CallContext(ctx, &rawFrame, "debug_traceTransaction", hash, map[string]string{"tracer": "callTracer"})
	if err != nil {
		return nil, fmt.Errorf("debug_traceTransaction failed: %v", err)
	}
	if rawFrame == nil {
		return nil, common.ErrNoGetResult
	}

	return flattenCallFrames(rpc.chainID, hash, rawFrame), nil
}

func (rpc *Client) HasCode(ctx context.Context, address string) (bool, error) {
	code, err := rpc.EthClient.CodeAt(ctx, gethCommon.HexToAddress(address), nil)
	if err != nil {
		return false, err
	}
	return len(code) > 0, nil
}
