package orchestrator

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/blockpulse/indexer/internal/common"
)

// Durable-log topics. Block, transaction, swap and price processing need
// ordered replayable hand-off; everything else rides the routed queue.
const (
	TopicBlocks       = "blocks"
	TopicTransactions = "transactions"
	TopicSwaps        = "swaps"
	TopicPrices       = "prices"
)

// Routed-queue subjects.
const (
	SubjectReceipts             = "receipts"
	SubjectTransfers            = "transfers"
	SubjectBalances             = "balances"
	SubjectInternalTransactions = "internal-transactions"
	SubjectContracts            = "contracts"
)

type BlockMessage struct {
	BlockNumber string `json:"block_number"`
}

type TransactionMessage struct {
	Hash string `json:"hash"`
}

type SwapMessage struct {
	TransactionHash string `json:"transaction_hash"`
}

type PriceMessage struct {
	BlockNumber string `json:"block_number"`
}

type ReceiptMessage struct {
	TransactionHash string `json:"transaction_hash"`
}

type TransferMessage struct {
	LogHash string `json:"log_hash"`
}

type BalanceMessage struct {
	TransferHash string `json:"transfer_hash"`
}

type InternalTransactionMessage struct {
	TransactionHash string `json:"transaction_hash"`
}

type ContractMessage struct {
	Address         string `json:"address"`
	TransactionHash string `json:"transaction_hash"`
	BlockNumber     string `json:"block_number"`
}

// decodeMessage unmarshals a message body, mapping failure to the terminal
// invalid-payload error.
func decodeMessage[T any](data []byte) (*T, error) {
	msg := new(T)
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidPayload, err)
	}
	return msg, nil
}

func parseBlockNumber(s string) (*big.Int, error) {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%w: bad block number %q", common.ErrInvalidPayload, s)
	}
	return n, nil
}

func requireHash(hash string) (string, error) {
	if hash == "" {
		return "", fmt.Errorf("%w: empty hash", common.ErrInvalidPayload)
	}
	return hash, nil
}
