package common

import (
	"math/big"
	"strings"
	"time"
)

// Topic 0 of an ERC-20/721 Transfer event: keccak256("Transfer(address,address,uint256)").
const TransferEventSignature = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"

type Log struct {
	ChainId          *big.Int  `json:"chain_id"`
	LogHash          string    `json:"log_hash"`
	TransactionHash  string    `json:"transaction_hash"`
	TransactionIndex uint64    `json:"transaction_index"`
	BlockNumber      *big.Int  `json:"block_number"`
	BlockTimestamp   time.Time `json:"block_timestamp"`
	LogIndex         uint64    `json:"log_index"`
	Address          string    `json:"address"`
	Data             string    `json:"data"`
	Topics           []string  `json:"topics"`
}

// IsTransfer reports whether the log is shaped like an ERC-20 Transfer:
// matching topic 0 plus indexed from/to addresses, amount in data.
func (l *Log) IsTransfer() bool {
	return len(l.Topics) == 3 && strings.EqualFold(l.Topics[0], TransferEventSignature)
}

// TransferFrom returns the sender address of a Transfer-shaped log.
func (l *Log) TransferFrom() string {
	return topicToAddress(l.Topics[1])
}

// TransferTo returns the recipient address of a Transfer-shaped log.
func (l *Log) TransferTo() string {
	return topicToAddress(l.Topics[2])
}

// TransferAmount returns the transferred value of a Transfer-shaped log.
func (l *Log) TransferAmount() *big.Int {
	amount, ok := new(big.Int).SetString(strings.TrimPrefix(l.Data, "0x"), 16)
	if !ok {
		return big.NewInt(0)
	}
	return amount
}

func topicToAddress(topic string) string {
	t := strings.TrimPrefix(topic, "0x")
	if len(t) < 40 {
		return "0x" + t
	}
	return "0x" + strings.ToLower(t[len(t)-40:])
}
