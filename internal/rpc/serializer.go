package rpc

import (
	"math/big"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/blockpulse/indexer/internal/common"
)

func serializeBlockData(chainId *big.Int, rawBlock map[string]interface{}) common.BlockData {
	block := serializeBlock(chainId, rawBlock)

	rawTxs, _ := rawBlock["transactions"].([]interface{})
	transactions := make([]common.Transaction, 0, len(rawTxs))
	for _, rawTx := range rawTxs {
		txMap, ok := rawTx.(map[string]interface{})
		if !ok {
			log.Debug().Msgf("Failed to serialize transaction: %v", rawTx)
			continue
		}
		tx := serializeTransaction(chainId, txMap)
		tx.BlockTimestamp = block.Timestamp
		transactions = append(transactions, tx)
	}

	return common.BlockData{
		Block:        block,
		Transactions: transactions,
	}
}

func serializeBlock(chainId *big.Int, block map[string]interface{}) common.Block {
	return common.Block{
		ChainId:    chainId,
		Number:     hexToBigInt(block["number"]),
		Hash:       interfaceToString(block["hash"]),
		ParentHash: interfaceToString(block["parentHash"]),
		GasLimit:   hexToBigInt(block["gasLimit"]),
		GasUsed:    hexToBigInt(block["gasUsed"]),
		Timestamp:  time.Unix(int64(hexToUint64(block["timestamp"])), 0).UTC(),
	}
}

func serializeTransaction(chainId *big.Int, tx map[string]interface{}) common.Transaction {
	return common.Transaction{
		ChainId:          chainId,
		Hash:             interfaceToString(tx["hash"]),
		BlockNumber:      hexToBigInt(tx["blockNumber"]),
		TransactionIndex: hexToUint64(tx["transactionIndex"]),
		FromAddress:      interfaceToString(tx["from"]),
		ToAddress: func() string {
			to := interfaceToString(tx["to"])
			if to != "" {
				return to
			}
			return "0x0000000000000000000000000000000000000000"
		}(),
		Value:    hexToBigInt(tx["value"]),
		Gas:      hexToUint64(tx["gas"]),
		GasPrice: hexToBigInt(tx["gasPrice"]),
		Data:     interfaceToString(tx["input"]),
	}
}

func serializeReceipt(chainId *big.Int, rawReceipt map[string]interface{}) (common.Receipt, []common.Log) {
	receipt := common.Receipt{
		ChainId:         chainId,
		TransactionHash: interfaceToString(rawReceipt["transactionHash"]),
		BlockNumber:     hexToBigInt(rawReceipt["blockNumber"]),
		Status:          hexToUint64(rawReceipt["status"]),
		GasUsed:         hexToBigInt(rawReceipt["gasUsed"]),
		ContractAddress: interfaceToString(rawReceipt["contractAddress"]),
	}

	rawLogs, _ := rawReceipt["logs"].([]interface{})
	logs := make([]common.Log, 0, len(rawLogs))
	for _, rawLog := range rawLogs {
		logMap, ok := rawLog.(map[string]interface{})
		if !ok {
			log.Debug().Msgf("Failed to serialize log: %v", rawLog)
			continue
		}
		logs = append(logs, serializeLog(chainId, logMap))
	}
	return receipt, logs
}

func serializeLog(chainId *big.Int, rawLog map[string]interface{}) common.Log {
	rawTopics, _ := rawLog["topics"].([]interface{})
	topics := make([]string, len(rawTopics))
	for i, topic := range rawTopics {
		topics[i] = interfaceToString(topic)
	}
	txHash := interfaceToString(rawLog["transactionHash"])
	logIndex := hexToUint64(rawLog["logIndex"])
	return common.Log{
		ChainId:          chainId,
		LogHash:          common.LogHash(txHash, logIndex),
		TransactionHash:  txHash,
		TransactionIndex: hexToUint64(rawLog["transactionIndex"]),
		BlockNumber:      hexToBigInt(rawLog["blockNumber"]),
		LogIndex:         logIndex,
		Address:          interfaceToString(rawLog["address"]),
		Data:             interfaceToString(rawLog["data"]),
		Topics:           topics,
	}
}

// flattenCallFrames walks the nested callTracer result depth-first, assigning
// each frame its position in visit order.
func flattenCallFrames(chainId *big.Int, txHash string, frame map[string]interface{}) []common.InternalTransaction {
	var flattened []common.InternalTransaction
	var walk func(frame map[string]interface{}, depth uint64)
	walk = func(frame map[string]interface{}, depth uint64) {
		flattened = append(flattened, common.InternalTransaction{
			ChainId:         chainId,
			TransactionHash: txHash,
			CallIndex:       uint64(len(flattened)),
			Depth:           depth,
			CallType:        interfaceToString(frame["type"]),
			FromAddress:     interfaceToString(frame["from"]),
			ToAddress:       interfaceToString(frame["to"]),
			Value:           hexToBigInt(frame["value"]),
			Gas:             hexToUint64(frame["gas"]),
			GasUsed:         hexToUint64(frame["gasUsed"]),
			Input:           interfaceToString(frame["input"]),
		})
		calls, _ := frame["calls"].([]interface{})
		for _, call := range calls {
			if callMap, ok := call.(map[string]interface{}); ok {
				walk(callMap, depth+1)
			}
		}
	}
	walk(frame, 0)
	return flattened
}

func hexToBigInt(hex interface{}) *big.Int {
	hexString := interfaceToString(hex)
	if hexString == "" {
		return new(big.Int)
	}
	v, _ := new(big.Int).SetString(hexString[2:], 16)
	return v
}

func hexToUint64(hex interface{}) uint64 {
	hexString := interfaceToString(hex)
	if hexString == "" {
		return 0
	}
	v, _ := strconv.ParseUint(hexString[2:], 16, 64)
	return v
}

func interfaceToString(value interface{}) string {
	if value == nil {
		return ""
	}
	res, ok := value.(string)
	if !ok {
		return ""
	}
	return res
}
