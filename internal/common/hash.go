package common

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// LogHash derives the unique log identifier from its transaction hash and index.
func LogHash(transactionHash string, logIndex uint64) string {
	txBytes, _ := hex.DecodeString(strings.TrimPrefix(transactionHash, "0x"))
	idxBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idxBytes, logIndex)
	return "0x" + hex.EncodeToString(crypto.Keccak256(txBytes, idxBytes))
}

// TransferHash derives the transfer identifier from the originating log hash.
func TransferHash(logHash string) string {
	logBytes, _ := hex.DecodeString(strings.TrimPrefix(logHash, "0x"))
	return "0x" + hex.EncodeToString(crypto.Keccak256(logBytes))
}

// SwapHash returns the identifier of a swap row. The root swap carries the
// transaction hash itself; hop children are suffixed with their hop index.
func SwapHash(transactionHash string, index int, isRoot bool) string {
	if isRoot {
		return transactionHash
	}
	return fmt.Sprintf("%s-%d", transactionHash, index)
}

// PriceHash returns the identifier of one side of a swap's price pair,
// side being 1 (from token) or 2 (to token).
func PriceHash(swapHash string, side int) string {
	return fmt.Sprintf("%s-%d", swapHash, side)
}
