package decoder

import (
	"strings"

	"github.com/blockpulse/indexer/internal/common"
)

// SwapDecoder turns a DEX call and its receipt logs into swap facts.
// Implementations validate the declared route against the actual ERC-20
// Transfer logs and must return common.ErrInvalidSwap when they disagree.
type SwapDecoder interface {
	DecodeSwaps(tx *common.Transaction, logs []common.Log) ([]common.Swap, error)
}

// Registry maps 4-byte function selectors to their swap decoder.
type Registry struct {
	decoders map[string]SwapDecoder
}

func NewRegistry() *Registry {
	r := &Registry{decoders: map[string]SwapDecoder{}}
	multiHop := NewMultiHopDecoder()
	r.Register(multiHop.Selector(), multiHop)
	return r
}

func (r *Registry) Register(selector string, d SwapDecoder) {
	r.decoders[strings.ToLower(selector)] = d
}

// Lookup returns the decoder for a transaction's function selector, or nil
// when the call is not a known DEX swap.
func (r *Registry) Lookup(tx *common.Transaction) SwapDecoder {
	selector := tx.FunctionSelector()
	if selector == "" {
		return nil
	}
	return r.decoders[selector]
}
