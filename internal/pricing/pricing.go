package pricing

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/storage"
)

// undetermined is the stored price of a token the bridging pass could not
// resolve. It is a valid persisted value, not an error.
const undetermined = "0"

// anchor binds one reference currency to its recognized token set and to the
// price/ref fields it owns on a Price row.
type anchor struct {
	name   string
	tokens map[string]bool
	get    func(*common.Price) string
	set    func(*common.Price, string)
	getRef func(*common.Price) string
	setRef func(*common.Price, string)
}

// Engine resolves swap prices per block by bridging through tokens whose
// anchor-currency value is already known, either from the block itself or
// from prior history.
type Engine struct {
	storage storage.IMainStorage
	anchors []anchor
}

func NewEngine(s storage.IMainStorage, cfg *config.PricingConfig) *Engine {
	return &Engine{
		storage: s,
		anchors: []anchor{
			{
				name:   "usd",
				tokens: tokenSet(cfg.USDTokens),
				get:    func(p *common.Price) string { return p.UsdPrice },
				set:    func(p *common.Price, v string) { p.UsdPrice = v },
				getRef: func(p *common.Price) string { return p.UsdPriceRefHash },
				setRef: func(p *common.Price, v string) { p.UsdPriceRefHash = v },
			},
			{
				name:   "eth",
				tokens: tokenSet(cfg.ETHTokens),
				get:    func(p *common.Price) string { return p.EthPrice },
				set:    func(p *common.Price, v string) { p.EthPrice = v },
				getRef: func(p *common.Price) string { return p.EthPriceRefHash },
				setRef: func(p *common.Price, v string) { p.EthPriceRefHash = v },
			},
			{
				name:   "btc",
				tokens: tokenSet(cfg.BTCTokens),
				get:    func(p *common.Price) string { return p.BtcPrice },
				set:    func(p *common.Price, v string) { p.BtcPrice = v },
				getRef: func(p *common.Price) string { return p.BtcPriceRefHash },
				setRef: func(p *common.Price, v string) { p.BtcPriceRefHash = v },
			},
		},
	}
}

func tokenSet(addresses []string) map[string]bool {
	set := map[string]bool{}
	for _, a := range addresses {
		set[strings.ToLower(a)] = true
	}
	return set
}

// priceSide joins one Price row with the swap leg it prices.
type priceSide struct {
	price         *common.Price
	amount        *big.Int
	counterToken  string
	counterAmount *big.Int
}

// BridgeBlock prices every swap side of a block and persists the result as a
// block-scoped replace. Rows that cannot be resolved stay undetermined.
func (e *Engine) BridgeBlock(blockNumber *big.Int) ([]common.Price, error) {
	prices, err := e.storage.GetPricesByBlock(blockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load prices for block %s: %w", blockNumber.String(), err)
	}
	if len(prices) == 0 {
		return nil, nil
	}

	swaps, err := e.storage.GetSwapsByBlock(blockNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to load swaps for block %s: %w", blockNumber.String(), err)
	}
	swapsByHash := map[string]*common.Swap{}
	for i := range swaps {
		swapsByHash[swaps[i].Hash] = &swaps[i]
	}

	sides := []priceSide{}
	for i := range prices {
		price := &prices[i]
		swap, ok := swapsByHash[price.SwapHash]
		if !ok {
			continue
		}
		side := priceSide{price: price}
		if strings.EqualFold(price.TokenAddress, swap.FromTokenAddress) {
			side.amount = swap.FromAmount
			side.counterToken = swap.ToTokenAddress
			side.counterAmount = swap.ToAmount
		} else {
			side.amount = swap.ToAmount
			side.counterToken = swap.FromTokenAddress
			side.counterAmount = swap.FromAmount
		}
		sides = append(sides, side)
	}

	for _, a := range e.anchors {
		if err := e.bridgeAnchor(a, sides, blockNumber); err != nil {
			return nil, err
		}
	}

	if err := e.storage.ReplaceBlockPrices(blockNumber, prices); err != nil {
		return nil, fmt.Errorf("failed to replace prices for block %s: %w", blockNumber.String(), err)
	}
	return prices, nil
}

func (e *Engine) bridgeAnchor(a anchor, sides []priceSide, blockNumber *big.Int) error {
	known := map[string]decimal.Decimal{}

	// Seed: anchor tokens are worth exactly 1; rows already resolved keep
	// their value and make their token known.
	for _, side := range sides {
		token := strings.ToLower(side.price.TokenAddress)
		if a.tokens[token] {
			a.set(side.price, "1")
			known[token] = decimal.NewFromInt(1)
			continue
		}
		if a.get(side.price) != undetermined {
			resolved, err := decimal.NewFromString(a.get(side.price))
			if err == nil {
				known[token] = resolved
			}
		}
	}

	// Intra-block bridging in block order; each resolution makes its token
	// available to later rows of the same pass.
	for _, side := range sides {
		token := strings.ToLower(side.price.TokenAddress)
		if a.get(side.price) != undetermined {
			continue
		}
		if own, ok := known[token]; ok {
			a.set(side.price, own.String())
			continue
		}
		counterPrice, ok := known[strings.ToLower(side.counterToken)]
		if !ok {
			continue
		}
		bridged, ok := bridge(counterPrice, side.counterAmount, side.amount)
		if !ok {
			continue
		}
		a.set(side.price, bridged.String())
		if _, seen := known[token]; !seen {
			known[token] = bridged
		}
	}

	// Historical fallback for what the block itself could not resolve.
	for _, side := range sides {
		if a.get(side.price) != undetermined {
			continue
		}
		if err := e.resolveFromHistory(a, side, blockNumber); err != nil {
			return err
		}
	}
	return nil
}

// resolveFromHistory prices a side from the most recent stored price of the
// same token, or of its counter-token scaled by the swap ratio. The reference
// row's hash is recorded for auditability.
func (e *Engine) resolveFromHistory(a anchor, side priceSide, blockNumber *big.Int) error {
	prior, err := e.storage.GetLatestTokenPrice(side.price.TokenAddress, blockNumber)
	if err != nil {
		return fmt.Errorf("failed to look up prior price for %s: %w", side.price.TokenAddress, err)
	}
	if prior != nil && a.get(prior) != undetermined {
		a.set(side.price, a.get(prior))
		a.setRef(side.price, prior.Hash)
		return nil
	}

	counterPrior, err := e.storage.GetLatestTokenPrice(side.counterToken, blockNumber)
	if err != nil {
		return fmt.Errorf("failed to look up prior price for %s: %w", side.counterToken, err)
	}
	if counterPrior == nil || a.get(counterPrior) == undetermined {
		return nil
	}
	counterPrice, err := decimal.NewFromString(a.get(counterPrior))
	if err != nil {
		return nil
	}
	bridged, ok := bridge(counterPrice, side.counterAmount, side.amount)
	if !ok {
		return nil
	}
	a.set(side.price, bridged.String())
	a.setRef(side.price, counterPrior.Hash)
	return nil
}

// bridge computes counterPrice * counterAmount / amount. A zero denominator
// yields no price rather than an error.
func bridge(counterPrice decimal.Decimal, counterAmount *big.Int, amount *big.Int) (decimal.Decimal, bool) {
	if amount == nil || amount.Sign() == 0 || counterAmount == nil {
		return decimal.Zero, false
	}
	ratio := decimal.NewFromBigInt(counterAmount, 0).Div(decimal.NewFromBigInt(amount, 0))
	return counterPrice.Mul(ratio), true
}
