package handlers

import (
	"errors"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/storage"
)

var errInvalidBeforeBlock = errors.New("invalid before_block")

func (s *Server) GetTransfers(c *gin.Context) {
	qf, err := parseQueryFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	result, err := s.storage.GetTransfers(qf)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetBalance returns the current balance of an address for a token: the
// latest ledger row, or a zero balance when the pair has no history.
func (s *Server) GetBalance(c *gin.Context) {
	address := c.Param("address")
	token := c.Param("token")

	latest, err := s.storage.GetLatestBalance(address, token)
	if err != nil {
		internalError(c, err)
		return
	}
	if latest == nil {
		c.JSON(http.StatusOK, queryResponse{Data: gin.H{
			"address":       address,
			"token_address": token,
			"amount":        big.NewInt(0),
		}})
		return
	}
	c.JSON(http.StatusOK, queryResponse{Data: latest})
}

func (s *Server) GetBalanceHistory(c *gin.Context) {
	qf, err := parseQueryFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	qf.Address = c.Param("address")
	qf.TokenAddress = c.Param("token")

	result, err := s.storage.GetBalanceHistories(qf)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func swapsByTransactionFilter(hash string) storage.QueryFilter {
	return storage.QueryFilter{TransactionHash: hash}
}

func (s *Server) GetSwaps(c *gin.Context) {
	qf, err := parseQueryFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	result, err := s.storage.GetSwaps(qf)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetSwap returns a swap with the prices attached to it.
func (s *Server) GetSwap(c *gin.Context) {
	hash := c.Param("hash")
	swap, err := s.storage.GetSwap(hash)
	if err != nil {
		internalError(c, err)
		return
	}
	if swap == nil {
		notFound(c)
		return
	}

	prices := []common.Price{}
	for _, side := range []int{1, 2} {
		price, err := s.storage.GetPrice(common.PriceHash(hash, side))
		if err != nil {
			internalError(c, err)
			return
		}
		if price != nil {
			prices = append(prices, *price)
		}
	}

	c.JSON(http.StatusOK, queryResponse{Data: gin.H{
		"swap":   swap,
		"prices": prices,
	}})
}

func (s *Server) GetPrice(c *gin.Context) {
	price, err := s.storage.GetPrice(c.Param("hash"))
	if err != nil {
		internalError(c, err)
		return
	}
	if price == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, queryResponse{Data: price})
}

// GetLatestTokenPrice returns the most recent resolved price of a token,
// optionally before a block passed as ?before_block=N.
func (s *Server) GetLatestTokenPrice(c *gin.Context) {
	beforeBlock := new(big.Int).SetUint64(^uint64(0) >> 1)
	if raw := c.Query("before_block"); raw != "" {
		n, ok := new(big.Int).SetString(raw, 10)
		if !ok {
			badRequest(c, errInvalidBeforeBlock)
			return
		}
		beforeBlock = n
	}

	price, err := s.storage.GetLatestTokenPrice(c.Param("address"), beforeBlock)
	if err != nil {
		internalError(c, err)
		return
	}
	if price == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, queryResponse{Data: price})
}
