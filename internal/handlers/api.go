package handlers

import (
	"fmt"
	"math/big"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/storage"
)

// Server exposes the indexed entities over a thin read-only HTTP API.
type Server struct {
	storage storage.IMainStorage
}

func NewServer(s storage.IMainStorage) *Server {
	return &Server{storage: s}
}

func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	v1 := router.Group("/v1")
	{
		v1.GET("/blocks", s.GetBlocks)
		v1.GET("/blocks/:number", s.GetBlock)
		v1.GET("/transactions", s.GetTransactions)
		v1.GET("/transactions/:hash", s.GetTransaction)
		v1.GET("/transfers", s.GetTransfers)
		v1.GET("/balances/:address/:token", s.GetBalance)
		v1.GET("/balances/:address/:token/history", s.GetBalanceHistory)
		v1.GET("/swaps", s.GetSwaps)
		v1.GET("/swaps/:hash", s.GetSwap)
		v1.GET("/prices/:hash", s.GetPrice)
		v1.GET("/tokens/:address/price", s.GetLatestTokenPrice)
	}
	return router
}

func (s *Server) Start() error {
	host := config.Cfg.API.Host
	port := config.Cfg.API.Port
	if port == 0 {
		port = 3000
	}
	addr := fmt.Sprintf("%s:%d", host, port)
	log.Info().Str("addr", addr).Msg("API server starting")
	return s.Router().Run(addr)
}

type queryResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func internalError(c *gin.Context, err error) {
	log.Error().Err(err).Str("path", c.FullPath()).Msg("API query failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "an unexpected error occurred"})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorResponse{Error: "not found"})
}

// parseQueryFilter reads the shared pagination and filter query params.
func parseQueryFilter(c *gin.Context) (storage.QueryFilter, error) {
	qf := storage.QueryFilter{
		TransactionHash: c.Query("transaction_hash"),
		Address:         c.Query("address"),
		TokenAddress:    c.Query("token_address"),
		SortBy:          c.Query("sort_by"),
		SortOrder:       c.Query("sort_order"),
	}

	if blockNumber := c.Query("block_number"); blockNumber != "" {
		n, ok := new(big.Int).SetString(blockNumber, 10)
		if !ok {
			return qf, fmt.Errorf("invalid block_number %q", blockNumber)
		}
		qf.BlockNumber = n
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return qf, fmt.Errorf("invalid limit %q", limit)
		}
		qf.Limit = n
	}
	if offset := c.Query("offset"); offset != "" {
		n, err := strconv.Atoi(offset)
		if err != nil || n < 0 {
			return qf, fmt.Errorf("invalid offset %q", offset)
		}
		qf.Offset = n
	}
	return qf, nil
}

func parseBlockNumberParam(c *gin.Context, name string) (*big.Int, error) {
	value := c.Param(name)
	n, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid block number %q", value)
	}
	return n, nil
}
