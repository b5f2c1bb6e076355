package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetBlocks(c *gin.Context) {
	qf, err := parseQueryFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	result, err := s.storage.GetBlocks(qf)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) GetBlock(c *gin.Context) {
	blockNumber, err := parseBlockNumberParam(c, "number")
	if err != nil {
		badRequest(c, err)
		return
	}
	block, err := s.storage.GetBlock(blockNumber)
	if err != nil {
		internalError(c, err)
		return
	}
	if block == nil {
		notFound(c)
		return
	}
	c.JSON(http.StatusOK, queryResponse{Data: block})
}

func (s *Server) GetTransactions(c *gin.Context) {
	qf, err := parseQueryFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	result, err := s.storage.GetTransactions(qf)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetTransaction returns a transaction hydrated with its receipt, logs,
// transfers and swaps when they are indexed.
func (s *Server) GetTransaction(c *gin.Context) {
	hash := c.Param("hash")
	tx, err := s.storage.GetTransaction(hash)
	if err != nil {
		internalError(c, err)
		return
	}
	if tx == nil {
		notFound(c)
		return
	}

	receipt, logs, err := s.storage.GetReceipt(hash)
	if err != nil {
		internalError(c, err)
		return
	}
	transfers, err := s.storage.GetTransfersByTransaction(hash)
	if err != nil {
		internalError(c, err)
		return
	}
	swaps, err := s.storage.GetSwaps(swapsByTransactionFilter(hash))
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, queryResponse{Data: gin.H{
		"transaction": tx,
		"receipt":     receipt,
		"logs":        logs,
		"transfers":   transfers,
		"swaps":       swaps.Data,
	}})
}
