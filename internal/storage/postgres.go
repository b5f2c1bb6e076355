package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/common"
)

type PostgresConnector struct {
	db  *sql.DB
	cfg *config.PostgresConfig
}

func NewPostgresConnector(cfg *config.PostgresConfig) (*PostgresConnector, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.Password, cfg.Database)

	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = "require"
		log.Info().Msg("No SSL mode specified, defaulting to 'require' for secure connection")
	}
	connStr += fmt.Sprintf(" sslmode=%s", sslMode)

	if cfg.ConnectTimeout > 0 {
		connStr += fmt.Sprintf(" connect_timeout=%d", cfg.ConnectTimeout)
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	if cfg.MaxConnLifetime > 0 {
		db.SetConnMaxLifetime(time.Duration(cfg.MaxConnLifetime) * time.Second)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresConnector{
		db:  db,
		cfg: cfg,
	}, nil
}

func (p *PostgresConnector) Close() error {
	return p.db.Close()
}

// Blocks

func (p *PostgresConnector) InsertBlock(block common.Block) error {
	query := `INSERT INTO blocks (chain_id, number, hash, parent_hash, gas_limit, gas_used, timestamp)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := p.db.Exec(query,
		block.ChainId.String(), block.Number.String(), block.Hash, block.ParentHash,
		block.GasLimit.String(), block.GasUsed.String(), block.Timestamp)
	return err
}

// DeleteBlock clears the whole block scope. Reorg reprocessing re-creates the
// block with a possibly different transaction set, so rows derived from the
// old set must not survive the delete.
func (p *PostgresConnector) DeleteBlock(blockNumber *big.Int) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	number := blockNumber.String()
	if _, err := tx.Exec(`DELETE FROM internal_transactions WHERE transaction_hash IN
	          (SELECT hash FROM transactions WHERE block_number = $1)`, number); err != nil {
		return err
	}
	for _, table := range []string{"prices", "swaps", "balance_histories", "transfers", "logs", "receipts", "transactions"} {
		if _, err := tx.Exec(fmt.Sprintf(`DELETE FROM %s WHERE block_number = $1`, table), number); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`DELETE FROM blocks WHERE number = $1`, number); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *PostgresConnector) GetBlock(blockNumber *big.Int) (*common.Block, error) {
	query := `SELECT chain_id, number, hash, parent_hash, gas_limit, gas_used, timestamp
	          FROM blocks WHERE number = $1`
	row := p.db.QueryRow(query, blockNumber.String())
	block, err := scanBlock(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return block, nil
}

func (p *PostgresConnector) GetBlocks(qf QueryFilter) (QueryResult[common.Block], error) {
	query := `SELECT chain_id, number, hash, parent_hash, gas_limit, gas_used, timestamp FROM blocks`
	query += orderAndPage(qf, "number")

	rows, err := p.db.Query(query)
	if err != nil {
		return QueryResult[common.Block]{}, err
	}
	defer rows.Close()

	result := QueryResult[common.Block]{Data: []common.Block{}}
	for rows.Next() {
		block, err := scanBlock(rows)
		if err != nil {
			return QueryResult[common.Block]{}, err
		}
		result.Data = append(result.Data, *block)
	}
	return result, rows.Err()
}

func (p *PostgresConnector) GetMaxBlockNumber() (*big.Int, error) {
	var numberString sql.NullString
	err := p.db.QueryRow(`SELECT MAX(number) FROM blocks`).Scan(&numberString)
	if err != nil {
		return nil, err
	}
	if !numberString.Valid {
		return big.NewInt(0), nil
	}
	number, ok := new(big.Int).SetString(numberString.String, 10)
	if !ok {
		return nil, fmt.Errorf("failed to parse block number: %s", numberString.String)
	}
	return number, nil
}

// Transactions

func (p *PostgresConnector) InsertTransaction(tx common.Transaction) error {
	query := `INSERT INTO transactions (chain_id, hash, block_number, block_timestamp, transaction_index,
	          from_address, to_address, value, gas, gas_price, data)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := p.db.Exec(query,
		tx.ChainId.String(), tx.Hash, tx.BlockNumber.String(), tx.BlockTimestamp, tx.TransactionIndex,
		tx.FromAddress, tx.ToAddress, tx.Value.String(), tx.Gas, tx.GasPrice.String(), tx.Data)
	return err
}

func (p *PostgresConnector) DeleteTransaction(hash string) error {
	_, err := p.db.Exec(`DELETE FROM transactions WHERE hash = $1`, hash)
	return err
}

func (p *PostgresConnector) GetTransaction(hash string) (*common.Transaction, error) {
	query := `SELECT chain_id, hash, block_number, block_timestamp, transaction_index,
	          from_address, to_address, value, gas, gas_price, data
	          FROM transactions WHERE hash = $1`
	tx, err := scanTransaction(p.db.QueryRow(query, hash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (p *PostgresConnector) GetTransactions(qf QueryFilter) (QueryResult[common.Transaction], error) {
	query := `SELECT chain_id, hash, block_number, block_timestamp, transaction_index,
	          from_address, to_address, value, gas, gas_price, data FROM transactions`

	args := []interface{}{}
	conditions := []string{}
	if qf.BlockNumber != nil {
		args = append(args, qf.BlockNumber.String())
		conditions = append(conditions, fmt.Sprintf("block_number = $%d", len(args)))
	}
	if qf.Address != "" {
		args = append(args, qf.Address)
		conditions = append(conditions, fmt.Sprintf("from_address = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += orderAndPage(qf, "block_number", "transaction_index")

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return QueryResult[common.Transaction]{}, err
	}
	defer rows.Close()

	result := QueryResult[common.Transaction]{Data: []common.Transaction{}}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return QueryResult[common.Transaction]{}, err
		}
		result.Data = append(result.Data, *tx)
	}
	return result, rows.Err()
}

// Receipts and logs

func (p *PostgresConnector) InsertReceipt(receipt common.Receipt, logs []common.Log) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO receipts (chain_id, transaction_hash, block_number, status, gas_used, contract_address)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := tx.Exec(query,
		receipt.ChainId.String(), receipt.TransactionHash, receipt.BlockNumber.String(),
		receipt.Status, receipt.GasUsed.String(), receipt.ContractAddress); err != nil {
		return err
	}

	for _, l := range logs {
		topicsJson, err := json.Marshal(l.Topics)
		if err != nil {
			return err
		}
		query := `INSERT INTO logs (chain_id, log_hash, transaction_hash, transaction_index, block_number,
		          block_timestamp, log_index, address, data, topics)
		          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
		if _, err := tx.Exec(query,
			l.ChainId.String(), l.LogHash, l.TransactionHash, l.TransactionIndex, l.BlockNumber.String(),
			l.BlockTimestamp, l.LogIndex, l.Address, l.Data, string(topicsJson)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (p *PostgresConnector) DeleteReceipt(transactionHash string) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM logs WHERE transaction_hash = $1`, transactionHash); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM receipts WHERE transaction_hash = $1`, transactionHash); err != nil {
		return err
	}
	return tx.Commit()
}

func (p *PostgresConnector) GetReceipt(transactionHash string) (*common.Receipt, []common.Log, error) {
	query := `SELECT chain_id, transaction_hash, block_number, status, gas_used, contract_address
	          FROM receipts WHERE transaction_hash = $1`
	var chainId, blockNumber, gasUsed string
	receipt := common.Receipt{}
	err := p.db.QueryRow(query, transactionHash).Scan(
		&chainId, &receipt.TransactionHash, &blockNumber, &receipt.Status, &gasUsed, &receipt.ContractAddress)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	receipt.ChainId = mustBigInt(chainId)
	receipt.BlockNumber = mustBigInt(blockNumber)
	receipt.GasUsed = mustBigInt(gasUsed)

	logs, err := p.GetLogsByTransaction(transactionHash)
	if err != nil {
		return nil, nil, err
	}
	return &receipt, logs, nil
}

func (p *PostgresConnector) GetLog(logHash string) (*common.Log, error) {
	query := `SELECT chain_id, log_hash, transaction_hash, transaction_index, block_number,
	          block_timestamp, log_index, address, data, topics
	          FROM logs WHERE log_hash = $1`
	l, err := scanLog(p.db.QueryRow(query, logHash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (p *PostgresConnector) GetLogsByTransaction(transactionHash string) ([]common.Log, error) {
	query := `SELECT chain_id, log_hash, transaction_hash, transaction_index, block_number,
	          block_timestamp, log_index, address, data, topics
	          FROM logs WHERE transaction_hash = $1 ORDER BY log_index ASC`
	rows, err := p.db.Query(query, transactionHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := []common.Log{}
	for rows.Next() {
		l, err := scanLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// Transfers

func (p *PostgresConnector) InsertTransfer(transfer common.Transfer) error {
	query := `INSERT INTO transfers (chain_id, hash, log_hash, transaction_hash, transaction_index,
	          block_number, block_timestamp, log_index, token_address, from_address, to_address, amount)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := p.db.Exec(query,
		transfer.ChainId.String(), transfer.Hash, transfer.LogHash, transfer.TransactionHash,
		transfer.TransactionIndex, transfer.BlockNumber.String(), transfer.BlockTimestamp,
		transfer.LogIndex, transfer.TokenAddress, transfer.FromAddress, transfer.ToAddress,
		transfer.Amount.String())
	return err
}

func (p *PostgresConnector) DeleteTransferByLogHash(logHash string) error {
	_, err := p.db.Exec(`DELETE FROM transfers WHERE log_hash = $1`, logHash)
	return err
}

func (p *PostgresConnector) GetTransfer(hash string) (*common.Transfer, error) {
	query := transferSelect + ` WHERE hash = $1`
	transfer, err := scanTransfer(p.db.QueryRow(query, hash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return transfer, nil
}

func (p *PostgresConnector) GetTransfersByTransaction(transactionHash string) ([]common.Transfer, error) {
	query := transferSelect + ` WHERE transaction_hash = $1 ORDER BY log_index ASC`
	rows, err := p.db.Query(query, transactionHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transfers := []common.Transfer{}
	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		transfers = append(transfers, *transfer)
	}
	return transfers, rows.Err()
}

func (p *PostgresConnector) GetTransfers(qf QueryFilter) (QueryResult[common.Transfer], error) {
	query := transferSelect

	args := []interface{}{}
	conditions := []string{}
	if qf.TokenAddress != "" {
		args = append(args, qf.TokenAddress)
		conditions = append(conditions, fmt.Sprintf("token_address = $%d", len(args)))
	}
	if qf.Address != "" {
		args = append(args, qf.Address)
		conditions = append(conditions, fmt.Sprintf("(from_address = $%d OR to_address = $%d)", len(args), len(args)))
	}
	if qf.BlockNumber != nil {
		args = append(args, qf.BlockNumber.String())
		conditions = append(conditions, fmt.Sprintf("block_number = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += orderAndPage(qf, "block_number", "transaction_index", "log_index")

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return QueryResult[common.Transfer]{}, err
	}
	defer rows.Close()

	result := QueryResult[common.Transfer]{Data: []common.Transfer{}}
	for rows.Next() {
		transfer, err := scanTransfer(rows)
		if err != nil {
			return QueryResult[common.Transfer]{}, err
		}
		result.Data = append(result.Data, *transfer)
	}
	return result, rows.Err()
}

// Balance histories

func (p *PostgresConnector) InsertBalanceHistories(histories []common.BalanceHistory) error {
	if len(histories) == 0 {
		return nil
	}

	valueStrings := make([]string, 0, len(histories))
	valueArgs := make([]interface{}, 0, len(histories)*10)
	for i, h := range histories {
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			i*10+1, i*10+2, i*10+3, i*10+4, i*10+5, i*10+6, i*10+7, i*10+8, i*10+9, i*10+10))
		valueArgs = append(valueArgs,
			h.ChainId.String(), h.Address, h.TokenAddress, h.Index, h.Amount.String(),
			h.TransferHash, h.TransactionHash, h.BlockNumber.String(), h.TransactionIndex, h.LogIndex)
	}

	query := fmt.Sprintf(`INSERT INTO balance_histories (chain_id, address, token_address, index, amount,
	          transfer_hash, transaction_hash, block_number, transaction_index, log_index)
	          VALUES %s`, strings.Join(valueStrings, ","))
	_, err := p.db.Exec(query, valueArgs...)
	return err
}

func (p *PostgresConnector) DeleteBalanceHistories(transactionHash string, transferHash string) error {
	_, err := p.db.Exec(`DELETE FROM balance_histories WHERE transaction_hash = $1 AND transfer_hash = $2`,
		transactionHash, transferHash)
	return err
}

func (p *PostgresConnector) GetLatestBalance(address string, tokenAddress string) (*common.BalanceHistory, error) {
	query := balanceSelect + ` WHERE address = $1 AND token_address = $2
	          ORDER BY block_number DESC, transaction_index DESC, log_index DESC LIMIT 1`
	h, err := scanBalanceHistory(p.db.QueryRow(query, address, tokenAddress))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return h, nil
}

func (p *PostgresConnector) GetBalanceHistories(qf QueryFilter) (QueryResult[common.BalanceHistory], error) {
	query := balanceSelect

	args := []interface{}{}
	conditions := []string{}
	if qf.Address != "" {
		args = append(args, qf.Address)
		conditions = append(conditions, fmt.Sprintf("address = $%d", len(args)))
	}
	if qf.TokenAddress != "" {
		args = append(args, qf.TokenAddress)
		conditions = append(conditions, fmt.Sprintf("token_address = $%d", len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += orderAndPage(qf, "block_number", "transaction_index", "log_index")

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return QueryResult[common.BalanceHistory]{}, err
	}
	defer rows.Close()

	result := QueryResult[common.BalanceHistory]{Data: []common.BalanceHistory{}}
	for rows.Next() {
		h, err := scanBalanceHistory(rows)
		if err != nil {
			return QueryResult[common.BalanceHistory]{}, err
		}
		result.Data = append(result.Data, *h)
	}
	return result, rows.Err()
}

// Swaps

func (p *PostgresConnector) InsertSwaps(swaps []common.Swap) error {
	if len(swaps) == 0 {
		return nil
	}

	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `INSERT INTO swaps (chain_id, hash, parent_hash, is_root, transaction_hash, transaction_index,
	          block_number, block_timestamp, dex_address, from_token_address, to_token_address, from_amount, to_amount)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	for _, s := range swaps {
		if _, err := tx.Exec(query,
			s.ChainId.String(), s.Hash, s.ParentHash, s.IsRoot, s.TransactionHash, s.TransactionIndex,
			s.BlockNumber.String(), s.BlockTimestamp, s.DexAddress, s.FromTokenAddress, s.ToTokenAddress,
			s.FromAmount.String(), s.ToAmount.String()); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *PostgresConnector) DeleteSwapsByTransaction(transactionHash string) error {
	_, err := p.db.Exec(`DELETE FROM swaps WHERE transaction_hash = $1`, transactionHash)
	return err
}

func (p *PostgresConnector) GetSwap(hash string) (*common.Swap, error) {
	query := swapSelect + ` WHERE hash = $1`
	s, err := scanSwap(p.db.QueryRow(query, hash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (p *PostgresConnector) GetSwapsByBlock(blockNumber *big.Int) ([]common.Swap, error) {
	query := swapSelect + ` WHERE block_number = $1 ORDER BY transaction_index ASC, hash ASC`
	rows, err := p.db.Query(query, blockNumber.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	swaps := []common.Swap{}
	for rows.Next() {
		s, err := scanSwap(rows)
		if err != nil {
			return nil, err
		}
		swaps = append(swaps, *s)
	}
	return swaps, rows.Err()
}

func (p *PostgresConnector) GetSwaps(qf QueryFilter) (QueryResult[common.Swap], error) {
	query := swapSelect

	args := []interface{}{}
	conditions := []string{}
	if qf.BlockNumber != nil {
		args = append(args, qf.BlockNumber.String())
		conditions = append(conditions, fmt.Sprintf("block_number = $%d", len(args)))
	}
	if qf.TransactionHash != "" {
		args = append(args, qf.TransactionHash)
		conditions = append(conditions, fmt.Sprintf("transaction_hash = $%d", len(args)))
	}
	if qf.TokenAddress != "" {
		args = append(args, qf.TokenAddress)
		conditions = append(conditions, fmt.Sprintf("(from_token_address = $%d OR to_token_address = $%d)", len(args), len(args)))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += orderAndPage(qf, "block_number", "transaction_index")

	rows, err := p.db.Query(query, args...)
	if err != nil {
		return QueryResult[common.Swap]{}, err
	}
	defer rows.Close()

	result := QueryResult[common.Swap]{Data: []common.Swap{}}
	for rows.Next() {
		s, err := scanSwap(rows)
		if err != nil {
			return QueryResult[common.Swap]{}, err
		}
		result.Data = append(result.Data, *s)
	}
	return result, rows.Err()
}

// Prices

const priceInsert = `INSERT INTO prices (chain_id, hash, swap_hash, token_address, block_number, transaction_index,
	usd_price, eth_price, btc_price, usd_price_ref_hash, eth_price_ref_hash, btc_price_ref_hash)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

func (p *PostgresConnector) InsertPrices(prices []common.Price) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, price := range prices {
		if _, err := tx.Exec(priceInsert,
			price.ChainId.String(), price.Hash, price.SwapHash, price.TokenAddress,
			price.BlockNumber.String(), price.TransactionIndex,
			price.UsdPrice, price.EthPrice, price.BtcPrice,
			price.UsdPriceRefHash, price.EthPriceRefHash, price.BtcPriceRefHash); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *PostgresConnector) DeletePricesBySwap(swapHash string) error {
	_, err := p.db.Exec(`DELETE FROM prices WHERE swap_hash = $1`, swapHash)
	return err
}

func (p *PostgresConnector) ReplaceBlockPrices(blockNumber *big.Int, prices []common.Price) error {
	tx, err := p.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM prices WHERE block_number = $1`, blockNumber.String()); err != nil {
		return err
	}

	for _, price := range prices {
		if _, err := tx.Exec(priceInsert,
			price.ChainId.String(), price.Hash, price.SwapHash, price.TokenAddress,
			price.BlockNumber.String(), price.TransactionIndex,
			price.UsdPrice, price.EthPrice, price.BtcPrice,
			price.UsdPriceRefHash, price.EthPriceRefHash, price.BtcPriceRefHash); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (p *PostgresConnector) GetPricesByBlock(blockNumber *big.Int) ([]common.Price, error) {
	query := priceSelect + ` WHERE block_number = $1 ORDER BY transaction_index ASC, hash ASC`
	rows, err := p.db.Query(query, blockNumber.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	prices := []common.Price{}
	for rows.Next() {
		price, err := scanPrice(rows)
		if err != nil {
			return nil, err
		}
		prices = append(prices, *price)
	}
	return prices, rows.Err()
}

func (p *PostgresConnector) GetPrice(hash string) (*common.Price, error) {
	query := priceSelect + ` WHERE hash = $1`
	price, err := scanPrice(p.db.QueryRow(query, hash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return price, nil
}

func (p *PostgresConnector) GetLatestTokenPrice(tokenAddress string, beforeBlock *big.Int) (*common.Price, error) {
	query := priceSelect + ` WHERE token_address = $1 AND block_number < $2
	          AND (usd_price != '0' OR eth_price != '0' OR btc_price != '0')
	          ORDER BY block_number DESC, transaction_index DESC LIMIT 1`
	price, err := scanPrice(p.db.QueryRow(query, tokenAddress, beforeBlock.String()))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return price, nil
}

// Contracts

func (p *PostgresConnector) InsertContract(contract common.Contract) error {
	query := `INSERT INTO contracts (chain_id, address, transaction_hash, block_number, is_token,
	          name, symbol, decimals, total_supply)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	totalSupply := "0"
	if contract.TotalSupply != nil {
		totalSupply = contract.TotalSupply.String()
	}
	_, err := p.db.Exec(query,
		contract.ChainId.String(), contract.Address, contract.TransactionHash, contract.BlockNumber.String(),
		contract.IsToken, contract.Name, contract.Symbol, contract.Decimals, totalSupply)
	return err
}

func (p *PostgresConnector) DeleteContract(address string) error {
	_, err := p.db.Exec(`DELETE FROM contracts WHERE address = $1`, address)
	return err
}

func (p *PostgresConnector) GetContract(address string) (*common.Contract, error) {
	query := `SELECT chain_id, address, transaction_hash, block_number, is_token, name, symbol, decimals, total_supply
	          FROM contracts WHERE address = $1`
	var chainId, blockNumber, totalSupply string
	contract := common.Contract{}
	err := p.db.QueryRow(query, address).Scan(
		&chainId, &contract.Address, &contract.TransactionHash, &blockNumber, &contract.IsToken,
		&contract.Name, &contract.Symbol, &contract.Decimals, &totalSupply)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	contract.ChainId = mustBigInt(chainId)
	contract.BlockNumber = mustBigInt(blockNumber)
	contract.TotalSupply = mustBigInt(totalSupply)
	return &contract, nil
}

// Internal transactions

func (p *PostgresConnector) InsertInternalTransactions(itxs []common.InternalTransaction) error {
	if len(itxs) == 0 {
		return nil
	}

	valueStrings := make([]string, 0, len(itxs))
	valueArgs := make([]interface{}, 0, len(itxs)*11)
	for i, itx := range itxs {
		valueStrings = append(valueStrings, fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			i*11+1, i*11+2, i*11+3, i*11+4, i*11+5, i*11+6, i*11+7, i*11+8, i*11+9, i*11+10, i*11+11))
		valueArgs = append(valueArgs,
			itx.ChainId.String(), itx.TransactionHash, itx.CallIndex, itx.Depth, itx.CallType,
			itx.FromAddress, itx.ToAddress, itx.Value.String(), itx.Gas, itx.GasUsed, itx.Input)
	}

	query := fmt.Sprintf(`INSERT INTO internal_transactions (chain_id, transaction_hash, call_index, depth,
	          call_type, from_address, to_address, value, gas, gas_used, input)
	          VALUES %s`, strings.Join(valueStrings, ","))
	_, err := p.db.Exec(query, valueArgs...)
	return err
}

func (p *PostgresConnector) DeleteInternalTransactions(transactionHash string) error {
	_, err := p.db.Exec(`DELETE FROM internal_transactions WHERE transaction_hash = $1`, transactionHash)
	return err
}

func (p *PostgresConnector) GetInternalTransactions(transactionHash string) ([]common.InternalTransaction, error) {
	query := `SELECT chain_id, transaction_hash, call_index, depth, call_type, from_address, to_address,
	          value, gas, gas_used, input
	          FROM internal_transactions WHERE transaction_hash = $1 ORDER BY call_index ASC`
	rows, err := p.db.Query(query, transactionHash)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	itxs := []common.InternalTransaction{}
	for rows.Next() {
		var chainId, value string
		itx := common.InternalTransaction{}
		if err := rows.Scan(&chainId, &itx.TransactionHash, &itx.CallIndex, &itx.Depth, &itx.CallType,
			&itx.FromAddress, &itx.ToAddress, &value, &itx.Gas, &itx.GasUsed, &itx.Input); err != nil {
			return nil, err
		}
		itx.ChainId = mustBigInt(chainId)
		itx.Value = mustBigInt(value)
		itxs = append(itxs, itx)
	}
	return itxs, rows.Err()
}
