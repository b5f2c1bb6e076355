package ledger

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/blockpulse/indexer/configs"
	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/storage"
)

func newTestLedger(t *testing.T) (*Ledger, *storage.MemoryConnector) {
	conn, err := storage.NewMemoryConnector(&config.MemoryConfig{MaxItems: 1000})
	require.NoError(t, err)
	return NewLedger(conn), conn
}

func newTestTransfer(hash string, from string, to string, amount int64, blockNumber int64, logIndex uint64) *common.Transfer {
	return &common.Transfer{
		ChainId:          big.NewInt(1),
		Hash:             hash,
		LogHash:          "log-" + hash,
		TransactionHash:  "tx-" + hash,
		TransactionIndex: 0,
		BlockNumber:      big.NewInt(blockNumber),
		BlockTimestamp:   time.Unix(1700000000, 0).UTC(),
		LogIndex:         logIndex,
		TokenAddress:     "0xtoken",
		FromAddress:      from,
		ToAddress:        to,
		Amount:           big.NewInt(amount),
	}
}

func TestBuildHistories_FirstTransfer(t *testing.T) {
	l, _ := newTestLedger(t)

	histories, err := l.BuildHistories(newTestTransfer("t1", "0xalice", "0xbob", 1000, 100, 0))
	require.NoError(t, err)
	require.Len(t, histories, 2)

	assert.Equal(t, "0xalice", histories[0].Address)
	assert.Equal(t, uint64(1), histories[0].Index)
	assert.Equal(t, "-1000", histories[0].Amount.String())

	assert.Equal(t, "0xbob", histories[1].Address)
	assert.Equal(t, uint64(1), histories[1].Index)
	assert.Equal(t, "1000", histories[1].Amount.String())
}

func TestApply_IndexIncreasesByOne(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Apply(newTestTransfer("t1", "0xalice", "0xbob", 1000, 100, 0))
	require.NoError(t, err)

	histories, err := l.Apply(newTestTransfer("t2", "0xalice", "0xbob", 200, 100, 1))
	require.NoError(t, err)
	require.Len(t, histories, 2)

	assert.Equal(t, uint64(2), histories[0].Index)
	assert.Equal(t, "-1200", histories[0].Amount.String())
	assert.Equal(t, uint64(2), histories[1].Index)
	assert.Equal(t, "1200", histories[1].Amount.String())
}

func TestApply_SelfTransferSingleRow(t *testing.T) {
	l, _ := newTestLedger(t)

	_, err := l.Apply(newTestTransfer("t1", "0xalice", "0xbob", 1000, 100, 0))
	require.NoError(t, err)

	histories, err := l.Apply(newTestTransfer("t2", "0xbob", "0xbob", 400, 100, 1))
	require.NoError(t, err)
	require.Len(t, histories, 1)

	assert.Equal(t, "0xbob", histories[0].Address)
	assert.Equal(t, uint64(2), histories[0].Index)
	assert.Equal(t, "1000", histories[0].Amount.String())
}

func TestApply_ReplayIsIdempotent(t *testing.T) {
	l, conn := newTestLedger(t)

	transfer := newTestTransfer("t1", "0xalice", "0xbob", 1000, 100, 0)
	first, err := l.Apply(transfer)
	require.NoError(t, err)

	second, err := l.Apply(transfer)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	latest, err := conn.GetLatestBalance("0xbob", "0xtoken")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, uint64(1), latest.Index)
	assert.Equal(t, "1000", latest.Amount.String())
}

func TestApply_ReplayLeavesOtherTransfersUntouched(t *testing.T) {
	l, conn := newTestLedger(t)

	_, err := l.Apply(newTestTransfer("t1", "0xalice", "0xbob", 1000, 100, 0))
	require.NoError(t, err)
	transfer := newTestTransfer("t2", "0xbob", "0xcarol", 300, 100, 1)
	_, err = l.Apply(transfer)
	require.NoError(t, err)

	_, err = l.Apply(transfer)
	require.NoError(t, err)

	aliceLatest, err := conn.GetLatestBalance("0xalice", "0xtoken")
	require.NoError(t, err)
	require.NotNil(t, aliceLatest)
	assert.Equal(t, "-1000", aliceLatest.Amount.String())

	bobLatest, err := conn.GetLatestBalance("0xbob", "0xtoken")
	require.NoError(t, err)
	require.NotNil(t, bobLatest)
	assert.Equal(t, uint64(2), bobLatest.Index)
	assert.Equal(t, "700", bobLatest.Amount.String())
}
