package orchestrator

import (
	"context"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/processor"
	"github.com/blockpulse/indexer/internal/queue"
)

// ReceiptHandler fetches and indexes one transaction receipt with its logs.
func (p *Pipeline) ReceiptHandler() queue.Handler {
	proc := processor.NewReceiptProcessor(p.rpc, p.storage)
	return func(ctx context.Context, payload []byte) error {
		msg, err := decodeMessage[ReceiptMessage](payload)
		if err != nil {
			return err
		}
		hash, err := requireHash(msg.TransactionHash)
		if err != nil {
			return err
		}
		_, err = processor.Process(ctx, proc, hash)
		return err
	}
}

// ReceiptOnFinish publishes one transfer message per Transfer-shaped log of
// the freshly indexed receipt, and a contract probe when the receipt records
// a deployment. Deployed tokens are indexed at creation, not first use.
func (p *Pipeline) ReceiptOnFinish() queue.Handler {
	return func(ctx context.Context, payload []byte) error {
		msg, err := decodeMessage[ReceiptMessage](payload)
		if err != nil {
			return err
		}
		receipt, logs, err := p.storage.GetReceipt(msg.TransactionHash)
		if err != nil {
			return err
		}
		if receipt == nil {
			return nil
		}
		for _, l := range logs {
			if !l.IsTransfer() {
				continue
			}
			if err := p.queuePub.Publish(SubjectTransfers, TransferMessage{LogHash: l.LogHash}); err != nil {
				return err
			}
		}
		if receipt.ContractAddress != "" {
			contractMsg := ContractMessage{
				Address:         receipt.ContractAddress,
				TransactionHash: receipt.TransactionHash,
				BlockNumber:     receipt.BlockNumber.String(),
			}
			if err := p.queuePub.Publish(SubjectContracts, contractMsg); err != nil {
				return err
			}
		}
		return nil
	}
}

// TransferHandler derives a Transfer row from an indexed log.
func (p *Pipeline) TransferHandler() queue.Handler {
	proc := processor.NewTransferProcessor(p.storage)
	return func(ctx context.Context, payload []byte) error {
		msg, err := decodeMessage[TransferMessage](payload)
		if err != nil {
			return err
		}
		hash, err := requireHash(msg.LogHash)
		if err != nil {
			return err
		}
		_, err = processor.Process(ctx, proc, hash)
		return err
	}
}

// TransferOnFinish schedules the balance update for a written transfer. The
// transfer hash is derived from the log hash, so a log that turned out not to
// be a transfer publishes nothing.
func (p *Pipeline) TransferOnFinish() queue.Handler {
	return func(ctx context.Context, payload []byte) error {
		msg, err := decodeMessage[TransferMessage](payload)
		if err != nil {
			return err
		}
		transferHash := common.TransferHash(msg.LogHash)
		t, err := p.storage.GetTransfer(transferHash)
		if err != nil {
			return err
		}
		if t == nil {
			return nil
		}
		return p.queuePub.Publish(SubjectBalances, BalanceMessage{TransferHash: transferHash})
	}
}

// BalanceHandler applies one transfer to the balance ledger.
func (p *Pipeline) BalanceHandler() queue.Handler {
	proc := processor.NewBalanceProcessor(p.storage)
	return func(ctx context.Context, payload []byte) error {
		msg, err := decodeMessage[BalanceMessage](payload)
		if err != nil {
			return err
		}
		hash, err := requireHash(msg.TransferHash)
		if err != nil {
			return err
		}
		_, err = processor.Process(ctx, proc, hash)
		return err
	}
}

// InternalTransactionHandler indexes the flattened debug trace of one
// transaction.
func (p *Pipeline) InternalTransactionHandler() queue.Handler {
	proc := processor.NewInternalTransactionProcessor(p.rpc, p.storage)
	return func(ctx context.Context, payload []byte) error {
		msg, err := decodeMessage[InternalTransactionMessage](payload)
		if err != nil {
			return err
		}
		hash, err := requireHash(msg.TransactionHash)
		if err != nil {
			return err
		}
		_, err = processor.Process(ctx, proc, hash)
		return err
	}
}

// ContractHandler probes and indexes a referenced contract address.
func (p *Pipeline) ContractHandler() queue.Handler {
	proc := processor.NewContractProcessor(p.rpc, p.storage)
	return func(ctx context.Context, payload []byte) error {
		msg, err := decodeMessage[ContractMessage](payload)
		if err != nil {
			return err
		}
		address, err := requireHash(msg.Address)
		if err != nil {
			return err
		}
		blockNumber, err := parseBlockNumber(msg.BlockNumber)
		if err != nil {
			return err
		}
		ref := processor.ContractRef{
			Address:         address,
			TransactionHash: msg.TransactionHash,
			BlockNumber:     blockNumber,
		}
		_, err = processor.Process(ctx, proc, ref)
		return err
	}
}
