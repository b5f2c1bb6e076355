package processor

import (
	"context"
	"math/big"

	"github.com/rs/zerolog/log"

	"github.com/blockpulse/indexer/internal/common"
	"github.com/blockpulse/indexer/internal/rpc"
	"github.com/blockpulse/indexer/internal/storage"
)

// ContractRef identifies a contract together with the transaction that
// surfaced it (its deployment, or the first interaction observed).
type ContractRef struct {
	Address         string   `json:"address"`
	TransactionHash string   `json:"transaction_hash"`
	BlockNumber     *big.Int `json:"block_number"`
}

// ContractSource is the on-chain probe result for a referenced address.
type ContractSource struct {
	Ref      ContractRef
	HasCode  bool
	Metadata *rpc.TokenMetadata
	ChainId  *big.Int
}

type ContractProcessor struct {
	rpc     *rpc.Multiplexer
	storage storage.IMainStorage
}

func NewContractProcessor(mux *rpc.Multiplexer, s storage.IMainStorage) *ContractProcessor {
	return &ContractProcessor{rpc: mux, storage: s}
}

func (p *ContractProcessor) Name() string { return "contract" }

func (p *ContractProcessor) Get(ctx context.Context, ref ContractRef) (*ContractSource, error) {
	client, err := p.rpc.GetClient(ctx)
	if err != nil {
		return nil, err
	}
	hasCode, err := client.HasCode(ctx, ref.Address)
	if err != nil {
		p.rpc.Blacklist(ctx, client)
		return nil, err
	}

	source := &ContractSource{Ref: ref, HasCode: hasCode, ChainId: client.GetChainID()}
	if !hasCode {
		return source, nil
	}

	// A failed probe just means the contract is not an ERC-20 token.
	metadata, err := client.GetTokenMetadata(ctx, ref.Address)
	if err != nil {
		log.Debug().Str("address", ref.Address).Err(err).Msg("Token metadata probe failed")
		return source, nil
	}
	source.Metadata = metadata
	return source, nil
}

func (p *ContractProcessor) ToInput(source *ContractSource) (*common.Contract, error) {
	if !source.HasCode {
		return nil, nil
	}
	contract := &common.Contract{
		ChainId:         source.ChainId,
		Address:         source.Ref.Address,
		TransactionHash: source.Ref.TransactionHash,
		BlockNumber:     source.Ref.BlockNumber,
	}
	if source.Metadata != nil {
		contract.IsToken = true
		contract.Name = source.Metadata.Name
		contract.Symbol = source.Metadata.Symbol
		contract.Decimals = source.Metadata.Decimals
		contract.TotalSupply = source.Metadata.TotalSupply
	}
	return contract, nil
}

func (p *ContractProcessor) DeleteFromDb(ref ContractRef) error {
	return p.storage.DeleteContract(ref.Address)
}

func (p *ContractProcessor) CreateInDb(input *common.Contract) error {
	return p.storage.InsertContract(*input)
}
