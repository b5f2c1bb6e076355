package processor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/blockpulse/indexer/internal/metrics"
)

// Processor is the four-operation contract every pipeline stage implements.
//
// Get fetches the raw upstream record, failing with common.ErrNoGetResult
// when it is absent. ToInput is a pure transform; a nil input means the stage
// writes nothing for this id. DeleteFromDb removes everything previously
// derived for the id and must be safe when nothing exists. CreateInDb inserts
// the freshly computed rows.
type Processor[ID any, Source any, Input any] interface {
	Name() string
	Get(ctx context.Context, id ID) (Source, error)
	ToInput(source Source) (*Input, error)
	DeleteFromDb(id ID) error
	CreateInDb(input *Input) error
}

// Process runs one id through a stage as get, toInput, deleteFromDb,
// createInDb, in that order. Delete-before-create is deliberately not wrapped
// in a stage-level transaction: a crash between the two leaves missing data,
// which downstream stages treat as not-yet-indexed and retry, never stale
// duplicates. It returns the written input so callers can fan out downstream
// work, or nil when the stage was a no-op.
func Process[ID any, Source any, Input any](ctx context.Context, p Processor[ID, Source, Input], id ID) (*Input, error) {
	source, err := p.Get(ctx, id)
	if err != nil {
		metrics.ProcessorFailures.WithLabelValues(p.Name()).Inc()
		return nil, fmt.Errorf("%s get failed: %w", p.Name(), err)
	}

	input, err := p.ToInput(source)
	if err != nil {
		metrics.ProcessorFailures.WithLabelValues(p.Name()).Inc()
		return nil, fmt.Errorf("%s transform failed: %w", p.Name(), err)
	}

	if err := p.DeleteFromDb(id); err != nil {
		metrics.ProcessorFailures.WithLabelValues(p.Name()).Inc()
		return nil, fmt.Errorf("%s delete failed: %w", p.Name(), err)
	}

	if input == nil {
		log.Trace().Str("stage", p.Name()).Msg("Stage produced no rows for id")
		return nil, nil
	}

	if err := p.CreateInDb(input); err != nil {
		metrics.ProcessorFailures.WithLabelValues(p.Name()).Inc()
		return nil, fmt.Errorf("%s create failed: %w", p.Name(), err)
	}

	metrics.ProcessedEntities.WithLabelValues(p.Name()).Inc()
	return input, nil
}
