package archive

import (
	"context"

	"go.uber.org/zap"

	"supplyArchive/internal/model"
)

// Synthetic provenance markers stamped on manually backfilled records.
const (
	backfillTxMarker = "manual"
	backfillActor    = "manual-backfill"
)

// StateReader reads the current on-chain state of a product.
type StateReader interface {
	State(ctx context.Context, uid uint64) (uint8, error)
}

// Archiver is the pipeline surface the triggers depend on.
type Archiver interface {
	Archive(ctx context.Context, uid uint64, txHash string, blockNumber uint64, archivedBy string) (*model.ArchivedRecord, bool, error)
}

// Backfill archives a product on demand, for completions the live
// subscription missed. It verifies the product actually reached the
// terminal state before touching the store.
type Backfill struct {
	states   StateReader
	pipeline Archiver
	logger   *zap.Logger
}

func NewBackfill(states StateReader, pipeline Archiver, logger *zap.Logger) *Backfill {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Backfill{states: states, pipeline: pipeline, logger: logger}
}

// Run archives uid with synthetic provenance. The returned bool reports
// that the product was already archived; callers treat that as success and
// may retry freely.
func (b *Backfill) Run(ctx context.Context, uid uint64) (*model.ArchivedRecord, bool, error) {
	state, err := b.states.State(ctx, uid)
	if err != nil {
		return nil, false, &FetchError{UID: uid, Err: err}
	}
	if state != model.StateReceivedByCustomer {
		return nil, false, &NotCompletedError{UID: uid, State: state}
	}

	rec, created, err := b.pipeline.Archive(ctx, uid, backfillTxMarker, 0, backfillActor)
	if err != nil {
		return nil, false, err
	}

	if !created {
		b.logger.Info("backfill skipped, product already archived", zap.Uint64("uid", uid))
	}
	return rec, !created, nil
}
