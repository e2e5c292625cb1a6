package archive

import (
	"context"
	"time"

	"go.uber.org/zap"

	"supplyArchive/internal/metrics"
	"supplyArchive/internal/model"
	"supplyArchive/internal/storage"
)

// RecordSource produces a complete record for a product uid.
type RecordSource interface {
	Assemble(ctx context.Context, uid uint64) (*model.ArchivedRecord, error)
}

const defaultStoreTimeout = 10 * time.Second

// Pipeline is the single write path into the archive. Both the event
// subscriber and manual backfills go through Archive; the store's uid
// constraint reconciles concurrent attempts.
type Pipeline struct {
	store           storage.ArchiveStore
	source          RecordSource
	contractAddress string
	storeTimeout    time.Duration
	logger          *zap.Logger
	metrics         *metrics.Metrics
	now             func() time.Time
}

// NewPipeline builds a Pipeline with its dependencies. storeTimeout bounds
// each store call; zero selects the default.
func NewPipeline(store storage.ArchiveStore, source RecordSource, contractAddress string, storeTimeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Pipeline {
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		store:           store,
		source:          source,
		contractAddress: contractAddress,
		storeTimeout:    storeTimeout,
		logger:          logger,
		metrics:         m,
		now:             time.Now,
	}
}

// Archive persists the product exactly once. The returned bool reports
// whether this call created the record; false means it was already archived,
// which is success, not an error. txHash and blockNumber identify the
// completion transaction ("manual" and 0 for backfills).
func (p *Pipeline) Archive(ctx context.Context, uid uint64, txHash string, blockNumber uint64, archivedBy string) (*model.ArchivedRecord, bool, error) {
	// Fast path: skip the ledger reads when the record already exists.
	// The authoritative dedup happens in InsertIfAbsent below.
	existing, err := p.findByUID(ctx, uid)
	if err != nil {
		return nil, false, &PersistError{UID: uid, Err: err}
	}
	if existing != nil {
		p.logger.Debug("product already archived", zap.Uint64("uid", uid))
		return existing, false, nil
	}

	rec, err := p.source.Assemble(ctx, uid)
	if err != nil {
		p.metrics.IncArchiveFailures()
		return nil, false, err
	}

	now := p.now().UTC()
	rec.ContractAddress = p.contractAddress
	rec.FinalTxHash = txHash
	rec.FinalBlockNum = blockNumber
	rec.CompletedAt = now
	rec.ArchivedAt = now
	rec.ArchivedBy = archivedBy

	stored, created, err := p.insertIfAbsent(ctx, rec)
	if err != nil {
		p.metrics.IncArchiveFailures()
		return nil, false, &PersistError{UID: uid, Err: err}
	}

	if created {
		p.metrics.IncProductsArchived()
		p.logger.Info("product archived",
			zap.Uint64("uid", uid),
			zap.String("product_name", stored.ProductName),
			zap.String("category", stored.ProductCategory),
			zap.Int("days_in_supply_chain", stored.DaysInSupplyChain),
			zap.Int("history_states", len(stored.History)),
			zap.String("tx_hash", txHash),
			zap.Uint64("block_number", blockNumber),
		)
	} else {
		p.logger.Info("archive race lost, record already present", zap.Uint64("uid", uid))
	}

	return stored, created, nil
}

// Store calls run under their own deadline. The subscriber invokes Archive
// with the process-lifetime context, so a stalled connection must not wedge
// the event loop.
func (p *Pipeline) findByUID(ctx context.Context, uid uint64) (*model.ArchivedRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()
	return p.store.FindByUID(ctx, uid)
}

func (p *Pipeline) insertIfAbsent(ctx context.Context, rec *model.ArchivedRecord) (*model.ArchivedRecord, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, p.storeTimeout)
	defer cancel()
	return p.store.InsertIfAbsent(ctx, rec)
}
