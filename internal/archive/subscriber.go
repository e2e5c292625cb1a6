package archive

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"supplyArchive/internal/contract"
	"supplyArchive/internal/metrics"
)

const subscriberActor = "event-subscriber"

// LogSource opens a live log subscription for one contract address.
type LogSource interface {
	SubscribeLogs(ctx context.Context, address common.Address, topic0 []common.Hash, ch chan<- types.Log) (ethereum.Subscription, error)
}

// Subscriber listens for ReceivedByCustomer events and feeds each one into
// the archive pipeline. Events are processed one at a time in arrival order.
type Subscriber struct {
	source   LogSource
	address  common.Address
	pipeline Archiver
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

func NewSubscriber(source LogSource, address common.Address, pipeline Archiver, logger *zap.Logger, m *metrics.Metrics) *Subscriber {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Subscriber{
		source:   source,
		address:  address,
		pipeline: pipeline,
		logger:   logger,
		metrics:  m,
	}
}

// Run subscribes and processes events until the context is canceled or the
// transport fails. A failed archive for one event is logged and does not
// stop the loop; a transport error terminates Run and is returned to the
// caller, which owns any reconnection policy.
func (s *Subscriber) Run(ctx context.Context) error {
	topic, err := contract.DeliveredTopic()
	if err != nil {
		return fmt.Errorf("delivered topic: %w", err)
	}

	logs := make(chan types.Log, 16)
	sub, err := s.source.SubscribeLogs(ctx, s.address, []common.Hash{topic}, logs)
	if err != nil {
		return fmt.Errorf("subscribe logs: %w", err)
	}
	defer sub.Unsubscribe()

	subscriptionID := uuid.NewString()
	s.logger.Info("event subscription connected",
		zap.String("subscription_id", subscriptionID),
		zap.String("contract", s.address.Hex()),
	)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-sub.Err():
			s.logger.Error("event subscription lost",
				zap.String("subscription_id", subscriptionID),
				zap.Error(err),
			)
			return fmt.Errorf("subscription: %w", err)
		case lg := <-logs:
			s.handleEvent(ctx, lg)
		}
	}
}

func (s *Subscriber) handleEvent(ctx context.Context, lg types.Log) {
	s.metrics.IncEventsReceived()

	uid, err := contract.ParseDeliveredEvent(lg)
	if err != nil {
		s.metrics.IncArchiveFailures()
		s.logger.Error("malformed delivery event",
			zap.String("tx_hash", lg.TxHash.Hex()),
			zap.Uint64("block_number", lg.BlockNumber),
			zap.Error(err),
		)
		return
	}

	s.logger.Info("delivery completed",
		zap.Uint64("uid", uid),
		zap.String("tx_hash", lg.TxHash.Hex()),
		zap.Uint64("block_number", lg.BlockNumber),
	)

	if _, _, err := s.pipeline.Archive(ctx, uid, lg.TxHash.Hex(), lg.BlockNumber, subscriberActor); err != nil {
		s.logger.Error("archive failed", zap.Uint64("uid", uid), zap.Error(err))
	}
}
