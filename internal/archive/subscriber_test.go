package archive

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"supplyArchive/internal/contract"
	"supplyArchive/internal/model"
)

type fakeSubscription struct {
	errc chan error
}

func (f *fakeSubscription) Unsubscribe()      {}
func (f *fakeSubscription) Err() <-chan error { return f.errc }

// fakeLogSource publishes the subscription through a mutex because
// SubscribeLogs runs on the Run goroutine while the test polls for it.
type fakeLogSource struct {
	mu   sync.Mutex
	logs chan<- types.Log
	sub  *fakeSubscription
	err  error
}

func (f *fakeLogSource) SubscribeLogs(ctx context.Context, address common.Address, topic0 []common.Hash, ch chan<- types.Log) (ethereum.Subscription, error) {
	if f.err != nil {
		return nil, f.err
	}
	sub := &fakeSubscription{errc: make(chan error, 1)}
	f.mu.Lock()
	f.logs = ch
	f.sub = sub
	f.mu.Unlock()
	return sub, nil
}

func (f *fakeLogSource) logsChan() chan<- types.Log {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.logs
}

func (f *fakeLogSource) subscription() *fakeSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sub
}

type recordingArchiver struct {
	calls chan archiveCall
	fail  map[uint64]error
}

func (a *recordingArchiver) Archive(ctx context.Context, uid uint64, txHash string, blockNumber uint64, archivedBy string) (*model.ArchivedRecord, bool, error) {
	a.calls <- archiveCall{uid: uid, txHash: txHash, blockNum: blockNumber, archivedBy: archivedBy}
	if err := a.fail[uid]; err != nil {
		return nil, false, err
	}
	return &model.ArchivedRecord{UID: uid}, true, nil
}

func deliveryLog(t *testing.T, uid uint64, txHash common.Hash, blockNumber uint64) types.Log {
	t.Helper()
	parsed, err := contract.SupplyChainABI()
	require.NoError(t, err)

	data, err := parsed.Events["ReceivedByCustomer"].Inputs.NonIndexed().Pack(new(big.Int).SetUint64(uid))
	require.NoError(t, err)

	topic, err := contract.DeliveredTopic()
	require.NoError(t, err)

	return types.Log{
		Topics:      []common.Hash{topic},
		Data:        data,
		TxHash:      txHash,
		BlockNumber: blockNumber,
	}
}

func startSubscriber(t *testing.T, archiver Archiver) (*fakeLogSource, chan error, context.CancelFunc) {
	t.Helper()
	source := &fakeLogSource{}
	contractAddr := common.HexToAddress("0x6000000000000000000000000000000000000006")
	sub := NewSubscriber(source, contractAddr, archiver, zap.NewNop(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Run(ctx) }()

	// Wait for the subscription to be established.
	require.Eventually(t, func() bool { return source.logsChan() != nil }, time.Second, time.Millisecond)
	return source, done, cancel
}

func TestSubscriberArchivesEachEvent(t *testing.T) {
	archiver := &recordingArchiver{calls: make(chan archiveCall, 4)}
	source, done, cancel := startSubscriber(t, archiver)
	defer cancel()

	tx := common.HexToHash("0xabc")
	source.logsChan() <- deliveryLog(t, 42, tx, 36000000)

	select {
	case call := <-archiver.calls:
		assert.Equal(t, uint64(42), call.uid)
		assert.Equal(t, tx.Hex(), call.txHash)
		assert.Equal(t, uint64(36000000), call.blockNum)
		assert.Equal(t, "event-subscriber", call.archivedBy)
	case <-time.After(time.Second):
		t.Fatalf("archive was not invoked")
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestSubscriberIsolatesEventFailures(t *testing.T) {
	archiver := &recordingArchiver{
		calls: make(chan archiveCall, 4),
		fail:  map[uint64]error{1: &FetchError{UID: 1, Err: errors.New("rpc down")}},
	}
	source, done, cancel := startSubscriber(t, archiver)
	defer cancel()

	// First event fails to archive; the subscription must stay alive and
	// process the second event.
	source.logsChan() <- deliveryLog(t, 1, common.HexToHash("0x01"), 100)
	source.logsChan() <- deliveryLog(t, 2, common.HexToHash("0x02"), 101)

	first := <-archiver.calls
	assert.Equal(t, uint64(1), first.uid)

	select {
	case second := <-archiver.calls:
		assert.Equal(t, uint64(2), second.uid)
	case <-time.After(time.Second):
		t.Fatalf("second event was not processed")
	}

	select {
	case err := <-done:
		t.Fatalf("subscriber terminated early: %v", err)
	default:
	}
}

func TestSubscriberSkipsMalformedEvent(t *testing.T) {
	archiver := &recordingArchiver{calls: make(chan archiveCall, 4)}
	source, done, cancel := startSubscriber(t, archiver)
	defer cancel()

	source.logsChan() <- types.Log{Data: []byte{0x01}}
	source.logsChan() <- deliveryLog(t, 3, common.HexToHash("0x03"), 102)

	select {
	case call := <-archiver.calls:
		assert.Equal(t, uint64(3), call.uid)
	case <-time.After(time.Second):
		t.Fatalf("valid event after malformed one was not processed")
	}

	select {
	case err := <-done:
		t.Fatalf("subscriber terminated early: %v", err)
	default:
	}
}

func TestSubscriberSurfacesTransportError(t *testing.T) {
	archiver := &recordingArchiver{calls: make(chan archiveCall, 4)}
	source, done, cancel := startSubscriber(t, archiver)
	defer cancel()

	transportErr := errors.New("websocket closed")
	source.subscription().errc <- transportErr

	select {
	case err := <-done:
		require.ErrorIs(t, err, transportErr)
	case <-time.After(time.Second):
		t.Fatalf("subscriber did not surface transport error")
	}
}

func TestSubscriberSubscribeFailure(t *testing.T) {
	source := &fakeLogSource{err: errors.New("dial refused")}
	sub := NewSubscriber(source, common.Address{}, &recordingArchiver{calls: make(chan archiveCall, 1)}, zap.NewNop(), nil)

	err := sub.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "subscribe logs")
}
