package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"supplyArchive/internal/model"
)

type stateStub struct {
	state uint8
	err   error
}

func (s *stateStub) State(ctx context.Context, uid uint64) (uint8, error) {
	return s.state, s.err
}

type archiverStub struct {
	calls   []archiveCall
	rec     *model.ArchivedRecord
	created bool
	err     error
}

type archiveCall struct {
	uid        uint64
	txHash     string
	blockNum   uint64
	archivedBy string
}

func (a *archiverStub) Archive(ctx context.Context, uid uint64, txHash string, blockNumber uint64, archivedBy string) (*model.ArchivedRecord, bool, error) {
	a.calls = append(a.calls, archiveCall{uid: uid, txHash: txHash, blockNum: blockNumber, archivedBy: archivedBy})
	return a.rec, a.created, a.err
}

func TestBackfillRejectsNotCompleted(t *testing.T) {
	pipeline := &archiverStub{}
	backfill := NewBackfill(&stateStub{state: model.StateShippedByDeliveryHub}, pipeline, zap.NewNop())

	rec, already, err := backfill.Run(context.Background(), 42)
	require.Nil(t, rec)
	assert.False(t, already)

	var notCompleted *NotCompletedError
	require.ErrorAs(t, err, &notCompleted)
	assert.Equal(t, uint64(42), notCompleted.UID)
	assert.Equal(t, model.StateShippedByDeliveryHub, notCompleted.State)

	// Precondition failure must not touch the pipeline or the store.
	assert.Empty(t, pipeline.calls)
}

func TestBackfillArchivesWithSyntheticProvenance(t *testing.T) {
	rec := &model.ArchivedRecord{UID: 42}
	pipeline := &archiverStub{rec: rec, created: true}
	backfill := NewBackfill(&stateStub{state: model.StateReceivedByCustomer}, pipeline, zap.NewNop())

	got, already, err := backfill.Run(context.Background(), 42)
	require.NoError(t, err)
	assert.False(t, already)
	assert.Same(t, rec, got)

	require.Len(t, pipeline.calls, 1)
	assert.Equal(t, uint64(42), pipeline.calls[0].uid)
	assert.Equal(t, "manual", pipeline.calls[0].txHash)
	assert.Equal(t, uint64(0), pipeline.calls[0].blockNum)
	assert.Equal(t, "manual-backfill", pipeline.calls[0].archivedBy)
}

func TestBackfillAlreadyArchivedIsSuccess(t *testing.T) {
	rec := &model.ArchivedRecord{UID: 42}
	pipeline := &archiverStub{rec: rec, created: false}
	backfill := NewBackfill(&stateStub{state: model.StateReceivedByCustomer}, pipeline, zap.NewNop())

	got, already, err := backfill.Run(context.Background(), 42)
	require.NoError(t, err)
	assert.True(t, already)
	assert.Same(t, rec, got)
}

func TestBackfillStateReadFailure(t *testing.T) {
	pipeline := &archiverStub{}
	backfill := NewBackfill(&stateStub{err: errors.New("rpc down")}, pipeline, zap.NewNop())

	_, _, err := backfill.Run(context.Background(), 42)

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, uint64(42), fetchErr.UID)
	assert.Empty(t, pipeline.calls)
}
