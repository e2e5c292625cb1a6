package archive

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"supplyArchive/internal/model"
)

// memStore is an in-memory ArchiveStore with the same atomicity contract as
// the Postgres implementation.
type memStore struct {
	mu        sync.Mutex
	records   map[uint64]*model.ArchivedRecord
	findErr   error
	insertErr error
	inserts   int
}

func newMemStore() *memStore {
	return &memStore{records: make(map[uint64]*model.ArchivedRecord)}
}

func (s *memStore) FindByUID(ctx context.Context, uid uint64) (*model.ArchivedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findErr != nil {
		return nil, s.findErr
	}
	if rec, ok := s.records[uid]; ok {
		copied := *rec
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) InsertIfAbsent(ctx context.Context, rec *model.ArchivedRecord) (*model.ArchivedRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return nil, false, s.insertErr
	}
	s.inserts++
	if existing, ok := s.records[rec.UID]; ok {
		copied := *existing
		return &copied, false, nil
	}
	stored := *rec
	stored.CreatedAt = time.Now().UTC()
	stored.UpdatedAt = stored.CreatedAt
	s.records[rec.UID] = &stored
	copied := stored
	return &copied, true, nil
}

type sourceStub struct {
	calls int32
	err   error
	rec   model.ArchivedRecord
}

func (s *sourceStub) Assemble(ctx context.Context, uid uint64) (*model.ArchivedRecord, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.err != nil {
		return nil, s.err
	}
	rec := s.rec
	rec.UID = uid
	return &rec, nil
}

func testRecord() model.ArchivedRecord {
	return model.ArchivedRecord{
		ProductName:     "Solar Panel",
		ProductCategory: "Energy",
		Manufacturer: model.Manufacturer{
			Address:        "0x2000000000000000000000000000000000000002",
			Name:           "Acme",
			ManufacturedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Customer:          model.Customer{Address: "0x5000000000000000000000000000000000000005"},
		DaysInSupplyChain: 15,
	}
}

func TestArchiveCreatesOnce(t *testing.T) {
	store := newMemStore()
	source := &sourceStub{rec: testRecord()}
	pipeline := NewPipeline(store, source, "0xcontract", 0, zap.NewNop(), nil)

	first, created, err := pipeline.Archive(context.Background(), 42, "0xfinal", 1234, "event-subscriber")
	require.NoError(t, err)
	require.True(t, created)
	assert.Equal(t, "0xcontract", first.ContractAddress)
	assert.Equal(t, "0xfinal", first.FinalTxHash)
	assert.Equal(t, uint64(1234), first.FinalBlockNum)
	assert.False(t, first.CompletedAt.IsZero())
	assert.False(t, first.ArchivedAt.IsZero())

	second, created, err := pipeline.Archive(context.Background(), 42, "0xother", 9999, "event-subscriber")
	require.NoError(t, err)
	assert.False(t, created)

	// Second call short-circuits on the existing record: no new assembly,
	// original provenance untouched.
	assert.Equal(t, int32(1), atomic.LoadInt32(&source.calls))
	assert.Equal(t, first.FinalTxHash, second.FinalTxHash)
	assert.Equal(t, first.FinalBlockNum, second.FinalBlockNum)
	assert.Len(t, store.records, 1)
}

func TestArchiveConcurrentRace(t *testing.T) {
	const callers = 16

	store := newMemStore()
	source := &sourceStub{rec: testRecord()}
	pipeline := NewPipeline(store, source, "0xcontract", 0, zap.NewNop(), nil)

	var wg sync.WaitGroup
	var createdCount int32
	errs := make(chan error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, created, err := pipeline.Archive(context.Background(), 7, "0xfinal", 1, "event-subscriber")
			if err != nil {
				errs <- err
				return
			}
			if rec.UID != 7 {
				errs <- errors.New("wrong record returned")
				return
			}
			if created {
				atomic.AddInt32(&createdCount, 1)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent archive failed: %v", err)
	}
	assert.Equal(t, int32(1), createdCount)
	assert.Len(t, store.records, 1)
}

func TestArchivePropagatesFetchError(t *testing.T) {
	store := newMemStore()
	source := &sourceStub{err: &FetchError{UID: 42, Err: errors.New("rpc down")}}
	pipeline := NewPipeline(store, source, "0xcontract", 0, zap.NewNop(), nil)

	_, _, err := pipeline.Archive(context.Background(), 42, "0xfinal", 1, "event-subscriber")

	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, uint64(42), fetchErr.UID)
	assert.Zero(t, store.inserts)
}

// blockingStore stalls every call until its context is done, like a hung
// database connection.
type blockingStore struct{}

func (s *blockingStore) FindByUID(ctx context.Context, uid uint64) (*model.ArchivedRecord, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (s *blockingStore) InsertIfAbsent(ctx context.Context, rec *model.ArchivedRecord) (*model.ArchivedRecord, bool, error) {
	<-ctx.Done()
	return nil, false, ctx.Err()
}

func TestArchiveBoundsStoreCalls(t *testing.T) {
	source := &sourceStub{rec: testRecord()}
	pipeline := NewPipeline(&blockingStore{}, source, "0xcontract", 50*time.Millisecond, zap.NewNop(), nil)

	// The subscriber calls Archive with the long-lived run context; a hung
	// store call must still return once the per-call deadline expires.
	done := make(chan error, 1)
	go func() {
		_, _, err := pipeline.Archive(context.Background(), 42, "0xfinal", 1, "event-subscriber")
		done <- err
	}()

	select {
	case err := <-done:
		var persistErr *PersistError
		require.ErrorAs(t, err, &persistErr)
		assert.Equal(t, uint64(42), persistErr.UID)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatalf("archive did not return after the store timeout")
	}
}

func TestArchiveWrapsPersistError(t *testing.T) {
	store := newMemStore()
	store.insertErr = errors.New("connection reset")
	source := &sourceStub{rec: testRecord()}
	pipeline := NewPipeline(store, source, "0xcontract", 0, zap.NewNop(), nil)

	_, _, err := pipeline.Archive(context.Background(), 42, "0xfinal", 1, "event-subscriber")

	var persistErr *PersistError
	require.ErrorAs(t, err, &persistErr)
	assert.Equal(t, uint64(42), persistErr.UID)
}
