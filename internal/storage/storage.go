package storage

import (
	"context"

	"supplyArchive/internal/model"
)

// ArchiveStore is the single write path for completed products. Uniqueness
// on uid is enforced by the store itself; InsertIfAbsent is the only
// reconciliation point between concurrent archival triggers.
type ArchiveStore interface {
	// FindByUID returns the archived record, or nil when absent.
	FindByUID(ctx context.Context, uid uint64) (*model.ArchivedRecord, error)

	// InsertIfAbsent persists the record unless one with the same uid
	// already exists. It is atomic with respect to concurrent callers: at
	// most one observes created=true, the rest receive the winning record.
	InsertIfAbsent(ctx context.Context, rec *model.ArchivedRecord) (*model.ArchivedRecord, bool, error)
}

// RecordSink is a bulk export target for archived records.
type RecordSink interface {
	PutRecordBatch(records []model.ArchivedRecord) error
}
