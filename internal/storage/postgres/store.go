package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"supplyArchive/internal/model"
)

// Store provides Postgres persistence for completed products.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureSchema creates the completed_products table and its indexes if they
// do not exist yet. This is bootstrap only, not migration.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS completed_products (
			uid BIGINT PRIMARY KEY,
			sku BIGINT NOT NULL DEFAULT 0,
			product_name TEXT NOT NULL,
			product_code BIGINT NOT NULL DEFAULT 0,
			product_price BIGINT NOT NULL DEFAULT 0,
			product_category TEXT NOT NULL DEFAULT '',
			manufacturer_address TEXT NOT NULL,
			manufacturer_name TEXT NOT NULL DEFAULT '',
			manufacturer_details TEXT NOT NULL DEFAULT '',
			manufacturer_longitude TEXT NOT NULL DEFAULT '',
			manufacturer_latitude TEXT NOT NULL DEFAULT '',
			manufactured_at TIMESTAMPTZ NOT NULL,
			third_party_address TEXT NOT NULL DEFAULT '',
			third_party_longitude TEXT NOT NULL DEFAULT '',
			third_party_latitude TEXT NOT NULL DEFAULT '',
			delivery_hub_address TEXT NOT NULL DEFAULT '',
			delivery_hub_longitude TEXT NOT NULL DEFAULT '',
			delivery_hub_latitude TEXT NOT NULL DEFAULT '',
			customer_address TEXT NOT NULL,
			history JSONB NOT NULL DEFAULT '[]',
			days_in_supply_chain INT NOT NULL DEFAULT 0,
			completed_at TIMESTAMPTZ NOT NULL,
			contract_address TEXT NOT NULL,
			final_tx_hash TEXT NOT NULL DEFAULT '',
			final_block_number BIGINT NOT NULL DEFAULT 0,
			archived_at TIMESTAMPTZ NOT NULL,
			archived_by TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS completed_products_completed_at_idx ON completed_products (completed_at DESC);
		CREATE INDEX IF NOT EXISTS completed_products_manufacturer_idx ON completed_products (manufacturer_address);
		CREATE INDEX IF NOT EXISTS completed_products_customer_idx ON completed_products (customer_address);
		CREATE INDEX IF NOT EXISTS completed_products_category_idx ON completed_products (product_category);
	`)
	return err
}

const recordColumns = `
	uid, sku, product_name, product_code, product_price, product_category,
	manufacturer_address, manufacturer_name, manufacturer_details,
	manufacturer_longitude, manufacturer_latitude, manufactured_at,
	third_party_address, third_party_longitude, third_party_latitude,
	delivery_hub_address, delivery_hub_longitude, delivery_hub_latitude,
	customer_address, history, days_in_supply_chain,
	completed_at, contract_address, final_tx_hash, final_block_number,
	archived_at, archived_by, created_at, updated_at
`

// FindByUID returns the archived record, or nil when none exists.
func (s *Store) FindByUID(ctx context.Context, uid uint64) (*model.ArchivedRecord, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM completed_products WHERE uid = $1`,
		int64(uid),
	)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

// InsertIfAbsent persists the record unless the uid is already archived.
// The uid primary key makes the race between concurrent archivers resolve
// in the database: exactly one insert wins, losers re-read the winner.
func (s *Store) InsertIfAbsent(ctx context.Context, rec *model.ArchivedRecord) (*model.ArchivedRecord, bool, error) {
	if rec == nil {
		return nil, false, fmt.Errorf("record is nil")
	}

	history, err := json.Marshal(rec.History)
	if err != nil {
		return nil, false, fmt.Errorf("marshal history: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO completed_products (
			uid, sku, product_name, product_code, product_price, product_category,
			manufacturer_address, manufacturer_name, manufacturer_details,
			manufacturer_longitude, manufacturer_latitude, manufactured_at,
			third_party_address, third_party_longitude, third_party_latitude,
			delivery_hub_address, delivery_hub_longitude, delivery_hub_latitude,
			customer_address, history, days_in_supply_chain,
			completed_at, contract_address, final_tx_hash, final_block_number,
			archived_at, archived_by, created_at, updated_at
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,
			$19,$20,$21,$22,$23,$24,$25,$26,$27,now(),now()
		)
		ON CONFLICT (uid) DO NOTHING
	`,
		int64(rec.UID),
		int64(rec.SKU),
		rec.ProductName,
		int64(rec.ProductCode),
		int64(rec.ProductPrice),
		rec.ProductCategory,
		rec.Manufacturer.Address,
		rec.Manufacturer.Name,
		rec.Manufacturer.Details,
		rec.Manufacturer.Longitude,
		rec.Manufacturer.Latitude,
		rec.Manufacturer.ManufacturedAt,
		rec.ThirdParty.Address,
		rec.ThirdParty.Longitude,
		rec.ThirdParty.Latitude,
		rec.DeliveryHub.Address,
		rec.DeliveryHub.Longitude,
		rec.DeliveryHub.Latitude,
		rec.Customer.Address,
		history,
		rec.DaysInSupplyChain,
		rec.CompletedAt,
		rec.ContractAddress,
		rec.FinalTxHash,
		int64(rec.FinalBlockNum),
		rec.ArchivedAt,
		rec.ArchivedBy,
	)
	if err != nil {
		return nil, false, err
	}

	created := tag.RowsAffected() == 1

	stored, err := s.FindByUID(ctx, rec.UID)
	if err != nil {
		return nil, false, err
	}
	if stored == nil {
		return nil, false, fmt.Errorf("record for uid %d missing after insert", rec.UID)
	}
	return stored, created, nil
}

// List returns records ordered by completion time, newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]model.ArchivedRecord, int64, error) {
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM completed_products`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM completed_products ORDER BY completed_at DESC LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records, err := collectRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Search returns records matching the filter, newest first.
func (s *Store) Search(ctx context.Context, filter model.SearchFilter) ([]model.ArchivedRecord, error) {
	where := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)

	add := func(clause string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Manufacturer != "" {
		add("manufacturer_address = $%d", filter.Manufacturer)
	}
	if filter.Customer != "" {
		add("customer_address = $%d", filter.Customer)
	}
	if filter.Category != "" {
		add("product_category = $%d", filter.Category)
	}
	if filter.StartDate != nil {
		add("completed_at >= $%d", *filter.StartDate)
	}
	if filter.EndDate != nil {
		add("completed_at <= $%d", *filter.EndDate)
	}

	query := `SELECT ` + recordColumns + ` FROM completed_products`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY completed_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRecords(rows)
}

// Stats computes archive-wide aggregates for the dashboard.
func (s *Store) Stats(ctx context.Context) (model.ArchiveStats, error) {
	var stats model.ArchiveStats

	row := s.pool.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE completed_at >= now() - interval '7 days'),
			count(*) FILTER (WHERE completed_at >= now() - interval '30 days'),
			min(completed_at),
			max(completed_at),
			coalesce(avg(days_in_supply_chain), 0)
		FROM completed_products
	`)
	if err := row.Scan(
		&stats.TotalCompleted,
		&stats.Last7Days,
		&stats.Last30Days,
		&stats.OldestRecord,
		&stats.NewestRecord,
		&stats.AvgDeliveryDays,
	); err != nil {
		return model.ArchiveStats{}, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT product_category, count(*)
		FROM completed_products
		GROUP BY product_category
		ORDER BY count(*) DESC
	`)
	if err != nil {
		return model.ArchiveStats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var bucket model.CategoryCount
		if err := rows.Scan(&bucket.Category, &bucket.Count); err != nil {
			return model.ArchiveStats{}, err
		}
		stats.CategoryBreakdown = append(stats.CategoryBreakdown, bucket)
	}
	if err := rows.Err(); err != nil {
		return model.ArchiveStats{}, err
	}

	return stats, nil
}

// ExportAll streams every archived record, oldest first.
func (s *Store) ExportAll(ctx context.Context) ([]model.ArchivedRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+recordColumns+` FROM completed_products ORDER BY completed_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRecords(rows)
}

func collectRecords(rows pgx.Rows) ([]model.ArchivedRecord, error) {
	var records []model.ArchivedRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func scanRecord(row pgx.Row) (*model.ArchivedRecord, error) {
	var (
		rec         model.ArchivedRecord
		uid         int64
		sku         int64
		code        int64
		price       int64
		blockNumber int64
		history     []byte
	)

	if err := row.Scan(
		&uid,
		&sku,
		&rec.ProductName,
		&code,
		&price,
		&rec.ProductCategory,
		&rec.Manufacturer.Address,
		&rec.Manufacturer.Name,
		&rec.Manufacturer.Details,
		&rec.Manufacturer.Longitude,
		&rec.Manufacturer.Latitude,
		&rec.Manufacturer.ManufacturedAt,
		&rec.ThirdParty.Address,
		&rec.ThirdParty.Longitude,
		&rec.ThirdParty.Latitude,
		&rec.DeliveryHub.Address,
		&rec.DeliveryHub.Longitude,
		&rec.DeliveryHub.Latitude,
		&rec.Customer.Address,
		&history,
		&rec.DaysInSupplyChain,
		&rec.CompletedAt,
		&rec.ContractAddress,
		&rec.FinalTxHash,
		&blockNumber,
		&rec.ArchivedAt,
		&rec.ArchivedBy,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rec.UID = uint64(uid)
	rec.SKU = uint64(sku)
	rec.ProductCode = uint64(code)
	rec.ProductPrice = uint64(price)
	rec.FinalBlockNum = uint64(blockNumber)

	if len(history) > 0 {
		if err := json.Unmarshal(history, &rec.History); err != nil {
			return nil, fmt.Errorf("unmarshal history: %w", err)
		}
	}

	return &rec, nil
}
