package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"SecretSanta/internal/domain"
	"SecretSanta/internal/ports"
)

const productTable = "product_cache"

// SQLStore persists records into sqlite or Postgres.
type SQLStore struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ProductCache = (*SQLStore)(nil)

// OpenSQLStore opens the database for driver ("sqlite" or "postgres") and ensures the table exists.
func OpenSQLStore(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	store, err := NewSQLStore(ctx, db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLStore wires an existing sql.DB and creates the cache table if missing.
func NewSQLStore(ctx context.Context, db *sql.DB, driver string) (*SQLStore, error) {
	store := &SQLStore{db: db, builder: sq.StatementBuilder.PlaceholderFormat(placeholderFor(driver))}
	if err := store.migrate(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	query := `CREATE TABLE IF NOT EXISTS ` + productTable + ` (
              source     TEXT NOT NULL,
              code       TEXT NOT NULL,
              title      TEXT NOT NULL,
              sale_price DOUBLE PRECISION,
              list_price DOUBLE PRECISION,
              PRIMARY KEY (source, code)
            )`

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("create %s: %w", productTable, err)
	}
	return nil
}

// Get loads the record for key.
func (s *SQLStore) Get(ctx context.Context, key domain.CacheKey) (domain.ProductRecord, bool, error) {
	query, args, err := s.builder.
		Select("title", "sale_price", "list_price").
		From(productTable).
		Where(sq.Eq{"source": key.Source, "code": key.Code}).
		ToSql()
	if err != nil {
		return domain.ProductRecord{}, false, fmt.Errorf("build select: %w", err)
	}

	var (
		record     domain.ProductRecord
		sale, list sql.NullFloat64
	)
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&record.Title, &sale, &list)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ProductRecord{}, false, nil
	}
	if err != nil {
		return domain.ProductRecord{}, false, fmt.Errorf("query %s: %w", key, err)
	}

	record.SalePrice = nullablePrice(sale)
	record.ListPrice = nullablePrice(list)
	return record, true, nil
}

// Put upserts the record for key.
func (s *SQLStore) Put(ctx context.Context, key domain.CacheKey, record domain.ProductRecord) error {
	query, args, err := s.builder.
		Insert(productTable).
		Columns("source", "code", "title", "sale_price", "list_price").
		Values(key.Source, key.Code, record.Title, record.SalePrice, record.ListPrice).
		Suffix(`ON CONFLICT (source, code) DO UPDATE
              SET title = excluded.title,
                  sale_price = excluded.sale_price,
                  list_price = excluded.list_price`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

func placeholderFor(driver string) sq.PlaceholderFormat {
	if driver == "postgres" {
		return sq.Dollar
	}
	return sq.Question
}

func nullablePrice(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
