package repository

import (
	"context"
	"log/slog"
	"strings"

	"github.com/UnknownOlympus/normalizer/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultTable is the table holding address records when none is configured.
const DefaultTable = "address_records"

// Database is the subset of pgxpool.Pool used by the repository.
type Database interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// FetchOptions narrows the set of records returned by FetchPendingAddresses.
type FetchOptions struct {
	Limit     int  // Limit caps the number of rows; zero means no limit.
	Reprocess bool // Reprocess includes rows that were already normalized.
}

type Repository struct {
	db    Database
	table string
	log   *slog.Logger
}

type Interface interface {
	FetchPendingAddresses(ctx context.Context, opts FetchOptions) ([]models.AddressRecord, error)
	UpdateNormalizedAddress(ctx context.Context, id int64, addr models.NormalizedAddress) error
}

// NewRepository creates a new instance of Repository bound to the given table.
// The table may be schema-qualified ("geo.addresses"); an empty name selects DefaultTable.
func NewRepository(db Database, table string, log *slog.Logger) *Repository {
	return &Repository{db: db, table: quoteTable(table), log: log}
}

// quoteTable turns a possibly schema-qualified name into a safely quoted identifier.
func quoteTable(table string) string {
	table = strings.TrimSpace(table)
	if table == "" {
		table = DefaultTable
	}

	return pgx.Identifier(strings.Split(table, ".")).Sanitize()
}

// Table returns the quoted table name used in queries.
func (r *Repository) Table() string {
	return r.table
}
