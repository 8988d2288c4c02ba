package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/amishk599/themecat/internal/model"
)

// PostgresSource reads reviews from a PostgreSQL table. table may be schema
// qualified ("analytics.reviews").
type PostgresSource struct {
	db    *pgxpool.Pool
	table pgx.Identifier
	cols  Columns
	hasGT bool
}

// NewPostgresSource connects with dsn and checks that table has the review
// column.
func NewPostgresSource(ctx context.Context, dsn, table string, cols Columns) (*PostgresSource, error) {
	cols = cols.withDefaults()

	ident, err := parseTableName(table)
	if err != nil {
		return nil, fmt.Errorf("postgres source: %w", err)
	}

	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	columns, err := postgresColumns(ctx, db, ident)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(columns) == 0 {
		db.Close()
		return nil, fmt.Errorf("postgres table %q not found", table)
	}
	if !columns[cols.Review] {
		db.Close()
		return nil, fmt.Errorf("postgres table %q: %w", table, missingColumn(cols.Review))
	}

	return &PostgresSource{db: db, table: ident, cols: cols, hasGT: columns[cols.GroundTruth]}, nil
}

// parseTableName splits an optionally schema-qualified table name.
func parseTableName(table string) (pgx.Identifier, error) {
	parts := strings.Split(table, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	for _, p := range parts {
		if err := validIdent(p); err != nil {
			return nil, err
		}
	}
	return pgx.Identifier(parts), nil
}

func postgresColumns(ctx context.Context, db *pgxpool.Pool, table pgx.Identifier) (map[string]bool, error) {
	var (
		query string
		args  []any
	)
	if len(table) == 2 {
		query = `SELECT column_name FROM information_schema.columns WHERE table_schema = $1 AND table_name = $2`
		args = []any{table[0], table[1]}
	} else {
		query = `SELECT column_name FROM information_schema.columns WHERE table_schema = current_schema() AND table_name = $1`
		args = []any{table[0]}
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table.Sanitize(), err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("reading columns of %s: %w", table.Sanitize(), err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func (s *PostgresSource) load(ctx context.Context, withGT bool) ([]row, error) {
	gtExpr := "NULL::text"
	if withGT {
		gtExpr = pgx.Identifier{s.cols.GroundTruth}.Sanitize() + "::text"
	}
	query := fmt.Sprintf("SELECT %s::text, %s FROM %s",
		pgx.Identifier{s.cols.Review}.Sanitize(), gtExpr, s.table.Sanitize())

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying reviews from %s: %w", s.table.Sanitize(), err)
	}
	defer rows.Close()

	var out []row
	for rows.Next() {
		var review, gt *string
		if err := rows.Scan(&review, &gt); err != nil {
			return nil, fmt.Errorf("scanning review row: %w", err)
		}
		var r row
		if review != nil {
			r.review = *review
		}
		if gt != nil {
			r.gt = *gt
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating review rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("postgres table %s: %w", s.table.Sanitize(), ErrEmptySource)
	}
	return out, nil
}

// Reviews returns non-empty review texts.
func (s *PostgresSource) Reviews(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.load(ctx, false)
	if err != nil {
		return nil, err
	}
	return selectReviews(rows, limit), nil
}

// ReviewsWithGroundTruth returns reviews with their ground-truth cells.
func (s *PostgresSource) ReviewsWithGroundTruth(ctx context.Context, limit int, includeEmpty bool) ([]model.ReviewRecord, error) {
	if !s.hasGT {
		return nil, fmt.Errorf("postgres table %s: %w", s.table.Sanitize(), missingColumn(s.cols.GroundTruth))
	}
	rows, err := s.load(ctx, true)
	if err != nil {
		return nil, err
	}
	return selectRecords(rows, limit, includeEmpty), nil
}

// Close releases the connection pool.
func (s *PostgresSource) Close() error {
	s.db.Close()
	return nil
}
