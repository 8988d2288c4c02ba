package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/amishk599/themecat/internal/model"
)

// SQLiteSource reads reviews from a table in an existing SQLite database.
type SQLiteSource struct {
	db    *sql.DB
	table string
	cols  Columns
	hasGT bool
}

// NewSQLiteSource opens the database at dbPath and checks that table has the
// review column. The database must already exist.
func NewSQLiteSource(ctx context.Context, dbPath, table string, cols Columns) (*SQLiteSource, error) {
	cols = cols.withDefaults()
	for _, name := range []string{table, cols.Review, cols.GroundTruth} {
		if err := validIdent(name); err != nil {
			return nil, fmt.Errorf("sqlite source: %w", err)
		}
	}

	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	columns, err := sqliteColumns(ctx, db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	if len(columns) == 0 {
		db.Close()
		return nil, fmt.Errorf("sqlite table %q not found", table)
	}
	if !columns[cols.Review] {
		db.Close()
		return nil, fmt.Errorf("sqlite table %q: %w", table, missingColumn(cols.Review))
	}

	return &SQLiteSource{db: db, table: table, cols: cols, hasGT: columns[cols.GroundTruth]}, nil
}

func sqliteColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return nil, fmt.Errorf("reading columns of %q: %w", table, err)
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("reading columns of %q: %w", table, err)
		}
		cols[name] = true
	}
	return cols, rows.Err()
}

func (s *SQLiteSource) load(ctx context.Context, withGT bool) ([]row, error) {
	gtExpr := "NULL"
	if withGT {
		gtExpr = fmt.Sprintf(`CAST("%s" AS TEXT)`, s.cols.GroundTruth)
	}
	query := fmt.Sprintf(`SELECT CAST("%s" AS TEXT), %s FROM "%s"`, s.cols.Review, gtExpr, s.table)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying reviews from %q: %w", s.table, err)
	}
	defer rows.Close()

	var out []row
	for rows.Next() {
		var review, gt sql.NullString
		if err := rows.Scan(&review, &gt); err != nil {
			return nil, fmt.Errorf("scanning review row: %w", err)
		}
		out = append(out, row{review: review.String, gt: gt.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating review rows: %w", err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sqlite table %q: %w", s.table, ErrEmptySource)
	}
	return out, nil
}

// Reviews returns non-empty review texts.
func (s *SQLiteSource) Reviews(ctx context.Context, limit int) ([]string, error) {
	rows, err := s.load(ctx, false)
	if err != nil {
		return nil, err
	}
	return selectReviews(rows, limit), nil
}

// ReviewsWithGroundTruth returns reviews with their ground-truth cells.
func (s *SQLiteSource) ReviewsWithGroundTruth(ctx context.Context, limit int, includeEmpty bool) ([]model.ReviewRecord, error) {
	if !s.hasGT {
		return nil, fmt.Errorf("sqlite table %q: %w", s.table, missingColumn(s.cols.GroundTruth))
	}
	rows, err := s.load(ctx, true)
	if err != nil {
		return nil, err
	}
	return selectRecords(rows, limit, includeEmpty), nil
}

// Close closes the underlying database connection.
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
