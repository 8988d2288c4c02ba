// Package source reads patient reviews and their ground-truth labels from
// tabular storage: CSV files, SQLite databases or PostgreSQL tables.
package source

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/amishk599/themecat/internal/config"
	"github.com/amishk599/themecat/internal/model"
)

var (
	// ErrMissingColumn is returned when a required column is absent.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptySource is returned when the source holds no data rows.
	ErrEmptySource = errors.New("source has no rows")
)

// ReviewSource supplies reviews for extraction and evaluation.
type ReviewSource interface {
	// Reviews returns non-empty review texts in source order. limit <= 0
	// means no limit.
	Reviews(ctx context.Context, limit int) ([]string, error)
	// ReviewsWithGroundTruth returns reviews paired with their encoded label
	// set. Unless includeEmpty is set, rows without usable ground truth are
	// dropped.
	ReviewsWithGroundTruth(ctx context.Context, limit int, includeEmpty bool) ([]model.ReviewRecord, error)
	Close() error
}

// Columns names the review and ground-truth columns.
type Columns struct {
	Review      string
	GroundTruth string
}

// DefaultColumns returns the column names used by the labeled review exports.
func DefaultColumns() Columns {
	return Columns{Review: "Comment", GroundTruth: "ProcessedCode"}
}

func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.Review == "" {
		c.Review = d.Review
	}
	if c.GroundTruth == "" {
		c.GroundTruth = d.GroundTruth
	}
	return c
}

// Open creates the source described by cfg.
func Open(ctx context.Context, cfg config.SourceConfig) (ReviewSource, error) {
	cols := Columns{Review: cfg.ReviewColumn, GroundTruth: cfg.GroundTruthColumn}
	switch cfg.Type {
	case "csv", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("source.path is required for csv sources")
		}
		return NewCSVSource(cfg.Path, cols)
	case "sqlite":
		if cfg.Path == "" || cfg.Table == "" {
			return nil, fmt.Errorf("source.path and source.table are required for sqlite sources")
		}
		return NewSQLiteSource(ctx, cfg.Path, cfg.Table, cols)
	case "postgres":
		if cfg.DSN == "" || cfg.Table == "" {
			return nil, fmt.Errorf("source.dsn and source.table are required for postgres sources")
		}
		return NewPostgresSource(ctx, cfg.DSN, cfg.Table, cols)
	default:
		return nil, fmt.Errorf("unknown source type %q", cfg.Type)
	}
}

// row is one raw (review, ground truth) pair as stored. NULL cells are read as
// empty strings.
type row struct {
	review string
	gt     string
}

// isBlank reports whether a cell should be treated as missing. "nan" is how
// the labeled exports spell a missing value.
func isBlank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "nan")
}

func selectReviews(rows []row, limit int) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if isBlank(r.review) {
			continue
		}
		out = append(out, r.review)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

func selectRecords(rows []row, limit int, includeEmpty bool) []model.ReviewRecord {
	out := make([]model.ReviewRecord, 0, len(rows))
	for _, r := range rows {
		if isBlank(r.review) {
			continue
		}
		rec := model.ReviewRecord{Text: r.review, GroundTruth: r.gt}
		if !includeEmpty && !rec.HasGroundTruth() {
			continue
		}
		out = append(out, rec)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

func missingColumn(name string) error {
	return fmt.Errorf("%w: %q", ErrMissingColumn, name)
}
