package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/amishk599/themecat/internal/model"
)

// CSVSource reads reviews from a CSV file with a header row. The file is read
// once when the source is created.
type CSVSource struct {
	path  string
	cols  Columns
	rows  []row
	hasGT bool
}

// NewCSVSource loads path. The review column must exist; the ground-truth
// column is only required by ReviewsWithGroundTruth.
func NewCSVSource(path string, cols Columns) (*CSVSource, error) {
	cols = cols.withDefaults()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv %s: %w", path, ErrEmptySource)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header %s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	reviewIdx, gtIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(name) {
		case cols.Review:
			reviewIdx = i
		case cols.GroundTruth:
			gtIdx = i
		}
	}
	if reviewIdx == -1 {
		return nil, fmt.Errorf("csv %s: %w", path, missingColumn(cols.Review))
	}

	var rows []row
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv %s: %w", path, err)
		}
		rows = append(rows, row{
			review: field(rec, reviewIdx),
			gt:     field(rec, gtIdx),
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("csv %s: %w", path, ErrEmptySource)
	}

	return &CSVSource{path: path, cols: cols, rows: rows, hasGT: gtIdx != -1}, nil
}

func field(rec []string, idx int) string {
	if idx < 0 || idx >= len(rec) {
		return ""
	}
	return rec[idx]
}

// Len returns the number of data rows in the file.
func (s *CSVSource) Len() int {
	return len(s.rows)
}

// Reviews returns non-empty review texts.
func (s *CSVSource) Reviews(_ context.Context, limit int) ([]string, error) {
	return selectReviews(s.rows, limit), nil
}

// ReviewsWithGroundTruth returns reviews with their ground-truth cells.
func (s *CSVSource) ReviewsWithGroundTruth(_ context.Context, limit int, includeEmpty bool) ([]model.ReviewRecord, error) {
	if !s.hasGT {
		return nil, fmt.Errorf("csv %s: %w", s.path, missingColumn(s.cols.GroundTruth))
	}
	return selectRecords(s.rows, limit, includeEmpty), nil
}

// Close is a no-op; the file is closed after loading.
func (s *CSVSource) Close() error {
	return nil
}
