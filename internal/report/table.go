package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/amishk599/themecat/internal/evaluator"
	"github.com/amishk599/themecat/internal/model"
	"github.com/amishk599/themecat/internal/pipeline"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

var metricAligns = []columnAlignment{alignLeft, alignRight}

// RenderRunTable renders pipeline counters.
func RenderRunTable(m pipeline.RunMetrics) string {
	rows := [][]string{
		{"Total reviews", fmt.Sprint(m.TotalReviews)},
		{"Successful extractions", fmt.Sprint(m.SuccessfulExtractions)},
		{"Failed extractions", fmt.Sprint(m.FailedExtractions)},
		{"Themes extracted", fmt.Sprint(m.TotalThemesExtracted)},
		{"Success rate", percent(m.SuccessRate * 100)},
		{"Avg themes per success", fmt.Sprintf("%.2f", m.AvgThemesPerReview)},
	}
	return renderTable([]string{"Run", "Value"}, rows, metricAligns)
}

// RenderEvaluationTable renders aggregate evaluation metrics.
func RenderEvaluationTable(agg evaluator.AggregateMetrics) string {
	rows := [][]string{
		{"Reviews evaluated", fmt.Sprint(agg.TotalReviews)},
		{"Ground truth themes", fmt.Sprint(agg.TotalGroundTruthThemes)},
		{"Predicted themes", fmt.Sprint(agg.TotalPredictedThemes)},
		{"Identified", fmt.Sprint(agg.TotalIdentified)},
		{"Novel", fmt.Sprint(agg.TotalNovel)},
		{"Identification rate", percent(agg.ThemeIdentificationRate)},
		{"Novel themes", percent(agg.NovelThemesPercentage)},
		{"Avg themes per review", fmt.Sprintf("%.2f", agg.AverageThemesPerReview)},
	}
	return renderTable([]string{"Evaluation", "Value"}, rows, metricAligns)
}

// RenderThemes renders the vocabulary with display names.
func RenderThemes(themes []string) string {
	rows := make([][]string, 0, len(themes))
	for i, t := range themes {
		rows = append(rows, []string{fmt.Sprint(i + 1), t, DisplayTheme(t)})
	}
	return renderTable([]string{"#", "Theme", "Display name"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft})
}

// RenderExtractions renders one row per extracted theme, grouped by review.
// reviews and results are paired by index.
func RenderExtractions(reviews []string, results []model.ExtractionResult) string {
	var rows [][]string
	for i, review := range reviews {
		if i >= len(results) {
			break
		}
		excerpt := truncate(review, 60)
		if results[i].IsEmpty() {
			rows = append(rows, []string{fmt.Sprint(i + 1), excerpt, "-", ""})
			continue
		}
		for j, t := range results[i].Themes {
			num, snippet := "", ""
			if j == 0 {
				num, snippet = fmt.Sprint(i+1), excerpt
			}
			rows = append(rows, []string{num, snippet, t.Theme, truncate(t.Description, 60)})
		}
	}
	return renderTable([]string{"#", "Review", "Theme", "Description"}, rows, []columnAlignment{alignRight})
}

// RenderReviewEvaluations renders per-review identified/novel/missed sets.
func RenderReviewEvaluations(reviews []evaluator.ReviewEvaluation) string {
	rows := make([][]string, 0, len(reviews))
	for i, r := range reviews {
		rows = append(rows, []string{
			fmt.Sprint(i + 1),
			truncate(r.Record.Text, 40),
			joinOrDash(r.Metrics.Identified),
			joinOrDash(r.Metrics.Novel),
			joinOrDash(r.Metrics.Missed),
		})
	}
	return renderTable([]string{"#", "Review", "Identified", "Novel", "Missed"}, rows, []columnAlignment{alignRight})
}

func percent(v float64) string {
	return fmt.Sprintf("%.1f%%", v)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

// truncate shortens s to at most n runes, collapsing newlines.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
