package evaluator

import (
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"

	"github.com/amishk599/themecat/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseGroundTruth(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", []string{}},
		{"whitespace", "   ", []string{}},
		{"nan", "nan", []string{}},
		{"NaN", "NaN", []string{}},
		{"set", "{'a','b'}", []string{"a", "b"}},
		{"set with spaces", "{ 'wait_time' , 'cost' }", []string{"cost", "wait_time"}},
		{"list", `["a", "b", "a"]`, []string{"a", "b"}},
		{"tuple", "('a', 'b')", []string{"a", "b"}},
		{"single tuple", "('a',)", []string{"a"}},
		{"empty tuple", "()", []string{}},
		{"empty list", "[]", []string{}},
		{"empty set call", "set()", []string{}},
		{"trailing comma", "{'a', 'b',}", []string{"a", "b"}},
		{"escaped quote", `{'it\'s', "say \"hi\""}`, []string{"it's", `say "hi"`}},
		{"unicode prefix", "{u'a', r'b\\d'}", []string{"a", `b\d`}},
		{"triple quoted", "['''a''']", []string{"a"}},
		{"implicit concatenation", "['ab' 'cd']", []string{"abcd"}},
		{"non-string members skipped", "{'a', 1, None}", []string{"a"}},
		{"scalar string", "'a'", []string{}},
		{"parenthesized string", "('a')", []string{}},
		{"number", "42", []string{}},
		{"dict", "{'a': 1}", []string{}},
		{"empty dict", "{}", []string{}},
		{"not a literal", "not a literal", []string{}},
		{"unterminated", "{'a', 'b'", []string{}},
		{"trailing garbage", "{'a'} extra", []string{}},
		{"function call", "frozenset({'a'})", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseGroundTruth(tt.input, discardLogger())
			if got == nil {
				t.Fatal("got nil set")
			}
			if sorted := got.Sorted(); !reflect.DeepEqual(sorted, tt.want) {
				t.Errorf("ParseGroundTruth(%q) = %v, want %v", tt.input, sorted, tt.want)
			}
		})
	}
}

func TestParseGroundTruth_NilLogger(t *testing.T) {
	if got := ParseGroundTruth("{broken", nil); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestParseLLMThemes(t *testing.T) {
	result := model.ExtractionResult{Themes: []model.Theme{
		{Theme: "Unknown"},
		{Theme: " staffing "},
		{Theme: "staffing"},
		{Theme: ""},
		{Theme: "   "},
		{Theme: "UNKNOWN"},
	}}

	got := ParseLLMThemes(result).Sorted()
	if !reflect.DeepEqual(got, []string{"staffing"}) {
		t.Errorf("got %v, want [staffing]", got)
	}
}

func TestParseLLMThemes_Empty(t *testing.T) {
	if got := ParseLLMThemes(model.EmptyResult()); len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestCalculateMetrics(t *testing.T) {
	gt := NewThemeSet("a", "b", "c")
	pred := NewThemeSet("b", "c", "d", "e")

	m := CalculateMetrics(gt, pred)

	if !reflect.DeepEqual(m.Identified, []string{"b", "c"}) {
		t.Errorf("Identified = %v", m.Identified)
	}
	if !reflect.DeepEqual(m.Novel, []string{"d", "e"}) {
		t.Errorf("Novel = %v", m.Novel)
	}
	if !reflect.DeepEqual(m.Missed, []string{"a"}) {
		t.Errorf("Missed = %v", m.Missed)
	}
	if m.IdentifiedCount != 2 || m.NovelCount != 2 || m.TotalGroundTruth != 3 || m.TotalPredicted != 4 {
		t.Errorf("counts = %+v", m)
	}
}

func TestCalculateMetrics_SetIdentities(t *testing.T) {
	cases := []struct{ gt, pred ThemeSet }{
		{NewThemeSet(), NewThemeSet()},
		{NewThemeSet("a"), NewThemeSet()},
		{NewThemeSet(), NewThemeSet("a")},
		{NewThemeSet("a", "b"), NewThemeSet("a", "b")},
		{NewThemeSet("a", "b", "c"), NewThemeSet("x", "y")},
		{NewThemeSet("a", "b", "c", "d"), NewThemeSet("b", "d", "f")},
	}

	for _, c := range cases {
		m := CalculateMetrics(c.gt, c.pred)
		if m.IdentifiedCount+len(m.Missed) != len(c.gt) {
			t.Errorf("identified+missed = %d, want |G| = %d", m.IdentifiedCount+len(m.Missed), len(c.gt))
		}
		if m.IdentifiedCount+m.NovelCount != len(c.pred) {
			t.Errorf("identified+novel = %d, want |P| = %d", m.IdentifiedCount+m.NovelCount, len(c.pred))
		}
		for _, n := range m.Identified {
			if !c.gt.Has(n) || !c.pred.Has(n) {
				t.Errorf("identified %q not in both sets", n)
			}
		}
		for _, n := range m.Novel {
			if c.gt.Has(n) || !c.pred.Has(n) {
				t.Errorf("novel %q not in P - G", n)
			}
		}
		for _, n := range m.Missed {
			if !c.gt.Has(n) || c.pred.Has(n) {
				t.Errorf("missed %q not in G - P", n)
			}
		}
	}
}

func TestEvaluatePredictions(t *testing.T) {
	gt := []ThemeSet{NewThemeSet("a", "b"), NewThemeSet("c"), NewThemeSet()}
	pred := []ThemeSet{NewThemeSet("a", "x"), NewThemeSet("c"), NewThemeSet("y")}

	agg, err := EvaluatePredictions(gt, pred)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if agg.TotalReviews != 3 || agg.TotalGroundTruthThemes != 3 || agg.TotalPredictedThemes != 4 ||
		agg.TotalIdentified != 2 || agg.TotalNovel != 2 {
		t.Errorf("totals = %+v", agg)
	}
	assertClose(t, "ThemeIdentificationRate", agg.ThemeIdentificationRate, 66.6667)
	assertClose(t, "NovelThemesPercentage", agg.NovelThemesPercentage, 50)
	assertClose(t, "AverageThemesPerReview", agg.AverageThemesPerReview, 1.3333)
}

func assertClose(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-3 {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestEvaluatePredictions_ZeroDenominators(t *testing.T) {
	agg, err := EvaluatePredictions([]ThemeSet{NewThemeSet()}, []ThemeSet{NewThemeSet()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg.ThemeIdentificationRate != 0 || agg.NovelThemesPercentage != 0 || agg.AverageThemesPerReview != 0 {
		t.Errorf("got %+v, want zero rates", agg)
	}

	agg, err = EvaluatePredictions(nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if agg != (AggregateMetrics{}) {
		t.Errorf("got %+v, want zero value for empty batch", agg)
	}
}

func TestEvaluatePredictions_LengthMismatch(t *testing.T) {
	_, err := EvaluatePredictions([]ThemeSet{NewThemeSet("a")}, nil)
	if !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	records := []model.ReviewRecord{
		{Text: "long wait, rude staff", GroundTruth: "{'wait_time', 'staff_friendliness'}"},
		{Text: "fine", GroundTruth: "garbage{"},
	}
	results := []model.ExtractionResult{
		{Themes: []model.Theme{{Theme: "wait_time"}, {Theme: "billing_and_insurance"}, {Theme: "unknown"}}},
		model.EmptyResult(),
	}

	ev, err := New(discardLogger()).Evaluate(records, results)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ev.Reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(ev.Reviews))
	}

	first := ev.Reviews[0].Metrics
	if !reflect.DeepEqual(first.Identified, []string{"wait_time"}) ||
		!reflect.DeepEqual(first.Novel, []string{"billing_and_insurance"}) ||
		!reflect.DeepEqual(first.Missed, []string{"staff_friendliness"}) {
		t.Errorf("first review metrics = %+v", first)
	}
	if ev.Reviews[1].Metrics.TotalGroundTruth != 0 {
		t.Errorf("malformed ground truth should parse to empty, got %+v", ev.Reviews[1].Metrics)
	}
	if ev.Aggregate.TotalGroundTruthThemes != 2 || ev.Aggregate.TotalIdentified != 1 || ev.Aggregate.ThemeIdentificationRate != 50 {
		t.Errorf("aggregate = %+v", ev.Aggregate)
	}

	if _, err := New(nil).Evaluate(records, results[:1]); !errors.Is(err, ErrLengthMismatch) {
		t.Errorf("err = %v, want ErrLengthMismatch", err)
	}
}
