package services

import (
	"math"
	"math/rand"
	"testing"

	"github.com/cropsense/cropsense-backend/internal/domain"
)

func testResolver() *KeywordResolver {
	return NewKeywordResolver(rand.New(rand.NewSource(1)))
}

func assertTwoDecimals(t *testing.T, c float64) {
	t.Helper()
	if c < 0 || c > 1 {
		t.Fatalf("confidence out of range: %v", c)
	}
	if math.Abs(c*100-math.Round(c*100)) > 1e-9 {
		t.Fatalf("confidence has more than 2 decimals: %v", c)
	}
}

func TestClassifyWeedKeywordWins(t *testing.T) {
	r := testResolver()
	out := r.Classify([]domain.LabelScore{
		{Label: "dandelion", Score: 0.9},
		{Label: "tomato", Score: 0.6},
	})
	if out.Label != domain.LabelWeed {
		t.Fatalf("expected Weed, got %s", out.Label)
	}
	if out.Confidence != 0.90 {
		t.Fatalf("expected confidence 0.90, got %v", out.Confidence)
	}
	if out.Source != domain.SourceExternal {
		t.Fatalf("expected external source, got %s", out.Source)
	}
}

func TestClassifyCropKeywordWins(t *testing.T) {
	r := testResolver()
	out := r.Classify([]domain.LabelScore{
		{Label: "tomato", Score: 0.95},
		{Label: "dandelion", Score: 0.4},
	})
	if out.Label != domain.LabelCrop {
		t.Fatalf("expected Crop, got %s", out.Label)
	}
	if out.Confidence != 0.95 {
		t.Fatalf("expected confidence 0.95, got %v", out.Confidence)
	}
}

func TestClassifyEarlierEntryWinsTies(t *testing.T) {
	r := testResolver()
	// Strict > comparison: the later, equal-scoring crop entry must not
	// override the earlier weed entry.
	out := r.Classify([]domain.LabelScore{
		{Label: "thistle", Score: 0.7},
		{Label: "wheat", Score: 0.7},
	})
	if out.Label != domain.LabelWeed {
		t.Fatalf("expected earlier Weed entry to win the tie, got %s", out.Label)
	}
	if out.Confidence != 0.70 {
		t.Fatalf("expected confidence 0.70, got %v", out.Confidence)
	}
}

func TestClassifyScansTopFiveOnly(t *testing.T) {
	r := testResolver()
	labels := []domain.LabelScore{
		{Label: "sky", Score: 0.99},
		{Label: "cloud", Score: 0.98},
		{Label: "rock", Score: 0.97},
		{Label: "dirt", Score: 0.96},
		{Label: "sand", Score: 0.95},
		{Label: "corn", Score: 0.94}, // rank 6, must be ignored
	}
	out := r.Classify(labels)
	if out.Source == domain.SourceExternal {
		t.Fatalf("entry past rank 5 should not produce an external match: %+v", out)
	}
}

func TestClassifyCaseInsensitiveSubstring(t *testing.T) {
	r := testResolver()
	out := r.Classify([]domain.LabelScore{
		{Label: "Common Dandelion (Taraxacum)", Score: 0.81},
	})
	if out.Label != domain.LabelWeed || out.Confidence != 0.81 {
		t.Fatalf("unexpected outcome: %+v", out)
	}
}

func TestClassifyEmptyListFallsBack(t *testing.T) {
	r := testResolver()
	out := r.Classify(nil)
	if !out.Label.Valid() {
		t.Fatalf("fallback label invalid: %q", out.Label)
	}
	if out.Confidence < 0.85 || out.Confidence > 1.00 {
		t.Fatalf("fallback confidence out of [0.85, 1.00]: %v", out.Confidence)
	}
	if out.Source != domain.SourceSynthetic {
		t.Fatalf("expected synthetic source, got %s", out.Source)
	}
	assertTwoDecimals(t, out.Confidence)
}

func TestClassifyEmptyResponseIsExternalFallback(t *testing.T) {
	r := testResolver()
	// An empty but non-nil list means the classifier answered with nothing
	// usable; provenance must record the fallback, not a synthetic origin.
	out := r.Classify([]domain.LabelScore{})
	if out.Source != domain.SourceExternalFallback {
		t.Fatalf("expected external_fallback source, got %s", out.Source)
	}
}

func TestClassifyNoMatchIsExternalFallback(t *testing.T) {
	r := testResolver()
	out := r.Classify([]domain.LabelScore{
		{Label: "skyscraper", Score: 0.9},
		{Label: "bicycle", Score: 0.8},
	})
	if out.Source != domain.SourceExternalFallback {
		t.Fatalf("expected external_fallback source, got %s", out.Source)
	}
	if out.Confidence < 0.85 || out.Confidence > 1.00 {
		t.Fatalf("fallback confidence out of [0.85, 1.00]: %v", out.Confidence)
	}
}

func TestClassifyZeroScoreMatchFallsBack(t *testing.T) {
	r := testResolver()
	// A keyword hit at score 0 does not beat the initial best score.
	out := r.Classify([]domain.LabelScore{{Label: "weed", Score: 0}})
	if out.Source == domain.SourceExternal {
		t.Fatalf("zero-score match must not count as external: %+v", out)
	}
}

func TestSyntheticShapeOverManySamples(t *testing.T) {
	r := testResolver()
	sawWeed, sawCrop := false, false
	for i := 0; i < 500; i++ {
		out := r.Synthetic()
		if out.Confidence < 0.85 || out.Confidence > 1.00 {
			t.Fatalf("synthetic confidence out of range: %v", out.Confidence)
		}
		assertTwoDecimals(t, out.Confidence)
		switch out.Label {
		case domain.LabelWeed:
			sawWeed = true
		case domain.LabelCrop:
			sawCrop = true
		default:
			t.Fatalf("invalid synthetic label: %q", out.Label)
		}
	}
	if !sawWeed || !sawCrop {
		t.Fatalf("coin flip never produced both labels: weed=%v crop=%v", sawWeed, sawCrop)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0.8999999, 0.9},
		{0.854, 0.85},
		{0.855, 0.86},
		{1.0, 1.0},
		{0, 0},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
