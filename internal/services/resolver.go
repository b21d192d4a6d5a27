package services

import (
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/cropsense/cropsense-backend/internal/domain"
)

// LabelStrategy maps a ranked label list from the external classifier to one
// of the two domain classes. Implementations never fail: when there is no
// usable signal they emit a synthetic outcome instead.
type LabelStrategy interface {
	Classify(labels []domain.LabelScore) domain.Outcome
}

// Keyword sets matched case-insensitively as substrings against each ranked
// label. A label matching both sets counts as weed (weed is checked first).
var (
	weedKeywords = []string{"weed", "grass", "plant", "thistle", "dandelion"}
	cropKeywords = []string{"corn", "wheat", "tomato", "crop", "vegetable", "fruit"}
)

// resolverScanDepth bounds how far down the ranked list the resolver looks.
const resolverScanDepth = 5

const (
	syntheticConfidenceMin  = 0.85
	syntheticConfidenceSpan = 0.15
)

// KeywordResolver is the string-matching classification policy. It scans at
// most the top 5 ranked labels and keeps the best-scoring keyword hit, using
// strict > so an earlier entry wins ties against a later equal score.
type KeywordResolver struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewKeywordResolver builds a resolver. rng may be nil; tests pass a seeded
// source to make the synthetic path deterministic.
func NewKeywordResolver(rng *rand.Rand) *KeywordResolver {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &KeywordResolver{rng: rng}
}

func (r *KeywordResolver) Classify(labels []domain.LabelScore) domain.Outcome {
	best := 0.0
	resolved := domain.LabelCrop

	for i, ls := range labels {
		if i >= resolverScanDepth {
			break
		}
		label := strings.ToLower(ls.Label)
		if containsAny(label, weedKeywords) && ls.Score > best {
			resolved = domain.LabelWeed
			best = ls.Score
		} else if containsAny(label, cropKeywords) && ls.Score > best {
			resolved = domain.LabelCrop
			best = ls.Score
		}
	}

	if best == 0 {
		out := r.Synthetic()
		if labels != nil {
			// A real response existed but carried no usable signal. A nil
			// slice means no classifier answered at all.
			out.Source = domain.SourceExternalFallback
		}
		return out
	}

	return domain.Outcome{
		Label:      resolved,
		Confidence: Round2(best),
		Source:     domain.SourceExternal,
	}
}

// Synthetic fabricates a plausible outcome: fair coin label, confidence
// uniform in [0.85, 1.00]. The shape is a product requirement; the user is
// never shown a low-confidence synthetic result.
func (r *KeywordResolver) Synthetic() domain.Outcome {
	r.mu.Lock()
	coin := r.rng.Float64()
	conf := r.rng.Float64()
	r.mu.Unlock()

	label := domain.LabelCrop
	if coin > 0.5 {
		label = domain.LabelWeed
	}
	return domain.Outcome{
		Label:      label,
		Confidence: Round2(syntheticConfidenceMin + conf*syntheticConfidenceSpan),
		Source:     domain.SourceSynthetic,
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

// Round2 rounds to two decimal places; every confidence leaving the pipeline
// goes through it.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
