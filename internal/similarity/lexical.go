package similarity

import (
	"context"
	"math"
	"regexp"
	"slices"
	"strings"
)

// tokens of two or more word characters, the way most TF-IDF vectorizers split text.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Lexical is a TF-IDF cosine similarity over a corpus made of exactly the
// two compared documents. It never fails.
type Lexical struct {
	stopWords map[string]struct{}
}

// NewLexical builds the lexical strategy with the English stop-word list.
func NewLexical() *Lexical {
	return &Lexical{stopWords: englishStopWords}
}

func (l *Lexical) Name() string { return StrategyLexical }

// Score returns 0 when either document has no significant terms.
func (l *Lexical) Score(_ context.Context, a, b string) (float64, error) {
	ta, tb := l.termCounts(a), l.termCounts(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0, nil
	}

	// smooth idf over a two-document corpus: ln((1+n)/(1+df)) + 1.
	const n = 2.0
	idf := func(term string) float64 {
		df := 0.0
		if _, ok := ta[term]; ok {
			df++
		}
		if _, ok := tb[term]; ok {
			df++
		}
		return math.Log((1+n)/(1+df)) + 1
	}

	va, vb := weigh(ta, idf), weigh(tb, idf)
	return clamp01(dot(va, vb) / (norm(va) * norm(vb))), nil
}

func (l *Lexical) termCounts(text string) map[string]float64 {
	counts := make(map[string]float64)
	for _, token := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := l.stopWords[token]; stop {
			continue
		}
		counts[token]++
	}
	return counts
}

type term struct {
	key    string
	weight float64
}

// weigh returns tf*idf weights sorted by term so sums are order independent
// and repeated calls are bit-for-bit identical.
func weigh(counts map[string]float64, idf func(string) float64) []term {
	out := make([]term, 0, len(counts))
	for key, tf := range counts {
		out = append(out, term{key: key, weight: tf * idf(key)})
	}
	slices.SortFunc(out, func(x, y term) int { return strings.Compare(x.key, y.key) })
	return out
}

func dot(a, b []term) float64 {
	sum := 0.0
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch c := strings.Compare(a[i].key, b[j].key); {
		case c == 0:
			sum += a[i].weight * b[j].weight
			i++
			j++
		case c < 0:
			i++
		default:
			j++
		}
	}
	return sum
}

func norm(v []term) float64 {
	sum := 0.0
	for _, t := range v {
		sum += t.weight * t.weight
	}
	return math.Sqrt(sum)
}
