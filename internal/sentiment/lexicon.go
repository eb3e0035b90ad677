package sentiment

import (
	"math"
	"strings"
	"unicode"

	"github.com/jonreiter/govader"
)

// vocabulary holds the journaling-specific word weights. It takes precedence
// over the baseline polarity for the words it lists.
var vocabulary = map[string]int{
	"happy":   4,
	"great":   3,
	"awesome": 5,
	"love":    4,
	"amazing": 4,
	"sad":     -4,
	"hate":    -5,
	"awful":   -4,
	"angry":   -3,
	"anxious": -3,
	"cool":    2,
	"bad":     -2,
	"ugh":     -2,
	"lit":     3,
	"stress":  -3,
	"hope":    3,
	"fear":    -3,
	"joy":     4,
	"tired":   -2,
	"excited": 4,
}

// Vocabulary returns a copy of the fixed word weight table.
func Vocabulary() map[string]int {
	out := make(map[string]int, len(vocabulary))
	for k, v := range vocabulary {
		out[k] = v
	}
	return out
}

// Polarity gives the baseline weight of a word that is not in the vocabulary.
type Polarity interface {
	Weight(word string) int
}

// vaderPolarity reads the word's valence from the VADER lexicon. Valences
// lie in -4..4 and are truncated toward zero, so weak words such as
// "special" (1.7) count at most 1.
type vaderPolarity struct {
	lexicon map[string]float64
}

// NewVaderPolarity returns the general English polarity lexicon.
func NewVaderPolarity() Polarity {
	return &vaderPolarity{lexicon: govader.NewSentimentIntensityAnalyzer().Lexicon}
}

func (v *vaderPolarity) Weight(word string) int {
	return int(math.Trunc(v.lexicon[word]))
}

// Scorer sums word weights of free text.
type Scorer struct {
	baseline Polarity
}

// NewScorer creates a scorer. A nil baseline limits scoring to the fixed
// vocabulary.
func NewScorer(baseline Polarity) *Scorer {
	return &Scorer{baseline: baseline}
}

// Score returns the signed sum of token weights. Empty text scores 0.
func (s *Scorer) Score(text string) int {
	score := 0
	for _, token := range Tokenize(text) {
		if w, ok := vocabulary[token]; ok {
			score += w
			continue
		}
		if s.baseline != nil {
			score += s.baseline.Weight(token)
		}
	}
	return score
}

// Tokenize lowercases text and splits it into words. Apostrophes stay inside
// words so contractions remain single tokens.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
