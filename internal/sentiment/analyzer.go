package sentiment

import "github.com/ButyrinIA/mindspace/internal/models"

// Result is the outcome of analyzing a journal entry.
type Result struct {
	Score    int
	Category models.Emotion
	Response string
}

// Analyzer runs scoring, classification and response selection in order.
type Analyzer struct {
	Scorer   *Scorer
	Selector *Selector
}

// NewAnalyzer wires the default English baseline lexicon and the global
// random source.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		Scorer:   NewScorer(NewVaderPolarity()),
		Selector: NewSelector(nil),
	}
}

func (a *Analyzer) Analyze(text string) Result {
	score := a.Scorer.Score(text)
	category := Classify(score, text)
	return Result{
		Score:    score,
		Category: category,
		Response: a.Selector.Select(category),
	}
}
