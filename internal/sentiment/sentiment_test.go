package sentiment

import (
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/ButyrinIA/mindspace/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPolarity map[string]int

func (s stubPolarity) Weight(word string) int {
	return s[word]
}

func TestScore(t *testing.T) {
	scorer := NewScorer(nil)

	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"whitespace", "   \n\t ", 0},
		{"single word", "happy", 4},
		{"case insensitive", "HaPPy", 4},
		{"punctuation", "amazing!!! awesome, cool.", 11},
		{"mixed polarity", "I love it but I am tired", 2},
		{"repeated words", "sad sad sad", -12},
		{"no matches", "meh, nothing special", 0},
		{"joyful entry", "I am so happy and excited today, this is amazing!", 12},
		{"anxious entry", "I feel so anxious and stressed, I hate this", -8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scorer.Score(tt.text))
		})
	}
}

func TestScore_Deterministic(t *testing.T) {
	scorer := NewScorer(NewVaderPolarity())
	text := "Ugh, what an awful, stressful day. Still, I have hope."
	assert.Equal(t, scorer.Score(text), scorer.Score(text))
}

func TestScore_BaselineFallback(t *testing.T) {
	scorer := NewScorer(stubPolarity{"wonderful": 3, "happy": -10})

	// vocabulary words never consult the baseline
	assert.Equal(t, 4, scorer.Score("happy"))
	assert.Equal(t, 7, scorer.Score("wonderful happy"))
	assert.Equal(t, 0, scorer.Score("unknown words"))
}

func TestScore_VaderBaseline(t *testing.T) {
	scorer := NewScorer(NewVaderPolarity())

	assert.Greater(t, scorer.Score("I am so happy and excited today, this is amazing!"), 3)
	assert.Less(t, scorer.Score("I feel so anxious and stressed, I hate this"), -3)
	assert.Equal(t, 0, scorer.Score(""))
}

func TestVaderPolarity_Weight(t *testing.T) {
	polarity := NewVaderPolarity()

	tests := []struct {
		word string
		want int
	}{
		{"special", 1},   // 1.7
		{"meh", 0},       // -0.3
		{"stressed", -1}, // -1.4
		{"good", 1},      // 1.9
		{"nothing", 0},   // нет в словаре
		{"qwertyuiop", 0},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			w := polarity.Weight(tt.word)
			assert.Equal(t, tt.want, w)
			assert.LessOrEqual(t, w, 4)
			assert.GreaterOrEqual(t, w, -4)
		})
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"i", "can't", "stop", "smiling", "2day"}, Tokenize("I can't stop SMILING... 2day!"))
	assert.Empty(t, Tokenize(" ,.;! "))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		score int
		text  string
		want  models.Emotion
	}{
		{"strong positive", 13, "", models.EmotionHappy},
		{"happy boundary", 4, "", models.EmotionHappy},
		{"calm upper", 3, "", models.EmotionCalm},
		{"calm lower", 2, "", models.EmotionCalm},
		{"neutral upper", 1, "", models.EmotionNeutral},
		{"neutral zero", 0, "", models.EmotionNeutral},
		{"neutral lower", -1, "", models.EmotionNeutral},
		{"down upper", -2, "", models.EmotionDown},
		{"down lower", -3, "I hate stress", models.EmotionDown},
		{"anxious keyword", -4, "So ANXIOUS right now", models.EmotionAnxious},
		{"stress keyword", -9, "work stress is killing me", models.EmotionAnxious},
		{"anxious beats angry", -10, "angry and anxious", models.EmotionAnxious},
		{"angry keyword", -5, "I am angry", models.EmotionAngry},
		{"hate keyword", -5, "I hate mondays", models.EmotionAngry},
		{"sad fallback", -4, "everything is awful", models.EmotionSad},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.score, tt.text))
		})
	}
}

func TestClassify_AlwaysValid(t *testing.T) {
	for score := -30; score <= 30; score++ {
		assert.True(t, Classify(score, "stress hate").Valid(), "score %d", score)
	}
}

func TestResponses(t *testing.T) {
	for _, e := range models.AllEmotions() {
		set := Responses(e)
		assert.Len(t, set, 3, string(e))
		for _, msg := range set {
			assert.NotEmpty(t, msg)
		}
	}

	assert.Equal(t, Responses(models.EmotionNeutral), Responses(models.Emotion("ecstatic")))
}

func TestSelector_Seeded(t *testing.T) {
	selector := NewSelector(rand.NewPCG(1, 2))
	expected := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 20; i++ {
		e := models.AllEmotions()[i%len(models.AllEmotions())]
		want := Responses(e)[expected.IntN(3)]
		assert.Equal(t, want, selector.Select(e))
	}
}

func TestSelector_DrawsFromCategory(t *testing.T) {
	selector := NewSelector(nil)
	for _, e := range models.AllEmotions() {
		for i := 0; i < 10; i++ {
			assert.Contains(t, Responses(e), selector.Select(e))
		}
	}
	assert.Contains(t, Responses(models.EmotionNeutral), selector.Select(models.Emotion("unknown")))
}

func TestSelector_Concurrent(t *testing.T) {
	selector := NewSelector(rand.NewPCG(7, 7))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				assert.NotEmpty(t, selector.Select(models.EmotionCalm))
			}
		}()
	}
	wg.Wait()
}

func TestAnalyze(t *testing.T) {
	analyzer := &Analyzer{Scorer: NewScorer(nil), Selector: NewSelector(rand.NewPCG(3, 4))}

	t.Run("joyful entry", func(t *testing.T) {
		res := analyzer.Analyze("I am so happy and excited today, this is amazing!")
		assert.Equal(t, 12, res.Score)
		assert.Equal(t, models.EmotionHappy, res.Category)
		assert.Contains(t, Responses(models.EmotionHappy), res.Response)
	})

	t.Run("anxious entry", func(t *testing.T) {
		res := analyzer.Analyze("I feel so anxious and stressed, I hate this")
		assert.Less(t, res.Score, -3)
		assert.Equal(t, models.EmotionAnxious, res.Category)
		assert.Contains(t, Responses(models.EmotionAnxious), res.Response)
	})

	t.Run("empty entry", func(t *testing.T) {
		res := analyzer.Analyze("")
		assert.Equal(t, 0, res.Score)
		assert.Equal(t, models.EmotionNeutral, res.Category)
		require.NotEmpty(t, res.Response)
		assert.Contains(t, Responses(models.EmotionNeutral), res.Response)
	})

	t.Run("no lexicon matches", func(t *testing.T) {
		res := analyzer.Analyze("meh, nothing special")
		assert.Equal(t, 0, res.Score)
		assert.Equal(t, models.EmotionNeutral, res.Category)
	})
}

func TestNewAnalyzer(t *testing.T) {
	analyzer := NewAnalyzer()

	tests := []struct {
		name     string
		text     string
		category models.Emotion
	}{
		{"joyful entry", "I am so happy and excited today, this is amazing!", models.EmotionHappy},
		{"anxious entry", "I feel so anxious and stressed, I hate this", models.EmotionAnxious},
		{"empty entry", "", models.EmotionNeutral},
		{"no lexicon matches", "meh, nothing special", models.EmotionNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := analyzer.Analyze(tt.text)
			assert.Equal(t, tt.category, res.Category, "score %d", res.Score)
			assert.Contains(t, Responses(tt.category), res.Response)
		})
	}

	assert.Equal(t, 12, analyzer.Analyze("I am so happy and excited today, this is amazing!").Score)
	assert.Equal(t, -9, analyzer.Analyze("I feel so anxious and stressed, I hate this").Score)
	assert.Equal(t, 0, analyzer.Analyze("").Score)
	assert.Equal(t, 1, analyzer.Analyze("meh, nothing special").Score)
}
