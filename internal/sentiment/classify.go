package sentiment

import (
	"strings"

	"github.com/ButyrinIA/mindspace/internal/models"
)

// Classify maps a score and the scored text to an emotion category.
// Strongly negative scores are split into anxious, angry and sad by keyword.
func Classify(score int, text string) models.Emotion {
	switch {
	case score > 3:
		return models.EmotionHappy
	case score > 1:
		return models.EmotionCalm
	case score < -3:
		lower := strings.ToLower(text)
		if strings.Contains(lower, "anxious") || strings.Contains(lower, "stress") {
			return models.EmotionAnxious
		}
		if strings.Contains(lower, "angry") || strings.Contains(lower, "hate") {
			return models.EmotionAngry
		}
		return models.EmotionSad
	case score < -1:
		return models.EmotionDown
	default:
		return models.EmotionNeutral
	}
}
