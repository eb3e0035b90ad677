package sentiment

import (
	"math/rand/v2"
	"sync"

	"github.com/ButyrinIA/mindspace/internal/models"
)

const (
	happyIdx = iota
	calmIdx
	sadIdx
	anxiousIdx
	angryIdx
	downIdx
	neutralIdx
	emotionCount
)

// responseSets is indexed by emotionIndex. The array sizes make a missing
// category or an empty candidate list a compile error.
var responseSets = [emotionCount][3]string{
	happyIdx: {
		"Wow, your joy is contagious! Keep shining bright! 🌞",
		"Love seeing you so happy! What's sparking this joy today?",
		"You're on fire with positivity! Keep it up! 🔥",
	},
	calmIdx: {
		"You've got a peaceful vibe going. Nice work staying grounded. 🌿",
		"Feeling calm is a win. How about a moment to savor it?",
		"Your chill energy is inspiring. Keep it flowing! 😌",
	},
	sadIdx: {
		"I'm sorry you're feeling this way. Try a warm drink or a cozy blanket, it might help a bit. You're not alone. 💙",
		"It's okay to feel sad. Want to journal more or take a slow walk? I'm here with you.",
		"Tough days happen. How about some music to lift your spirits? You've got this. 🎶",
	},
	anxiousIdx: {
		"Feeling anxious can be rough. Try breathing in for 4, out for 4. It's a small reset. You're stronger than you think! 🌬️",
		"I see that stress sneaking in. How about a quick stretch or a distraction like a funny video? I've got your back.",
		"Anxiety's tough, but you're tougher. Focus on one thing at a time and start small. You'll get through this! 💪",
	},
	angryIdx: {
		"It's okay to feel fired up. Try punching a pillow or scribbling it out, let it loose safely. I'm here. ✊",
		"Anger can be heavy. How about a quick cooldown with some deep breaths? You've got control.",
		"Sounds like something's got you riled up. Want to vent more? I'm listening, no judgment.",
	},
	downIdx: {
		"Feeling a bit low is normal. How about a small win, like making your bed? I'm rooting for you! 🌱",
		"I see you're not at your best. Try a gentle stretch or a favorite snack, it might nudge you up. You're enough.",
		"Rough patch, huh? Let's take it slow, maybe a quiet moment with tea? I'm with you. ☕",
	},
	neutralIdx: {
		"Thanks for checking in! What's one thing you'd like to feel today? Let's aim for it together. 🌟",
		"Steady as you go! How about a quick mindfulness moment to recharge?",
		"All good here? If you need a boost, I've got ideas. Maybe a walk or a fun meme? 😊",
	},
}

func emotionIndex(e models.Emotion) int {
	switch e {
	case models.EmotionHappy:
		return happyIdx
	case models.EmotionCalm:
		return calmIdx
	case models.EmotionSad:
		return sadIdx
	case models.EmotionAnxious:
		return anxiousIdx
	case models.EmotionAngry:
		return angryIdx
	case models.EmotionDown:
		return downIdx
	default:
		return neutralIdx
	}
}

// Responses returns the candidate messages for a category. Unknown
// categories get the neutral set.
func Responses(e models.Emotion) []string {
	set := responseSets[emotionIndex(e)]
	return set[:]
}

// Selector picks a supportive message for an emotion category.
type Selector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector creates a selector drawing from src. A nil src uses the
// process-wide generator.
func NewSelector(src rand.Source) *Selector {
	s := &Selector{}
	if src != nil {
		s.rng = rand.New(src)
	}
	return s
}

// Select returns one message of the category's set, chosen uniformly.
func (s *Selector) Select(e models.Emotion) string {
	set := responseSets[emotionIndex(e)]
	return set[s.intN(len(set))]
}

func (s *Selector) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.IntN(n)
}
