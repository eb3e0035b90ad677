package models

import "time"

// Emotion is the sentiment category attached to a post.
type Emotion string

const (
	EmotionHappy   Emotion = "happy"
	EmotionCalm    Emotion = "calm"
	EmotionSad     Emotion = "sad"
	EmotionAnxious Emotion = "anxious"
	EmotionAngry   Emotion = "angry"
	EmotionDown    Emotion = "down"
	EmotionNeutral Emotion = "neutral"
)

// AllEmotions returns every category in a stable order.
func AllEmotions() []Emotion {
	return []Emotion{EmotionHappy, EmotionCalm, EmotionSad, EmotionAnxious, EmotionAngry, EmotionDown, EmotionNeutral}
}

// Valid reports whether e is one of the known categories.
func (e Emotion) Valid() bool {
	for _, known := range AllEmotions() {
		if e == known {
			return true
		}
	}
	return false
}

type Post struct {
	ID                string    `json:"id" bson:"_id"`
	Title             string    `json:"title" bson:"title"`
	Content           string    `json:"content" bson:"content"`
	Image             *string   `json:"image" bson:"image"`
	Video             *string   `json:"video" bson:"video"`
	AuthorID          string    `json:"authorId" bson:"authorId"`
	Author            *Author   `json:"author,omitempty" bson:"-"`
	Sentiment         int       `json:"sentiment" bson:"sentiment"`
	SentimentCategory Emotion   `json:"sentimentCategory" bson:"sentimentCategory"`
	Response          string    `json:"response" bson:"response"`
	Comments          []Comment `json:"comments" bson:"comments"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
}

// MediaPath returns the stored image or video reference, if any.
func (p *Post) MediaPath() string {
	switch {
	case p.Image != nil:
		return *p.Image
	case p.Video != nil:
		return *p.Video
	}
	return ""
}

type Comment struct {
	ID        string    `json:"id" bson:"id"`
	Content   string    `json:"content" bson:"content"`
	AuthorID  string    `json:"authorId" bson:"authorId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// Author is the public projection of a user attached to listed posts.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type User struct {
	ID           string    `json:"id" bson:"_id"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt" bson:"createdAt"`
}

type Resource struct {
	ID          string `json:"id" bson:"_id"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	Link        string `json:"link" bson:"link"`
	Category    string `json:"category" bson:"category"`
}

type PaginatedPosts struct {
	Posts      []*Post `json:"posts"`
	TotalCount int     `json:"totalCount"`
	NextCursor *string `json:"nextCursor"`
}
