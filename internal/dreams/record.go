// Package dreams holds the dream journal: recorded dreams, their
// interpretations, and the bounded per-user history.
package dreams

import (
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Sentiment classifies the emotional tone of a dream.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Record is one interpreted dream. Clarity is a 0 to 10 score and optional;
// dreams recorded before clarity tracking existed carry none.
type Record struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"userId,omitempty"`
	DreamText      string    `json:"dreamText"`
	Interpretation string    `json:"interpretation"`
	Timestamp      time.Time `json:"timestamp"`
	Tags           []string  `json:"tags,omitempty"`
	Sentiment      Sentiment `json:"sentiment,omitempty"`
	Mood           string    `json:"mood,omitempty"`
	Clarity        *float64  `json:"clarity,omitempty"`
	Themes         []string  `json:"themes,omitempty"`
	Symbols        []string  `json:"symbols,omitempty"`
}

// Length returns the dream text length in characters.
func (r Record) Length() int {
	return utf8.RuneCountInString(r.DreamText)
}
