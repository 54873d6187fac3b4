package dreams

import (
	"context"
	"strings"

	"github.com/lunalabs/luna/pkg/client"
)

// Interpreter turns a dream description into an interpretation.
type Interpreter interface {
	Interpret(ctx context.Context, dreamText string) (string, error)
}

// APIInterpreter calls the Luna interpretation endpoint over the SDK client.
type APIInterpreter struct {
	api *client.Client
}

// NewAPIInterpreter wraps an SDK client as an Interpreter.
func NewAPIInterpreter(api *client.Client) *APIInterpreter {
	return &APIInterpreter{api: api}
}

// interpretRequest is the payload for POST /api/v1/interpret.
type interpretRequest struct {
	DreamText string `json:"dreamText"`
}

type interpretResponse struct {
	Interpretation string `json:"interpretation"`
}

// Interpret implements Interpreter. An empty interpretation from the server
// is replaced with a fixed fallback rather than an error.
func (i *APIInterpreter) Interpret(ctx context.Context, dreamText string) (string, error) {
	var resp interpretResponse
	if err := i.api.Post(ctx, "/api/v1/interpret", interpretRequest{DreamText: dreamText}, &resp); err != nil {
		return "", err
	}
	if resp.Interpretation == "" {
		return "No interpretation received from the server", nil
	}
	return resp.Interpretation, nil
}

// Analysis is the metadata a keyword analysis derives for a dream.
type Analysis struct {
	Interpretation string
	Tags           []string
	Sentiment      Sentiment
	Mood           string
	Themes         []string
	Symbols        []string
	Clarity        float64
}

// motif maps a dream keyword to interpretive metadata.
type motif struct {
	keywords  []string
	meaning   string
	tag       string
	theme     string
	symbol    string
	sentiment Sentiment
}

var motifs = []motif{
	{
		keywords:  []string{"flying", "fly", "soaring", "floating"},
		meaning:   "Flying reflects a desire for freedom and a sense of rising above your circumstances.",
		tag:       "flying",
		theme:     "freedom",
		symbol:    "sky",
		sentiment: SentimentPositive,
	},
	{
		keywords:  []string{"falling", "fall", "dropping"},
		meaning:   "Falling often points to a feeling of losing control or anxiety about something slipping away.",
		tag:       "falling",
		theme:     "control",
		symbol:    "void",
		sentiment: SentimentNegative,
	},
	{
		keywords:  []string{"water", "ocean", "sea", "river", "swimming"},
		meaning:   "Water mirrors your emotional state; its calmness or turbulence echoes how you feel beneath the surface.",
		tag:       "water",
		theme:     "emotions",
		symbol:    "water",
		sentiment: SentimentNeutral,
	},
	{
		keywords:  []string{"chase", "chased", "chasing", "running"},
		meaning:   "Being chased suggests you are avoiding something in waking life that wants your attention.",
		tag:       "chase",
		theme:     "avoidance",
		symbol:    "shadow",
		sentiment: SentimentNegative,
	},
	{
		keywords:  []string{"teeth", "tooth"},
		meaning:   "Teeth dreams commonly relate to worries about appearance, communication, or loss of power.",
		tag:       "teeth",
		theme:     "anxiety",
		symbol:    "teeth",
		sentiment: SentimentNegative,
	},
	{
		keywords:  []string{"house", "home", "rooms"},
		meaning:   "A house represents the self; unexplored rooms are parts of yourself waiting to be discovered.",
		tag:       "house",
		theme:     "self-discovery",
		symbol:    "house",
		sentiment: SentimentNeutral,
	},
	{
		keywords:  []string{"light", "sun", "bright", "glowing"},
		meaning:   "Light signals clarity, insight, and hope arriving in an area of your life.",
		tag:       "light",
		theme:     "hope",
		symbol:    "light",
		sentiment: SentimentPositive,
	},
	{
		keywords:  []string{"lost", "maze", "searching"},
		meaning:   "Being lost hints at uncertainty about a direction or decision you currently face.",
		tag:       "lost",
		theme:     "uncertainty",
		symbol:    "maze",
		sentiment: SentimentNegative,
	},
}

// CannedInterpreter analyzes dreams locally with a fixed keyword table. It
// backs the simulated mode and the server path that has no upstream model.
type CannedInterpreter struct{}

// Interpret implements Interpreter.
func (CannedInterpreter) Interpret(_ context.Context, dreamText string) (string, error) {
	return Analyze(dreamText).Interpretation, nil
}

// Analyze derives an interpretation and metadata from the dream text. Every
// dream gets an answer; texts matching no motif fall back to a generic
// reading with neutral sentiment.
func Analyze(dreamText string) Analysis {
	lowered := strings.ToLower(dreamText)

	a := Analysis{
		Sentiment: SentimentNeutral,
		Mood:      "reflective",
	}
	var meanings []string
	positives, negatives := 0, 0

	for _, m := range motifs {
		for _, kw := range m.keywords {
			if strings.Contains(lowered, kw) {
				meanings = append(meanings, m.meaning)
				a.Tags = append(a.Tags, m.tag)
				a.Themes = append(a.Themes, m.theme)
				a.Symbols = append(a.Symbols, m.symbol)
				switch m.sentiment {
				case SentimentPositive:
					positives++
				case SentimentNegative:
					negatives++
				}
				break
			}
		}
	}

	switch {
	case positives > negatives:
		a.Sentiment = SentimentPositive
		a.Mood = "uplifted"
	case negatives > positives:
		a.Sentiment = SentimentNegative
		a.Mood = "unsettled"
	}

	// More recognized motifs suggest a more vivid recollection. Clarity is
	// on the 0 to 10 scale dream records carry.
	a.Clarity = 4 + 1.5*float64(len(meanings))
	if a.Clarity > 10 {
		a.Clarity = 10
	}

	if len(meanings) == 0 {
		a.Interpretation = "Your dream weaves together personal symbols that resist a standard reading. " +
			"Consider what felt most vivid in it; that feeling is usually the message."
		a.Tags = []string{"personal"}
		a.Themes = []string{"introspection"}
		return a
	}

	a.Interpretation = strings.Join(meanings, " ")
	return a
}
