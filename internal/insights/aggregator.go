// Package insights computes dream journal statistics: sentiment breakdowns,
// frequency tables, activity windows, and writing patterns.
package insights

import (
	"errors"
	"math"
	"time"

	"github.com/lunalabs/luna/internal/dreams"
)

// ErrNoData is returned when there are no dreams to aggregate.
var ErrNoData = errors.New("no dreams to analyze")

// SentimentAnalysis counts dreams by emotional tone. Dreams with no recorded
// sentiment are counted in none of the buckets.
type SentimentAnalysis struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// TagCount is one row of the tag frequency table.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ThemeCount is one row of the theme frequency table.
type ThemeCount struct {
	Theme string `json:"theme"`
	Count int    `json:"count"`
}

// SymbolCount is one row of the symbol frequency table.
type SymbolCount struct {
	Symbol string `json:"symbol"`
	Count  int    `json:"count"`
}

// MoodCount is one row of the mood distribution.
type MoodCount struct {
	Mood  string `json:"mood"`
	Count int    `json:"count"`
}

// RecentActivity counts dreams recorded in trailing windows ending now.
type RecentActivity struct {
	Last7Days  int `json:"last7Days"`
	Last30Days int `json:"last30Days"`
}

// DreamPatterns describes when and how the user dreams.
type DreamPatterns struct {
	MostActiveDay      string `json:"mostActiveDay"`
	AverageDreamLength int    `json:"averageDreamLength"`
	LongestDream       int    `json:"longestDream"`
	ShortestDream      int    `json:"shortestDream"`
}

// Summary is the full insight report for a dream journal.
type Summary struct {
	TotalDreams       int               `json:"totalDreams"`
	SentimentAnalysis SentimentAnalysis `json:"sentimentAnalysis"`
	CommonTags        []TagCount        `json:"commonTags"`
	CommonThemes      []ThemeCount      `json:"commonThemes"`
	CommonSymbols     []SymbolCount     `json:"commonSymbols"`
	MoodDistribution  []MoodCount       `json:"moodDistribution"`
	AverageClarity    float64           `json:"averageClarity"`
	RecentActivity    RecentActivity    `json:"recentActivity"`
	DreamPatterns     DreamPatterns     `json:"dreamPatterns"`
}

// counter accumulates value frequencies while remembering the order in which
// values first appeared, so equal counts sort deterministically.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(value string) {
	if value == "" {
		return
	}
	if _, seen := c.counts[value]; !seen {
		c.order = append(c.order, value)
	}
	c.counts[value]++
}

// sorted returns values by descending count; ties keep first-appearance order.
func (c *counter) sorted() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	// Insertion sort keeps the scan stable, and the tables are small.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && c.counts[out[j]] > c.counts[out[j-1]]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// weekdays in Monday-first order, used for most-active-day tie-breaking.
var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Aggregate computes a Summary over the given dreams as of now. The input
// order only matters for breaking frequency ties: values that first appear
// earlier in the slice rank higher among equals.
func Aggregate(records []dreams.Record, now time.Time) (*Summary, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	s := &Summary{TotalDreams: len(records)}

	tags := newCounter()
	themes := newCounter()
	symbols := newCounter()
	moods := newCounter()
	byWeekday := make(map[time.Weekday]int)

	var claritySum float64
	clarityCount := 0
	lengthTotal := 0
	longest, shortest := 0, math.MaxInt

	cutoff7 := now.AddDate(0, 0, -7)
	cutoff30 := now.AddDate(0, 0, -30)

	for _, rec := range records {
		switch rec.Sentiment {
		case dreams.SentimentPositive:
			s.SentimentAnalysis.Positive++
		case dreams.SentimentNegative:
			s.SentimentAnalysis.Negative++
		case dreams.SentimentNeutral:
			s.SentimentAnalysis.Neutral++
		}

		for _, t := range rec.Tags {
			tags.add(t)
		}
		for _, t := range rec.Themes {
			themes.add(t)
		}
		for _, sym := range rec.Symbols {
			symbols.add(sym)
		}
		moods.add(rec.Mood)

		if rec.Clarity != nil {
			claritySum += *rec.Clarity
			clarityCount++
		}

		if !rec.Timestamp.After(now) {
			if !rec.Timestamp.Before(cutoff7) {
				s.RecentActivity.Last7Days++
			}
			if !rec.Timestamp.Before(cutoff30) {
				s.RecentActivity.Last30Days++
			}
		}
		byWeekday[rec.Timestamp.Weekday()]++

		length := rec.Length()
		lengthTotal += length
		if length > longest {
			longest = length
		}
		if length < shortest {
			shortest = length
		}
	}

	for _, tag := range tags.sorted() {
		s.CommonTags = append(s.CommonTags, TagCount{Tag: tag, Count: tags.counts[tag]})
	}
	for _, theme := range themes.sorted() {
		s.CommonThemes = append(s.CommonThemes, ThemeCount{Theme: theme, Count: themes.counts[theme]})
	}
	for _, symbol := range symbols.sorted() {
		s.CommonSymbols = append(s.CommonSymbols, SymbolCount{Symbol: symbol, Count: symbols.counts[symbol]})
	}
	for _, mood := range moods.sorted() {
		s.MoodDistribution = append(s.MoodDistribution, MoodCount{Mood: mood, Count: moods.counts[mood]})
	}

	if clarityCount > 0 {
		s.AverageClarity = claritySum / float64(clarityCount)
	}

	s.DreamPatterns = DreamPatterns{
		MostActiveDay:      mostActiveDay(byWeekday),
		AverageDreamLength: int(math.Round(float64(lengthTotal) / float64(len(records)))),
		LongestDream:       longest,
		ShortestDream:      shortest,
	}
	return s, nil
}

// mostActiveDay returns the weekday with the highest dream count. Ties go to
// the earlier day in Monday-first week order.
func mostActiveDay(byWeekday map[time.Weekday]int) string {
	best := weekdays[0]
	bestCount := byWeekday[best]
	for _, day := range weekdays[1:] {
		if byWeekday[day] > bestCount {
			best = day
			bestCount = byWeekday[day]
		}
	}
	return best.String()
}

// Bounded returns a copy of the summary with each frequency table capped at
// n rows, for compact display surfaces.
func (s *Summary) Bounded(n int) *Summary {
	out := *s
	if len(out.CommonTags) > n {
		out.CommonTags = out.CommonTags[:n]
	}
	if len(out.CommonThemes) > n {
		out.CommonThemes = out.CommonThemes[:n]
	}
	if len(out.CommonSymbols) > n {
		out.CommonSymbols = out.CommonSymbols[:n]
	}
	if len(out.MoodDistribution) > n {
		out.MoodDistribution = out.MoodDistribution[:n]
	}
	return &out
}
