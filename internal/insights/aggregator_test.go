package insights_test

import (
	"errors"
	"testing"
	"time"

	"github.com/lunalabs/luna/internal/dreams"
	"github.com/lunalabs/luna/internal/insights"
)

// fixed reference instant: Sunday 2026-08-30 12:00 UTC.
var now = time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

func rec(mutate func(*dreams.Record)) dreams.Record {
	r := dreams.Record{DreamText: "one two three", Timestamp: now}
	if mutate != nil {
		mutate(&r)
	}
	return r
}

func TestAggregateEmpty(t *testing.T) {
	if _, err := insights.Aggregate(nil, now); !errors.Is(err, insights.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestAggregateSentimentCounts(t *testing.T) {
	records := []dreams.Record{
		rec(func(r *dreams.Record) { r.Sentiment = dreams.SentimentPositive }),
		rec(func(r *dreams.Record) { r.Sentiment = dreams.SentimentPositive }),
		rec(func(r *dreams.Record) { r.Sentiment = dreams.SentimentNegative }),
		rec(nil), // no sentiment recorded
	}
	s, err := insights.Aggregate(records, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if s.TotalDreams != 4 {
		t.Errorf("TotalDreams = %d, want 4", s.TotalDreams)
	}
	sa := s.SentimentAnalysis
	if sa.Positive != 2 || sa.Negative != 1 || sa.Neutral != 0 {
		t.Errorf("sentiment = %+v, want {2 1 0}", sa)
	}
}

func TestAggregateTagFrequencyWithFirstAppearanceTieBreak(t *testing.T) {
	records := []dreams.Record{
		rec(func(r *dreams.Record) { r.Tags = []string{"a", "b"} }),
		rec(func(r *dreams.Record) { r.Tags = []string{"a"} }),
		rec(func(r *dreams.Record) { r.Tags = []string{"b", "c"} }),
	}
	s, err := insights.Aggregate(records, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}

	want := []insights.TagCount{{Tag: "a", Count: 2}, {Tag: "b", Count: 2}, {Tag: "c", Count: 1}}
	if len(s.CommonTags) != len(want) {
		t.Fatalf("CommonTags = %v, want %v", s.CommonTags, want)
	}
	for i, w := range want {
		if s.CommonTags[i] != w {
			t.Errorf("CommonTags[%d] = %v, want %v (ties keep first appearance)", i, s.CommonTags[i], w)
		}
	}
}

func TestAggregateClarity(t *testing.T) {
	c1, c2 := 4.0, 8.0
	records := []dreams.Record{
		rec(func(r *dreams.Record) { r.Clarity = &c1 }),
		rec(func(r *dreams.Record) { r.Clarity = &c2 }),
		rec(nil), // absent clarity excluded from the average
	}
	s, err := insights.Aggregate(records, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if s.AverageClarity < 5.999 || s.AverageClarity > 6.001 {
		t.Errorf("AverageClarity = %v, want 6", s.AverageClarity)
	}

	none, err := insights.Aggregate([]dreams.Record{rec(nil)}, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if none.AverageClarity != 0 {
		t.Errorf("AverageClarity with no clarity data = %v, want 0", none.AverageClarity)
	}
}

func TestAggregateRecentActivityWindows(t *testing.T) {
	records := []dreams.Record{
		rec(func(r *dreams.Record) { r.Timestamp = now.AddDate(0, 0, -1) }),  // both windows
		rec(func(r *dreams.Record) { r.Timestamp = now.AddDate(0, 0, -7) }),  // boundary, inclusive
		rec(func(r *dreams.Record) { r.Timestamp = now.AddDate(0, 0, -20) }), // 30-day only
		rec(func(r *dreams.Record) { r.Timestamp = now.AddDate(0, 0, -40) }), // outside both
	}
	s, err := insights.Aggregate(records, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if s.RecentActivity.Last7Days != 2 {
		t.Errorf("Last7Days = %d, want 2", s.RecentActivity.Last7Days)
	}
	if s.RecentActivity.Last30Days != 3 {
		t.Errorf("Last30Days = %d, want 3", s.RecentActivity.Last30Days)
	}
}

func TestAggregateDreamPatterns(t *testing.T) {
	monday := time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC)
	friday := time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	records := []dreams.Record{
		{DreamText: "abcdefgh", Timestamp: friday},     // 8 chars
		{DreamText: "abcd", Timestamp: monday},         // 4 chars
		{DreamText: "abcdefghijkl", Timestamp: monday}, // 12 chars
	}
	s, err := insights.Aggregate(records, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	p := s.DreamPatterns
	if p.MostActiveDay != "Monday" {
		t.Errorf("MostActiveDay = %q, want Monday", p.MostActiveDay)
	}
	if p.AverageDreamLength != 8 {
		t.Errorf("AverageDreamLength = %d, want 8", p.AverageDreamLength)
	}
	if p.LongestDream != 12 || p.ShortestDream != 4 {
		t.Errorf("longest/shortest = %d/%d, want 12/4", p.LongestDream, p.ShortestDream)
	}
}

func TestMostActiveDayTieBreaksMondayFirst(t *testing.T) {
	sunday := time.Date(2026, 8, 23, 8, 0, 0, 0, time.UTC)
	wednesday := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	records := []dreams.Record{
		{DreamText: "a", Timestamp: sunday},
		{DreamText: "b", Timestamp: wednesday},
	}
	s, err := insights.Aggregate(records, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	// Wednesday precedes Sunday in Monday-first week order.
	if s.DreamPatterns.MostActiveDay != "Wednesday" {
		t.Errorf("MostActiveDay = %q, want Wednesday", s.DreamPatterns.MostActiveDay)
	}
}

func TestBoundedCapsTables(t *testing.T) {
	var records []dreams.Record
	tags := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, tag := range tags {
		tag := tag
		records = append(records, rec(func(r *dreams.Record) { r.Tags = []string{tag} }))
	}
	s, err := insights.Aggregate(records, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	bounded := s.Bounded(5)
	if len(bounded.CommonTags) != 5 {
		t.Errorf("bounded tags = %d, want 5", len(bounded.CommonTags))
	}
	if len(s.CommonTags) != 7 {
		t.Errorf("original mutated by Bounded: %d tags", len(s.CommonTags))
	}
}
