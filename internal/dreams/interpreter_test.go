package dreams_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lunalabs/luna/internal/dreams"
	"github.com/lunalabs/luna/pkg/client"
)

func TestAPIInterpreterUnwrapsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/interpret" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"interpretation":"a reading"}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	interp := dreams.NewAPIInterpreter(client.New(srv.URL))
	got, err := interp.Interpret(context.Background(), "I was flying")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if got != "a reading" {
		t.Errorf("interpretation = %q", got)
	}
}

func TestAPIInterpreterEmptyFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":{"interpretation":""}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	interp := dreams.NewAPIInterpreter(client.New(srv.URL))
	got, err := interp.Interpret(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Interpret: %v", err)
	}
	if got != "No interpretation received from the server" {
		t.Errorf("fallback = %q", got)
	}
}

func TestAPIInterpreterServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream model unavailable"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	interp := dreams.NewAPIInterpreter(client.New(srv.URL))
	if _, err := interp.Interpret(context.Background(), "anything"); err == nil {
		t.Fatal("expected error from 502 response")
	}
}

func TestAnalyzeRecognizesMotifs(t *testing.T) {
	a := dreams.Analyze("I was flying over the ocean under a bright sun")
	if a.Sentiment != dreams.SentimentPositive {
		t.Errorf("sentiment = %q, want positive", a.Sentiment)
	}
	if a.Interpretation == "" {
		t.Error("no interpretation produced")
	}
	if len(a.Tags) < 2 {
		t.Errorf("tags = %v, want flying and water at least", a.Tags)
	}
	// Three motifs (flying, water, light) put clarity well above the base.
	if a.Clarity != 8.5 {
		t.Errorf("clarity = %v, want 8.5", a.Clarity)
	}

	neg := dreams.Analyze("falling while being chased through a maze")
	if neg.Sentiment != dreams.SentimentNegative {
		t.Errorf("sentiment = %q, want negative", neg.Sentiment)
	}

	vivid := dreams.Analyze("flying and falling into water while chased, teeth gone, lost in a glowing house")
	if vivid.Clarity != 10 {
		t.Errorf("clarity = %v, want capped at 10", vivid.Clarity)
	}
}

func TestAnalyzeUnknownTextStillAnswers(t *testing.T) {
	a := dreams.Analyze("quantum spreadsheets hummed politely")
	if a.Interpretation == "" {
		t.Fatal("no fallback interpretation")
	}
	if a.Sentiment != dreams.SentimentNeutral {
		t.Errorf("fallback sentiment = %q, want neutral", a.Sentiment)
	}
	if a.Clarity != 4 {
		t.Errorf("clarity = %v, want base 4", a.Clarity)
	}
}
