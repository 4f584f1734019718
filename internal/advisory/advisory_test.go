package advisory

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/blackwell-systems/cropflow/internal/analyzer"
)

func agg(cropName, season string, production, area float64) analyzer.CropAggregate {
	return analyzer.CropAggregate{
		Key:        analyzer.Key{Region: "Punjab", Crop: cropName, Season: season},
		Production: production,
		Area:       area,
		Yield:      analyzer.Yield(production, area),
		Trend:      analyzer.TrendStable,
	}
}

func TestParseAdvice_WrappedInProse(t *testing.T) {
	text := "Here you go:\n```json\n[{\"crop\":\"Rice\",\"season\":\"Kharif\",\"priority_score\":92,\"recommendation\":\"Expand.\"}," +
		"{\"crop\":\"\",\"season\":\"x\",\"priority_score\":1},{\"crop\":\"Wheat\",\"season\":\"Rabi\",\"priority_score\":140}]\n```\nThanks."
	advice, err := ParseAdvice(text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(advice) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(advice))
	}
	if advice[0].Crop != "Rice" || advice[0].PriorityScore != 92 {
		t.Errorf("unexpected first entry: %+v", advice[0])
	}
	if advice[1].PriorityScore != 100 {
		t.Errorf("expected clamped score 100, got %v", advice[1].PriorityScore)
	}
}

func TestParseAdvice_NoArray(t *testing.T) {
	if _, err := ParseAdvice("I cannot help with that."); err == nil {
		t.Fatal("expected error for reply without JSON array")
	}
	if _, err := ParseAdvice("[not json]"); err == nil {
		t.Fatal("expected error for malformed array")
	}
}

func TestTopCrops_OrdersAndFilters(t *testing.T) {
	top := TopCrops([]analyzer.CropAggregate{
		agg("Maize", "Kharif", 100, 50),
		agg("Rice", "Kharif", 1000, 250),
		agg("Fallow", "Rabi", 0, 0),
		agg("Wheat", "Rabi", 500, 100),
	}, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 crops, got %d", len(top))
	}
	if top[0].Crop != "Rice" || top[1].Crop != "Wheat" {
		t.Errorf("unexpected order: %s, %s", top[0].Crop, top[1].Crop)
	}
}

func TestBuildPrompt_ContainsMetrics(t *testing.T) {
	p := BuildPrompt([]analyzer.CropAggregate{agg("Rice", "Kharif", 2_500_000, 500_000)}, "Punjab", "2016-17")
	for _, want := range []string{"Punjab", "2016-17", "1. Rice (Kharif season)", "2.50 million tonnes", "500.00K hectares", "5.00 tonnes/hectare", "top 1 crops"} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestAdvise_CallsAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "secret" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") != claudeAPIVersion {
			t.Errorf("missing version header")
		}
		var req apiRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Model != DefaultModel || len(req.Messages) != 1 {
			t.Errorf("unexpected request: %+v", req)
		}
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"[{\"crop\":\"rice\",\"season\":\"KHARIF\",\"priority_score\":88,\"recommendation\":\"Keep going.\"}]"}]}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "secret", URL: srv.URL})
	advice, err := c.Advise(context.Background(), []analyzer.CropAggregate{agg("Rice", "Kharif", 1000, 250)}, "Punjab", "2016-17")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(advice) != 1 || advice[0].Recommendation != "Keep going." {
		t.Fatalf("unexpected advice: %+v", advice)
	}
}

func TestAdvise_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	c := NewClient(Options{APIKey: "secret", URL: srv.URL})
	_, err := c.Advise(context.Background(), []analyzer.CropAggregate{agg("Rice", "Kharif", 1000, 250)}, "Punjab", "2016-17")
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestAdvise_NoKey(t *testing.T) {
	_, err := NewClient(Options{}).Advise(context.Background(), nil, "Punjab", "2016-17")
	if err != ErrNoAPIKey {
		t.Fatalf("expected ErrNoAPIKey, got %v", err)
	}
}
