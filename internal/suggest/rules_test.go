package suggest

import (
	"strings"
	"testing"

	"github.com/blackwell-systems/cropflow/internal/advisory"
	"github.com/blackwell-systems/cropflow/internal/analyzer"
)

// --- Note rules ---

func TestHighPriorityNote_Increasing(t *testing.T) {
	s := &Strategy{Priority: 85, PredictedYield: 4.256, PredictedProduction: 12_340_000, Trend: analyzer.TrendIncreasing}
	note, ok := HighPriorityNote(s)
	if !ok {
		t.Fatal("expected rule to apply")
	}
	if !strings.Contains(note, "4.26 tonnes/hectare") {
		t.Errorf("expected yield in note, got %q", note)
	}
	if !strings.Contains(note, "12.34M tonnes") {
		t.Errorf("expected production in note, got %q", note)
	}
	if !strings.Contains(note, "trending upward") {
		t.Errorf("expected trend in note, got %q", note)
	}
}

func TestHighPriorityNote_Boundary(t *testing.T) {
	if _, ok := HighPriorityNote(&Strategy{Priority: 70}); ok {
		t.Error("priority 70 is not high")
	}
}

func TestModeratePriorityNote(t *testing.T) {
	note, ok := ModeratePriorityNote(&Strategy{Priority: 55, PredictedProduction: 2_000_000, Trend: analyzer.TrendDecreasing})
	if !ok {
		t.Fatal("expected rule to apply")
	}
	if !strings.HasPrefix(note, "Moderate priority") || !strings.Contains(note, "declining") {
		t.Errorf("unexpected note %q", note)
	}
	if _, ok := ModeratePriorityNote(&Strategy{Priority: 40}); ok {
		t.Error("priority 40 is not moderate")
	}
}

func TestWriteNote_FallsThrough(t *testing.T) {
	note := writeNote(defaultNoteRules, &Strategy{Priority: 3, PredictedYield: 1.5, Trend: analyzer.TrendStable})
	if !strings.HasPrefix(note, "Consider evaluation: Yield of 1.50") {
		t.Errorf("unexpected note %q", note)
	}
}

// --- MergeAdvice ---

func TestMergeAdvice_CaseInsensitive(t *testing.T) {
	strategies := []Strategy{
		{Crop: "Rice", Season: "Kharif", Priority: 10, Notes: "rule"},
		{Crop: "Wheat", Season: "Rabi", Priority: 20, Notes: "rule"},
	}
	merged := MergeAdvice(strategies, []advisory.Advice{
		{Crop: "RICE", Season: " kharif", PriorityScore: 92.456, Recommendation: "Expand irrigated area."},
		{Crop: "Wheat", Season: "Kharif", PriorityScore: 50, Recommendation: "wrong season"},
	})
	if !merged {
		t.Fatal("expected a merge")
	}
	if strategies[0].Priority != 92.46 || strategies[0].Notes != "Expand irrigated area." || !strategies[0].Advised {
		t.Errorf("rice not overridden: %+v", strategies[0])
	}
	if strategies[1].Advised || strategies[1].Notes != "rule" {
		t.Errorf("wheat should keep rule-based values: %+v", strategies[1])
	}
}

func TestMergeAdvice_Empty(t *testing.T) {
	strategies := []Strategy{{Crop: "Rice"}}
	if MergeAdvice(strategies, nil) {
		t.Error("expected no merge without advice")
	}
}

// --- Scoring helpers ---

func TestEnvironmentalLabel(t *testing.T) {
	tests := []struct {
		km   float64
		want string
	}{
		{0, "High"},
		{499, "High"},
		{500, "Medium"},
		{799, "Medium"},
		{800, "Low"},
		{9999, "Low"},
	}
	for _, tc := range tests {
		if got := EnvironmentalLabel(tc.km); got != tc.want {
			t.Errorf("EnvironmentalLabel(%v) = %q, want %q", tc.km, got, tc.want)
		}
	}
}

func TestCostSavingPerTonne(t *testing.T) {
	if got := CostSavingPerTonne(300); got != 70 {
		t.Errorf("expected 70, got %v", got)
	}
	if got := CostSavingPerTonne(1500); got != 0 {
		t.Errorf("expected 0 beyond 1000km, got %v", got)
	}
}

func TestStrategyPriority_Capped(t *testing.T) {
	if got := StrategyPriority(5, 1e12); got != 100 {
		t.Errorf("expected cap at 100, got %v", got)
	}
	if got := StrategyPriority(2, 25e9); got != 50 {
		t.Errorf("expected 50, got %v", got)
	}
}

func TestTransactionPriority_ZeroDistance(t *testing.T) {
	if got := TransactionPriority(400, 0); got != 400_000 {
		t.Errorf("expected 1km floor, got %v", got)
	}
}
