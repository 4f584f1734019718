package suggest

import (
	"fmt"
	"strings"

	"github.com/blackwell-systems/cropflow/internal/advisory"
	"github.com/blackwell-systems/cropflow/internal/analyzer"
)

// NoteRule writes the rationale for a strategy. It reports false when it
// does not apply, letting the next rule try.
type NoteRule func(s *Strategy) (string, bool)

// defaultNoteRules are evaluated in order; the last always applies.
var defaultNoteRules = []NoteRule{
	HighPriorityNote,
	ModeratePriorityNote,
	EvaluationNote,
}

// HighPriorityNote applies above a priority of 70.
func HighPriorityNote(s *Strategy) (string, bool) {
	if s.Priority <= 70 {
		return "", false
	}
	trend := "Maintain current practices."
	if s.Trend == analyzer.TrendIncreasing {
		trend = "Production is trending upward."
	}
	return fmt.Sprintf(
		"High priority: Excellent yield of %.2f tonnes/hectare with strong production of %.2fM tonnes. %s",
		s.PredictedYield, s.PredictedProduction/1e6, trend,
	), true
}

// ModeratePriorityNote applies above a priority of 40.
func ModeratePriorityNote(s *Strategy) (string, bool) {
	if s.Priority <= 40 {
		return "", false
	}
	note := fmt.Sprintf(
		"Moderate priority: Good yield potential with %.2fM tonnes production. Monitor and optimize growing conditions.",
		s.PredictedProduction/1e6,
	)
	if s.Trend == analyzer.TrendDecreasing {
		note += " Production has been declining."
	}
	return note, true
}

// EvaluationNote is the fallback for low-priority crops.
func EvaluationNote(s *Strategy) (string, bool) {
	note := fmt.Sprintf(
		"Consider evaluation: Yield of %.2f tonnes/hectare. Explore soil testing and improved farming techniques.",
		s.PredictedYield,
	)
	if s.Trend != analyzer.TrendStable && s.Trend != "" {
		note += fmt.Sprintf(" Historical trend is %s.", s.Trend)
	}
	return note, true
}

// writeNote applies the first matching rule.
func writeNote(rules []NoteRule, s *Strategy) string {
	for _, rule := range rules {
		if note, ok := rule(s); ok {
			return note
		}
	}
	return ""
}

// adviceKey matches advice to strategies case-insensitively on crop and season.
func adviceKey(cropName, season string) string {
	return strings.ToLower(strings.TrimSpace(cropName)) + "\x00" + strings.ToLower(strings.TrimSpace(season))
}

// MergeAdvice replaces the priority and note of every strategy covered by
// advice. Uncovered strategies keep their rule-based values. It reports
// whether any strategy was overridden.
func MergeAdvice(strategies []Strategy, advice []advisory.Advice) bool {
	if len(advice) == 0 {
		return false
	}
	byKey := make(map[string]advisory.Advice, len(advice))
	for _, a := range advice {
		k := adviceKey(a.Crop, a.Season)
		if _, dup := byKey[k]; !dup {
			byKey[k] = a
		}
	}

	merged := false
	for i := range strategies {
		a, ok := byKey[adviceKey(strategies[i].Crop, strategies[i].Season)]
		if !ok {
			continue
		}
		strategies[i].Priority = round2(a.PriorityScore)
		strategies[i].Notes = a.Recommendation
		strategies[i].Advised = true
		merged = true
	}
	return merged
}
