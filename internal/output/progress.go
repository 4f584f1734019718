package output

import (
	"fmt"
	"strings"
)

// ScoreBar renders a visual bar for a 0-100 priority score.
// Example: "████████░░ 80/100"
func ScoreBar(score float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int((score / 100.0) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	var style func(string) string
	switch {
	case score > 70:
		style = func(s string) string { return StyleSuccess.Render(s) }
	case score > 40:
		style = func(s string) string { return StyleWarning.Render(s) }
	default:
		style = func(s string) string { return StyleMuted.Render(s) }
	}

	return fmt.Sprintf("%s %s", style(bar), StyleMuted.Render(fmt.Sprintf("%.0f/100", score)))
}

// TrendArrow returns a styled indicator for a production trend label.
func TrendArrow(trend string) string {
	switch strings.ToLower(trend) {
	case "increasing":
		return StyleSuccess.Render("▲ " + trend)
	case "decreasing":
		return StyleError.Render("▼ " + trend)
	case "":
		return StyleMuted.Render("─")
	default:
		return StyleMuted.Render("─ " + trend)
	}
}

// StatusBadge colors a surplus/deficit classification label.
func StatusBadge(label string) string {
	switch strings.ToLower(label) {
	case "surplus":
		return StyleSuccess.Render(label)
	case "deficit":
		return StyleError.Render(label)
	default:
		return StyleMuted.Render(label)
	}
}

// Tonnes formats a quantity with thousands separators.
func Tonnes(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	whole := fmt.Sprintf("%.0f", v)
	var sb strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}
	if neg {
		return "-" + sb.String()
	}
	return sb.String()
}

// Km formats a distance, rendering unknown distances as "unknown".
func Km(km float64, known bool) string {
	if !known {
		return StyleMuted.Render("unknown")
	}
	return fmt.Sprintf("%.0f km", km)
}

// Optional formats a nullable figure with two decimals, or "n/a".
func Optional(v *float64) string {
	if v == nil {
		return StyleMuted.Render("n/a")
	}
	return fmt.Sprintf("%.2f", *v)
}

// Section prints a styled section header with a horizontal rule.
func Section(title string) string {
	header := StyleHeader.Render(title)
	rule := StyleMuted.Render(strings.Repeat("─", 66))
	return fmt.Sprintf("\n %s\n %s", header, rule)
}
