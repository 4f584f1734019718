package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/blackwell-systems/cropflow/internal/output"
	"github.com/blackwell-systems/cropflow/internal/report"
	"github.com/blackwell-systems/cropflow/internal/suggest"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderWarnings(w io.Writer, warnings []suggest.Warning) {
	for _, warn := range warnings {
		fmt.Fprintf(w, " %s %s\n", output.StyleWarning.Render("!"), output.StyleMuted.Render(warn.Message))
	}
}

func renderPersisted(w io.Writer, persisted bool) {
	if !persisted {
		fmt.Fprintln(w, output.StyleWarning.Render(" results were not saved"))
	}
}

func modeLabel(predicted bool) string {
	if predicted {
		return output.StyleWarning.Render("forecast")
	}
	return output.StyleSuccess.Render("actual")
}

func renderStrategies(w io.Writer, res *suggest.StrategyResult) {
	fmt.Fprintln(w, output.Section(fmt.Sprintf("Crop strategies: %s %s", res.Region, res.CropYear)))
	fmt.Fprintf(w, " %s  %s", modeLabel(res.Predicted), output.StyleMuted.Render(fmt.Sprintf("last observed %d", res.LastObserved)))
	if res.Advised {
		fmt.Fprintf(w, "  %s", output.StyleSuccess.Render("advised"))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w)

	if len(res.Strategies) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" "+res.Message))
		renderWarnings(w, res.Warnings)
		return
	}

	tbl := output.NewTable("#", "Crop", "Season", "Area (ha)", "Yield (t/ha)", "Production (t)", "Trend", "Priority").AlignRight(0, 3, 4, 5)
	for i, s := range res.Strategies {
		tbl.AddRow(
			fmt.Sprint(i+1), s.Crop, s.Season,
			output.Tonnes(s.RecommendedArea), fmt.Sprintf("%.2f", s.PredictedYield),
			output.Tonnes(s.PredictedProduction), output.TrendArrow(string(s.Trend)),
			output.ScoreBar(s.Priority, 10),
		)
	}
	tbl.Fprint(w)

	fmt.Fprintln(w, output.Section("Notes"))
	for i, s := range res.Strategies {
		fmt.Fprintf(w, " %2d. %s %s\n", i+1, output.StyleBold.Render(s.Crop), s.Notes)
	}
	fmt.Fprintln(w)
	renderWarnings(w, res.Warnings)
	renderPersisted(w, res.Persisted)
}

func renderTransactions(w io.Writer, res *suggest.TransactionResult) {
	title := "Trade recommendations: " + res.CropYear
	if res.Crop != "" {
		title += " (" + res.Crop + ")"
	}
	fmt.Fprintln(w, output.Section(title))
	fmt.Fprintf(w, " %s\n\n", modeLabel(res.Predicted))

	if len(res.Transactions) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" "+res.Message))
		renderWarnings(w, res.Warnings)
		return
	}

	tbl := output.NewTable("#", "Crop", "From", "To", "Quantity (t)", "Distance", "Cost", "CO2 (kg)", "Priority").AlignRight(0, 4, 5, 6, 7, 8)
	for i, tx := range res.Transactions {
		tbl.AddRow(
			fmt.Sprint(i+1), tx.Crop,
			output.StyleSuccess.Render(tx.SurplusRegion), output.StyleError.Render(tx.DeficitRegion),
			output.Tonnes(tx.Quantity), output.Km(tx.DistanceKm, tx.DistanceKnown),
			output.Optional(tx.Cost), output.Optional(tx.CO2),
			fmt.Sprintf("%.2f", tx.Priority),
		)
	}
	tbl.Fprint(w)
	fmt.Fprintln(w)
	renderWarnings(w, res.Warnings)
	renderPersisted(w, res.Persisted)
}

func renderTrade(w io.Writer, res *suggest.TradeAnalysis) {
	fmt.Fprintln(w, output.Section(fmt.Sprintf("Trade analysis: %s %s", res.Region, res.CropYear)))
	fmt.Fprintf(w, " %s\n", modeLabel(res.Predicted))
	if res.Message != "" {
		fmt.Fprintln(w, output.StyleMuted.Render(" "+res.Message))
	}

	for _, side := range []struct {
		title string
		ops   []suggest.Opportunity
	}{{"Sell", res.Sell}, {"Buy", res.Buy}} {
		fmt.Fprintln(w, output.Section(fmt.Sprintf("%s opportunities (%d)", side.title, len(side.ops))))
		if len(side.ops) == 0 {
			fmt.Fprintln(w, output.StyleMuted.Render(" none"))
			continue
		}
		tbl := output.NewTable("Crop", "Partner", "Quantity (t)", "Distance", "Cost", "Priority", "Benefit").AlignRight(2, 3, 4, 5)
		for _, op := range side.ops {
			tbl.AddRow(op.Crop, op.Partner, output.Tonnes(op.Quantity),
				output.Km(op.DistanceKm, op.DistanceKnown), output.Optional(op.Cost),
				fmt.Sprintf("%.2f", op.Priority), op.EnvironmentalBenefit)
		}
		tbl.Fprint(w)
	}
	fmt.Fprintln(w)
	renderWarnings(w, res.Warnings)
}

// exportXLSX writes sheets to path when path is set.
func exportXLSX(w io.Writer, path string, sheets ...report.Sheet) error {
	if path == "" {
		return nil
	}
	if err := report.SaveXLSX(path, sheets...); err != nil {
		return fmt.Errorf("exporting workbook: %w", err)
	}
	fmt.Fprintf(w, " %s %s\n", output.StyleSuccess.Render("wrote"), path)
	return nil
}
