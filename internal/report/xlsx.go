// Package report exports recommendation results as spreadsheets and renders
// production forecast charts.
package report

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/blackwell-systems/cropflow/internal/suggest"
)

// Sheet is one worksheet of an export.
type Sheet struct {
	Name    string
	Headers []string
	Rows    [][]any
}

// WriteXLSX writes the sheets as a workbook to w. At least one sheet is
// required.
func WriteXLSX(w io.Writer, sheets ...Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("no sheets to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", s.Name); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", s.Name, err)
		}

		for col, h := range s.Headers {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := f.SetCellValue(s.Name, cell, h); err != nil {
				return err
			}
		}
		if len(s.Headers) > 0 {
			last, _ := excelize.CoordinatesToCellName(len(s.Headers), 1)
			if err := f.SetCellStyle(s.Name, "A1", last, bold); err != nil {
				return err
			}
		}
		for r, row := range s.Rows {
			for col, v := range row {
				cell, _ := excelize.CoordinatesToCellName(col+1, r+2)
				if err := f.SetCellValue(s.Name, cell, v); err != nil {
					return err
				}
			}
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// SaveXLSX writes the sheets to a file at path.
func SaveXLSX(path string, sheets ...Sheet) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteXLSX(out, sheets...); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// StrategySheet tabulates a region's crop strategies.
func StrategySheet(res *suggest.StrategyResult) Sheet {
	s := Sheet{
		Name: "Strategies",
		Headers: []string{"Rank", "Crop", "Season", "Recommended Area (ha)", "Predicted Yield (t/ha)",
			"Predicted Production (t)", "Priority", "Trend", "Advised", "Notes"},
	}
	for i, st := range res.Strategies {
		s.Rows = append(s.Rows, []any{
			i + 1, st.Crop, st.Season, st.RecommendedArea, st.PredictedYield,
			st.PredictedProduction, st.Priority, string(st.Trend), st.Advised, st.Notes,
		})
	}
	return s
}

// TransactionSheet tabulates whole-country transactions.
func TransactionSheet(res *suggest.TransactionResult) Sheet {
	s := Sheet{
		Name: "Transactions",
		Headers: []string{"Rank", "Crop", "Surplus Region", "Deficit Region", "Quantity (t)",
			"Distance (km)", "Cost", "CO2 (kg)", "Priority"},
	}
	for i, tx := range res.Transactions {
		s.Rows = append(s.Rows, []any{
			i + 1, tx.Crop, tx.SurplusRegion, tx.DeficitRegion, tx.Quantity,
			distanceCell(tx.DistanceKm, tx.DistanceKnown), optionalCell(tx.Cost), optionalCell(tx.CO2), tx.Priority,
		})
	}
	return s
}

// TradeSheets tabulates a region's sell and buy opportunities.
func TradeSheets(res *suggest.TradeAnalysis) []Sheet {
	return []Sheet{
		opportunitySheet("Sell", res.Sell),
		opportunitySheet("Buy", res.Buy),
	}
}

func opportunitySheet(name string, ops []suggest.Opportunity) Sheet {
	s := Sheet{
		Name: name,
		Headers: []string{"Crop", "Partner", "Quantity (t)", "Distance (km)", "Cost", "CO2 (kg)",
			"Priority", "Reason", "Environmental Benefit", "Cost Benefit"},
	}
	for _, op := range ops {
		s.Rows = append(s.Rows, []any{
			op.Crop, op.Partner, op.Quantity, distanceCell(op.DistanceKm, op.DistanceKnown),
			optionalCell(op.Cost), optionalCell(op.CO2), op.Priority, op.Reason,
			op.EnvironmentalBenefit, op.CostBenefit,
		})
	}
	return s
}

func distanceCell(km float64, known bool) any {
	if !known {
		return "unknown"
	}
	return km
}

func optionalCell(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}
