package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/cropflow/internal/crop"
	"github.com/blackwell-systems/cropflow/internal/output"
)

var (
	histRegion string
	histYear   string
	histCrop   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored recommendations and data coverage",
}

var historyStrategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List stored crop strategies for a region",
	RunE:  runHistoryStrategies,
}

var historyTransactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "List stored trade recommendations",
	RunE:  runHistoryTransactions,
}

var historyCoverageCmd = &cobra.Command{
	Use:   "coverage",
	Short: "Show which regions and years hold observations",
	RunE:  runHistoryCoverage,
}

func init() {
	historyStrategiesCmd.Flags().StringVar(&histRegion, "region", "", "Region (state) name (required)")
	historyStrategiesCmd.Flags().StringVar(&histYear, "year", "", "Only this crop year")
	historyTransactionsCmd.Flags().StringVar(&histYear, "year", "", "Only this crop year")
	historyTransactionsCmd.Flags().StringVar(&histCrop, "crop", "", "Only this crop")

	historyCmd.AddCommand(historyStrategiesCmd, historyTransactionsCmd, historyCoverageCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryStrategies(cmd *cobra.Command, args []string) error {
	if histRegion == "" {
		return fmt.Errorf("--region is required")
	}
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	rows, err := rt.db.ListStrategies(cmd.Context(), histRegion, histYear)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" no stored strategies"))
		return nil
	}
	tbl := output.NewTable("Year", "Crop", "Season", "Production (t)", "Priority", "Advised", "Created").AlignRight(3, 4)
	for _, r := range rows {
		advised := ""
		if r.Advised {
			advised = "yes"
		}
		tbl.AddRow(r.CropYear, r.Crop, r.Season, output.Tonnes(r.PredictedProduction),
			fmt.Sprintf("%.2f", r.PriorityScore), advised, r.CreatedAt)
	}
	tbl.Fprint(w)
	return nil
}

func runHistoryTransactions(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	rows, err := rt.db.ListTransactions(cmd.Context(), histYear, histCrop)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" no stored transactions"))
		return nil
	}
	tbl := output.NewTable("Year", "Crop", "From", "To", "Quantity (t)", "Distance", "Cost", "Priority").AlignRight(4, 5, 6, 7)
	for _, r := range rows {
		tbl.AddRow(r.CropYear, r.Crop, r.SurplusRegion, r.DeficitRegion, output.Tonnes(r.Quantity),
			output.Km(r.DistanceKm, r.DistanceKnown), output.Optional(r.Cost), fmt.Sprintf("%.2f", r.PriorityScore))
	}
	tbl.Fprint(w)
	return nil
}

func runHistoryCoverage(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	rows, err := rt.db.Coverage(cmd.Context())
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" no observations imported"))
		return nil
	}
	tbl := output.NewTable("Region", "Records", "Crops", "Years").AlignRight(1, 2)
	for _, c := range rows {
		tbl.AddRow(c.Region, output.Tonnes(float64(c.Records)), fmt.Sprint(c.Crops),
			fmt.Sprintf("%s to %s", crop.YearLabel(c.FirstYear), crop.YearLabel(c.LastYear)))
	}
	tbl.Fprint(w)
	return nil
}
