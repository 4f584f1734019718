package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/cropflow/internal/analyzer"
	"github.com/blackwell-systems/cropflow/internal/crop"
	"github.com/blackwell-systems/cropflow/internal/output"
	"github.com/blackwell-systems/cropflow/internal/report"
)

var (
	fcRegion   string
	fcYear     string
	fcCrop     string
	fcBySeason bool
	fcChart    string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Inspect production forecasts",
	Long: `Forecast fits a least-squares trend to each of a region's crop series and
evaluates it at the requested crop year. Series with a single observation
grow by a fixed factor instead. Use --chart with --crop to render the series,
its trend line and the forecast point as a PNG.`,
	Example: `  cropflow forecast --region Punjab --year 2020-21
  cropflow forecast --region Punjab --year 2020-21 --crop Rice --chart rice.png`,
	RunE: runForecast,
}

func init() {
	forecastCmd.Flags().StringVar(&fcRegion, "region", "", "Region (state) name (required)")
	forecastCmd.Flags().StringVar(&fcYear, "year", "", "Target crop year, e.g. 2020-21 (required)")
	forecastCmd.Flags().StringVar(&fcCrop, "crop", "", "Only this crop")
	forecastCmd.Flags().BoolVar(&fcBySeason, "by-season", false, "Keep seasons as separate series")
	forecastCmd.Flags().StringVar(&fcChart, "chart", "", "Write a chart of the single matching series to this file")
	rootCmd.AddCommand(forecastCmd)
}

// forecastRow is one series projected to the target year.
type forecastRow struct {
	Key          analyzer.Key            `json:"key"`
	Observations int                     `json:"observations"`
	FirstYear    int                     `json:"first_year"`
	LastYear     int                     `json:"last_year"`
	Forecast     analyzer.ForecastResult `json:"forecast"`
}

func runForecast(cmd *cobra.Command, args []string) error {
	region := strings.TrimSpace(fcRegion)
	if region == "" {
		return fmt.Errorf("--region is required")
	}
	target := crop.YearStart(fcYear)
	if target <= 0 {
		return fmt.Errorf("--year must start with a year, got %q", fcYear)
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	obs, err := rt.db.QueryObservations(cmd.Context(), crop.Query{Region: region, Crop: fcCrop})
	if err != nil {
		return fmt.Errorf("querying observations: %w", err)
	}
	ss := analyzer.Aggregate(obs, fcBySeason)
	if ss.Len() == 0 {
		return fmt.Errorf("no observations for %s", region)
	}

	rows := make([]forecastRow, 0, ss.Len())
	for _, s := range ss.All() {
		rows = append(rows, forecastRow{
			Key:          s.Key,
			Observations: len(s.Points),
			FirstYear:    s.Points[0].Year,
			LastYear:     s.LastYear(),
			Forecast:     analyzer.ForecastSeries(s.Points, target),
		})
	}

	w := cmd.OutOrStdout()
	if fcChart != "" {
		if ss.Len() != 1 {
			return fmt.Errorf("--chart needs exactly one series, %d matched (narrow with --crop)", ss.Len())
		}
		p, err := report.ForecastChart(ss.All()[0], target)
		if err != nil {
			return err
		}
		if err := report.SaveChart(fcChart, p); err != nil {
			return err
		}
		rt.logger.Debug("chart written", "path", fcChart)
	}

	if flagJSON {
		return writeJSON(w, rows)
	}

	fmt.Fprintln(w, output.Section(fmt.Sprintf("Forecast: %s %s", region, crop.YearLabel(target))))
	tbl := output.NewTable("Crop", "Season", "Years", "Production (t)", "Area (ha)", "Yield", "Trend").AlignRight(3, 4, 5)
	for _, r := range rows {
		tbl.AddRow(r.Key.Crop, r.Key.Season,
			fmt.Sprintf("%d-%d (%d)", r.FirstYear, r.LastYear, r.Observations),
			output.Tonnes(r.Forecast.Production), output.Tonnes(r.Forecast.Area),
			fmt.Sprintf("%.2f", r.Forecast.Yield), output.TrendArrow(string(r.Forecast.Trend)))
	}
	tbl.Fprint(w)
	if fcChart != "" {
		fmt.Fprintf(w, "\n %s %s\n", output.StyleSuccess.Render("wrote"), fcChart)
	}
	return nil
}
