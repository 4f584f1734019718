package app

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/cropflow/internal/report"
)

var (
	recRegion string
	recYear   string
	recCrop   string
	recXLSX   string
)

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "Rank crops for one region and crop year",
	Long: `Strategies ranks a region's crops by production times yield for the
requested crop year. Years beyond the latest observation are forecast from
history with a least-squares trend. Results replace any stored strategies for
the same region and year.`,
	Example: `  cropflow strategies --region Punjab --year 2016-17
  cropflow strategies --region Punjab --year 2016-17 --crop rice --xlsx punjab.xlsx`,
	RunE: runStrategies,
}

var transactionsCmd = &cobra.Command{
	Use:   "transactions",
	Short: "Match surplus and deficit regions country-wide",
	Long: `Transactions classifies every region as surplus, deficit or balanced per
crop and pairs each deficit region with its nearest surplus regions. The top
recommendations by priority replace any stored ones for the crop year.`,
	Example: `  cropflow transactions --year 2015-16
  cropflow transactions --year 2015-16 --crop Wheat --json`,
	RunE: runTransactions,
}

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Sell and buy opportunities for one region",
	Long: `Trade lists where a region can sell its surplus crops and buy the crops
it is short of, nearest partners first. Nothing is stored.`,
	Example: `  cropflow trade --region Bihar --year 2015-16`,
	RunE:    runTrade,
}

func init() {
	for _, c := range []*cobra.Command{strategiesCmd, transactionsCmd, tradeCmd} {
		c.Flags().StringVar(&recYear, "year", "", "Crop year, e.g. 2015-16 (required)")
		c.Flags().StringVar(&recXLSX, "xlsx", "", "Also export the results to this workbook")
		rootCmd.AddCommand(c)
	}
	strategiesCmd.Flags().StringVar(&recRegion, "region", "", "Region (state) name (required)")
	strategiesCmd.Flags().StringVar(&recCrop, "crop", "", "Only this crop")
	transactionsCmd.Flags().StringVar(&recCrop, "crop", "", "Only this crop")
	tradeCmd.Flags().StringVar(&recRegion, "region", "", "Region (state) name (required)")
}

func runStrategies(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.engine().GenerateStrategies(cmd.Context(), recRegion, recYear, recCrop)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, res)
	}
	renderStrategies(w, res)
	return exportXLSX(w, recXLSX, report.StrategySheet(res))
}

func runTransactions(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.engine().GenerateTransactions(cmd.Context(), recYear, recCrop)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, res)
	}
	renderTransactions(w, res)
	return exportXLSX(w, recXLSX, report.TransactionSheet(res))
}

func runTrade(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	res, err := rt.engine().AnalyzeTrade(cmd.Context(), recRegion, recYear)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, res)
	}
	renderTrade(w, res)
	return exportXLSX(w, recXLSX, report.TradeSheets(res)...)
}
