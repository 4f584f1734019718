package app

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/cropflow/internal/crop"
	"github.com/blackwell-systems/cropflow/internal/output"
)

var importSheet string

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Load crop observations from CSV, JSON or XLSX",
	Long: `Import reads district-level crop observations and upserts them into the
local database. Files need the columns state_name, district_name, crop_year,
season, crop, area and production (area_ and production_ are accepted too).
Re-importing the same rows overwrites them.`,
	Example: `  cropflow import apy_2010.csv apy_2011.xlsx`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runImport,
}

func init() {
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "Worksheet to read from XLSX files (default: first)")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	w := cmd.OutOrStdout()
	total := 0
	for _, path := range args {
		var obs []crop.Observation
		if importSheet != "" && strings.HasSuffix(strings.ToLower(path), ".xlsx") {
			obs, err = crop.ParseXLSX(path, importSheet)
		} else {
			obs, err = crop.ParseFile(path)
		}
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		n, err := rt.db.InsertObservations(cmd.Context(), obs)
		if err != nil {
			return fmt.Errorf("importing %s: %w", path, err)
		}
		rt.logger.Debug("imported observations", "file", path, "parsed", len(obs), "stored", n)
		if !flagJSON {
			fmt.Fprintf(w, " %s %s %s\n", output.StyleSuccess.Render("✓"), path,
				output.StyleMuted.Render(fmt.Sprintf("%d observations", n)))
		}
		total += n
	}

	if flagJSON {
		return writeJSON(w, map[string]int{"imported": total})
	}
	fmt.Fprintf(w, "\n %s observations imported\n", output.StyleBold.Render(output.Tonnes(float64(total))))
	return nil
}
