package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/cropflow/internal/distance"
	"github.com/blackwell-systems/cropflow/internal/output"
)

var (
	distSource string
	distRegion string
	distLive   bool
	distSave   bool
)

var distancesCmd = &cobra.Command{
	Use:   "distances",
	Short: "Manage the interstate distance table",
}

var distancesImportCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Load distances from a CSV with state_from, state_to, distance_km",
	Args:  cobra.ExactArgs(1),
	RunE:  runDistancesImport,
}

var distancesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored distances",
	RunE:  runDistancesList,
}

var distancesGetCmd = &cobra.Command{
	Use:   "get <from> <to>",
	Short: "Look up the distance between two regions",
	Long: `Get returns the stored distance between two regions. With --live the
maps service is asked for the road distance between the regions' capitals,
and --save stores the answer for later requests.`,
	Args: cobra.ExactArgs(2),
	RunE: runDistancesGet,
}

func init() {
	distancesImportCmd.Flags().StringVar(&distSource, "source", "import", "Source label stored with each distance")
	distancesListCmd.Flags().StringVar(&distRegion, "region", "", "Only pairs including this region")
	distancesGetCmd.Flags().BoolVar(&distLive, "live", false, "Query the maps service")
	distancesGetCmd.Flags().BoolVar(&distSave, "save", false, "Store a live answer in the table")

	distancesCmd.AddCommand(distancesImportCmd, distancesListCmd, distancesGetCmd)
	rootCmd.AddCommand(distancesCmd)
}

func runDistancesImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	facts, err := distance.ParseCSV(f)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	n, err := rt.db.UpsertDistances(cmd.Context(), facts, distSource)
	if err != nil {
		return fmt.Errorf("storing distances: %w", err)
	}
	if flagJSON {
		return writeJSON(cmd.OutOrStdout(), map[string]int{"imported": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), " %s %d distances stored\n", output.StyleSuccess.Render("✓"), n)
	return nil
}

func runDistancesList(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	rows, err := rt.db.ListDistances(cmd.Context(), distRegion)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if flagJSON {
		return writeJSON(w, rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, output.StyleMuted.Render(" no distances stored"))
		return nil
	}
	tbl := output.NewTable("From", "To", "Distance", "Source", "Updated").AlignRight(2)
	for _, r := range rows {
		tbl.AddRow(r.RegionA, r.RegionB, output.Km(r.DistanceKm, true), r.Source, r.UpdatedAt)
	}
	tbl.Fprint(w)
	return nil
}

func runDistancesGet(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	from, to := args[0], args[1]
	ctx := cmd.Context()
	w := cmd.OutOrStdout()

	var route *distance.Route
	if distLive {
		if rt.maps == nil {
			return fmt.Errorf("--live needs distance.maps_api_key: %w", distance.ErrNotConfigured)
		}
		route, err = rt.maps.Route(ctx, from, to)
		if err != nil {
			return err
		}
		if distSave {
			if _, err := rt.db.UpsertDistances(ctx, []distance.Fact{{From: from, To: to, Km: route.DistanceKm}}, "maps"); err != nil {
				return fmt.Errorf("storing distance: %w", err)
			}
		}
	} else {
		km, err := rt.distances.Distance(ctx, from, to)
		if errors.Is(err, distance.ErrUnknownPair) {
			return fmt.Errorf("no distance known between %s and %s", from, to)
		}
		if err != nil {
			return err
		}
		route = &distance.Route{Origin: from, Destination: to, DistanceKm: km}
	}

	if flagJSON {
		return writeJSON(w, route)
	}
	fmt.Fprintf(w, " %s → %s  %s", route.Origin, route.Destination, output.StyleBold.Render(output.Km(route.DistanceKm, true)))
	if route.DurationText != "" {
		fmt.Fprintf(w, "  %s", output.StyleMuted.Render(route.DurationText))
	}
	fmt.Fprintln(w)
	return nil
}
