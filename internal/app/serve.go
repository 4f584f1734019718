package app

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/cropflow/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the recommendation engine over HTTP:

  POST /api/strategies     {"state_name", "crop_year", "crop"}
  POST /api/transactions   {"crop_year", "crop"}
  POST /api/trade          {"state_name", "crop_year"}
  GET  /api/distance       ?state_from=&state_to=
  GET  /api/history/...    stored strategies and transactions
  GET  /healthz

Errors are returned as {"error", "reason"}.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	addr := serveAddr
	if addr == "" {
		addr = rt.cfg.Server.Addr
	}

	opts := server.Options{
		Distances:      rt.distances,
		History:        rt.db,
		AllowedOrigins: rt.cfg.Server.AllowedOrigins,
		Logger:         rt.logger,
	}
	if rt.maps != nil {
		opts.Routes = rt.maps
	}
	return server.New(rt.engine(), opts).ListenAndServe(cmd.Context(), addr)
}
