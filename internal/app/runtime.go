package app

import (
	"fmt"
	"log/slog"

	"github.com/blackwell-systems/cropflow/internal/advisory"
	"github.com/blackwell-systems/cropflow/internal/config"
	"github.com/blackwell-systems/cropflow/internal/distance"
	"github.com/blackwell-systems/cropflow/internal/store"
	"github.com/blackwell-systems/cropflow/internal/suggest"
)

// runtime bundles the dependencies shared by the commands.
type runtime struct {
	cfg       *config.Config
	db        *store.DB
	maps      *distance.MapsClient
	distances distance.Provider
	advisor   suggest.Advisor
	logger    *slog.Logger
}

// openRuntime loads configuration and opens the database.
func openRuntime() (*runtime, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	db, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	rt := &runtime{cfg: cfg, db: db, logger: slog.Default()}

	// The stored table answers first; the maps service fills the gaps.
	chain := distance.Chain{db}
	if cfg.Distance.MapsAPIKey != "" {
		rt.maps = distance.NewMapsClient(cfg.Distance.MapsAPIKey, cfg.Distance.MapsURL, cfg.Distance.Timeout)
		chain = append(chain, rt.maps)
	}
	rt.distances = chain

	if cfg.Advisory.Enabled && cfg.Advisory.APIKey != "" {
		rt.advisor = advisory.NewClient(advisory.Options{
			APIKey:  cfg.Advisory.APIKey,
			Model:   cfg.Advisory.Model,
			URL:     cfg.Advisory.URL,
			TopN:    cfg.Advisory.TopN,
			Timeout: cfg.Advisory.Timeout,
		})
	}
	return rt, nil
}

// engine builds a recommendation engine over the runtime.
func (rt *runtime) engine() *suggest.Engine {
	return suggest.NewEngine(rt.db, rt.db, rt.distances, rt.advisor, suggest.Options{
		ConserveBalances: rt.cfg.Matching.ConserveBalances,
		TransactionLimit: rt.cfg.Matching.TransactionLimit,
		StrategyLimit:    rt.cfg.Matching.StrategyLimit,
		DistanceWorkers:  rt.cfg.Distance.Concurrency,
		Logger:           rt.logger,
	})
}

func (rt *runtime) Close() error {
	return rt.db.Close()
}
