package suggest

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/blackwell-systems/cropflow/internal/advisory"
	"github.com/blackwell-systems/cropflow/internal/analyzer"
	"github.com/blackwell-systems/cropflow/internal/crop"
	"github.com/blackwell-systems/cropflow/internal/distance"
	"github.com/blackwell-systems/cropflow/internal/store"
)

// ObservationStore reads crop observations.
type ObservationStore interface {
	QueryObservations(ctx context.Context, q crop.Query) ([]crop.Observation, error)
}

// RecommendationStore replaces persisted recommendations for a scope.
type RecommendationStore interface {
	ReplaceStrategies(ctx context.Context, region, cropYear string, rows []store.StrategyRow) error
	ReplaceTransactions(ctx context.Context, cropYear, cropName string, rows []store.TransactionRow) error
}

// Advisor supplies optional per-crop overrides for strategies.
type Advisor interface {
	Advise(ctx context.Context, aggs []analyzer.CropAggregate, region, cropYear string) ([]advisory.Advice, error)
}

// Options tunes an Engine.
type Options struct {
	ConserveBalances bool
	TransactionLimit int
	StrategyLimit    int
	DistanceWorkers  int
	Logger           *slog.Logger
	Now              func() time.Time
	NoteRules        []NoteRule
}

// Engine computes recommendations from stored observations. It holds no
// per-request state and is safe for concurrent use.
type Engine struct {
	observations ObservationStore
	recs         RecommendationStore
	distances    distance.Provider
	advisor      Advisor
	opts         Options
	log          *slog.Logger
}

// NewEngine creates an engine. recs, distances and advisor may be nil: no
// persistence, all distances unknown and rule-based notes respectively.
func NewEngine(observations ObservationStore, recs RecommendationStore, distances distance.Provider, advisor Advisor, opts Options) *Engine {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.TransactionLimit <= 0 {
		opts.TransactionLimit = MaxTransactions
	}
	if opts.StrategyLimit <= 0 {
		opts.StrategyLimit = MaxStrategies
	}
	if len(opts.NoteRules) == 0 {
		opts.NoteRules = defaultNoteRules
	}
	return &Engine{
		observations: observations,
		recs:         recs,
		distances:    distances,
		advisor:      advisor,
		opts:         opts,
		log:          opts.Logger,
	}
}

// parseYear validates a crop-year parameter and returns its canonical label
// ("2010" and "2010-11" both become "2010-11") with the start year.
func parseYear(cropYear string) (string, int, error) {
	cropYear = strings.TrimSpace(cropYear)
	if cropYear == "" {
		return "", 0, missingParameter("crop_year is required")
	}
	start := crop.YearStart(cropYear)
	if start <= 0 {
		return "", 0, missingParameter("crop_year %q does not start with a year", cropYear)
	}
	return crop.YearLabel(start), start, nil
}

func (e *Engine) query(ctx context.Context, q crop.Query) ([]crop.Observation, error) {
	obs, err := e.observations.QueryObservations(ctx, q)
	if err != nil {
		return nil, &RequestError{Reason: ReasonInternal, Message: "querying observations failed", Err: err}
	}
	return obs, nil
}

// resolve looks up distances for pairs and reports failed lookups as a warning.
func (e *Engine) resolve(ctx context.Context, pairs []distance.Pair) (*distance.Table, []Warning) {
	if len(pairs) == 0 {
		return nil, nil
	}
	tbl := distance.NewResolver(e.distances, e.opts.DistanceWorkers, e.log).Resolve(ctx, pairs)
	var warnings []Warning
	if e.distances == nil {
		warnings = append(warnings, Warning{
			Reason:  ReasonProviderDegraded,
			Message: "no distance provider configured; all distances use the sentinel",
		})
	} else if deg := tbl.Degraded(); len(deg) > 0 {
		names := make([]string, len(deg))
		for i, p := range deg {
			names[i] = p.A + "–" + p.B
		}
		warnings = append(warnings, Warning{
			Reason:  ReasonProviderDegraded,
			Message: fmt.Sprintf("distance lookup failed for %d pair(s): %s", len(deg), strings.Join(names, ", ")),
		})
	}
	return tbl, warnings
}

// degenerateWarning counts aggregates excluded for zero yield or production.
func degenerateWarning(total, kept int) []Warning {
	if dropped := total - kept; dropped > 0 {
		return []Warning{{
			Reason:  ReasonArithmeticDegenerate,
			Message: fmt.Sprintf("%d crop aggregate(s) excluded for zero area, yield or production", dropped),
		}}
	}
	return nil
}

// GenerateStrategies ranks the crops of one region for a crop year. Years
// beyond the region's history are forecast from its trend. The result
// replaces any strategies stored for the same region and year.
func (e *Engine) GenerateStrategies(ctx context.Context, region, cropYear, cropName string) (*StrategyResult, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, missingParameter("state_name is required")
	}
	cropYear, target, err := parseYear(cropYear)
	if err != nil {
		return nil, err
	}
	cropName = strings.TrimSpace(cropName)

	res := &StrategyResult{Region: region, CropYear: cropYear, Crop: cropName, Strategies: []Strategy{}}

	obs, err := e.query(ctx, crop.Query{Region: region})
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		res.Message = fmt.Sprintf("no crop data found for %s", region)
		res.Warnings = append(res.Warnings, Warning{Reason: ReasonNoData, Message: res.Message})
		return res, nil
	}
	// Region lookups ignore case; results and stored rows use the stored name.
	region = obs[0].Region
	res.Region = region

	proj := analyzer.Project(analyzer.Aggregate(obs, true), target, cropYear)
	res.Predicted = proj.Predicted
	res.LastObserved = proj.LastObserved

	var candidates []analyzer.CropAggregate
	for _, a := range proj.Aggregates {
		if cropName != "" && !strings.EqualFold(a.Crop, cropName) {
			continue
		}
		candidates = append(candidates, a)
	}
	var valid []analyzer.CropAggregate
	for _, a := range candidates {
		if a.Rankable() {
			valid = append(valid, a)
		}
	}
	res.Warnings = append(res.Warnings, degenerateWarning(len(candidates), len(valid))...)

	sort.SliceStable(valid, func(i, j int) bool {
		si, sj := valid[i].Production*valid[i].Yield, valid[j].Production*valid[j].Yield
		if si != sj {
			return si > sj
		}
		return valid[i].Key.String() < valid[j].Key.String()
	})

	var advice []advisory.Advice
	if e.advisor != nil && len(valid) > 0 {
		advice, err = e.advisor.Advise(ctx, valid, region, cropYear)
		if err != nil {
			e.log.Warn("advisory unavailable, using rule-based notes", "region", region, "err", err)
			res.Warnings = append(res.Warnings, Warning{
				Reason:  ReasonProviderDegraded,
				Message: "advisory service unavailable; rule-based notes used",
			})
			advice = nil
		}
	}

	if len(valid) > e.opts.StrategyLimit {
		valid = valid[:e.opts.StrategyLimit]
	}
	for _, a := range valid {
		s := Strategy{
			Crop:                a.Crop,
			Season:              a.Season,
			RecommendedArea:     math.Round(a.Area),
			PredictedYield:      round2(a.Yield),
			PredictedProduction: math.Round(a.Production),
			Priority:            round2(StrategyPriority(a.Yield, a.Production)),
			Trend:               a.Trend,
			Districts:           a.Districts,
		}
		res.Strategies = append(res.Strategies, s)
	}
	res.Advised = MergeAdvice(res.Strategies, advice)
	for i := range res.Strategies {
		if !res.Strategies[i].Advised {
			res.Strategies[i].Notes = writeNote(e.opts.NoteRules, &res.Strategies[i])
		}
	}
	res.Count = len(res.Strategies)

	if e.recs != nil {
		if err := e.recs.ReplaceStrategies(ctx, region, cropYear, strategyRows(res)); err != nil {
			e.log.Error("persisting strategies failed", "region", region, "crop_year", cropYear, "err", err)
			res.Warnings = append(res.Warnings, Warning{Reason: ReasonPersistenceFailure, Message: err.Error()})
		} else {
			res.Persisted = true
		}
	}
	return res, nil
}

// GenerateTransactions recommends one supplier for every deficit region of
// every crop, country-wide, and replaces stored transactions for the year.
func (e *Engine) GenerateTransactions(ctx context.Context, cropYear, cropName string) (*TransactionResult, error) {
	cropYear, target, err := parseYear(cropYear)
	if err != nil {
		return nil, err
	}
	cropName = strings.TrimSpace(cropName)
	res := &TransactionResult{CropYear: cropYear, Crop: cropName, Transactions: []Transaction{}}

	obs, err := e.query(ctx, crop.Query{Crop: cropName})
	if err != nil {
		return nil, err
	}
	if len(obs) == 0 {
		res.Message = "no crop data found"
		if cropName != "" {
			res.Message += " for " + cropName
		}
		res.Warnings = append(res.Warnings, Warning{Reason: ReasonNoData, Message: res.Message})
		return res, nil
	}

	proj := analyzer.Project(analyzer.Aggregate(obs, false), target, cropYear)
	res.Predicted = proj.Predicted
	if len(proj.Aggregates) == 0 {
		res.Message = fmt.Sprintf("no production recorded for %s", cropYear)
		res.Warnings = append(res.Warnings, Warning{Reason: ReasonNoData, Message: res.Message})
		return res, nil
	}

	cls := analyzer.Classify(proj.Aggregates)
	tbl, warnings := e.resolve(ctx, TransactionPairs(cls))
	res.Warnings = append(res.Warnings, warnings...)

	res.Transactions = MatchTransactions(cls, tbl, cropYear, MatchOptions{
		ConserveBalances: e.opts.ConserveBalances,
		Limit:            e.opts.TransactionLimit,
	})
	res.Count = len(res.Transactions)

	if e.recs != nil {
		if err := e.recs.ReplaceTransactions(ctx, cropYear, cropName, transactionRows(res.Transactions)); err != nil {
			e.log.Error("persisting transactions failed", "crop_year", cropYear, "err", err)
			res.Warnings = append(res.Warnings, Warning{Reason: ReasonPersistenceFailure, Message: err.Error()})
		} else {
			res.Persisted = true
		}
	}
	return res, nil
}

// AnalyzeTrade lists the nearest sell and buy partners of one region for a
// crop year. Nothing is persisted.
func (e *Engine) AnalyzeTrade(ctx context.Context, region, cropYear string) (*TradeAnalysis, error) {
	region = strings.TrimSpace(region)
	if region == "" {
		return nil, missingParameter("state_name is required")
	}
	cropYear, target, err := parseYear(cropYear)
	if err != nil {
		return nil, err
	}
	res := &TradeAnalysis{
		Region:       region,
		CropYear:     cropYear,
		AnalysisDate: e.opts.Now().UTC(),
		Sell:         []Opportunity{},
		Buy:          []Opportunity{},
	}

	obs, err := e.query(ctx, crop.Query{})
	if err != nil {
		return nil, err
	}
	proj := analyzer.Project(analyzer.Aggregate(obs, false), target, cropYear)
	res.Predicted = proj.Predicted

	hasSource := false
	for _, a := range proj.Aggregates {
		if strings.EqualFold(a.Region, region) {
			region, hasSource = a.Region, true
			break
		}
	}
	if !hasSource {
		res.Message = fmt.Sprintf("no data found for %s in %s", region, cropYear)
		res.Warnings = append(res.Warnings, Warning{Reason: ReasonNoData, Message: res.Message})
		return res, nil
	}
	res.Region = region

	cls := analyzer.Classify(proj.Aggregates)
	tbl, warnings := e.resolve(ctx, OpportunityPairs(cls, region))
	res.Warnings = append(res.Warnings, warnings...)

	res.Sell = SellPass(cls, region, tbl)
	res.Buy = BuyPass(cls, region, tbl)
	res.TotalSell = len(res.Sell)
	res.TotalBuy = len(res.Buy)
	return res, nil
}

func strategyRows(res *StrategyResult) []store.StrategyRow {
	rows := make([]store.StrategyRow, len(res.Strategies))
	for i, s := range res.Strategies {
		rows[i] = store.StrategyRow{
			Region:              res.Region,
			CropYear:            res.CropYear,
			Crop:                s.Crop,
			Season:              s.Season,
			RecommendedArea:     s.RecommendedArea,
			PredictedYield:      s.PredictedYield,
			PredictedProduction: s.PredictedProduction,
			PriorityScore:       s.Priority,
			Notes:               s.Notes,
			Trend:               string(s.Trend),
			Predicted:           res.Predicted,
			Advised:             s.Advised,
		}
	}
	return rows
}

func transactionRows(txs []Transaction) []store.TransactionRow {
	rows := make([]store.TransactionRow, len(txs))
	for i, t := range txs {
		rows[i] = store.TransactionRow{
			CropYear:      t.CropYear,
			Crop:          t.Crop,
			SurplusRegion: t.SurplusRegion,
			DeficitRegion: t.DeficitRegion,
			Quantity:      t.Quantity,
			Cost:          t.Cost,
			CO2:           t.CO2,
			DistanceKm:    t.DistanceKm,
			DistanceKnown: t.DistanceKnown,
			PriorityScore: t.Priority,
		}
	}
	return rows
}
