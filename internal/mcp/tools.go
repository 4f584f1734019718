package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/blackwell-systems/cropflow/internal/suggest"
)

// CoverageResult lists the regions with stored observations.
type CoverageResult struct {
	Regions []RegionCoverage `json:"regions"`
}

// RegionCoverage summarizes one region's observations.
type RegionCoverage struct {
	Region    string `json:"state_name"`
	Records   int    `json:"records"`
	Crops     int    `json:"crops"`
	FirstYear int    `json:"first_year"`
	LastYear  int    `json:"last_year"`
}

var (
	noArgsSchema      = json.RawMessage(`{"type":"object","properties":{},"additionalProperties":false}`)
	strategiesSchema  = json.RawMessage(`{"type":"object","properties":{"state_name":{"type":"string","description":"Region to plan for"},"crop_year":{"type":"string","description":"Crop year, e.g. 2015-16"},"crop":{"type":"string","description":"Optional crop filter (case-insensitive)"}},"required":["state_name","crop_year"],"additionalProperties":false}`)
	transactionSchema = json.RawMessage(`{"type":"object","properties":{"crop_year":{"type":"string","description":"Crop year, e.g. 2015-16"},"crop":{"type":"string","description":"Optional crop filter"}},"required":["crop_year"],"additionalProperties":false}`)
	tradeSchema       = json.RawMessage(`{"type":"object","properties":{"state_name":{"type":"string","description":"Region to analyze"},"crop_year":{"type":"string","description":"Crop year, e.g. 2015-16"}},"required":["state_name","crop_year"],"additionalProperties":false}`)
)

// toolArgs is the union of every tool's arguments.
type toolArgs struct {
	Region   string `json:"state_name"`
	CropYear string `json:"crop_year"`
	Crop     string `json:"crop"`
}

func parseArgs(args json.RawMessage) (toolArgs, error) {
	var a toolArgs
	if len(args) == 0 || string(args) == "null" {
		return a, nil
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return a, &suggest.RequestError{
			Reason:  suggest.ReasonInvalidRequest,
			Message: "arguments are not a valid object: " + err.Error(),
			Err:     suggest.ErrInvalidRequest,
		}
	}
	return a, nil
}

// addTools registers the MCP tool handlers on s.
func addTools(s *Server) {
	s.registerTool(toolDef{
		Name:        "generate_strategies",
		Description: "Ranked crop strategies for one region and crop year, forecast from history when the year has no data.",
		InputSchema: strategiesSchema,
		Handler:     s.handleGenerateStrategies,
	})
	s.registerTool(toolDef{
		Name:        "generate_transactions",
		Description: "Whole-country surplus to deficit trade recommendations for a crop year, nearest partners first.",
		InputSchema: transactionSchema,
		Handler:     s.handleGenerateTransactions,
	})
	s.registerTool(toolDef{
		Name:        "analyze_trade",
		Description: "Sell and buy opportunities for one region against every other region.",
		InputSchema: tradeSchema,
		Handler:     s.handleAnalyzeTrade,
	})
	if s.coverage != nil {
		s.registerTool(toolDef{
			Name:        "list_coverage",
			Description: "Regions with stored observations, their crop counts and year range.",
			InputSchema: noArgsSchema,
			Handler:     s.handleListCoverage,
		})
	}
}

func (s *Server) handleGenerateStrategies(ctx context.Context, args json.RawMessage) (any, error) {
	a, err := parseArgs(args)
	if err != nil {
		return nil, err
	}
	return s.engine.GenerateStrategies(ctx, a.Region, a.CropYear, a.Crop)
}

func (s *Server) handleGenerateTransactions(ctx context.Context, args json.RawMessage) (any, error) {
	a, err := parseArgs(args)
	if err != nil {
		return nil, err
	}
	return s.engine.GenerateTransactions(ctx, a.CropYear, a.Crop)
}

func (s *Server) handleAnalyzeTrade(ctx context.Context, args json.RawMessage) (any, error) {
	a, err := parseArgs(args)
	if err != nil {
		return nil, err
	}
	return s.engine.AnalyzeTrade(ctx, a.Region, a.CropYear)
}

func (s *Server) handleListCoverage(ctx context.Context, _ json.RawMessage) (any, error) {
	rows, err := s.coverage.Coverage(ctx)
	if err != nil {
		return nil, err
	}
	out := CoverageResult{Regions: make([]RegionCoverage, 0, len(rows))}
	for _, c := range rows {
		out.Regions = append(out.Regions, RegionCoverage(c))
	}
	return out, nil
}

// errorText renders a tool failure as a {error, reason} JSON object.
func errorText(err error) string {
	body := struct {
		Error  string         `json:"error"`
		Reason suggest.Reason `json:"reason"`
	}{Error: err.Error(), Reason: suggest.ReasonOf(err)}
	var re *suggest.RequestError
	if errors.As(err, &re) {
		body.Error = re.Message
	}
	data, merr := json.Marshal(body)
	if merr != nil {
		return err.Error()
	}
	return string(data)
}
