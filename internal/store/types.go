// Package store provides SQLite persistence for crop observations, the
// interstate distance table and generated recommendations.
package store

import "time"

// timeFormat is used for every timestamp column.
const timeFormat = time.RFC3339

// StrategyRow is one persisted crop strategy for a region and crop year.
type StrategyRow struct {
	ID                  int64   `json:"id,omitempty"`
	Region              string  `json:"state_name"`
	CropYear            string  `json:"crop_year"`
	Crop                string  `json:"crop"`
	Season              string  `json:"season"`
	RecommendedArea     float64 `json:"recommended_area"`
	PredictedYield      float64 `json:"predicted_yield"`
	PredictedProduction float64 `json:"predicted_production"`
	PriorityScore       float64 `json:"priority_score"`
	Notes               string  `json:"strategy_notes"`
	Trend               string  `json:"historical_trend"`
	Predicted           bool    `json:"is_prediction"`
	Advised             bool    `json:"ai_powered"`
	CreatedAt           string  `json:"created_at,omitempty"`
}

// TransactionRow is one persisted whole-country trade recommendation.
// Cost and CO2 are nil when the distance was unknown.
type TransactionRow struct {
	ID            int64    `json:"id,omitempty"`
	CropYear      string   `json:"crop_year"`
	Crop          string   `json:"crop"`
	SurplusRegion string   `json:"surplus_state"`
	DeficitRegion string   `json:"deficit_state"`
	Quantity      float64  `json:"recommended_quantity"`
	Cost          *float64 `json:"estimated_cost"`
	CO2           *float64 `json:"estimated_co2"`
	DistanceKm    float64  `json:"distance_km"`
	DistanceKnown bool     `json:"distance_known"`
	PriorityScore float64  `json:"priority_score"`
	CreatedAt     string   `json:"created_at,omitempty"`
}

// DistanceRow is one stored distance between two regions.
type DistanceRow struct {
	RegionA    string  `json:"state_a"`
	RegionB    string  `json:"state_b"`
	DistanceKm float64 `json:"distance_km"`
	Source     string  `json:"source"`
	UpdatedAt  string  `json:"updated_at"`
}

// Coverage summarizes the observations held for one region.
type Coverage struct {
	Region    string `json:"state_name"`
	Records   int    `json:"records"`
	Crops     int    `json:"crops"`
	FirstYear int    `json:"first_year"`
	LastYear  int    `json:"last_year"`
}
