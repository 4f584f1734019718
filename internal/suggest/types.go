// Package suggest matches surplus regions with deficit regions and produces
// the ranked trade and crop-strategy recommendations.
package suggest

import (
	"time"

	"github.com/blackwell-systems/cropflow/internal/analyzer"
)

// Direction is the side of an opportunity from the source region's view.
type Direction string

const (
	DirectionSell Direction = "sell"
	DirectionBuy  Direction = "buy"
)

// Warning records a degradation that did not fail the request.
type Warning struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

// Transaction is a recommended whole-country transfer of one crop from a
// surplus region to a deficit region. Cost and CO2 are nil when the
// distance between the regions is unknown.
type Transaction struct {
	CropYear         string   `json:"crop_year"`
	Crop             string   `json:"crop"`
	SurplusRegion    string   `json:"surplus_state"`
	DeficitRegion    string   `json:"deficit_state"`
	Quantity         float64  `json:"recommended_quantity"`
	Cost             *float64 `json:"estimated_cost"`
	CO2              *float64 `json:"estimated_co2"`
	DistanceKm       float64  `json:"distance_km"`
	DistanceKnown    bool     `json:"distance_known"`
	Priority         float64  `json:"priority_score"`
	SurplusExcess    float64  `json:"surplus_excess"`
	DeficitShortfall float64  `json:"deficit_shortfall"`
}

// Opportunity is one entry of a region's sell or buy list.
type Opportunity struct {
	Direction            Direction `json:"direction"`
	Crop                 string    `json:"crop"`
	Partner              string    `json:"partner_state"`
	DistanceKm           float64   `json:"distance_km"`
	DistanceKnown        bool      `json:"distance_known"`
	Quantity             float64   `json:"quantity"`
	Cost                 *float64  `json:"estimated_cost"`
	CO2                  *float64  `json:"estimated_co2"`
	Priority             float64   `json:"priority_score"`
	Reason               string    `json:"reason"`
	EnvironmentalBenefit string    `json:"environmental_benefit"`
	CostBenefit          string    `json:"cost_benefit"`
}

// Strategy is a ranked crop recommendation for one region.
type Strategy struct {
	Crop                string              `json:"crop"`
	Season              string              `json:"season"`
	RecommendedArea     float64             `json:"recommended_area"`
	PredictedYield      float64             `json:"predicted_yield"`
	PredictedProduction float64             `json:"predicted_production"`
	Priority            float64             `json:"priority_score"`
	Notes               string              `json:"strategy_notes"`
	Trend               analyzer.TrendLabel `json:"historical_trend"`
	Districts           int                 `json:"district_count"`
	Advised             bool                `json:"ai_powered"`
}

// StrategyResult is the output of GenerateStrategies.
type StrategyResult struct {
	Region       string     `json:"state_name"`
	CropYear     string     `json:"crop_year"`
	Crop         string     `json:"crop,omitempty"`
	Predicted    bool       `json:"is_prediction"`
	Advised      bool       `json:"ai_powered"`
	LastObserved int        `json:"last_observed_year,omitempty"`
	Count        int        `json:"strategies_count"`
	Strategies   []Strategy `json:"strategies"`
	Persisted    bool       `json:"persisted"`
	Warnings     []Warning  `json:"warnings,omitempty"`
	Message      string     `json:"message,omitempty"`
}

// TransactionResult is the output of GenerateTransactions.
type TransactionResult struct {
	CropYear     string        `json:"crop_year"`
	Crop         string        `json:"crop,omitempty"`
	Predicted    bool          `json:"is_prediction"`
	Count        int           `json:"recommendations_count"`
	Transactions []Transaction `json:"recommendations"`
	Persisted    bool          `json:"persisted"`
	Warnings     []Warning     `json:"warnings,omitempty"`
	Message      string        `json:"message,omitempty"`
}

// TradeAnalysis is the output of AnalyzeTrade.
type TradeAnalysis struct {
	Region       string        `json:"state_name"`
	CropYear     string        `json:"crop_year"`
	AnalysisDate time.Time     `json:"analysis_date"`
	Predicted    bool          `json:"is_prediction"`
	Sell         []Opportunity `json:"sell_recommendations"`
	Buy          []Opportunity `json:"buy_recommendations"`
	TotalSell    int           `json:"total_sell_opportunities"`
	TotalBuy     int           `json:"total_buy_opportunities"`
	Warnings     []Warning     `json:"warnings,omitempty"`
	Message      string        `json:"message,omitempty"`
}
