package suggest

import (
	"math"
	"sort"

	"github.com/blackwell-systems/cropflow/internal/distance"
)

// Transport and emission constants, per km per 1000 tonnes moved.
const (
	FuelCostPerKm = 8.5
	CO2PerKm      = 0.8
)

// Opportunity quantity policies.
const (
	SellFraction = 0.3
	BuyFraction  = 0.5
)

// Output caps.
const (
	MaxTransactions      = 20
	MaxStrategies        = 20
	OpportunitiesPerCrop = 3
)

// minDistanceKm floors the divisor of TransactionPriority.
const minDistanceKm = 1.0

// TransportCost estimates the cost of moving quantity tonnes over km.
func TransportCost(km, quantity float64) float64 {
	return km * FuelCostPerKm * (quantity / 1000)
}

// Emissions estimates the kg of CO2 emitted moving quantity tonnes over km.
func Emissions(km, quantity float64) float64 {
	return km * CO2PerKm * (quantity / 1000)
}

// TransactionPriority scores a whole-country transfer: large nearby
// transfers rank highest.
func TransactionPriority(quantity, km float64) float64 {
	if km < minDistanceKm {
		km = minDistanceKm
	}
	return quantity / km * 1000
}

// OpportunityPriority scores a sell or buy opportunity from the source
// region's relative deviation and the supplying side's yield and production.
func OpportunityPriority(magnitude, yield, production float64) float64 {
	return magnitude * yield * production / 1e6
}

// StrategyPriority is the rule-based 0-100 priority of a crop strategy.
func StrategyPriority(yield, production float64) float64 {
	return math.Min(100, yield*production/1e6/1000)
}

// EnvironmentalLabel buckets a distance into High, Medium or Low benefit.
func EnvironmentalLabel(km float64) string {
	switch {
	case km < 500:
		return "High"
	case km < 800:
		return "Medium"
	default:
		return "Low"
	}
}

// CostSavingPerTonne is a presentational per-tonne saving estimate.
func CostSavingPerTonne(km float64) float64 {
	return math.Max(0, 1000-km) / 10
}

// costs returns cost and CO2 for a known distance, or nils.
func costs(km, quantity float64, known bool) (*float64, *float64) {
	if !known {
		return nil, nil
	}
	c := round2(TransportCost(km, quantity))
	e := round2(Emissions(km, quantity))
	return &c, &e
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// RankTransactions sorts transactions by priority, highest first. Pairings
// with an unknown distance always follow those with a known one.
func RankTransactions(txs []Transaction) []Transaction {
	sorted := make([]Transaction, len(txs))
	copy(sorted, txs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.DistanceKnown != b.DistanceKnown {
			return a.DistanceKnown
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		if a.Crop != b.Crop {
			return a.Crop < b.Crop
		}
		if a.DeficitRegion != b.DeficitRegion {
			return a.DeficitRegion < b.DeficitRegion
		}
		return a.SurplusRegion < b.SurplusRegion
	})
	return sorted
}

// RankOpportunities sorts opportunities by ascending distance, unknown
// distances last.
func RankOpportunities(ops []Opportunity) []Opportunity {
	sorted := make([]Opportunity, len(ops))
	copy(sorted, ops)
	sort.SliceStable(sorted, func(i, j int) bool {
		return opportunityLess(sorted[i], sorted[j])
	})
	return sorted
}

func opportunityLess(a, b Opportunity) bool {
	if a.DistanceKnown != b.DistanceKnown {
		return a.DistanceKnown
	}
	if a.DistanceKm != b.DistanceKm {
		return a.DistanceKm < b.DistanceKm
	}
	if a.Crop != b.Crop {
		return a.Crop < b.Crop
	}
	return a.Partner < b.Partner
}

// candidate is a partner region with its resolved distance.
type candidate struct {
	region string
	km     float64
	known  bool
}

func sortCandidates(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].known != cs[j].known {
			return cs[i].known
		}
		if cs[i].km != cs[j].km {
			return cs[i].km < cs[j].km
		}
		return cs[i].region < cs[j].region
	})
}

func lookup(tbl *distance.Table, a, b string) candidate {
	km, known := tbl.Lookup(a, b)
	return candidate{region: b, km: km, known: known}
}
