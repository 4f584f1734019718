package suggest

import (
	"fmt"
	"math"
	"sort"

	"github.com/blackwell-systems/cropflow/internal/analyzer"
	"github.com/blackwell-systems/cropflow/internal/distance"
)

// OpportunityPairs lists the region pairs whose distances the sell and buy
// passes for source will need.
func OpportunityPairs(cls *analyzer.Classification, source string) []distance.Pair {
	var pairs []distance.Pair
	for _, name := range cls.Crops() {
		cc, _ := cls.Crop(name)
		var want analyzer.Label
		switch cc.Status(source).Label {
		case analyzer.LabelSurplus:
			want = analyzer.LabelDeficit
		case analyzer.LabelDeficit:
			want = analyzer.LabelSurplus
		default:
			continue
		}
		for _, rs := range cc.WithLabel(want) {
			if rs.Region != source {
				pairs = append(pairs, distance.NewPair(source, rs.Region))
			}
		}
	}
	return pairs
}

// SellPass returns, for every crop where source is in surplus, the nearest
// deficit regions (at most OpportunitiesPerCrop per crop), ordered by
// ascending distance.
func SellPass(cls *analyzer.Classification, source string, tbl *distance.Table) []Opportunity {
	var out []Opportunity
	for _, name := range cls.Crops() {
		cc, _ := cls.Crop(name)
		src := cc.Status(source)
		if src.Label != analyzer.LabelSurplus {
			continue
		}
		surplus := src.Excess(cc.Mean)
		quantity := math.Round(surplus * SellFraction)
		priority := OpportunityPriority(src.Magnitude(), src.Yield, src.Production)

		for _, c := range nearest(cc, source, analyzer.LabelDeficit, tbl) {
			out = append(out, opportunity(DirectionSell, name, c, quantity, priority,
				fmt.Sprintf("%s produces %.0fT of %s, which is %.0f%% above national average. %s produces below average.",
					source, src.Production, name, src.Deviation*100, c.region)))
		}
	}
	return RankOpportunities(out)
}

// BuyPass returns, for every crop where source is in deficit (including crops
// it does not grow at all), the nearest surplus regions, ordered by
// ascending distance.
func BuyPass(cls *analyzer.Classification, source string, tbl *distance.Table) []Opportunity {
	var out []Opportunity
	for _, name := range cls.Crops() {
		cc, _ := cls.Crop(name)
		src := cc.Status(source)
		if src.Label != analyzer.LabelDeficit {
			continue
		}
		deficit := -src.Excess(cc.Mean)
		quantity := math.Round(deficit * BuyFraction)

		for _, c := range nearest(cc, source, analyzer.LabelSurplus, tbl) {
			partner := cc.Status(c.region)
			priority := OpportunityPriority(src.Magnitude(), partner.Yield, partner.Production)
			out = append(out, opportunity(DirectionBuy, name, c, quantity, priority,
				fmt.Sprintf("%s produces %.0fT of %s, which is %.0f%% below national average. %s has surplus production.",
					source, src.Production, name, -src.Deviation*100, c.region)))
		}
	}
	return RankOpportunities(out)
}

// nearest returns up to OpportunitiesPerCrop regions other than source with
// the wanted label, nearest first.
func nearest(cc *analyzer.CropClass, source string, want analyzer.Label, tbl *distance.Table) []candidate {
	var cs []candidate
	for _, rs := range cc.WithLabel(want) {
		if rs.Region == source {
			continue
		}
		cs = append(cs, lookup(tbl, source, rs.Region))
	}
	sortCandidates(cs)
	if len(cs) > OpportunitiesPerCrop {
		cs = cs[:OpportunitiesPerCrop]
	}
	return cs
}

func opportunity(dir Direction, cropName string, c candidate, quantity, priority float64, reason string) Opportunity {
	cost, co2 := costs(c.km, quantity, c.known)
	op := Opportunity{
		Direction:     dir,
		Crop:          cropName,
		Partner:       c.region,
		DistanceKm:    c.km,
		DistanceKnown: c.known,
		Quantity:      quantity,
		Cost:          cost,
		CO2:           co2,
		Priority:      round2(priority),
		Reason:        reason,
		CostBenefit:   fmt.Sprintf("Saves approximately ₹%.0f per tonne in transportation costs", CostSavingPerTonne(c.km)),
	}
	if c.known {
		op.EnvironmentalBenefit = fmt.Sprintf("Reduces CO₂ emissions (%s impact due to %.0fkm distance)", EnvironmentalLabel(c.km), c.km)
	} else {
		op.EnvironmentalBenefit = fmt.Sprintf("Reduces CO₂ emissions (%s impact, distance unknown)", EnvironmentalLabel(c.km))
	}
	return op
}

// TransactionPairs lists every (surplus, deficit) region pair of every crop.
func TransactionPairs(cls *analyzer.Classification) []distance.Pair {
	var pairs []distance.Pair
	for _, name := range cls.Crops() {
		cc, _ := cls.Crop(name)
		surplus := cc.WithLabel(analyzer.LabelSurplus)
		for _, d := range cc.WithLabel(analyzer.LabelDeficit) {
			for _, s := range surplus {
				pairs = append(pairs, distance.NewPair(s.Region, d.Region))
			}
		}
	}
	return pairs
}

// MatchOptions controls whole-country matching.
type MatchOptions struct {
	// ConserveBalances decrements each surplus region's remaining excess as
	// it is pledged, so the same tonnes are never offered twice.
	ConserveBalances bool
	// Limit caps the ranked list; <= 0 means MaxTransactions.
	Limit int
}

// MatchTransactions picks, for every crop and every deficit region, the
// single surplus supplier with the highest priority, then ranks the
// resulting transactions and caps the list.
func MatchTransactions(cls *analyzer.Classification, tbl *distance.Table, cropYear string, opts MatchOptions) []Transaction {
	var out []Transaction
	for _, name := range cls.Crops() {
		cc, _ := cls.Crop(name)
		surplus := cc.WithLabel(analyzer.LabelSurplus)
		deficits := cc.WithLabel(analyzer.LabelDeficit)
		if len(surplus) == 0 || len(deficits) == 0 {
			continue
		}

		remaining := make(map[string]float64, len(surplus))
		for _, s := range surplus {
			remaining[s.Region] = s.Excess(cc.Mean)
		}
		if opts.ConserveBalances {
			// Largest shortfalls claim supply first.
			sort.SliceStable(deficits, func(i, j int) bool {
				return deficits[i].Production < deficits[j].Production
			})
		}

		for _, d := range deficits {
			shortfall := -d.Excess(cc.Mean)
			var best *Transaction
			for _, s := range surplus {
				excess := remaining[s.Region]
				if excess <= 0 {
					continue
				}
				c := lookup(tbl, d.Region, s.Region)
				quantity := math.Min(excess, shortfall)
				cost, co2 := costs(c.km, quantity, c.known)
				tx := Transaction{
					CropYear:         cropYear,
					Crop:             name,
					SurplusRegion:    s.Region,
					DeficitRegion:    d.Region,
					Quantity:         round2(quantity),
					Cost:             cost,
					CO2:              co2,
					DistanceKm:       c.km,
					DistanceKnown:    c.known,
					Priority:         round2(TransactionPriority(quantity, c.km)),
					SurplusExcess:    round2(s.Excess(cc.Mean)),
					DeficitShortfall: round2(shortfall),
				}
				if best == nil || betterSupplier(tx, *best) {
					best = &tx
				}
			}
			if best == nil {
				continue
			}
			if opts.ConserveBalances {
				remaining[best.SurplusRegion] -= math.Min(remaining[best.SurplusRegion], shortfall)
			}
			out = append(out, *best)
		}
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = MaxTransactions
	}
	ranked := RankTransactions(out)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

func betterSupplier(a, b Transaction) bool {
	if a.DistanceKnown != b.DistanceKnown {
		return a.DistanceKnown
	}
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if a.DistanceKm != b.DistanceKm {
		return a.DistanceKm < b.DistanceKm
	}
	return a.SurplusRegion < b.SurplusRegion
}
