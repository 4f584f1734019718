package analyzer

// CropAggregate is the production of one key in a target crop year, either
// observed or forecast.
type CropAggregate struct {
	Key
	CropYear   string     `json:"crop_year"`
	Production float64    `json:"total_production"`
	Area       float64    `json:"total_area"`
	Yield      float64    `json:"avg_yield"`
	Districts  int        `json:"district_count"`
	Trend      TrendLabel `json:"historical_trend"`
	Predicted  bool       `json:"predicted"`
}

// Rankable reports whether the aggregate has positive production and yield.
// Zero-area aggregates have zero yield and are never ranked.
func (a CropAggregate) Rankable() bool {
	return a.Production > 0 && a.Yield > 0
}

// Projection is the set of aggregates for one target year.
type Projection struct {
	Target       int             `json:"target_year"`
	CropYear     string          `json:"crop_year"`
	LastObserved int             `json:"last_observed_year"`
	Predicted    bool            `json:"is_prediction"`
	Aggregates   []CropAggregate `json:"aggregates"`
}

// Project builds aggregates for the target year. When the target lies beyond
// the latest year observed anywhere in the set, every series is forecast;
// otherwise each series contributes its actual sums for the target year and
// series without data in that year are absent. Empty forecasts are dropped.
func Project(ss *SeriesSet, target int, cropYear string) Projection {
	p := Projection{
		Target:       target,
		CropYear:     cropYear,
		LastObserved: ss.LastYear(),
	}
	if ss.Len() == 0 {
		return p
	}
	p.Predicted = target > p.LastObserved

	for _, s := range ss.All() {
		if p.Predicted {
			if len(s.Points) == 0 {
				continue
			}
			fr := ForecastSeries(s.Points, target)
			if fr.Production <= 0 && fr.Area <= 0 {
				continue
			}
			p.Aggregates = append(p.Aggregates, CropAggregate{
				Key:        s.Key,
				CropYear:   cropYear,
				Production: fr.Production,
				Area:       fr.Area,
				Yield:      fr.Yield,
				Districts:  s.Districts,
				Trend:      fr.Trend,
				Predicted:  true,
			})
			continue
		}

		pt, ok := s.At(target)
		if !ok {
			continue
		}
		p.Aggregates = append(p.Aggregates, CropAggregate{
			Key:        s.Key,
			CropYear:   pt.CropYear,
			Production: pt.Production,
			Area:       pt.Area,
			Yield:      Yield(pt.Production, pt.Area),
			Districts:  pt.Districts,
			Trend:      Trend(s.Until(target)),
		})
	}
	return p
}
