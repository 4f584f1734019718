// Package analyzer provides the historical aggregation, trend forecasting and
// surplus/deficit classification of crop production data.
package analyzer

import (
	"sort"

	"github.com/blackwell-systems/cropflow/internal/crop"
)

// Key identifies one production series. Season is empty when the series
// spans all seasons of a crop.
type Key struct {
	Region string `json:"region"`
	Crop   string `json:"crop"`
	Season string `json:"season,omitempty"`
}

// KeyOf builds the grouping key for an observation.
func KeyOf(o crop.Observation, withSeason bool) Key {
	k := Key{Region: o.Region, Crop: o.Crop}
	if withSeason {
		k.Season = o.Season
	}
	return k
}

// String renders the key as "region/crop[/season]".
func (k Key) String() string {
	if k.Season == "" {
		return k.Region + "/" + k.Crop
	}
	return k.Region + "/" + k.Crop + "/" + k.Season
}

func (k Key) less(o Key) bool {
	if k.Region != o.Region {
		return k.Region < o.Region
	}
	if k.Crop != o.Crop {
		return k.Crop < o.Crop
	}
	return k.Season < o.Season
}

// SeriesPoint is the summed production and area of one key in one crop year.
type SeriesPoint struct {
	CropYear   string  `json:"crop_year"`
	Year       int     `json:"year"`
	Production float64 `json:"production"`
	Area       float64 `json:"area"`
	Records    int     `json:"records"`
	Districts  int     `json:"districts"`
}

// Series is the year-ordered history of one key.
type Series struct {
	Key       Key           `json:"key"`
	Points    []SeriesPoint `json:"points"`
	Records   int           `json:"records"`
	Districts int           `json:"districts"`
}

// LastYear returns the latest observed start year, or 0 for an empty series.
func (s *Series) LastYear() int {
	if len(s.Points) == 0 {
		return 0
	}
	return s.Points[len(s.Points)-1].Year
}

// At returns the point observed in the given start year.
func (s *Series) At(year int) (SeriesPoint, bool) {
	i := sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Year >= year })
	if i < len(s.Points) && s.Points[i].Year == year {
		return s.Points[i], true
	}
	return SeriesPoint{}, false
}

// Until returns the points observed up to and including the given year.
func (s *Series) Until(year int) []SeriesPoint {
	i := sort.Search(len(s.Points), func(i int) bool { return s.Points[i].Year > year })
	return s.Points[:i]
}

// SeriesSet holds the series produced by one aggregation pass, enumerated in
// key order.
type SeriesSet struct {
	byKey map[Key]*Series
	keys  []Key
}

// Len returns the number of series.
func (ss *SeriesSet) Len() int { return len(ss.keys) }

// Keys returns the sorted series keys.
func (ss *SeriesSet) Keys() []Key { return ss.keys }

// Get returns the series for a key.
func (ss *SeriesSet) Get(k Key) (*Series, bool) {
	s, ok := ss.byKey[k]
	return s, ok
}

// All returns every series in key order.
func (ss *SeriesSet) All() []*Series {
	out := make([]*Series, len(ss.keys))
	for i, k := range ss.keys {
		out[i] = ss.byKey[k]
	}
	return out
}

// LastYear returns the latest start year observed in any series.
func (ss *SeriesSet) LastYear() int {
	last := 0
	for _, s := range ss.byKey {
		if y := s.LastYear(); y > last {
			last = y
		}
	}
	return last
}

// pointAccumulator sums one key's observations within one year.
type pointAccumulator struct {
	point     SeriesPoint
	districts map[string]bool
}

// seriesAccumulator collects the yearly points of one key.
type seriesAccumulator struct {
	years     map[int]*pointAccumulator
	districts map[string]bool
	records   int
}

// Aggregate groups observations by (region, crop) or (region, crop, season)
// and sums production and area per crop year. Observations whose crop year
// cannot be parsed are ignored; all others count, including zero-valued ones.
func Aggregate(obs []crop.Observation, withSeason bool) *SeriesSet {
	acc := make(map[Key]*seriesAccumulator)

	for _, o := range obs {
		year := o.YearStart()
		if year == 0 {
			continue
		}
		k := KeyOf(o, withSeason)
		sa, ok := acc[k]
		if !ok {
			sa = &seriesAccumulator{
				years:     make(map[int]*pointAccumulator),
				districts: make(map[string]bool),
			}
			acc[k] = sa
		}
		pa, ok := sa.years[year]
		if !ok {
			pa = &pointAccumulator{
				point:     SeriesPoint{CropYear: o.CropYear, Year: year},
				districts: make(map[string]bool),
			}
			sa.years[year] = pa
		}
		pa.point.Production += o.Production
		pa.point.Area += o.Area
		pa.point.Records++
		pa.districts[o.District] = true
		sa.districts[o.District] = true
		sa.records++
	}

	ss := &SeriesSet{byKey: make(map[Key]*Series, len(acc))}
	for k, sa := range acc {
		s := &Series{
			Key:       k,
			Records:   sa.records,
			Districts: len(sa.districts),
			Points:    make([]SeriesPoint, 0, len(sa.years)),
		}
		for _, pa := range sa.years {
			p := pa.point
			p.Districts = len(pa.districts)
			s.Points = append(s.Points, p)
		}
		sort.Slice(s.Points, func(i, j int) bool { return s.Points[i].Year < s.Points[j].Year })
		ss.byKey[k] = s
		ss.keys = append(ss.keys, k)
	}
	sort.Slice(ss.keys, func(i, j int) bool { return ss.keys[i].less(ss.keys[j]) })
	return ss
}
