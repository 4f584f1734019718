package analyzer

import (
	"math"
	"sort"
)

// Classification thresholds relative to the national mean. These are policy
// constants; changing them changes which trades are recommended.
const (
	SurplusRatio = 1.2
	DeficitRatio = 0.8
)

// Label is a region's standing for one crop.
type Label string

const (
	LabelSurplus  Label = "surplus"
	LabelDeficit  Label = "deficit"
	LabelBalanced Label = "balanced"
)

// LabelFor classifies a production figure against a crop mean.
func LabelFor(production, mean float64) Label {
	switch {
	case production > SurplusRatio*mean:
		return LabelSurplus
	case production < DeficitRatio*mean:
		return LabelDeficit
	default:
		return LabelBalanced
	}
}

// RegionStatus is one region's production of a crop relative to the mean.
type RegionStatus struct {
	Region     string  `json:"region"`
	Production float64 `json:"production"`
	Area       float64 `json:"area"`
	Yield      float64 `json:"yield"`
	Label      Label   `json:"label"`
	// Deviation is production/mean - 1; 0 when the mean is 0.
	Deviation float64 `json:"deviation"`
	Present   bool    `json:"present"`
}

// Excess is how far production sits above the mean (negative below it).
func (rs RegionStatus) Excess(mean float64) float64 {
	return rs.Production - mean
}

// Magnitude is the absolute relative deviation from the mean.
func (rs RegionStatus) Magnitude() float64 {
	return math.Abs(rs.Deviation)
}

// CropClass holds the classification of every region growing one crop.
type CropClass struct {
	Crop    string         `json:"crop"`
	Mean    float64        `json:"mean"`
	Regions []RegionStatus `json:"regions"`
	index   map[string]int
}

// Status returns the standing of a region. A region with no data for the
// crop is reported with zero production, which is a deficit whenever the
// mean is positive.
func (c *CropClass) Status(region string) RegionStatus {
	if i, ok := c.index[region]; ok {
		return c.Regions[i]
	}
	return c.status(region, 0, 0, false)
}

func (c *CropClass) status(region string, production, area float64, present bool) RegionStatus {
	rs := RegionStatus{
		Region:     region,
		Production: production,
		Area:       area,
		Yield:      Yield(production, area),
		Label:      LabelFor(production, c.Mean),
		Present:    present,
	}
	if c.Mean > 0 {
		rs.Deviation = production/c.Mean - 1
	}
	return rs
}

// WithLabel returns the regions carrying the given label, in region order.
func (c *CropClass) WithLabel(l Label) []RegionStatus {
	var out []RegionStatus
	for _, rs := range c.Regions {
		if rs.Label == l {
			out = append(out, rs)
		}
	}
	return out
}

// Classification maps each crop to its regional classification.
type Classification struct {
	crops map[string]*CropClass
	names []string
}

// Crops returns the classified crop names in sorted order.
func (c *Classification) Crops() []string { return c.names }

// Crop returns the classification of one crop.
func (c *Classification) Crop(name string) (*CropClass, bool) {
	cc, ok := c.crops[name]
	return cc, ok
}

// Classify computes the unweighted mean production of each crop across the
// regions that report it and labels every region against that mean.
// Aggregates that share a (region, crop) are summed first, so season-level
// input classifies the same as crop-level input.
func Classify(aggs []CropAggregate) *Classification {
	type totals struct{ production, area float64 }
	perCrop := make(map[string]map[string]*totals)

	for _, a := range aggs {
		regions, ok := perCrop[a.Crop]
		if !ok {
			regions = make(map[string]*totals)
			perCrop[a.Crop] = regions
		}
		t, ok := regions[a.Region]
		if !ok {
			t = &totals{}
			regions[a.Region] = t
		}
		t.production += a.Production
		t.area += a.Area
	}

	c := &Classification{crops: make(map[string]*CropClass, len(perCrop))}
	for name, regions := range perCrop {
		names := make([]string, 0, len(regions))
		var sum float64
		for r, t := range regions {
			names = append(names, r)
			sum += t.production
		}
		sort.Strings(names)

		cc := &CropClass{
			Crop:  name,
			Mean:  sum / float64(len(regions)),
			index: make(map[string]int, len(regions)),
		}
		for i, r := range names {
			t := regions[r]
			cc.Regions = append(cc.Regions, cc.status(r, t.production, t.area, true))
			cc.index[r] = i
		}
		c.crops[name] = cc
		c.names = append(c.names, name)
	}
	sort.Strings(c.names)
	return c
}
