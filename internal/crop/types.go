// Package crop provides the observation types and file parsers for crop
// production records.
package crop

import (
	"strconv"
	"strings"
)

// Observation is one production record for a district in a crop year.
// Area and production are already coerced: unknown or non-numeric values are 0.
type Observation struct {
	Region     string  `json:"state_name"`
	District   string  `json:"district_name"`
	CropYear   string  `json:"crop_year"`
	Season     string  `json:"season"`
	Crop       string  `json:"crop"`
	Area       float64 `json:"area"`
	Production float64 `json:"production"`
}

// YearStart returns the numeric first year of the observation's crop year.
func (o Observation) YearStart() int {
	return YearStart(o.CropYear)
}

// Query selects observations. Empty fields match everything. CropYear is
// compared by its start year, so "2010" and "2010-11" select the same rows.
// Crop is matched case-insensitively.
type Query struct {
	Region   string
	CropYear string
	Crop     string
}

// YearStart parses the first calendar year of a crop-year label such as
// "2010-11" or "2010". It returns 0 when the label has no leading year.
func YearStart(label string) int {
	label = strings.TrimSpace(label)
	if i := strings.IndexAny(label, "-/"); i >= 0 {
		label = label[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(label))
	if err != nil {
		return 0
	}
	return n
}

// YearLabel formats a start year as a two-part crop-year label ("2016-17").
func YearLabel(start int) string {
	return strconv.Itoa(start) + "-" + twoDigits((start+1)%100)
}

func twoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// ParseFloat coerces a raw field into a non-negative quantity. Empty,
// non-numeric, NaN, infinite and negative inputs all become 0.
func ParseFloat(raw string) float64 {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v != v || v < 0 || v > maxQuantity {
		return 0
	}
	return v
}

// maxQuantity rejects +Inf and absurd overflow values from malformed sources.
const maxQuantity = 1e15

// Normalize trims the string fields of an observation.
func Normalize(o Observation) Observation {
	o.Region = strings.TrimSpace(o.Region)
	o.District = strings.TrimSpace(o.District)
	o.CropYear = strings.TrimSpace(o.CropYear)
	o.Season = strings.TrimSpace(o.Season)
	o.Crop = strings.TrimSpace(o.Crop)
	return o
}
