package crop

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ErrNoHeader is returned when a tabular source has no recognizable columns.
var ErrNoHeader = errors.New("no recognizable crop columns in header")

// columnAliases maps each observation field to the header names accepted for it.
// The open-data export uses trailing underscores for the numeric columns.
var columnAliases = map[string][]string{
	"region":     {"state_name", "state", "region"},
	"district":   {"district_name", "district"},
	"crop_year":  {"crop_year", "year"},
	"season":     {"season"},
	"crop":       {"crop"},
	"area":       {"area_", "area"},
	"production": {"production_", "production"},
}

// headerIndex resolves observation fields to column positions.
type headerIndex map[string]int

func newHeaderIndex(header []string) (headerIndex, error) {
	normalized := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		key = strings.TrimPrefix(key, "\ufeff")
		if _, dup := normalized[key]; !dup {
			normalized[key] = i
		}
	}

	idx := make(headerIndex)
	for field, aliases := range columnAliases {
		for _, a := range aliases {
			if pos, ok := normalized[a]; ok {
				idx[field] = pos
				break
			}
		}
	}
	if _, ok := idx["region"]; !ok {
		return nil, ErrNoHeader
	}
	if _, ok := idx["crop"]; !ok {
		return nil, ErrNoHeader
	}
	return idx, nil
}

func (h headerIndex) cell(row []string, field string) string {
	pos, ok := h[field]
	if !ok || pos >= len(row) {
		return ""
	}
	return row[pos]
}

// observation builds a normalized Observation from a raw row.
func (h headerIndex) observation(row []string) Observation {
	return Normalize(Observation{
		Region:     h.cell(row, "region"),
		District:   h.cell(row, "district"),
		CropYear:   h.cell(row, "crop_year"),
		Season:     h.cell(row, "season"),
		Crop:       h.cell(row, "crop"),
		Area:       ParseFloat(h.cell(row, "area")),
		Production: ParseFloat(h.cell(row, "production")),
	})
}

// ParseRows converts a header plus data rows into observations. Rows without
// a region, crop or crop year are skipped; rows with bad numbers are kept with
// the numbers coerced to 0.
func ParseRows(header []string, rows [][]string) ([]Observation, error) {
	idx, err := newHeaderIndex(header)
	if err != nil {
		return nil, err
	}
	var out []Observation
	for _, row := range rows {
		o := idx.observation(row)
		if o.Region == "" || o.Crop == "" || o.CropYear == "" {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// ParseCSV reads observations from CSV data with a header row.
func ParseCSV(r io.Reader) ([]Observation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		rows = append(rows, row)
	}
	return ParseRows(header, rows)
}

// ParseJSON reads observations from either a JSON array of records or an
// object with a "records" array, as returned by the open-data API. Values may
// be strings or numbers.
func ParseJSON(data []byte) ([]Observation, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		var wrapped struct {
			Records []map[string]any `json:"records"`
		}
		if werr := json.Unmarshal(data, &wrapped); werr != nil {
			return nil, fmt.Errorf("parsing JSON records: %w", err)
		}
		records = wrapped.Records
	}
	if len(records) == 0 {
		return nil, nil
	}

	headerSet := make(map[string]bool)
	var header []string
	for _, rec := range records {
		for k := range rec {
			if !headerSet[k] {
				headerSet[k] = true
				header = append(header, k)
			}
		}
	}

	rows := make([][]string, len(records))
	for i, rec := range records {
		row := make([]string, len(header))
		for j, k := range header {
			row[j] = stringify(rec[k])
		}
		rows[i] = row
	}
	return ParseRows(header, rows)
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// ParseFile dispatches on the file extension (.csv, .json, .xlsx).
func ParseFile(path string) ([]Observation, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ParseCSV(f)
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ParseJSON(data)
	case ".xlsx":
		return ParseXLSX(path, "")
	default:
		return nil, fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
}
