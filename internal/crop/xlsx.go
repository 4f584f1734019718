package crop

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads observations from a workbook sheet. An empty sheet name
// selects the first sheet. The first row is the header.
func ParseXLSX(path, sheet string) ([]Observation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return ParseRows(rows[0], rows[1:])
}
