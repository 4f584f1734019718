package crop

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestYearStart(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"2010-11", 2010},
		{"2010", 2010},
		{" 1997 ", 1997},
		{"2015/16", 2015},
		{"", 0},
		{"unknown", 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, YearStart(tc.input), "YearStart(%q)", tc.input)
	}
}

func TestYearLabel(t *testing.T) {
	assert.Equal(t, "2016-17", YearLabel(2016))
	assert.Equal(t, "2008-09", YearLabel(2008))
	assert.Equal(t, "1999-00", YearLabel(1999))
}

func TestParseFloat_Coerces(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"12.5", 12.5},
		{"1,200", 1200},
		{"", 0},
		{"NA", 0},
		{"=", 0},
		{"-5", 0},
		{"NaN", 0},
		{"Inf", 0},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ParseFloat(tc.input), "ParseFloat(%q)", tc.input)
	}
}

func TestParseCSV_KeepsRowsWithBadNumbers(t *testing.T) {
	data := `State_Name,District_Name,Crop_Year,Season,Crop,Area,Production
Punjab,LUDHIANA,2010, Kharif     ,Rice,100,
Punjab,AMRITSAR,2010,Kharif,Rice,abc,300
,NOWHERE,2010,Kharif,Rice,1,1
`
	obs, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, obs, 2)

	assert.Equal(t, "Kharif", obs[0].Season)
	assert.Equal(t, 100.0, obs[0].Area)
	assert.Equal(t, 0.0, obs[0].Production)
	assert.Equal(t, 0.0, obs[1].Area)
	assert.Equal(t, 300.0, obs[1].Production)
}

func TestParseCSV_UnderscoreColumns(t *testing.T) {
	data := "state_name,district_name,crop_year,season,crop,area_,production_\n" +
		"Assam,BAKSA,2001,Whole Year,Tea,5,7\n"
	obs, err := ParseCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 5.0, obs[0].Area)
	assert.Equal(t, 7.0, obs[0].Production)
}

func TestParseCSV_NoHeader(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("a,b,c\n1,2,3\n"))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestParseJSON_WrappedRecords(t *testing.T) {
	data := []byte(`{"records":[
		{"state_name":"Bihar","district_name":"PATNA","crop_year":2005,"season":"Rabi","crop":"Wheat","area_":"10","production_":25.5},
		{"state_name":"Bihar","district_name":"GAYA","crop_year":"2005","season":"Rabi","crop":"Wheat","area_":null,"production_":"NA"}
	]}`)
	obs, err := ParseJSON(data)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, "2005", obs[0].CropYear)
	assert.Equal(t, 25.5, obs[0].Production)
	assert.Equal(t, 0.0, obs[1].Area)
	assert.Equal(t, 0.0, obs[1].Production)
}

func TestParseJSON_Array(t *testing.T) {
	data := []byte(`[{"state_name":"Goa","crop":"Cashew","crop_year":"2012-13","production":"4"}]`)
	obs, err := ParseJSON(data)
	require.NoError(t, err)
	require.Len(t, obs, 1)
	assert.Equal(t, 2012, obs[0].YearStart())
}

func TestParseXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "crops.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"State_Name", "District_Name", "Crop_Year", "Season", "Crop", "Area", "Production"},
		{"Kerala", "IDUKKI", "2003", "Whole Year", "Coconut", 12, 3400},
		{"Kerala", "WAYANAD", "2003", "Whole Year", "Coconut", "", ""},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	obs, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, obs, 2)
	assert.Equal(t, 3400.0, obs[0].Production)
	assert.Equal(t, 0.0, obs[1].Production)
}

func TestParseFile_Unsupported(t *testing.T) {
	_, err := ParseFile("data.parquet")
	assert.Error(t, err)
}
