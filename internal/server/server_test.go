package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/cropflow/internal/crop"
	"github.com/blackwell-systems/cropflow/internal/distance"
	"github.com/blackwell-systems/cropflow/internal/store"
	"github.com/blackwell-systems/cropflow/internal/suggest"
)

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *store.DB) {
	t.Helper()
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	_, err = db.InsertObservations(ctx, []crop.Observation{
		{Region: "A", District: "a1", CropYear: "2010-11", Season: "Kharif", Crop: "Rice", Area: 400, Production: 1000},
		{Region: "B", District: "b1", CropYear: "2010-11", Season: "Kharif", Crop: "Rice", Area: 100, Production: 200},
	})
	require.NoError(t, err)
	_, err = db.UpsertDistances(ctx, []distance.Fact{{From: "A", To: "B", Km: 300}}, "")
	require.NoError(t, err)

	if opts.Distances == nil {
		opts.Distances = db
	}
	if opts.History == nil {
		opts.History = db
	}
	engine := suggest.NewEngine(db, db, db, nil, suggest.Options{})
	srv := httptest.NewServer(New(engine, opts).Routes())
	t.Cleanup(srv.Close)
	return srv, db
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]bool
	decode(t, resp, &body)
	assert.True(t, body["ok"])
}

func TestTransactions_PostJSON(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	resp, err := http.Post(srv.URL+"/api/transactions", "application/json",
		strings.NewReader(`{"crop_year":"2010-11"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var res suggest.TransactionResult
	decode(t, resp, &res)
	require.Equal(t, 1, res.Count)
	assert.Equal(t, "A", res.Transactions[0].SurplusRegion)
	assert.Equal(t, 400.0, res.Transactions[0].Quantity)
	assert.True(t, res.Persisted)
}

func TestStrategies_QueryAndHistory(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	resp, err := http.Get(srv.URL + "/api/strategies?state_name=A&crop_year=2010-11")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res suggest.StrategyResult
	decode(t, resp, &res)
	require.Len(t, res.Strategies, 1)
	assert.Equal(t, "Rice", res.Strategies[0].Crop)

	resp, err = http.Get(srv.URL + "/api/history/strategies?state_name=A")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var hist struct {
		Strategies []store.StrategyRow `json:"strategies"`
	}
	decode(t, resp, &hist)
	assert.Len(t, hist.Strategies, 1)
}

func TestTrade_NumericYear(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	resp, err := http.Post(srv.URL+"/api/trade", "application/json",
		strings.NewReader(`{"state_name":"A","crop_year":2010}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res suggest.TradeAnalysis
	decode(t, resp, &res)
	assert.Equal(t, "2010-11", res.CropYear)
	require.Len(t, res.Sell, 1)
	assert.Equal(t, "B", res.Sell[0].Partner)
}

func TestMissingParameter_Returns400(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"strategies without region", http.MethodPost, "/api/strategies", `{"crop_year":"2010-11"}`},
		{"transactions without year", http.MethodGet, "/api/transactions", ""},
		{"distance without pair", http.MethodGet, "/api/distance?state_from=A", ""},
		{"history without region", http.MethodGet, "/api/history/strategies", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, srv.URL+tc.path, strings.NewReader(tc.body))
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body errorBody
			decode(t, resp, &body)
			assert.Equal(t, suggest.ReasonMissingParameter, body.Reason)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestInvalidBody(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"truncated json", `{`, http.StatusBadRequest},
		{"array body", `["A","2010-11"]`, http.StatusBadRequest},
		{"oversized body", `{"state_name":"` + strings.Repeat("x", MaxBodyBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Post(srv.URL+"/api/trade", "application/json", strings.NewReader(tc.body))
			require.NoError(t, err)
			assert.Equal(t, tc.status, resp.StatusCode)
			var body errorBody
			decode(t, resp, &body)
			assert.Equal(t, suggest.ReasonInvalidRequest, body.Reason)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestPostEmptyBody_UsesQuery(t *testing.T) {
	srv, _ := newTestServer(t, Options{})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/trade?state_name=A&crop_year=2010-11", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var res suggest.TradeAnalysis
	decode(t, resp, &res)
	assert.Equal(t, "A", res.Region)
}

type fakeRoutes struct{ err error }

func (f fakeRoutes) Route(_ context.Context, o, d string) (*distance.Route, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &distance.Route{Origin: o, Destination: d, DistanceKm: 1451, DistanceText: "1,451 km"}, nil
}

func TestDistance(t *testing.T) {
	t.Run("route", func(t *testing.T) {
		srv, _ := newTestServer(t, Options{Routes: fakeRoutes{}})
		resp, err := http.Get(srv.URL + "/api/distance?state_from=Punjab&state_to=Bihar")
		require.NoError(t, err)
		var r distance.Route
		decode(t, resp, &r)
		assert.Equal(t, "1,451 km", r.DistanceText)
	})

	t.Run("route fails, stored table answers", func(t *testing.T) {
		srv, _ := newTestServer(t, Options{Routes: fakeRoutes{err: errors.New("down")}})
		resp, err := http.Get(srv.URL + "/api/distance?state_from=B&state_to=A")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var r distance.Route
		decode(t, resp, &r)
		assert.Equal(t, 300.0, r.DistanceKm)
	})

	t.Run("unknown pair", func(t *testing.T) {
		srv, _ := newTestServer(t, Options{})
		resp, err := http.Get(srv.URL + "/api/distance?state_from=A&state_to=Z")
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		var body errorBody
		decode(t, resp, &body)
		assert.Equal(t, suggest.ReasonNoData, body.Reason)
	})
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t, Options{AllowedOrigins: []string{"https://app.example"}})
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/trade", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://app.example", resp.Header.Get("Access-Control-Allow-Origin"))
}
