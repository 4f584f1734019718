package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultMapsURL     = "https://maps.googleapis.com/maps/api/distancematrix/json"
	defaultMapsTimeout = 15 * time.Second
)

// StateCapitals maps region names to the address used for road distance
// lookups. Regions not listed are sent to the maps service verbatim.
var StateCapitals = map[string]string{
	"Andhra Pradesh":    "Amaravati, Andhra Pradesh, India",
	"Arunachal Pradesh": "Itanagar, Arunachal Pradesh, India",
	"Assam":             "Dispur, Assam, India",
	"Bihar":             "Patna, Bihar, India",
	"Chhattisgarh":      "Raipur, Chhattisgarh, India",
	"Goa":               "Panaji, Goa, India",
	"Gujarat":           "Gandhinagar, Gujarat, India",
	"Haryana":           "Chandigarh, India",
	"Himachal Pradesh":  "Shimla, Himachal Pradesh, India",
	"Jharkhand":         "Ranchi, Jharkhand, India",
	"Karnataka":         "Bengaluru, Karnataka, India",
	"Kerala":            "Thiruvananthapuram, Kerala, India",
	"Madhya Pradesh":    "Bhopal, Madhya Pradesh, India",
	"Maharashtra":       "Mumbai, Maharashtra, India",
	"Manipur":           "Imphal, Manipur, India",
	"Meghalaya":         "Shillong, Meghalaya, India",
	"Mizoram":           "Aizawl, Mizoram, India",
	"Nagaland":          "Kohima, Nagaland, India",
	"Odisha":            "Bhubaneswar, Odisha, India",
	"Punjab":            "Chandigarh, India",
	"Puducherry":        "Puducherry, India",
	"Rajasthan":         "Jaipur, Rajasthan, India",
	"Sikkim":            "Gangtok, Sikkim, India",
	"Tamil Nadu":        "Chennai, Tamil Nadu, India",
	"Telangana":         "Hyderabad, Telangana, India",
	"Tripura":           "Agartala, Tripura, India",
	"Uttar Pradesh":     "Lucknow, Uttar Pradesh, India",
	"Uttarakhand":       "Dehradun, Uttarakhand, India",
	"West Bengal":       "Kolkata, West Bengal, India",
	"Delhi":             "New Delhi, Delhi, India",
}

// Address returns the lookup address for a region.
func Address(region string) string {
	if addr, ok := StateCapitals[region]; ok {
		return addr
	}
	return region
}

// Route is a resolved road distance between two regions.
type Route struct {
	Origin       string  `json:"origin"`
	Destination  string  `json:"destination"`
	DistanceKm   float64 `json:"distance_km"`
	DistanceText string  `json:"distance_text,omitempty"`
	DurationText string  `json:"duration_text,omitempty"`
}

// MapsClient queries a Distance Matrix compatible HTTP service.
type MapsClient struct {
	APIKey  string
	BaseURL string
	HTTP    *http.Client
}

// NewMapsClient returns a client for the given API key. An empty baseURL uses
// the public Distance Matrix endpoint; timeout <= 0 uses a 15s default.
func NewMapsClient(apiKey, baseURL string, timeout time.Duration) *MapsClient {
	if baseURL == "" {
		baseURL = defaultMapsURL
	}
	if timeout <= 0 {
		timeout = defaultMapsTimeout
	}
	return &MapsClient{
		APIKey:  apiKey,
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type matrixResponse struct {
	Status string `json:"status"`
	Rows   []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Value float64 `json:"value"`
				Text  string  `json:"text"`
			} `json:"distance"`
			Duration struct {
				Text string `json:"text"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Distance implements Provider.
func (c *MapsClient) Distance(ctx context.Context, a, b string) (float64, error) {
	r, err := c.Route(ctx, a, b)
	if err != nil {
		return 0, err
	}
	return r.DistanceKm, nil
}

// Route looks up the road distance between the capitals of two regions.
// Distances are rounded to whole kilometers.
func (c *MapsClient) Route(ctx context.Context, origin, destination string) (*Route, error) {
	if c == nil || c.APIKey == "" {
		return nil, ErrNotConfigured
	}

	q := url.Values{}
	q.Set("origins", Address(origin))
	q.Set("destinations", Address(destination))
	q.Set("key", c.APIKey)
	q.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build maps request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := c.HTTP
	if client == nil {
		client = &http.Client{Timeout: defaultMapsTimeout}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("maps call failed: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("maps non-2xx: %s", resp.Status)
	}

	var out matrixResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode maps resp: %w", err)
	}
	if out.Status != "OK" {
		return nil, fmt.Errorf("maps API error: %s", out.Status)
	}
	if len(out.Rows) == 0 || len(out.Rows[0].Elements) == 0 {
		return nil, fmt.Errorf("maps API returned no elements: %w", ErrUnknownPair)
	}
	el := out.Rows[0].Elements[0]
	if el.Status != "OK" {
		return nil, fmt.Errorf("unable to calculate distance (%s): %w", el.Status, ErrUnknownPair)
	}

	return &Route{
		Origin:       origin,
		Destination:  destination,
		DistanceKm:   math.Round(el.Distance.Value / 1000),
		DistanceText: el.Distance.Text,
		DurationText: el.Duration.Text,
	}, nil
}
