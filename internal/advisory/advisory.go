// Package advisory asks a language model for per-crop priority scores and
// farmer-facing recommendations.
package advisory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/blackwell-systems/cropflow/internal/analyzer"
)

const (
	DefaultAPIURL     = "https://api.anthropic.com/v1/messages"
	DefaultModel      = "claude-sonnet-4-20250514"
	DefaultTopN       = 10
	claudeAPIVersion  = "2023-06-01"
	maxTokens         = 2000
	defaultAPITimeout = 60 * time.Second
)

// ErrNoAPIKey is returned when advice is requested without credentials.
var ErrNoAPIKey = errors.New("advisory API key is not configured")

// Advice is the advisory override for one crop and season.
type Advice struct {
	Crop           string  `json:"crop"`
	Season         string  `json:"season"`
	PriorityScore  float64 `json:"priority_score"`
	Recommendation string  `json:"recommendation"`
}

// Options configures a Client.
type Options struct {
	APIKey  string
	Model   string
	URL     string
	TopN    int
	Timeout time.Duration
}

// Client calls the Messages API.
type Client struct {
	apiKey string
	model  string
	url    string
	topN   int
	http   *http.Client
}

// NewClient creates a Client, filling unset options with defaults.
func NewClient(opts Options) *Client {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.URL == "" {
		opts.URL = DefaultAPIURL
	}
	if opts.TopN <= 0 {
		opts.TopN = DefaultTopN
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultAPITimeout
	}
	return &Client{
		apiKey: opts.APIKey,
		model:  opts.Model,
		url:    opts.URL,
		topN:   opts.TopN,
		http:   &http.Client{Timeout: opts.Timeout},
	}
}

const systemPrompt = "You are an expert agricultural analyst. Respond only with valid JSON arrays. No explanations outside the JSON."

// Advise requests priority scores and recommendations for the top crops of
// a region, ranked by production times yield.
func (c *Client) Advise(ctx context.Context, aggs []analyzer.CropAggregate, region, cropYear string) ([]Advice, error) {
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}
	top := TopCrops(aggs, c.topN)
	if len(top) == 0 {
		return nil, nil
	}

	text, err := c.call(ctx, BuildPrompt(top, region, cropYear))
	if err != nil {
		return nil, fmt.Errorf("calling advisory API: %w", err)
	}
	advice, err := ParseAdvice(text)
	if err != nil {
		return nil, fmt.Errorf("parsing advisory response: %w", err)
	}
	return advice, nil
}

// TopCrops returns up to n rankable aggregates ordered by production times
// yield, highest first.
func TopCrops(aggs []analyzer.CropAggregate, n int) []analyzer.CropAggregate {
	var top []analyzer.CropAggregate
	for _, a := range aggs {
		if a.Rankable() {
			top = append(top, a)
		}
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Production*top[i].Yield > top[j].Production*top[j].Yield
	})
	if n > 0 && len(top) > n {
		top = top[:n]
	}
	return top
}

// BuildPrompt renders the user message for a set of crops.
func BuildPrompt(top []analyzer.CropAggregate, region, cropYear string) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("You are an agricultural expert analyzing crop production data for %s for the year %s.\n\n", region, cropYear))
	sb.WriteString("Here are the top crops with their performance metrics:\n\n")
	for i, a := range top {
		sb.WriteString(fmt.Sprintf("%d. %s (%s season)\n", i+1, a.Crop, a.Season))
		sb.WriteString(fmt.Sprintf("   - Total Production: %.2f million tonnes\n", a.Production/1e6))
		sb.WriteString(fmt.Sprintf("   - Cultivation Area: %.2fK hectares\n", a.Area/1000))
		sb.WriteString(fmt.Sprintf("   - Average Yield: %.2f tonnes/hectare\n", a.Yield))
		sb.WriteString(fmt.Sprintf("   - Trend: %s\n", a.Trend))
		sb.WriteString(fmt.Sprintf("   - Districts Growing: %d\n\n", a.Districts))
	}

	sb.WriteString(fmt.Sprintf("For each of these top %d crops, provide:\n", len(top)))
	sb.WriteString("1. A priority score (0-100) based on production volume, yield potential, regional importance, and trend\n")
	sb.WriteString("2. A specific, actionable recommendation (2-3 sentences) for farmers\n\n")
	sb.WriteString("Scoring Guidelines:\n")
	sb.WriteString("- Crops with highest production volume should get priority (85-95)\n")
	sb.WriteString("- High-yielding crops with good trends get 70-85\n")
	sb.WriteString("- Moderate performers get 50-70\n")
	sb.WriteString("- Lower priority crops get 30-50\n")
	sb.WriteString("- Consider economic viability and market demand\n\n")
	sb.WriteString("Respond ONLY with a valid JSON array in this exact format:\n")
	sb.WriteString(`[
  {
    "crop": "Crop Name",
    "season": "Season",
    "priority_score": 85,
    "recommendation": "Specific recommendation here"
  }
]`)
	return sb.String()
}

// jsonArray finds the outermost JSON array in free text.
var jsonArray = regexp.MustCompile(`(?s)\[.*\]`)

// ParseAdvice extracts advice entries from a model reply. The array may be
// wrapped in prose or code fences. Entries without a crop are skipped and
// scores are clamped to 0-100.
func ParseAdvice(text string) ([]Advice, error) {
	raw := jsonArray.FindString(text)
	if raw == "" {
		return nil, fmt.Errorf("no JSON array in response (response was: %.200s)", text)
	}
	var entries []Advice
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("parsing advice JSON: %w", err)
	}

	var out []Advice
	for _, e := range entries {
		if strings.TrimSpace(e.Crop) == "" {
			continue
		}
		switch {
		case e.PriorityScore < 0:
			e.PriorityScore = 0
		case e.PriorityScore > 100:
			e.PriorityScore = 100
		}
		out = append(out, e)
	}
	return out, nil
}

type apiRequest struct {
	Model     string       `json:"model"`
	MaxTokens int          `json:"max_tokens"`
	System    string       `json:"system"`
	Messages  []apiMessage `json:"messages"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// call sends one user message and returns the concatenated text blocks.
func (c *Client) call(ctx context.Context, userPrompt string) (string, error) {
	body, err := json.Marshal(apiRequest{
		Model:     c.model,
		MaxTokens: maxTokens,
		System:    systemPrompt,
		Messages:  []apiMessage{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", claudeAPIVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("API returned status %d: %.200s", resp.StatusCode, string(respBytes))
	}

	var out apiResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return "", fmt.Errorf("unmarshaling response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("API error: %s: %s", out.Error.Type, out.Error.Message)
	}

	var parts []string
	for _, block := range out.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text content in API response")
	}
	return strings.Join(parts, ""), nil
}
