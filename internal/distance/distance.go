// Package distance resolves road distances between regions. Providers are
// symmetric lookups; a Resolver memoizes one request's lookups and degrades
// unknown or failed pairs to the Sentinel distance.
package distance

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/blackwell-systems/cropflow/internal/crop"
)

// Sentinel is the distance in kilometers reported for pairs with no known
// distance. It ranks such pairs after every real distance.
const Sentinel = 9999.0

var (
	// ErrUnknownPair is returned by providers that have no distance for a pair.
	ErrUnknownPair = errors.New("distance unknown for region pair")

	// ErrNotConfigured is returned by providers missing required credentials.
	ErrNotConfigured = errors.New("distance provider not configured")
)

// Pair is an unordered region pair stored with A <= B.
type Pair struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewPair returns the canonical pair for two regions.
func NewPair(a, b string) Pair {
	if b < a {
		a, b = b, a
	}
	return Pair{A: a, B: b}
}

// String renders the pair as "A|B".
func (p Pair) String() string { return p.A + "|" + p.B }

// Provider returns the distance in kilometers between two regions, in either
// order. Unknown pairs return ErrUnknownPair.
type Provider interface {
	Distance(ctx context.Context, a, b string) (float64, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, a, b string) (float64, error)

// Distance calls f.
func (f ProviderFunc) Distance(ctx context.Context, a, b string) (float64, error) {
	return f(ctx, a, b)
}

// Static is an in-memory distance table.
type Static map[Pair]float64

// Distance looks up the pair in either order.
func (s Static) Distance(_ context.Context, a, b string) (float64, error) {
	if a == b {
		return 0, nil
	}
	km, ok := s[NewPair(a, b)]
	if !ok {
		return 0, ErrUnknownPair
	}
	return km, nil
}

// Fact is one known distance.
type Fact struct {
	From string  `json:"state_from"`
	To   string  `json:"state_to"`
	Km   float64 `json:"distance_km"`
}

// ParseCSV reads distance facts from CSV with a header containing
// state_from, state_to and distance_km (region_a/region_b/km also accepted).
func ParseCSV(r io.Reader) ([]Fact, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading distance header: %w", err)
	}
	from, to, km := -1, -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(h)) {
		case "state_from", "region_a", "from":
			from = i
		case "state_to", "region_b", "to":
			to = i
		case "distance_km", "km", "distance":
			km = i
		}
	}
	if from < 0 || to < 0 || km < 0 {
		return nil, fmt.Errorf("distance CSV needs state_from, state_to and distance_km columns")
	}

	var facts []Fact
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if from >= len(row) || to >= len(row) || km >= len(row) {
			continue
		}
		f := Fact{
			From: strings.TrimSpace(row[from]),
			To:   strings.TrimSpace(row[to]),
			Km:   crop.ParseFloat(row[km]),
		}
		if f.From == "" || f.To == "" || strings.TrimSpace(row[km]) == "" {
			continue
		}
		facts = append(facts, f)
	}
	return facts, nil
}

// NewStatic builds a Static table from facts. Later facts win.
func NewStatic(facts []Fact) Static {
	s := make(Static, len(facts))
	for _, f := range facts {
		s[NewPair(f.From, f.To)] = f.Km
	}
	return s
}

// Chain tries providers in order and returns the first known distance.
// Hard failures are remembered; if no provider knows the pair the result is
// ErrUnknownPair joined with any failures.
type Chain []Provider

// Distance implements Provider.
func (c Chain) Distance(ctx context.Context, a, b string) (float64, error) {
	var errs []error
	for _, p := range c {
		if p == nil {
			continue
		}
		km, err := p.Distance(ctx, a, b)
		if err == nil {
			return km, nil
		}
		if !errors.Is(err, ErrUnknownPair) && !errors.Is(err, ErrNotConfigured) {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return 0, ErrUnknownPair
	}
	return 0, errors.Join(append([]error{ErrUnknownPair}, errs...)...)
}
