package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/blackwell-systems/cropflow/internal/distance"
	"github.com/blackwell-systems/cropflow/internal/suggest"
)

type errorBody struct {
	Error  string         `json:"error"`
	Reason suggest.Reason `json:"reason"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {error, reason}: 400 for parameter or body
// problems, 413 for oversized bodies, 404 for unknown distances and 500
// otherwise.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	reason := suggest.ReasonOf(err)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, new(*http.MaxBytesError)):
		status = http.StatusRequestEntityTooLarge
	case reason == suggest.ReasonMissingParameter, reason == suggest.ReasonInvalidRequest:
		status = http.StatusBadRequest
	case reason == suggest.ReasonNoData:
		status = http.StatusNotFound
	default:
		s.log.Error("request failed", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Reason: reason})
}

func missing(msg string) error {
	return &suggest.RequestError{Reason: suggest.ReasonMissingParameter, Message: msg, Err: suggest.ErrMissingParameter}
}

func (s *Server) handleStrategies(w http.ResponseWriter, r *http.Request) {
	p, err := readParams(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.GenerateStrategies(r.Context(), p.get("state_name", "region"), p.get("crop_year"), p.get("crop"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	p, err := readParams(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.GenerateTransactions(r.Context(), p.get("crop_year"), p.get("crop"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	p, err := readParams(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.engine.AnalyzeTrade(r.Context(), p.get("state_name", "region"), p.get("crop_year"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDistance(w http.ResponseWriter, r *http.Request) {
	p, err := readParams(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, to := p.get("state_from", "origin"), p.get("state_to", "destination")
	if from == "" || to == "" {
		s.writeError(w, r, missing("state_from and state_to are required"))
		return
	}

	// Prefer the live route when available; fall back to the provider chain.
	if s.opts.Routes != nil {
		route, err := s.opts.Routes.Route(r.Context(), from, to)
		if err == nil {
			writeJSON(w, http.StatusOK, route)
			return
		}
		s.log.Warn("route lookup failed", "from", from, "to", to, "err", err)
	}
	if s.opts.Distances == nil {
		s.writeError(w, r, &suggest.RequestError{
			Reason:  suggest.ReasonProviderDegraded,
			Message: "no distance provider configured",
			Err:     distance.ErrNotConfigured,
		})
		return
	}
	km, err := s.opts.Distances.Distance(r.Context(), from, to)
	if err != nil {
		if errors.Is(err, distance.ErrUnknownPair) {
			err = &suggest.RequestError{Reason: suggest.ReasonNoData, Message: "distance unknown for " + from + " and " + to, Err: err}
		} else {
			err = &suggest.RequestError{Reason: suggest.ReasonProviderDegraded, Message: err.Error(), Err: err}
		}
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, distance.Route{Origin: from, Destination: to, DistanceKm: km})
}

func (s *Server) handleStrategyHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "history not available", Reason: suggest.ReasonInternal})
		return
	}
	q := r.URL.Query()
	region := q.Get("state_name")
	if region == "" {
		s.writeError(w, r, missing("state_name is required"))
		return
	}
	rows, err := s.opts.History.ListStrategies(r.Context(), region, q.Get("crop_year"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state_name": region, "strategies": rows})
}

func (s *Server) handleTransactionHistory(w http.ResponseWriter, r *http.Request) {
	if s.opts.History == nil {
		writeJSON(w, http.StatusNotImplemented, errorBody{Error: "history not available", Reason: suggest.ReasonInternal})
		return
	}
	q := r.URL.Query()
	rows, err := s.opts.History.ListTransactions(r.Context(), q.Get("crop_year"), q.Get("crop"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"recommendations": rows})
}
