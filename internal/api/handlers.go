package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/chainprobe/chainprobe/internal/provider"
	"github.com/chainprobe/chainprobe/internal/resolver"
)

type balanceResponse struct {
	Address string           `json:"address"`
	Asset   string           `json:"asset"`
	Chain   string           `json:"chain"`
	Balance *decimal.Decimal `json:"balance,omitempty"`
	Cached  bool             `json:"cached"`
	Source  string           `json:"source,omitempty"`
	Reason  string           `json:"reason,omitempty"`
}

type assetInfo struct {
	Asset     string   `json:"asset"`
	Chain     string   `json:"chain"`
	Symbol    string   `json:"symbol"`
	Providers []string `json:"providers"`
	Shuffled  bool     `json:"shuffled"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	asset := chi.URLParam(r, "asset")
	address := chi.URLParam(r, "address")

	class, err := provider.ParseClass(asset)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	result, err := s.engine.Resolve(r.Context(), address, class)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			// Client is gone, nothing left to write.
			return
		}
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	s.checker.UpdateLastResolution(result.Status == resolver.StatusSuccess)

	resp := balanceResponse{
		Address: result.Address,
		Asset:   string(result.Class),
		Chain:   result.Class.Chain(),
		Cached:  result.Cached,
		Source:  result.Source,
	}
	if result.Status == resolver.StatusSuccess {
		resp.Balance = &result.Balance
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	resp.Reason = result.Reason
	s.writeJSON(w, http.StatusBadGateway, resp)
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	sets := s.engine.Registry().All()

	out := make([]assetInfo, 0, len(sets))
	for _, set := range sets {
		names := make([]string, 0, len(set.Providers))
		for _, p := range set.Providers {
			names = append(names, p.Name())
		}
		out = append(out, assetInfo{
			Asset:     string(set.Class),
			Chain:     set.Class.Chain(),
			Symbol:    set.Class.Symbol(),
			Providers: names,
			Shuffled:  set.Shuffle,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to encode response", "error", err)
	}
}
