package api

import (
	"net/http"
)

// handleGetFeed returns the current activity feed snapshot.
func (s *Server) handleGetFeed(w http.ResponseWriter, r *http.Request) {
	snapshot := s.feed.Snapshot()
	respondJSON(w, http.StatusOK, snapshot)
}

// handleRefreshFeed re-runs the historical fetch and returns the resulting snapshot.
func (s *Server) handleRefreshFeed(w http.ResponseWriter, r *http.Request) {
	if err := s.feed.Refresh(r.Context()); err != nil {
		// The feed keeps serving its last good state; surface the failure
		// alongside it rather than as a bare error.
		s.logger.WithError(err).Warn("Feed refresh failed")
	}
	respondJSON(w, http.StatusOK, s.feed.Snapshot())
}

// handleGetEthPrice returns the current ETH/USD quote.
func (s *Server) handleGetEthPrice(w http.ResponseWriter, r *http.Request) {
	quote, err := s.pricing.EthUSD(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}
