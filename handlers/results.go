// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"time"

	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/render"
	"github.com/danielhkuo/quickly-elect/service"
)

type ResultsHandler struct {
	mgr *service.Manager
	now func() time.Time
}

func NewResultsHandler(mgr *service.Manager) *ResultsHandler {
	return &ResultsHandler{mgr: mgr, now: time.Now}
}

// GetResults handles GET /guilds/{guild}/elections/{id}/results
// Results are sealed (409) until the election is decided.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	e, out, err := h.mgr.Results(r.Context(), r.PathValue("guild"), r.PathValue("id"))
	if err != nil {
		middleware.DomainError(w, err)
		return
	}

	winners := make([]models.Winner, len(out.Slate))
	for i, c := range out.Slate {
		winners[i] = models.Winner{
			Rank:     i + 1,
			UserID:   c.UserID,
			Username: c.Username,
			Option:   c.Option,
		}
	}

	s := e.Snapshot()
	middleware.JSONResponse(w, http.StatusOK, models.ElectionResults{
		ElectionID:  s.ID,
		Title:       s.Title,
		Method:      models.MethodHarmonicApproval,
		Winners:     winners,
		Score:       out.Score,
		BallotCount: len(s.Ballots),
		Hash:        s.Hash(),
	})
}

// RenderElection handles GET /guilds/{guild}/elections/{id}/render
// Returns the chat-ready text for the election's current state.
func (h *ResultsHandler) RenderElection(w http.ResponseWriter, r *http.Request) {
	e, err := h.mgr.Get(r.Context(), r.PathValue("guild"), r.PathValue("id"))
	if err != nil {
		middleware.DomainError(w, err)
		return
	}

	v, err := render.NewView(e)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(render.Render(v, h.now()).String()))
}
