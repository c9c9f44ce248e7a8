// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/service"
)

type ElectionHandler struct {
	mgr *service.Manager
	cfg cliparse.Config
}

func NewElectionHandler(mgr *service.Manager, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{mgr: mgr, cfg: cfg}
}

// CreateElection handles POST /guilds/{guild}/elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	guildID := r.PathValue("guild")
	if guildID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "guild is required")
		return
	}

	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	candidates := make([]election.Candidate, len(req.Candidates))
	for i, c := range req.Candidates {
		candidates[i] = election.Candidate{UserID: c.UserID, Username: c.Username, Option: c.Option}
	}

	e, err := h.mgr.Create(r.Context(), guildID, service.CreateParams{
		Title:       req.Title,
		Description: req.Description,
		Seats:       req.Seats,
		Start:       req.Start,
		End:         req.End,
		Candidates:  candidates,
	})
	if err != nil {
		middleware.DomainError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateElectionResponse{
		ElectionID: e.ID(),
		AdminKey:   auth.GenerateAdminKey(guildID, e.ID(), h.cfg.AdminKeySalt),
		Hash:       e.Hash(),
	})
}

// ListElections handles GET /guilds/{guild}/elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	sums, err := h.mgr.List(r.Context(), r.PathValue("guild"))
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, sums)
}

// GetElection handles GET /guilds/{guild}/elections/{id}
// Ballot contents stay private; only the count is returned.
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	e, err := h.mgr.Get(r.Context(), r.PathValue("guild"), r.PathValue("id"))
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, electionView(e))
}

// CloseElection handles POST /guilds/{guild}/elections/{id}/close
// Ends voting ahead of the scheduled end. Closing twice is not an error.
func (h *ElectionHandler) CloseElection(w http.ResponseWriter, r *http.Request) {
	guildID, electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.mgr.CloseElection(r.Context(), guildID, electionID); err != nil {
		middleware.DomainError(w, err)
		return
	}

	e, err := h.mgr.Get(r.Context(), guildID, electionID)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, electionView(e))
}

// SetMessage handles PUT /guilds/{guild}/elections/{id}/message
func (h *ElectionHandler) SetMessage(w http.ResponseWriter, r *http.Request) {
	guildID, electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	var req models.SetMessageRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.MessageRef == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "message_ref is required")
		return
	}

	if err := h.mgr.SetMessageRef(r.Context(), guildID, electionID, req.MessageRef); err != nil {
		middleware.DomainError(w, err)
		return
	}

	e, err := h.mgr.Get(r.Context(), guildID, electionID)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, electionView(e))
}

// DeleteElection handles DELETE /guilds/{guild}/elections/{id}
func (h *ElectionHandler) DeleteElection(w http.ResponseWriter, r *http.Request) {
	guildID, electionID, ok := h.authorize(w, r)
	if !ok {
		return
	}

	if err := h.mgr.Delete(r.Context(), guildID, electionID); err != nil {
		middleware.DomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorize checks the X-Admin-Key header against the election in the path.
func (h *ElectionHandler) authorize(w http.ResponseWriter, r *http.Request) (guildID, electionID string, ok bool) {
	guildID, electionID = r.PathValue("guild"), r.PathValue("id")
	if guildID == "" || electionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "guild and election id are required")
		return "", "", false
	}

	adminKey := r.Header.Get("X-Admin-Key")
	if err := auth.ValidateAdminKey(guildID, electionID, adminKey, h.cfg.AdminKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid admin key")
		return "", "", false
	}
	return guildID, electionID, true
}

func electionView(e *election.Election) models.Election {
	s := e.Snapshot()
	candidates := make([]models.Candidate, len(s.Candidates))
	for i, c := range s.Candidates {
		candidates[i] = models.Candidate{UserID: c.UserID, Username: c.Username, Option: c.Option}
	}
	return models.Election{
		ID:          s.ID,
		GuildID:     s.GuildID,
		Title:       s.Title,
		Description: s.Description,
		Method:      models.MethodHarmonicApproval,
		Status:      s.Status.String(),
		Seats:       s.Seats,
		Start:       s.Start,
		End:         s.End,
		Candidates:  candidates,
		BallotCount: len(s.Ballots),
		MessageRef:  s.MessageRef,
		Hash:        s.Hash(),
	}
}
