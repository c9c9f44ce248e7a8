// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/service"
)

type VotingHandler struct {
	mgr *service.Manager
}

func NewVotingHandler(mgr *service.Manager) *VotingHandler {
	return &VotingHandler{mgr: mgr}
}

// CastBallot handles POST /guilds/{guild}/elections/{id}/ballots
// Requires X-Voter-ID header. Each voter gets exactly one ballot.
func (h *VotingHandler) CastBallot(w http.ResponseWriter, r *http.Request) {
	voterID, err := auth.VoterID(r.Header.Get("X-Voter-ID"))
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "X-Voter-ID header is required")
		return
	}

	var req models.CastBallotRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	n, err := h.mgr.CastVote(r.Context(), r.PathValue("guild"), r.PathValue("id"), voterID, req.Approvals)
	if err != nil {
		middleware.DomainError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastBallotResponse{
		BallotCount: n,
		Message:     "Ballot recorded",
	})
}
