// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/handlers"
	"github.com/danielhkuo/quickly-elect/middleware"
	"github.com/danielhkuo/quickly-elect/service"
)

func NewRouter(mgr *service.Manager, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	electionHandler := handlers.NewElectionHandler(mgr, cfg)
	votingHandler := handlers.NewVotingHandler(mgr)
	resultsHandler := handlers.NewResultsHandler(mgr)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Election management
	mux.HandleFunc("POST /guilds/{guild}/elections", middleware.WithLogging(electionHandler.CreateElection))
	mux.HandleFunc("GET /guilds/{guild}/elections", middleware.WithLogging(electionHandler.ListElections))
	mux.HandleFunc("GET /guilds/{guild}/elections/{id}", middleware.WithLogging(electionHandler.GetElection))

	// Admin operations (X-Admin-Key)
	mux.HandleFunc("POST /guilds/{guild}/elections/{id}/close", middleware.WithLogging(electionHandler.CloseElection))
	mux.HandleFunc("PUT /guilds/{guild}/elections/{id}/message", middleware.WithLogging(electionHandler.SetMessage))
	mux.HandleFunc("DELETE /guilds/{guild}/elections/{id}", middleware.WithLogging(electionHandler.DeleteElection))

	// Voting (X-Voter-ID)
	mux.HandleFunc("POST /guilds/{guild}/elections/{id}/ballots", middleware.WithLogging(votingHandler.CastBallot))

	// Results, sealed until decided
	mux.HandleFunc("GET /guilds/{guild}/elections/{id}/results", middleware.WithLogging(resultsHandler.GetResults))
	mux.HandleFunc("GET /guilds/{guild}/elections/{id}/render", middleware.WithLogging(resultsHandler.RenderElection))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("quickly-elect API v1"))
	})

	return mux
}
