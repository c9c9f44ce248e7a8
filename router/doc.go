// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Elect API.

	mux := router.NewRouter(mgr, cfg)

# Endpoints

Health:

	GET /health

Elections:

	POST /guilds/{guild}/elections      - Create election
	GET  /guilds/{guild}/elections      - List the guild's elections
	GET  /guilds/{guild}/elections/{id} - Election details and hash

Admin (requires X-Admin-Key):

	POST   /guilds/{guild}/elections/{id}/close   - End voting now
	PUT    /guilds/{guild}/elections/{id}/message - Record the chat message
	DELETE /guilds/{guild}/elections/{id}         - Archive

Voting (requires X-Voter-ID):

	POST /guilds/{guild}/elections/{id}/ballots

Results:

	GET /guilds/{guild}/elections/{id}/results - Winners (decided only)
	GET /guilds/{guild}/elections/{id}/render  - Chat-ready text
*/
package router
