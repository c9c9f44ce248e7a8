// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the Quickly Elect API.

# Handler Types

Each handler is a struct over the election manager and config:

  - ElectionHandler: Create, list, inspect, close, annotate and delete
  - VotingHandler: Ballot submission
  - ResultsHandler: Results and rendered text

	electionHandler := handlers.NewElectionHandler(mgr, cfg)

Every route is scoped to a guild: /guilds/{guild}/elections/...

# Election Lifecycle

Elections move scheduled → open → decided. The manager's scheduler drives
the transitions at the start and end instants; an admin can end voting
early:

	POST /guilds/{guild}/elections            → CreateElection (returns admin_key)
	POST /guilds/{guild}/elections/{id}/close → CloseElection

Admin operations require the X-Admin-Key header. Keys are bound to both
guild and election.

# Voting

	POST /guilds/{guild}/elections/{id}/ballots → CastBallot

The X-Voter-ID header identifies the voter. Approvals may name candidates
by user id, ballot letter or username. A voter gets one ballot; it cannot
be changed.

# Errors

Domain errors map to statuses through middleware.DomainError: invalid
input is 400, unknown elections or candidates 404, and operations the
election's status forbids (voting before start or after close, reading
results early) 409.
*/
package handlers
