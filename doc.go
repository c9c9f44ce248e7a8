// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Elect API server.

Quickly Elect runs multi-seat approval elections for chat communities
(guilds). Voters approve candidates in order of preference; when voting
ends the slate of seats with the highest harmonic approval score wins.

# Starting the Server

Configuration comes from flags, environment variables (a .env file is
loaded if present) and an optional YAML file, in that order:

	ADMIN_KEY_SALT=secret go run .

Or with flags:

	go run . -p 3318 -t postgres -d "postgres://..." -admin-salt secret

# Configuration

Required settings:

  - ADMIN_KEY_SALT (-admin-salt): Secret for admin key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string (required for postgres)
  - TALLY_WORKERS (-w): Concurrent winner computations (default: CPUs)
  - CONFIG_FILE (-c): YAML file with any of the settings above

# Architecture

  - election: Election lifecycle, ballots, winner selection, integrity hash
  - service: Hosts live elections, persists them, reacts to schedule events
  - scheduler: Open/close timers and the bounded tally pool
  - render: Chat-ready text for an election
  - handlers: HTTP request handlers (elections, voting, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON and error helpers
  - models: Request/response types
  - auth: Admin keys and voter identity
  - db: Schema and election store (SQLite or PostgreSQL)
  - cliparse: Configuration parsing

On startup undecided elections are reloaded and rescheduled. On shutdown
timers stop, running tallies finish and every live election is saved.
*/
package main
