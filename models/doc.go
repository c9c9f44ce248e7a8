// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and view types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateElectionRequest: title, description, seats, start, end, candidates
  - CastBallotRequest: approvals (ordered candidate references)
  - SetMessageRequest: message_ref

# Response Types

Types for JSON responses:

  - CreateElectionResponse: election_id, admin_key, hash
  - CastBallotResponse: ballot_count, message
  - ElectionResults: winners, score, ballot_count, hash
  - ErrorResponse: error, message

# View Types

  - Election: public election state (no voter ids, no ballot contents)
  - ElectionSummary: one row of a guild's election list
  - Candidate, Winner

# Constants

Status values:

	StatusScheduled = "scheduled"
	StatusOpen      = "open"
	StatusDecided   = "decided"

Voting method:

	MethodHarmonicApproval = "harmonic-approval"
*/
package models
