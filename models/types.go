// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Election status constants
const (
	StatusScheduled = "scheduled"
	StatusOpen      = "open"
	StatusDecided   = "decided"
)

// Voting method constants
const (
	MethodHarmonicApproval = "harmonic-approval"
)

// Request types

type CandidateInput struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Option   string `json:"option,omitempty"` // ballot letter; assigned when empty
}

type CreateElectionRequest struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Seats       int              `json:"seats"`
	Start       time.Time        `json:"start"`
	End         time.Time        `json:"end"`
	Candidates  []CandidateInput `json:"candidates"`
}

// Approvals may name candidates by user id, option letter or username,
// most preferred first.
type CastBallotRequest struct {
	Approvals []string `json:"approvals"`
}

type SetMessageRequest struct {
	MessageRef string `json:"message_ref"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	AdminKey   string `json:"admin_key"`
	Hash       string `json:"hash"`
}

type CastBallotResponse struct {
	BallotCount int    `json:"ballot_count"`
	Message     string `json:"message"`
}

// Domain types

type Candidate struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Option   string `json:"option"`
}

// Election is the public view of an election. Ballot contents and voter
// ids are not exposed.
type Election struct {
	ID          string      `json:"id"`
	GuildID     string      `json:"guild_id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Method      string      `json:"method"`
	Status      string      `json:"status"`
	Seats       int         `json:"seats"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Candidates  []Candidate `json:"candidates"`
	BallotCount int         `json:"ballot_count"`
	MessageRef  string      `json:"message_ref,omitempty"`
	Hash        string      `json:"hash"`
}

type ElectionSummary struct {
	ID          string    `json:"id"`
	GuildID     string    `json:"guild_id"`
	Title       string    `json:"title"`
	Status      string    `json:"status"`
	Seats       int       `json:"seats"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	BallotCount int       `json:"ballot_count"`
}

type Winner struct {
	Rank     int    `json:"rank"` // 1-indexed, slate order
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Option   string `json:"option"`
}

type ElectionResults struct {
	ElectionID  string   `json:"election_id"`
	Title       string   `json:"title"`
	Method      string   `json:"method"`
	Winners     []Winner `json:"winners"`
	Score       float64  `json:"score"`
	BallotCount int      `json:"ballot_count"`
	Hash        string   `json:"hash"` // integrity hash of the decided election
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
