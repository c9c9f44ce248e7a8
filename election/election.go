// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Status is the lifecycle state of an election.
type Status int

const (
	StatusScheduled Status = iota
	StatusOpen
	StatusDecided
)

func (s Status) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusOpen:
		return "open"
	case StatusDecided:
		return "decided"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	parsed, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "scheduled":
		return StatusScheduled, nil
	case "open":
		return StatusOpen, nil
	case "decided":
		return StatusDecided, nil
	}
	return 0, invalid("status", "unknown status %q", s)
}

type Candidate struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Option   string `json:"option"`
}

// Ballot lists approved candidates in the order the voter gave them.
type Ballot struct {
	Approvals []Candidate `json:"approvals"`
}

// Snapshot is a detached copy of an election's data. Ballots[i] was cast
// by Voters[i].
type Snapshot struct {
	ID          string      `json:"id"`
	GuildID     string      `json:"guild_id"`
	Seats       int         `json:"seats"`
	Status      Status      `json:"status"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Start       time.Time   `json:"start"`
	End         time.Time   `json:"end"`
	Candidates  []Candidate `json:"candidates"`
	Ballots     []Ballot    `json:"ballots"`
	Voters      []string    `json:"voters"`
	MessageRef  string      `json:"message_ref,omitempty"`
}

// Params are the inputs for a new election.
type Params struct {
	ID          string
	GuildID     string
	Seats       int
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Candidates  []Candidate
}

// Election is a single election owned by one guild. It is safe for
// concurrent use.
type Election struct {
	mu       sync.RWMutex
	s        Snapshot
	position map[string]int // candidate user id -> index in s.Candidates
	voted    map[string]struct{}

	tally   sync.Once
	outcome Outcome
}

// New validates p and returns a scheduled election. Candidates without an
// option label are given ballot letters by position (A, B, C, ...).
func New(p Params) (*Election, error) {
	candidates := make([]Candidate, len(p.Candidates))
	copy(candidates, p.Candidates)
	for i := range candidates {
		if candidates[i].Option == "" {
			candidates[i].Option = OptionLabel(i)
		}
	}

	return Restore(Snapshot{
		ID:          p.ID,
		GuildID:     p.GuildID,
		Seats:       p.Seats,
		Status:      StatusScheduled,
		Title:       p.Title,
		Description: p.Description,
		Start:       p.Start,
		End:         p.End,
		Candidates:  candidates,
	})
}

// Restore rebuilds an election from a snapshot, typically one read back
// from storage. Every invariant is checked again.
func Restore(s Snapshot) (*Election, error) {
	if strings.TrimSpace(s.ID) == "" {
		return nil, invalid("id", "must not be empty")
	}
	if strings.TrimSpace(s.Title) == "" {
		return nil, invalid("title", "must not be empty")
	}
	if s.Status < StatusScheduled || s.Status > StatusDecided {
		return nil, invalid("status", "unknown status %d", int(s.Status))
	}
	if !s.Start.Before(s.End) {
		return nil, invalid("end", "must be after start")
	}
	if len(s.Candidates) == 0 {
		return nil, invalid("candidates", "at least one candidate is required")
	}
	if s.Seats < 1 {
		return nil, invalid("seats", "must be at least 1, got %d", s.Seats)
	}
	if s.Seats > len(s.Candidates) {
		return nil, invalid("seats", "%d seats exceed %d candidates", s.Seats, len(s.Candidates))
	}

	e := &Election{
		position: make(map[string]int, len(s.Candidates)),
		voted:    make(map[string]struct{}, len(s.Voters)),
	}
	e.s = Snapshot{
		ID:          s.ID,
		GuildID:     s.GuildID,
		Seats:       s.Seats,
		Status:      s.Status,
		Title:       s.Title,
		Description: s.Description,
		Start:       s.Start,
		End:         s.End,
		MessageRef:  s.MessageRef,
		Candidates:  make([]Candidate, 0, len(s.Candidates)),
		Ballots:     make([]Ballot, 0, len(s.Ballots)),
		Voters:      make([]string, 0, len(s.Voters)),
	}

	for _, c := range s.Candidates {
		if strings.TrimSpace(c.UserID) == "" {
			return nil, invalid("candidates", "candidate %q has no user id", c.Username)
		}
		if _, dup := e.position[c.UserID]; dup {
			return nil, invalid("candidates", "duplicate candidate %s", c.UserID)
		}
		e.position[c.UserID] = len(e.s.Candidates)
		e.s.Candidates = append(e.s.Candidates, c)
	}

	if len(s.Ballots) != len(s.Voters) {
		return nil, invalid("ballots", "%d ballots for %d voters", len(s.Ballots), len(s.Voters))
	}
	for i, b := range s.Ballots {
		ids := make([]string, len(b.Approvals))
		for j, c := range b.Approvals {
			ids[j] = c.UserID
		}
		ballot, err := e.newBallot(ids)
		if err != nil {
			return nil, err
		}
		if err := e.record(s.Voters[i], ballot); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// newBallot resolves candidate ids against the election. Callers hold e.mu
// or own e exclusively.
func (e *Election) newBallot(ids []string) (Ballot, error) {
	if len(ids) == 0 {
		return Ballot{}, invalid("approvals", "at least one candidate must be approved")
	}
	seen := make(map[string]struct{}, len(ids))
	approvals := make([]Candidate, 0, len(ids))
	for _, id := range ids {
		pos, ok := e.position[id]
		if !ok {
			return Ballot{}, invalid("approvals", "unknown candidate %s", id)
		}
		if _, dup := seen[id]; dup {
			return Ballot{}, invalid("approvals", "candidate %s approved twice", id)
		}
		seen[id] = struct{}{}
		approvals = append(approvals, e.s.Candidates[pos])
	}
	return Ballot{Approvals: approvals}, nil
}

// record appends the ballot and its voter together.
func (e *Election) record(voterID string, b Ballot) error {
	if strings.TrimSpace(voterID) == "" {
		return invalid("voter", "must not be empty")
	}
	if _, dup := e.voted[voterID]; dup {
		return invalid("voters", "voter %s appears twice", voterID)
	}
	e.voted[voterID] = struct{}{}
	e.s.Ballots = append(e.s.Ballots, b)
	e.s.Voters = append(e.s.Voters, voterID)
	return nil
}

func (e *Election) ID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.s.ID
}

func (e *Election) GuildID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.s.GuildID
}

func (e *Election) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.s.Status
}

// Window returns the scheduled start and end.
func (e *Election) Window() (start, end time.Time) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.s.Start, e.s.End
}

// Candidates returns a copy of the candidate list in registration order.
func (e *Election) Candidates() []Candidate {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]Candidate, len(e.s.Candidates))
	copy(out, e.s.Candidates)
	return out
}

func (e *Election) BallotCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.s.Ballots)
}

func (e *Election) HasVoted(voterID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.voted[voterID]
	return ok
}

func (e *Election) MessageRef() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.s.MessageRef
}

// SetMessageRef records the handle of the message displaying the election.
func (e *Election) SetMessageRef(ref string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.s.MessageRef = ref
}

// Snapshot returns a deep copy of the election's data.
func (e *Election) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.s.clone()
}

// Hash returns the integrity hash of the current state.
func (e *Election) Hash() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.s.Hash()
}

func (s Snapshot) clone() Snapshot {
	out := s
	out.Candidates = append([]Candidate(nil), s.Candidates...)
	out.Voters = append([]string(nil), s.Voters...)
	out.Ballots = make([]Ballot, len(s.Ballots))
	for i, b := range s.Ballots {
		out.Ballots[i] = Ballot{Approvals: append([]Candidate(nil), b.Approvals...)}
	}
	return out
}

// OptionLabel returns the ballot letter for the candidate at index i:
// A..Z, then AA, AB, ...
func OptionLabel(i int) string {
	var b []byte
	for i >= 0 {
		b = append([]byte{byte('A' + i%26)}, b...)
		i = i/26 - 1
	}
	return string(b)
}
