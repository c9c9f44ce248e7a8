// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

// Open moves a scheduled election to open. It reports whether the status
// changed; an election that is already open or decided is left alone.
func (e *Election) Open() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.Status != StatusScheduled {
		return false
	}
	e.s.Status = StatusOpen
	return true
}

// Close moves the election to decided and freezes its ballots. A scheduled
// election whose window passed without opening is decided directly. It
// reports whether the status changed.
func (e *Election) Close() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.Status == StatusDecided {
		return false
	}
	e.s.Status = StatusDecided
	return true
}

// CastBallot records voterID's approvals in the given order. On failure the
// election is unchanged.
func (e *Election) CastBallot(voterID string, approvedCandidateIDs []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.s.Status != StatusOpen {
		return &StateError{Op: "cast ballot", Status: e.s.Status, Reason: "election is not open for voting"}
	}
	if _, ok := e.voted[voterID]; ok {
		return &StateError{Op: "cast ballot", Status: e.s.Status, Reason: "voter " + voterID + " has already voted"}
	}

	ballot, err := e.newBallot(approvedCandidateIDs)
	if err != nil {
		return err
	}
	return e.record(voterID, ballot)
}

// Results returns the winning slate and its score. The computation runs
// once, on the first call after the election is decided.
func (e *Election) Results() (Outcome, error) {
	e.mu.RLock()
	status := e.s.Status
	e.mu.RUnlock()

	if status != StatusDecided {
		return Outcome{}, &StateError{Op: "read results", Status: status, Reason: "results are sealed until the election is decided"}
	}

	// Decided is terminal, so the ballots read here can no longer change.
	e.tally.Do(func() {
		e.mu.RLock()
		defer e.mu.RUnlock()
		e.outcome = CalculateResults(e.s.Candidates, e.s.Ballots, e.s.Seats)
	})
	return e.outcome.clone(), nil
}
