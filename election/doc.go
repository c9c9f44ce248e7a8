// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package election implements the approval-based multi-winner election engine.

# Lifecycle

Elections progress through three states: scheduled → open → decided

	e, err := election.New(params)  // scheduled
	e.Open()                         // ballots accepted
	e.CastBallot("voter", []string{"alice", "bob"})
	e.Close()                        // decided, ballots frozen
	outcome, err := e.Results()

Open and Close are idempotent. Applying a transition the election has
already passed is a no-op, so timers may fire late or twice.

# Winner Selection

Every slate of size Seats is scored. A ballot contributes 1 for the first
slate member it approves, 1/2 for the second, 1/4 for the third and so on,
in the order the approvals were cast. Approvals outside the slate do not
consume a weight step. The slate with the highest total wins.

Ties go to the first maximal slate in enumeration order. Slates are
enumerated as index combinations over the candidate list in lexicographic
order ({0,1}, {0,2}, {1,2}, ...), so the tie-break depends only on the order
candidates were registered in.

Enumeration visits C(N, k) slates. Elections are expected to have tens of
candidates and single-digit seats.

# Integrity Hash

Snapshot.Canonical produces a fixed binary encoding of the full election
state and Snapshot.Hash returns its SHA-256 as lowercase hex. Anyone holding
a snapshot can recompute the hash and compare it with the displayed one.

# Errors

All failures are one of *ValidationError, *StateError or *NotFoundError and
can be matched with errors.As.
*/
package election
