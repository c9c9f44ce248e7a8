// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package service hosts the elections of a running process.

A Manager owns every live election, keyed by guild and election id, and
ties together the election core, its Store, the scheduler and a Publisher:

	m := service.NewManager(db.NewStore(conn), scheduler.New(4), service.LogPublisher{})
	n, err := m.Resume(ctx) // reschedule undecided elections after a restart

Each mutation is persisted before it is acknowledged. Saves of one election
are serialised so the store always holds its latest state.

When an election closes its tally is dispatched to the scheduler's worker
pool and the decided view is handed to the Publisher.

Voters may name candidates by user id, ballot letter or username; see
ResolveCandidates.
*/
package service
