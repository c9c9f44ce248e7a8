// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scheduler drives election transitions and background tallies.

	s := scheduler.New(cfg.TallyWorkers)
	defer s.Stop()

	s.Schedule(key, start, end, openFn, closeFn)
	s.Dispatch(func() { e.Results() })

Transition callbacks must be idempotent: a restart reschedules every
pending election and may fire a transition that already happened.
*/
package scheduler
