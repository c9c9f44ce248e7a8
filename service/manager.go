// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/render"
	"github.com/danielhkuo/quickly-elect/scheduler"
)

// Store is the persistence collaborator. Load must round-trip everything
// Save wrote.
type Store interface {
	Save(ctx context.Context, e *election.Election) error
	Load(ctx context.Context, guildID, electionID string) (*election.Election, error)
	ListPending(ctx context.Context) ([]*election.Election, error)
	ListByGuild(ctx context.Context, guildID string) ([]models.ElectionSummary, error)
	Delete(ctx context.Context, guildID, electionID string) error
}

type CreateParams struct {
	Title       string
	Description string
	Seats       int
	Start       time.Time
	End         time.Time
	Candidates  []election.Candidate
}

type key struct {
	guild string
	id    string
}

func (k key) String() string { return k.guild + "/" + k.id }

// live is a hosted election. saveMu orders saves so a later snapshot is
// never overwritten by an earlier one. A deleted entry stays in the map as a
// tombstone so a stale holder cannot write the election back.
type live struct {
	e       *election.Election
	saveMu  sync.Mutex
	deleted atomic.Bool
}

// Manager hosts the elections of this process, keyed by guild.
type Manager struct {
	store Store
	sched *scheduler.Scheduler
	pub   Publisher
	now   func() time.Time

	mu   sync.Mutex
	live map[key]*live
}

func NewManager(store Store, sched *scheduler.Scheduler, pub Publisher) *Manager {
	if pub == nil {
		pub = LogPublisher{}
	}
	return &Manager{
		store: store,
		sched: sched,
		pub:   pub,
		now:   time.Now,
		live:  make(map[key]*live),
	}
}

// Create validates and stores a new election and schedules its
// transitions.
func (m *Manager) Create(ctx context.Context, guildID string, p CreateParams) (*election.Election, error) {
	if strings.TrimSpace(guildID) == "" {
		return nil, &election.ValidationError{Field: "guild", Reason: "must not be empty"}
	}
	if !p.End.After(m.now()) {
		return nil, &election.ValidationError{Field: "end", Reason: "must be in the future"}
	}

	e, err := election.New(election.Params{
		ID:          uuid.NewString(),
		GuildID:     guildID,
		Seats:       p.Seats,
		Title:       strings.TrimSpace(p.Title),
		Description: p.Description,
		Start:       p.Start.UTC(),
		End:         p.End.UTC(),
		Candidates:  p.Candidates,
	})
	if err != nil {
		return nil, err
	}

	l := m.track(e)
	if err := m.save(ctx, l); err != nil {
		m.forget(key{guildID, e.ID()})
		return nil, err
	}
	if err := m.schedule(e); err != nil {
		m.forget(key{guildID, e.ID()})
		if derr := m.store.Delete(ctx, guildID, e.ID()); derr != nil {
			slog.Error("failed to remove unscheduled election", "election_id", e.ID(), "error", derr)
		}
		return nil, err
	}

	slog.Info("election created", "guild_id", guildID, "election_id", e.ID(), "seats", p.Seats, "candidates", len(p.Candidates))
	return e, nil
}

// Get returns a hosted election, loading it from the store if needed.
func (m *Manager) Get(ctx context.Context, guildID, electionID string) (*election.Election, error) {
	l, err := m.get(ctx, guildID, electionID)
	if err != nil {
		return nil, err
	}
	return l.e, nil
}

// CastVote resolves refs against the election's candidates and records the
// ballot. It returns the new ballot count.
func (m *Manager) CastVote(ctx context.Context, guildID, electionID, voterID string, refs []string) (int, error) {
	l, err := m.get(ctx, guildID, electionID)
	if err != nil {
		return 0, err
	}

	ids, err := ResolveCandidates(l.e.Candidates(), refs)
	if err != nil {
		return 0, err
	}
	if err := l.e.CastBallot(voterID, ids); err != nil {
		return 0, err
	}

	// The ballot is accepted once recorded in memory. A failed write is
	// retried by the next save or Flush.
	if err := m.save(ctx, l); err != nil {
		var nf *election.NotFoundError
		if errors.As(err, &nf) {
			return 0, err
		}
		slog.Warn("ballot recorded but not yet persisted", "guild_id", guildID, "election_id", electionID, "error", err)
	}

	slog.Info("ballot cast", "guild_id", guildID, "election_id", electionID, "approvals", len(ids))
	return l.e.BallotCount(), nil
}

// Results returns the outcome of a decided election.
func (m *Manager) Results(ctx context.Context, guildID, electionID string) (*election.Election, election.Outcome, error) {
	e, err := m.Get(ctx, guildID, electionID)
	if err != nil {
		return nil, election.Outcome{}, err
	}
	out, err := e.Results()
	if err != nil {
		return nil, election.Outcome{}, err
	}
	return e, out, nil
}

func (m *Manager) List(ctx context.Context, guildID string) ([]models.ElectionSummary, error) {
	return m.store.ListByGuild(ctx, guildID)
}

// SetMessageRef records where the election is displayed.
func (m *Manager) SetMessageRef(ctx context.Context, guildID, electionID, ref string) error {
	l, err := m.get(ctx, guildID, electionID)
	if err != nil {
		return err
	}
	l.e.SetMessageRef(strings.TrimSpace(ref))
	return m.save(ctx, l)
}

// Delete archives an election. This is the only way an election leaves
// the manager. Saves already holding the election fail with NotFoundError
// once Delete returns.
func (m *Manager) Delete(ctx context.Context, guildID, electionID string) error {
	l, err := m.get(ctx, guildID, electionID)
	if err != nil {
		return err
	}

	l.saveMu.Lock()
	defer l.saveMu.Unlock()
	if l.deleted.Load() {
		return notFound(electionID)
	}
	if err := m.store.Delete(ctx, guildID, electionID); err != nil {
		return err
	}
	l.deleted.Store(true)
	m.sched.Cancel(key{guildID, electionID}.String())

	slog.Info("election deleted", "guild_id", guildID, "election_id", electionID)
	return nil
}

// OpenElection starts accepting ballots. Repeated calls are no-ops.
func (m *Manager) OpenElection(ctx context.Context, guildID, electionID string) error {
	l, err := m.get(ctx, guildID, electionID)
	if err != nil {
		return err
	}
	if !l.e.Open() {
		return nil
	}
	if err := m.save(ctx, l); err != nil {
		return err
	}

	slog.Info("election opened", "guild_id", guildID, "election_id", electionID)
	m.publish(ctx, l.e)
	return nil
}

// CloseElection decides the election and dispatches its tally to the
// worker pool. Repeated calls are no-ops.
func (m *Manager) CloseElection(ctx context.Context, guildID, electionID string) error {
	l, err := m.get(ctx, guildID, electionID)
	if err != nil {
		return err
	}
	if !l.e.Close() {
		return nil
	}
	if err := m.save(ctx, l); err != nil {
		return err
	}

	slog.Info("election closed", "guild_id", guildID, "election_id", electionID, "ballots", l.e.BallotCount())

	e := l.e
	err = m.sched.Dispatch(func() {
		start := time.Now()
		out, err := e.Results()
		if err != nil {
			slog.Error("tally failed", "election_id", e.ID(), "error", err)
			return
		}
		slog.Info("election decided",
			"guild_id", guildID,
			"election_id", e.ID(),
			"seats", len(out.Slate),
			"score", out.Score,
			"hash", e.Hash(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		m.publish(context.Background(), e)
	})
	if err != nil {
		// Results are still computed on first read.
		slog.Warn("tally not dispatched", "election_id", electionID, "error", err)
	}
	return nil
}

// Resume hosts and reschedules every undecided election in the store. It
// returns how many were resumed.
func (m *Manager) Resume(ctx context.Context) (int, error) {
	pending, err := m.store.ListPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending elections: %w", err)
	}
	for _, e := range pending {
		m.track(e)
		if err := m.schedule(e); err != nil {
			return 0, err
		}
	}
	slog.Info("elections resumed", "count", len(pending))
	return len(pending), nil
}

// Flush saves every hosted election.
func (m *Manager) Flush(ctx context.Context) error {
	m.mu.Lock()
	all := make([]*live, 0, len(m.live))
	for _, l := range m.live {
		if !l.deleted.Load() {
			all = append(all, l)
		}
	}
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for _, l := range all {
		g.Go(func() error {
			return m.save(gctx, l)
		})
	}
	return g.Wait()
}

func (m *Manager) get(ctx context.Context, guildID, electionID string) (*live, error) {
	k := key{guildID, electionID}

	m.mu.Lock()
	l, ok := m.live[k]
	m.mu.Unlock()
	if !ok {
		e, err := m.store.Load(ctx, guildID, electionID)
		if err != nil {
			return nil, err
		}
		l = m.track(e)
	}
	if l.deleted.Load() {
		return nil, notFound(electionID)
	}
	return l, nil
}

// track hosts e unless another copy is already hosted, in which case that
// copy wins.
func (m *Manager) track(e *election.Election) *live {
	k := key{e.GuildID(), e.ID()}

	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.live[k]; ok {
		return l
	}
	l := &live{e: e}
	m.live[k] = l
	return l
}

func (m *Manager) forget(k key) {
	m.mu.Lock()
	delete(m.live, k)
	m.mu.Unlock()
}

func (m *Manager) save(ctx context.Context, l *live) error {
	l.saveMu.Lock()
	defer l.saveMu.Unlock()
	if l.deleted.Load() {
		return notFound(l.e.ID())
	}
	if err := m.store.Save(ctx, l.e); err != nil {
		slog.Error("failed to save election", "election_id", l.e.ID(), "error", err)
		return fmt.Errorf("failed to save election: %w", err)
	}
	return nil
}

func notFound(electionID string) error {
	return &election.NotFoundError{Kind: "election", ID: electionID}
}

func (m *Manager) schedule(e *election.Election) error {
	guildID, electionID := e.GuildID(), e.ID()
	start, end := e.Window()
	k := key{guildID, electionID}

	return m.sched.Schedule(k.String(), start, end,
		func() {
			if err := m.OpenElection(context.Background(), guildID, electionID); err != nil {
				slog.Error("scheduled open failed", "election_id", electionID, "error", err)
			}
		},
		func() {
			if err := m.CloseElection(context.Background(), guildID, electionID); err != nil {
				slog.Error("scheduled close failed", "election_id", electionID, "error", err)
			}
		},
	)
}

func (m *Manager) publish(ctx context.Context, e *election.Election) {
	v, err := render.NewView(e)
	if err != nil {
		slog.Error("failed to build election view", "election_id", e.ID(), "error", err)
		return
	}
	if err := m.pub.Publish(ctx, v); err != nil {
		slog.Warn("failed to publish election update", "election_id", e.ID(), "error", err)
	}
}
