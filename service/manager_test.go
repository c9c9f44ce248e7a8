// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/render"
	"github.com/danielhkuo/quickly-elect/scheduler"
	"github.com/danielhkuo/quickly-elect/testutil"
)

// recordingPublisher forwards every view it is given.
type recordingPublisher struct {
	views chan render.View
	err   error
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{views: make(chan render.View, 64)}
}

func (p *recordingPublisher) Publish(_ context.Context, v render.View) error {
	p.views <- v
	return p.err
}

// waitDecided returns the first decided view published before the timeout.
func (p *recordingPublisher) waitDecided(t *testing.T) render.View {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case v := <-p.views:
			if v.Status == election.StatusDecided {
				return v
			}
		case <-timeout:
			t.Fatal("timed out waiting for a decided election")
		}
	}
}

type fixture struct {
	store *db.Store
	sched *scheduler.Scheduler
	pub   *recordingPublisher
	m     *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: db.NewStore(testutil.SetupTestDB(t)),
		sched: scheduler.New(2),
		pub:   newRecordingPublisher(),
	}
	t.Cleanup(f.sched.Stop)
	f.m = NewManager(f.store, f.sched, f.pub)
	return f
}

// faultyStore wraps a real store and can fail or hold saves.
type faultyStore struct {
	*db.Store
	failSave atomic.Bool
	hold     chan struct{} // when non-nil, Save signals entered and waits
	entered  chan struct{}
}

func (s *faultyStore) Save(ctx context.Context, e *election.Election) error {
	if s.failSave.Load() {
		return errors.New("disk full")
	}
	if s.hold != nil {
		s.entered <- struct{}{}
		<-s.hold
	}
	return s.Store.Save(ctx, e)
}

func createOpen(t *testing.T, m *Manager, seats int, names ...string) *election.Election {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	e, err := m.Create(ctx, "g1", CreateParams{
		Title:      "Moderator",
		Seats:      seats,
		Start:      now.Add(-time.Minute),
		End:        now.Add(time.Hour),
		Candidates: testutil.Candidates(names...),
	})
	require.NoError(t, err)
	require.NoError(t, m.OpenElection(ctx, "g1", e.ID()))
	return e
}

func TestCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	e, err := f.m.Create(ctx, "g1", CreateParams{
		Title:      "  Moderator ",
		Seats:      1,
		Start:      now.Add(time.Hour),
		End:        now.Add(2 * time.Hour),
		Candidates: testutil.Candidates("alice", "bob"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, e.ID())
	assert.Equal(t, election.StatusScheduled, e.Status())
	assert.Equal(t, "Moderator", e.Snapshot().Title)
	assert.Equal(t, "B", e.Candidates()[1].Option)
	assert.Equal(t, 1, f.sched.Pending())

	stored, err := f.store.Load(ctx, "g1", e.ID())
	require.NoError(t, err)
	assert.Equal(t, e.Hash(), stored.Hash())
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	valid := CreateParams{
		Title:      "Moderator",
		Seats:      1,
		Start:      now,
		End:        now.Add(time.Hour),
		Candidates: testutil.Candidates("alice"),
	}

	tests := []struct {
		name  string
		guild string
		edit  func(p *CreateParams)
	}{
		{"empty guild", " ", func(p *CreateParams) {}},
		{"end in the past", "g1", func(p *CreateParams) {
			p.Start = now.Add(-2 * time.Hour)
			p.End = now.Add(-time.Hour)
		}},
		{"too many seats", "g1", func(p *CreateParams) { p.Seats = 2 }},
		{"no title", "g1", func(p *CreateParams) { p.Title = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.edit(&p)
			_, err := f.m.Create(context.Background(), tt.guild, p)

			var ve *election.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
	assert.Equal(t, 0, f.sched.Pending())
}

func TestCastVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := createOpen(t, f.m, 2, "alice", "bob", "carol")

	n, err := f.m.CastVote(ctx, "g1", e.ID(), "v1", []string{"@Carol", "a"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = f.m.CastVote(ctx, "g1", e.ID(), "v2", []string{"u-bob"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	stored, err := f.store.Load(ctx, "g1", e.ID())
	require.NoError(t, err)
	snap := stored.Snapshot()
	require.Len(t, snap.Ballots, 2)
	assert.Equal(t, "u-carol", snap.Ballots[0].Approvals[0].UserID)
	assert.Equal(t, "u-alice", snap.Ballots[0].Approvals[1].UserID)
}

func TestCastVote_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := createOpen(t, f.m, 1, "alice", "bob")
	_, err := f.m.CastVote(ctx, "g1", e.ID(), "v1", []string{"alice"})
	require.NoError(t, err)

	var nf *election.NotFoundError
	var se *election.StateError
	var ve *election.ValidationError

	_, err = f.m.CastVote(ctx, "g1", e.ID(), "v2", []string{"dave"})
	assert.ErrorAs(t, err, &nf, "unknown candidate")

	_, err = f.m.CastVote(ctx, "g1", "missing", "v2", []string{"alice"})
	assert.ErrorAs(t, err, &nf, "unknown election")

	_, err = f.m.CastVote(ctx, "g1", e.ID(), "v1", []string{"bob"})
	assert.ErrorAs(t, err, &se, "second ballot")

	_, err = f.m.CastVote(ctx, "g1", e.ID(), "v2", []string{"bob", "B"})
	assert.ErrorAs(t, err, &ve, "duplicate approval")

	_, err = f.m.CastVote(ctx, "g1", e.ID(), "v2", nil)
	assert.ErrorAs(t, err, &ve, "empty ballot")

	assert.Equal(t, 1, e.BallotCount())
}

func TestCastVote_BeforeStart(t *testing.T) {
	f := newFixture(t)
	now := time.Now()
	e, err := f.m.Create(context.Background(), "g1", CreateParams{
		Title:      "Later",
		Seats:      1,
		Start:      now.Add(time.Hour),
		End:        now.Add(2 * time.Hour),
		Candidates: testutil.Candidates("alice"),
	})
	require.NoError(t, err)

	_, err = f.m.CastVote(context.Background(), "g1", e.ID(), "v1", []string{"alice"})

	var se *election.StateError
	assert.ErrorAs(t, err, &se)
}

func TestCloseElection_PublishesResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := createOpen(t, f.m, 2, "A", "B", "C")

	// {A,C} and {B,C} tie at 4.5 ahead of {A,B} at 3.5.
	for voter, refs := range map[string][]string{
		"v1": {"A", "B"},
		"v2": {"A", "C"},
		"v3": {"C"},
		"v4": {"B", "C"},
	} {
		_, err := f.m.CastVote(ctx, "g1", e.ID(), voter, refs)
		require.NoError(t, err)
	}

	_, _, err := f.m.Results(ctx, "g1", e.ID())
	var se *election.StateError
	require.ErrorAs(t, err, &se, "results are sealed while open")

	require.NoError(t, f.m.CloseElection(ctx, "g1", e.ID()))
	require.NoError(t, f.m.CloseElection(ctx, "g1", e.ID()))

	v := f.pub.waitDecided(t)
	require.NotNil(t, v.Outcome)
	assert.Equal(t, e.Hash(), v.Hash)

	_, out, err := f.m.Results(ctx, "g1", e.ID())
	require.NoError(t, err)
	assert.Equal(t, v.Outcome.Score, out.Score)
	require.Len(t, out.Slate, 2)
	assert.Equal(t, 4.5, out.Score)
	assert.Equal(t, "A", out.Slate[0].Username)
	assert.Equal(t, "C", out.Slate[1].Username)

	_, err = f.m.CastVote(ctx, "g1", e.ID(), "v5", []string{"A"})
	assert.ErrorAs(t, err, &se, "ballots after close")
}

func TestScheduledClose(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()

	e, err := f.m.Create(ctx, "g1", CreateParams{
		Title:      "Quick",
		Seats:      1,
		Start:      now.Add(-time.Second),
		End:        now.Add(300 * time.Millisecond),
		Candidates: testutil.Candidates("alice", "bob"),
	})
	require.NoError(t, err)

	v := f.pub.waitDecided(t)
	assert.Equal(t, e.ID(), v.ID)
	assert.Equal(t, election.StatusDecided, e.Status())

	stored, err := f.store.Load(ctx, "g1", e.ID())
	require.NoError(t, err)
	assert.Equal(t, election.StatusDecided, stored.Status())
	assert.Equal(t, 0, f.sched.Pending())
}

func TestResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := createOpen(t, f.m, 1, "alice", "bob")
	_, err := f.m.CastVote(ctx, "g1", e.ID(), "v1", []string{"bob"})
	require.NoError(t, err)

	done := createOpen(t, f.m, 1, "carol")
	require.NoError(t, f.m.CloseElection(ctx, "g1", done.ID()))

	// A new process over the same store.
	sched := scheduler.New(1)
	t.Cleanup(sched.Stop)
	m := NewManager(f.store, sched, newRecordingPublisher())

	n, err := m.Resume(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, sched.Pending())

	got, err := m.Get(ctx, "g1", e.ID())
	require.NoError(t, err)
	assert.True(t, got.HasVoted("v1"))
	assert.Equal(t, e.Hash(), got.Hash())
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := createOpen(t, f.m, 1, "alice")

	require.NoError(t, f.m.Delete(ctx, "g1", e.ID()))
	assert.Equal(t, 0, f.sched.Pending())

	var nf *election.NotFoundError
	_, err := f.m.Get(ctx, "g1", e.ID())
	assert.ErrorAs(t, err, &nf)
	assert.ErrorAs(t, f.m.Delete(ctx, "g1", e.ID()), &nf)
}

func TestDelete_StaleHolderCannotWriteBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := createOpen(t, f.m, 1, "alice", "bob")

	l, err := f.m.get(ctx, "g1", e.ID())
	require.NoError(t, err)
	require.NoError(t, f.m.Delete(ctx, "g1", e.ID()))

	// A caller that looked the election up before Delete finishes its
	// ballot afterwards.
	require.NoError(t, l.e.CastBallot("v1", []string{"u-alice"}))
	var nf *election.NotFoundError
	assert.ErrorAs(t, f.m.save(ctx, l), &nf)

	assert.ErrorAs(t, f.m.OpenElection(ctx, "g1", e.ID()), &nf)
	assert.ErrorAs(t, f.m.CloseElection(ctx, "g1", e.ID()), &nf)
	assert.ErrorAs(t, f.m.SetMessageRef(ctx, "g1", e.ID(), "channel/1"), &nf)
	_, err = f.m.CastVote(ctx, "g1", e.ID(), "v2", []string{"bob"})
	assert.ErrorAs(t, err, &nf)
	assert.NoError(t, f.m.Flush(ctx))

	_, err = f.store.Load(ctx, "g1", e.ID())
	assert.ErrorAs(t, err, &nf)
	summaries, err := f.m.List(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestDelete_WaitsForInFlightSave(t *testing.T) {
	f := newFixture(t)
	store := &faultyStore{Store: f.store}
	m := NewManager(store, f.sched, f.pub)
	ctx := context.Background()
	e := createOpen(t, m, 1, "alice")

	store.hold = make(chan struct{})
	store.entered = make(chan struct{})

	castDone := make(chan error, 1)
	go func() {
		_, err := m.CastVote(ctx, "g1", e.ID(), "v1", []string{"alice"})
		castDone <- err
	}()
	<-store.entered

	deleteDone := make(chan error, 1)
	go func() {
		deleteDone <- m.Delete(ctx, "g1", e.ID())
	}()

	select {
	case err := <-deleteDone:
		t.Fatalf("Delete returned during an in-flight save: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(store.hold)
	require.NoError(t, <-castDone)
	require.NoError(t, <-deleteDone)

	var nf *election.NotFoundError
	_, err := f.store.Load(ctx, "g1", e.ID())
	assert.ErrorAs(t, err, &nf)
}

func TestCastVote_SaveFailureKeepsBallot(t *testing.T) {
	f := newFixture(t)
	store := &faultyStore{Store: f.store}
	m := NewManager(store, f.sched, f.pub)
	ctx := context.Background()
	e := createOpen(t, m, 1, "alice", "bob")

	store.failSave.Store(true)
	n, err := m.CastVote(ctx, "g1", e.ID(), "v1", []string{"alice"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = m.CastVote(ctx, "g1", e.ID(), "v1", []string{"bob"})
	var se *election.StateError
	assert.ErrorAs(t, err, &se, "repeat after an unsaved ballot")

	stored, err := f.store.Load(ctx, "g1", e.ID())
	require.NoError(t, err)
	assert.Equal(t, 0, stored.BallotCount())

	store.failSave.Store(false)
	require.NoError(t, m.Flush(ctx))

	stored, err = f.store.Load(ctx, "g1", e.ID())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.BallotCount())
	assert.Equal(t, e.Hash(), stored.Hash())
}

func TestCreate_ScheduleFailureLeavesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now()
	f.sched.Stop()

	_, err := f.m.Create(ctx, "g1", CreateParams{
		Title:      "Moderator",
		Seats:      1,
		Start:      now.Add(time.Hour),
		End:        now.Add(2 * time.Hour),
		Candidates: testutil.Candidates("alice"),
	})
	assert.ErrorIs(t, err, scheduler.ErrStopped)

	summaries, err := f.m.List(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, summaries)

	f.m.mu.Lock()
	assert.Empty(t, f.m.live)
	f.m.mu.Unlock()
}

func TestSetMessageRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e := createOpen(t, f.m, 1, "alice")
	before := e.Hash()

	require.NoError(t, f.m.SetMessageRef(ctx, "g1", e.ID(), " channel/7 "))
	assert.Equal(t, "channel/7", e.MessageRef())
	assert.NotEqual(t, before, e.Hash())

	stored, err := f.store.Load(ctx, "g1", e.ID())
	require.NoError(t, err)
	assert.Equal(t, "channel/7", stored.MessageRef())
}

func TestList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createOpen(t, f.m, 1, "alice")
	createOpen(t, f.m, 1, "bob")

	sums, err := f.m.List(ctx, "g1")
	require.NoError(t, err)
	assert.Len(t, sums, 2)

	sums, err = f.m.List(ctx, "other")
	require.NoError(t, err)
	assert.Empty(t, sums)
}

func TestFlush(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	createOpen(t, f.m, 1, "alice")
	createOpen(t, f.m, 1, "bob")

	assert.NoError(t, f.m.Flush(ctx))
}

func TestPublishErrorIsNotFatal(t *testing.T) {
	f := newFixture(t)
	pub := newRecordingPublisher()
	pub.err = errors.New("discord unavailable")
	m := NewManager(f.store, f.sched, pub)
	ctx := context.Background()
	e := createOpen(t, m, 1, "alice")

	require.NoError(t, m.CloseElection(ctx, "g1", e.ID()))
	pub.waitDecided(t)
	assert.Equal(t, election.StatusDecided, e.Status())
}
