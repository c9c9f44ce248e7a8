// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/render"
	"github.com/danielhkuo/quickly-elect/scheduler"
	"github.com/danielhkuo/quickly-elect/service"
	"github.com/danielhkuo/quickly-elect/testutil"
)

// discardPublisher drops every update.
type discardPublisher struct{}

func (discardPublisher) Publish(_ context.Context, _ render.View) error { return nil }

// setupManager returns a manager over a fresh SQLite database.
func setupManager(t *testing.T) (*service.Manager, cliparse.Config) {
	t.Helper()
	store := db.NewStore(testutil.SetupTestDB(t))
	sched := scheduler.New(2)
	t.Cleanup(sched.Stop)
	return service.NewManager(store, sched, discardPublisher{}), testutil.GetTestConfig()
}

// createTestElection creates an election in guild g1 through the handler
// and returns its id and admin key. A start in the past makes it open.
func createTestElection(t *testing.T, h *ElectionHandler, req models.CreateElectionRequest) (id, adminKey string) {
	t.Helper()

	r := testutil.MakeRequest("POST", "/guilds/g1/elections", req, nil)
	r.SetPathValue("guild", "g1")
	w := httptest.NewRecorder()
	h.CreateElection(w, r)

	if w.Code != http.StatusCreated {
		t.Fatalf("Failed to create election: %d - %s", w.Code, w.Body.String())
	}
	var resp models.CreateElectionResponse
	testutil.AssertJSON(t, w, &resp)
	return resp.ElectionID, resp.AdminKey
}

func openElectionRequest(seats int, usernames ...string) models.CreateElectionRequest {
	now := time.Now()
	candidates := make([]models.CandidateInput, len(usernames))
	for i, u := range usernames {
		candidates[i] = models.CandidateInput{UserID: "u-" + u, Username: u}
	}
	return models.CreateElectionRequest{
		Title:      "Moderator",
		Seats:      seats,
		Start:      now.Add(-time.Minute),
		End:        now.Add(time.Hour),
		Candidates: candidates,
	}
}

// openElection creates an election and opens it without waiting for the
// scheduler.
func openElection(t *testing.T, mgr *service.Manager, h *ElectionHandler, seats int, usernames ...string) (id, adminKey string) {
	t.Helper()
	id, adminKey = createTestElection(t, h, openElectionRequest(seats, usernames...))
	if err := mgr.OpenElection(context.Background(), "g1", id); err != nil {
		t.Fatalf("Failed to open election: %v", err)
	}
	return id, adminKey
}

func electionRequest(method, path, id string, body interface{}, headers map[string]string) *http.Request {
	r := testutil.MakeRequest(method, path, body, headers)
	r.SetPathValue("guild", "g1")
	r.SetPathValue("id", id)
	return r
}

func castBallot(t *testing.T, h *VotingHandler, id, voter string, approvals ...string) *httptest.ResponseRecorder {
	t.Helper()
	r := electionRequest("POST", "/guilds/g1/elections/"+id+"/ballots", id,
		models.CastBallotRequest{Approvals: approvals},
		map[string]string{"X-Voter-ID": voter})
	w := httptest.NewRecorder()
	h.CastBallot(w, r)
	return w
}
