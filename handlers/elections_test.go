// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-elect/auth"
	"github.com/danielhkuo/quickly-elect/models"
	"github.com/danielhkuo/quickly-elect/testutil"
)

func TestCreateElection(t *testing.T) {
	mgr, cfg := setupManager(t)
	handler := NewElectionHandler(mgr, cfg)
	now := time.Now()

	testCases := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{
			name:           "valid election",
			body:           openElectionRequest(1, "alice", "bob"),
			expectedStatus: http.StatusCreated,
		},
		{
			name: "missing title",
			body: models.CreateElectionRequest{
				Seats: 1, Start: now, End: now.Add(time.Hour),
				Candidates: []models.CandidateInput{{UserID: "1", Username: "alice"}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "no candidates",
			body: models.CreateElectionRequest{
				Title: "Empty", Seats: 1, Start: now, End: now.Add(time.Hour),
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "more seats than candidates",
			body: models.CreateElectionRequest{
				Title: "Too many", Seats: 3, Start: now, End: now.Add(time.Hour),
				Candidates: []models.CandidateInput{{UserID: "1", Username: "alice"}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "end before start",
			body: models.CreateElectionRequest{
				Title: "Backwards", Seats: 1, Start: now.Add(2 * time.Hour), End: now.Add(time.Hour),
				Candidates: []models.CandidateInput{{UserID: "1", Username: "alice"}},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "duplicate candidate",
			body: models.CreateElectionRequest{
				Title: "Twice", Seats: 1, Start: now, End: now.Add(time.Hour),
				Candidates: []models.CandidateInput{
					{UserID: "1", Username: "alice"},
					{UserID: "1", Username: "alice"},
				},
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/guilds/g1/elections", tc.body, nil)
			req.SetPathValue("guild", "g1")
			w := httptest.NewRecorder()

			handler.CreateElection(w, req)

			testutil.AssertStatus(t, w, tc.expectedStatus)

			if tc.expectedStatus == http.StatusCreated {
				var resp models.CreateElectionResponse
				testutil.AssertJSON(t, w, &resp)

				if resp.ElectionID == "" {
					t.Error("Expected election_id in response")
				}
				if err := auth.ValidateAdminKey("g1", resp.ElectionID, resp.AdminKey, cfg.AdminKeySalt); err != nil {
					t.Errorf("Admin key does not validate: %v", err)
				}
				if len(resp.Hash) != 64 {
					t.Errorf("Expected a 64 character hash, got %q", resp.Hash)
				}
			}
		})
	}
}

func TestCreateElection_InvalidJSON(t *testing.T) {
	mgr, cfg := setupManager(t)
	handler := NewElectionHandler(mgr, cfg)

	req := httptest.NewRequest("POST", "/guilds/g1/elections", bytes.NewReader([]byte("{not json")))
	req.SetPathValue("guild", "g1")
	w := httptest.NewRecorder()

	handler.CreateElection(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
}

func TestGetElection(t *testing.T) {
	mgr, cfg := setupManager(t)
	handler := NewElectionHandler(mgr, cfg)
	votingHandler := NewVotingHandler(mgr)

	id, _ := openElection(t, mgr, handler, 1, "alice", "bob")
	testutil.AssertStatus(t, castBallot(t, votingHandler, id, "v1", "alice"), http.StatusCreated)

	w := httptest.NewRecorder()
	handler.GetElection(w, electionRequest("GET", "/guilds/g1/elections/"+id, id, nil, nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.Election
	testutil.AssertJSON(t, w, &resp)

	if resp.ID != id || resp.GuildID != "g1" {
		t.Errorf("Unexpected election identity %s/%s", resp.GuildID, resp.ID)
	}
	if resp.Status != models.StatusOpen {
		t.Errorf("Expected status open, got %s", resp.Status)
	}
	if resp.Method != models.MethodHarmonicApproval {
		t.Errorf("Expected method %s, got %s", models.MethodHarmonicApproval, resp.Method)
	}
	if resp.BallotCount != 1 {
		t.Errorf("Expected ballot_count 1, got %d", resp.BallotCount)
	}
	if len(resp.Candidates) != 2 || resp.Candidates[1].Option != "B" {
		t.Errorf("Unexpected candidates %+v", resp.Candidates)
	}
}

func TestGetElection_NotFound(t *testing.T) {
	mgr, cfg := setupManager(t)
	handler := NewElectionHandler(mgr, cfg)

	w := httptest.NewRecorder()
	handler.GetElection(w, electionRequest("GET", "/guilds/g1/elections/missing", "missing", nil, nil))

	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestListElections(t *testing.T) {
	mgr, cfg := setupManager(t)
	handler := NewElectionHandler(mgr, cfg)

	openElection(t, mgr, handler, 1, "alice")
	openElection(t, mgr, handler, 1, "bob")

	req := testutil.MakeRequest("GET", "/guilds/g1/elections", nil, nil)
	req.SetPathValue("guild", "g1")
	w := httptest.NewRecorder()
	handler.ListElections(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp []models.ElectionSummary
	testutil.AssertJSON(t, w, &resp)
	if len(resp) != 2 {
		t.Errorf("Expected 2 elections, got %d", len(resp))
	}

	// Another guild sees nothing.
	req = testutil.MakeRequest("GET", "/guilds/g2/elections", nil, nil)
	req.SetPathValue("guild", "g2")
	w = httptest.NewRecorder()
	handler.ListElections(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if body := bytes.TrimSpace(w.Body.Bytes()); string(body) != "[]" {
		t.Errorf("Expected empty list, got %s", body)
	}
}

func TestCloseElection(t *testing.T) {
	mgr, cfg := setupManager(t)
	handler := NewElectionHandler(mgr, cfg)

	id, adminKey := openElection(t, mgr, handler, 1, "alice", "bob")

	testCases := []struct {
		name           string
		adminKey       string
		expectedStatus int
	}{
		{"missing admin key", "", http.StatusUnauthorized},
		{"wrong admin key", "not-the-key", http.StatusUnauthorized},
		{"valid admin key", adminKey, http.StatusOK},
		{"closing twice", adminKey, http.StatusOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := electionRequest("POST", "/guilds/g1/elections/"+id+"/close", id, nil,
				map[string]string{"X-Admin-Key": tc.adminKey})
			w := httptest.NewRecorder()

			handler.CloseElection(w, req)

			testutil.AssertStatus(t, w, tc.expectedStatus)
			if tc.expectedStatus == http.StatusOK {
				var resp models.Election
				testutil.AssertJSON(t, w, &resp)
				if resp.Status != models.StatusDecided {
					t.Errorf("Expected status decided, got %s", resp.Status)
				}
			}
		})
	}
}

func TestAdminKeyIsGuildBound(t *testing.T) {
	mgr, cfg := setupManager(t)
	handler := NewElectionHandler(mgr, cfg)

	id, _ := openElection(t, mgr, handler, 1, "alice")
	otherGuildKey := auth.GenerateAdminKey("g2", id, cfg.AdminKeySalt)

	req := electionRequest("DELETE", "/guilds/g1/elections/"+id, id, nil,
		map[string]string{"X-Admin-Key": otherGuildKey})
	w := httptest.NewRecorder()
	handler.DeleteElection(w, req)

	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestSetMessage(t *testing.T) {
	mgr, cfg := setupManager(t)
	handler := NewElectionHandler(mgr, cfg)

	id, adminKey := openElection(t, mgr, handler, 1, "alice")
	headers := map[string]string{"X-Admin-Key": adminKey}

	w := httptest.NewRecorder()
	handler.SetMessage(w, electionRequest("PUT", "/guilds/g1/elections/"+id+"/message", id,
		models.SetMessageRequest{}, headers))
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	w = httptest.NewRecorder()
	handler.SetMessage(w, electionRequest("PUT", "/guilds/g1/elections/"+id+"/message", id,
		models.SetMessageRequest{MessageRef: "channel/55"}, headers))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.Election
	testutil.AssertJSON(t, w, &resp)
	if resp.MessageRef != "channel/55" {
		t.Errorf("Expected message_ref channel/55, got %q", resp.MessageRef)
	}
}

func TestDeleteElection(t *testing.T) {
	mgr, cfg := setupManager(t)
	handler := NewElectionHandler(mgr, cfg)

	id, adminKey := openElection(t, mgr, handler, 1, "alice")
	headers := map[string]string{"X-Admin-Key": adminKey}

	w := httptest.NewRecorder()
	handler.DeleteElection(w, electionRequest("DELETE", "/guilds/g1/elections/"+id, id, nil, headers))
	testutil.AssertStatus(t, w, http.StatusNoContent)

	w = httptest.NewRecorder()
	handler.GetElection(w, electionRequest("GET", "/guilds/g1/elections/"+id, id, nil, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = httptest.NewRecorder()
	handler.DeleteElection(w, electionRequest("DELETE", "/guilds/g1/elections/"+id, id, nil, headers))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}
