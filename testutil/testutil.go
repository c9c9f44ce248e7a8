// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-elect/cliparse"
	"github.com/danielhkuo/quickly-elect/db"
	"github.com/danielhkuo/quickly-elect/election"
)

// SetupTestDB opens a fresh SQLite database with the full schema. It is
// closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := db.Open(db.TypeSQLite, "file:"+filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         3318,
		DatabaseType: db.TypeSQLite,
		DatabaseURL:  "file::memory:",
		AdminKeySalt: "test-admin-salt",
		TallyWorkers: 2,
	}
}

// Candidates builds candidates with user ids "u-<name>".
func Candidates(names ...string) []election.Candidate {
	cs := make([]election.Candidate, len(names))
	for i, n := range names {
		cs[i] = election.Candidate{UserID: "u-" + n, Username: n}
	}
	return cs
}

// NewTestElection builds an election in guild "g1" whose window spans now.
// It is still scheduled; call Open to accept ballots.
func NewTestElection(t *testing.T, id string, seats int, names ...string) *election.Election {
	t.Helper()

	now := time.Now().UTC()
	e, err := election.New(election.Params{
		ID:         id,
		GuildID:    "g1",
		Seats:      seats,
		Title:      "Test Election",
		Start:      now.Add(-time.Hour),
		End:        now.Add(time.Hour),
		Candidates: Candidates(names...),
	})
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}
	return e
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
