// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// The DDL is shared by Postgres and SQLite. Times are Unix nanoseconds so
// they survive a round trip through either driver unchanged.
const schema = `
-- Elections
CREATE TABLE IF NOT EXISTS election (
    guild_id TEXT NOT NULL,
    id TEXT NOT NULL,
    seats INTEGER NOT NULL CHECK (seats >= 1),
    status TEXT NOT NULL CHECK (status IN ('scheduled', 'open', 'decided')),
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_ns BIGINT NOT NULL,
    end_ns BIGINT NOT NULL,
    message_ref TEXT NOT NULL DEFAULT '',
    state_hash TEXT NOT NULL,
    updated_ns BIGINT NOT NULL,
    PRIMARY KEY (guild_id, id),
    CHECK (start_ns < end_ns)
);

CREATE INDEX IF NOT EXISTS idx_election_status ON election(status);

-- Candidates, in registration order
CREATE TABLE IF NOT EXISTS candidate (
    guild_id TEXT NOT NULL,
    election_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    user_id TEXT NOT NULL,
    username TEXT NOT NULL,
    option_label TEXT NOT NULL,
    PRIMARY KEY (guild_id, election_id, seq),
    UNIQUE (guild_id, election_id, user_id),
    FOREIGN KEY (guild_id, election_id) REFERENCES election(guild_id, id) ON DELETE CASCADE
);

-- Ballots, in casting order; one per voter
CREATE TABLE IF NOT EXISTS ballot (
    guild_id TEXT NOT NULL,
    election_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    voter_id TEXT NOT NULL,
    PRIMARY KEY (guild_id, election_id, seq),
    UNIQUE (guild_id, election_id, voter_id),
    FOREIGN KEY (guild_id, election_id) REFERENCES election(guild_id, id) ON DELETE CASCADE
);

-- Approvals, in the order the voter listed them
CREATE TABLE IF NOT EXISTS approval (
    guild_id TEXT NOT NULL,
    election_id TEXT NOT NULL,
    ballot_seq INTEGER NOT NULL,
    seq INTEGER NOT NULL,
    user_id TEXT NOT NULL,
    PRIMARY KEY (guild_id, election_id, ballot_seq, seq),
    FOREIGN KEY (guild_id, election_id, ballot_seq) REFERENCES ballot(guild_id, election_id, seq) ON DELETE CASCADE
);
`
