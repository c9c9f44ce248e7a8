// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database connections, schema creation, and election
persistence.

# Connecting

Open accepts "sqlite" (modernc.org/sqlite, the default) or "postgres"
(github.com/lib/pq):

	conn, err := db.Open(db.TypeSQLite, "file:elections.db")

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - election: election metadata, lifecycle state and integrity hash
  - candidate: candidates in registration order
  - ballot: one ballot per voter, in casting order
  - approval: a ballot's approvals in the order they were given

# Relationships

	election 1──* candidate
	election 1──* ballot
	ballot   1──* approval

Times are stored as Unix nanoseconds.

# Store

Store implements load/save for elections:

	store := db.NewStore(conn)
	err := store.Save(ctx, e)
	e, err := store.Load(ctx, guildID, electionID)

Save records the election's hash; Load recomputes it and fails with
ErrHashMismatch if the rows were changed behind the store's back.
*/
package db
