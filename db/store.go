// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/danielhkuo/quickly-elect/election"
	"github.com/danielhkuo/quickly-elect/models"
)

// ErrHashMismatch is returned by Load when the stored integrity hash does
// not match the state read back.
var ErrHashMismatch = errors.New("stored election hash does not match its data")

// Store persists elections in a SQL database.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save writes the full state of e, replacing any previous version.
func (s *Store) Save(ctx context.Context, e *election.Election) error {
	snap := e.Snapshot()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteElection(ctx, tx, snap.GuildID, snap.ID); err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO election (guild_id, id, seats, status, title, description,
		                      start_ns, end_ns, message_ref, state_hash, updated_ns)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, snap.GuildID, snap.ID, snap.Seats, snap.Status.String(), snap.Title, snap.Description,
		snap.Start.UnixNano(), snap.End.UnixNano(), snap.MessageRef, snap.Hash(), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert election: %w", err)
	}

	for i, c := range snap.Candidates {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO candidate (guild_id, election_id, seq, user_id, username, option_label)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, snap.GuildID, snap.ID, i, c.UserID, c.Username, c.Option)
		if err != nil {
			return fmt.Errorf("failed to insert candidate: %w", err)
		}
	}

	for i, b := range snap.Ballots {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ballot (guild_id, election_id, seq, voter_id)
			VALUES ($1, $2, $3, $4)
		`, snap.GuildID, snap.ID, i, snap.Voters[i])
		if err != nil {
			return fmt.Errorf("failed to insert ballot: %w", err)
		}

		for j, c := range b.Approvals {
			_, err = tx.ExecContext(ctx, `
				INSERT INTO approval (guild_id, election_id, ballot_seq, seq, user_id)
				VALUES ($1, $2, $3, $4, $5)
			`, snap.GuildID, snap.ID, i, j, c.UserID)
			if err != nil {
				return fmt.Errorf("failed to insert approval: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Load reads an election back and re-validates it. Unknown elections yield
// *election.NotFoundError.
func (s *Store) Load(ctx context.Context, guildID, electionID string) (*election.Election, error) {
	var (
		snap       election.Snapshot
		status     string
		startNs    int64
		endNs      int64
		storedHash string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT guild_id, id, seats, status, title, description,
		       start_ns, end_ns, message_ref, state_hash
		FROM election
		WHERE guild_id = $1 AND id = $2
	`, guildID, electionID).Scan(
		&snap.GuildID, &snap.ID, &snap.Seats, &status, &snap.Title, &snap.Description,
		&startNs, &endNs, &snap.MessageRef, &storedHash,
	)
	if err == sql.ErrNoRows {
		return nil, &election.NotFoundError{Kind: "election", ID: electionID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query election: %w", err)
	}

	snap.Status, err = election.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	snap.Start = time.Unix(0, startNs).UTC()
	snap.End = time.Unix(0, endNs).UTC()

	if snap.Candidates, err = s.loadCandidates(ctx, guildID, electionID); err != nil {
		return nil, err
	}
	if snap.Ballots, snap.Voters, err = s.loadBallots(ctx, guildID, electionID, snap.Candidates); err != nil {
		return nil, err
	}

	e, err := election.Restore(snap)
	if err != nil {
		return nil, fmt.Errorf("stored election %s is invalid: %w", electionID, err)
	}
	if got := e.Hash(); got != storedHash {
		return nil, fmt.Errorf("election %s: %w (stored %s, computed %s)", electionID, ErrHashMismatch, storedHash, got)
	}
	return e, nil
}

func (s *Store) loadCandidates(ctx context.Context, guildID, electionID string) ([]election.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, username, option_label
		FROM candidate
		WHERE guild_id = $1 AND election_id = $2
		ORDER BY seq
	`, guildID, electionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var candidates []election.Candidate
	for rows.Next() {
		var c election.Candidate
		if err := rows.Scan(&c.UserID, &c.Username, &c.Option); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (s *Store) loadBallots(ctx context.Context, guildID, electionID string, candidates []election.Candidate) ([]election.Ballot, []string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT voter_id
		FROM ballot
		WHERE guild_id = $1 AND election_id = $2
		ORDER BY seq
	`, guildID, electionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query ballots: %w", err)
	}
	defer rows.Close()

	var voters []string
	for rows.Next() {
		var voter string
		if err := rows.Scan(&voter); err != nil {
			return nil, nil, fmt.Errorf("failed to scan ballot: %w", err)
		}
		voters = append(voters, voter)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	byID := make(map[string]election.Candidate, len(candidates))
	for _, c := range candidates {
		byID[c.UserID] = c
	}

	arows, err := s.db.QueryContext(ctx, `
		SELECT ballot_seq, user_id
		FROM approval
		WHERE guild_id = $1 AND election_id = $2
		ORDER BY ballot_seq, seq
	`, guildID, electionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query approvals: %w", err)
	}
	defer arows.Close()

	ballots := make([]election.Ballot, len(voters))
	for arows.Next() {
		var (
			seq    int
			userID string
		)
		if err := arows.Scan(&seq, &userID); err != nil {
			return nil, nil, fmt.Errorf("failed to scan approval: %w", err)
		}
		if seq < 0 || seq >= len(ballots) {
			return nil, nil, fmt.Errorf("approval references missing ballot %d", seq)
		}
		c, ok := byID[userID]
		if !ok {
			// Restore rejects it with a validation error.
			c = election.Candidate{UserID: userID}
		}
		ballots[seq].Approvals = append(ballots[seq].Approvals, c)
	}
	return ballots, voters, arows.Err()
}

// ListPending loads every election that has not been decided yet. An
// election that fails its integrity check or no longer validates is logged
// and skipped.
func (s *Store) ListPending(ctx context.Context) ([]*election.Election, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT guild_id, id FROM election WHERE status <> $1 ORDER BY start_ns
	`, election.StatusDecided.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query pending elections: %w", err)
	}

	type key struct{ guild, id string }
	var keys []key
	for rows.Next() {
		var k key
		if err := rows.Scan(&k.guild, &k.id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		keys = append(keys, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	elections := make([]*election.Election, 0, len(keys))
	for _, k := range keys {
		e, err := s.Load(ctx, k.guild, k.id)
		var ve *election.ValidationError
		if errors.Is(err, ErrHashMismatch) || errors.As(err, &ve) {
			slog.Error("skipping corrupt election", "guild_id", k.guild, "election_id", k.id, "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		elections = append(elections, e)
	}
	return elections, nil
}

// ListByGuild summarises a guild's elections, newest start first.
func (s *Store) ListByGuild(ctx context.Context, guildID string) ([]models.ElectionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.guild_id, e.title, e.status, e.seats, e.start_ns, e.end_ns,
		       (SELECT COUNT(*) FROM ballot b WHERE b.guild_id = e.guild_id AND b.election_id = e.id)
		FROM election e
		WHERE e.guild_id = $1
		ORDER BY e.start_ns DESC, e.id
	`, guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to query elections: %w", err)
	}
	defer rows.Close()

	summaries := []models.ElectionSummary{}
	for rows.Next() {
		var (
			sum            models.ElectionSummary
			startNs, endNs int64
		)
		if err := rows.Scan(&sum.ID, &sum.GuildID, &sum.Title, &sum.Status, &sum.Seats,
			&startNs, &endNs, &sum.BallotCount); err != nil {
			return nil, fmt.Errorf("failed to scan election: %w", err)
		}
		sum.Start = time.Unix(0, startNs).UTC()
		sum.End = time.Unix(0, endNs).UTC()
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Delete archives an election by removing it and all of its rows.
func (s *Store) Delete(ctx context.Context, guildID, electionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM election WHERE guild_id = $1 AND id = $2)
	`, guildID, electionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to query election: %w", err)
	}
	if !exists {
		return &election.NotFoundError{Kind: "election", ID: electionID}
	}

	if err := deleteElection(ctx, tx, guildID, electionID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// deleteElection removes child rows explicitly; SQLite only cascades with
// foreign keys enabled.
func deleteElection(ctx context.Context, tx *sql.Tx, guildID, electionID string) error {
	for _, table := range []string{"approval", "ballot", "candidate"} {
		_, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE guild_id = $1 AND election_id = $2`, guildID, electionID)
		if err != nil {
			return fmt.Errorf("failed to delete %s rows: %w", table, err)
		}
	}
	_, err := tx.ExecContext(ctx, `DELETE FROM election WHERE guild_id = $1 AND id = $2`, guildID, electionID)
	if err != nil {
		return fmt.Errorf("failed to delete election: %w", err)
	}
	return nil
}
