// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/danielhkuo/quickly-elect/render"
)

// Publisher displays election updates, e.g. by editing the chat message
// referenced by the election.
type Publisher interface {
	Publish(ctx context.Context, v render.View) error
}

// LogPublisher writes rendered updates to the structured log.
type LogPublisher struct{}

func (LogPublisher) Publish(_ context.Context, v render.View) error {
	m := render.Render(v, time.Now())
	slog.Info("election update",
		"election_id", v.ID,
		"status", v.Status.String(),
		"title", m.Title,
		"body", m.Body,
		"hash", v.Hash,
	)
	return nil
}
