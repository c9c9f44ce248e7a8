// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package render

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickly-elect/election"
)

const timeLayout = "2006-01-02 15:04"

// View is everything the presentation layer needs from an election.
// Outcome is set only for decided elections.
type View struct {
	ID          string
	Title       string
	Description string
	Status      election.Status
	Start       time.Time
	End         time.Time
	Candidates  []election.Candidate
	BallotCount int
	Outcome     *election.Outcome
	Hash        string
	MessageRef  string
}

// NewView captures e. Results are computed if e is decided.
func NewView(e *election.Election) (View, error) {
	s := e.Snapshot()
	v := View{
		ID:          s.ID,
		Title:       s.Title,
		Description: s.Description,
		Status:      s.Status,
		Start:       s.Start,
		End:         s.End,
		Candidates:  s.Candidates,
		BallotCount: len(s.Ballots),
		Hash:        s.Hash(),
		MessageRef:  s.MessageRef,
	}
	if s.Status == election.StatusDecided {
		out, err := e.Results()
		if err != nil {
			return View{}, err
		}
		v.Outcome = &out
	}
	return v, nil
}

// Message is a rendered election, shaped like a chat embed.
type Message struct {
	Title  string
	Body   string
	Footer string // integrity hash, once the election has a message
}

func (m Message) String() string {
	var b strings.Builder
	b.WriteString(m.Title)
	b.WriteString("\n\n")
	b.WriteString(m.Body)
	if m.Footer != "" {
		b.WriteString("\n\n")
		b.WriteString(m.Footer)
	}
	return b.String()
}

// Render formats v. now anchors the relative times.
func Render(v View, now time.Time) Message {
	var b strings.Builder
	if v.Description != "" {
		b.WriteString(v.Description)
		b.WriteString("\n")
	}

	if v.Outcome == nil {
		fmt.Fprintf(&b, "**Start:** %s UTC (%s)\n", v.Start.UTC().Format(timeLayout), humanize.RelTime(v.Start, now, "ago", "from now"))
		fmt.Fprintf(&b, "**End:** %s UTC (%s)\n", v.End.UTC().Format(timeLayout), humanize.RelTime(v.End, now, "ago", "from now"))
		b.WriteString("**Candidates:**\n")
		b.WriteString(Candidates(v.Candidates))
		fmt.Fprintf(&b, "\n\nBallots cast: %s\n", humanize.Comma(int64(v.BallotCount)))
		fmt.Fprintf(&b, "Vote via `!g election vote %s username [username ...]`", v.ID)
	} else {
		fmt.Fprintf(&b, "**Period:** %s - %s UTC\n", v.Start.UTC().Format(timeLayout), v.End.UTC().Format(timeLayout))
		b.WriteString("**Results:**\n")
		b.WriteString(Results(*v.Outcome))
	}

	m := Message{
		Title: fmt.Sprintf("Election for %s (ID: %s)", v.Title, v.ID),
		Body:  b.String(),
	}
	if v.MessageRef != "" {
		m.Footer = v.Hash
	}
	return m
}

// Candidates lists candidates as "A) username" lines.
func Candidates(cs []election.Candidate) string {
	lines := make([]string, len(cs))
	for i, c := range cs {
		lines[i] = c.Option + ") " + c.Username
	}
	return strings.Join(lines, "\n")
}

// Results lists the winning slate followed by its approval rating.
func Results(o election.Outcome) string {
	var b strings.Builder
	for _, c := range o.Slate {
		b.WriteString(c.Username)
		b.WriteString("\n")
	}
	b.WriteString("Approval rating: ")
	b.WriteString(strconv.FormatFloat(o.Score, 'f', -1, 64))
	return b.String()
}
