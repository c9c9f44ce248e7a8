// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"strings"

	"github.com/danielhkuo/quickly-elect/election"
)

// ResolveCandidates maps voter-supplied references to candidate user ids,
// keeping their order. A reference matches a user id exactly, otherwise an
// option letter or username ignoring case and a leading '@'. Duplicates are
// passed through for CastBallot to reject.
func ResolveCandidates(candidates []election.Candidate, refs []string) ([]string, error) {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		c, ok := resolve(candidates, ref)
		if !ok {
			return nil, &election.NotFoundError{Kind: "candidate", ID: ref}
		}
		ids = append(ids, c.UserID)
	}
	return ids, nil
}

func resolve(candidates []election.Candidate, ref string) (election.Candidate, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return election.Candidate{}, false
	}
	for _, c := range candidates {
		if c.UserID == ref {
			return c, true
		}
	}
	name := strings.TrimPrefix(ref, "@")
	for _, c := range candidates {
		if strings.EqualFold(c.Option, name) {
			return c, true
		}
	}
	for _, c := range candidates {
		if strings.EqualFold(c.Username, name) {
			return c, true
		}
	}
	return election.Candidate{}, false
}
