// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrMissingVoter    = errors.New("voter id required")
)

// GenerateAdminKey creates an HMAC-based admin key for an election.
// Guild and election id are both bound so a key cannot be replayed in
// another guild.
func GenerateAdminKey(guildID, electionID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(guildID))
	h.Write([]byte{0})
	h.Write([]byte(electionID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAdminKey checks if the provided admin key is valid for the election
func ValidateAdminKey(guildID, electionID, adminKey, salt string) error {
	if adminKey == "" {
		return ErrInvalidAdminKey
	}
	expected := GenerateAdminKey(guildID, electionID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// VoterID extracts the opaque voter id supplied by the chat platform
// bridge. Surrounding whitespace is ignored.
func VoterID(header string) (string, error) {
	id := strings.TrimSpace(header)
	if id == "" {
		return "", ErrMissingVoter
	}
	return id, nil
}
