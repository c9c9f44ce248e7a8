// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package election

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// encodingVersion prefixes every canonical encoding.
const encodingVersion = "quickly-elect/election/v1"

// Canonical returns the deterministic byte encoding hashed by Hash.
//
// Strings are a big-endian uint32 byte length followed by UTF-8 bytes.
// Integers and times (Unix nanoseconds) are big-endian int64. Lists are a
// uint32 count followed by their elements in stored order.
//
//	version, id, guild_id, seats, status, title, description, start, end,
//	candidates[user_id, username, option],
//	ballots[approvals[user_id]],
//	voters[voter_id],
//	message_ref
func (s Snapshot) Canonical() []byte {
	b := make([]byte, 0, 256)
	b = appendString(b, encodingVersion)
	b = appendString(b, s.ID)
	b = appendString(b, s.GuildID)
	b = appendInt(b, int64(s.Seats))
	b = appendString(b, s.Status.String())
	b = appendString(b, s.Title)
	b = appendString(b, s.Description)
	b = appendInt(b, s.Start.UnixNano())
	b = appendInt(b, s.End.UnixNano())

	b = binary.BigEndian.AppendUint32(b, uint32(len(s.Candidates)))
	for _, c := range s.Candidates {
		b = appendString(b, c.UserID)
		b = appendString(b, c.Username)
		b = appendString(b, c.Option)
	}

	b = binary.BigEndian.AppendUint32(b, uint32(len(s.Ballots)))
	for _, ballot := range s.Ballots {
		b = binary.BigEndian.AppendUint32(b, uint32(len(ballot.Approvals)))
		for _, c := range ballot.Approvals {
			b = appendString(b, c.UserID)
		}
	}

	b = binary.BigEndian.AppendUint32(b, uint32(len(s.Voters)))
	for _, v := range s.Voters {
		b = appendString(b, v)
	}

	return appendString(b, s.MessageRef)
}

// Hash returns the lowercase hex SHA-256 of the canonical encoding.
func (s Snapshot) Hash() string {
	sum := sha256.Sum256(s.Canonical())
	return hex.EncodeToString(sum[:])
}

func appendString(b []byte, s string) []byte {
	b = binary.BigEndian.AppendUint32(b, uint32(len(s)))
	return append(b, s...)
}

func appendInt(b []byte, v int64) []byte {
	return binary.BigEndian.AppendUint64(b, uint64(v))
}
