// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides admin key and voter identity helpers.

# Admin Keys

Admin keys use HMAC-SHA256 to create deterministic, verifiable keys:

	adminKey := auth.GenerateAdminKey(guildID, electionID, salt)
	err := auth.ValidateAdminKey(guildID, electionID, adminKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same ids and salt always produce the same key. This allows validation
without storing the key in the database.

# Voter Identity

Voters are identified by the chat platform's opaque user id, forwarded in
the X-Voter-ID header by the bot bridge:

	voterID, err := auth.VoterID(r.Header.Get("X-Voter-ID"))
*/
package auth
