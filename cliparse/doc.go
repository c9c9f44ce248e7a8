// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseType: sqlite or postgres (default: sqlite)
  - DatabaseURL: connection string (required for postgres)
  - AdminKeySalt: Secret for admin key HMAC (required)
  - TallyWorkers: concurrent winner computations (default: CPU count)
  - ConfigFile: optional YAML file

# CLI Flags

	-c            YAML config file
	-p            Server port
	-d            Database URL
	-t            Database type
	-w            Tally workers
	--admin-salt  Admin key salt

# Environment Variables

Flags fall back to environment variables:

	CONFIG_FILE    → -c
	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	TALLY_WORKERS  → -w
	ADMIN_KEY_SALT → --admin-salt

main loads a .env file into the environment before parsing.

# Config File

Values missing from both flags and environment are read from the YAML file:

	port: 3318
	database_type: postgres
	database_url: postgres://...
	admin_key_salt: ...
	tally_workers: 4

Precedence: flag > environment > file > default.
*/
package cliparse
