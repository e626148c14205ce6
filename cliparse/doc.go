// Copyright (c) 2025 Pollwise Authors.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse parses server configuration from CLI flags with environment
variable fallback. A .env file is loaded via godotenv when present.

Settings:

  - PORT (-p): server port (default 4520)
  - DATABASE_URL (-d): PostgreSQL DSN or SQLite file path (required)
  - DATABASE_TYPE (-t): "sqlite" (default) or "postgres"
  - SESSION_TTL (-session-ttl): anonymous session lifetime (default 720h)
*/
package cliparse
