// Package migrations embeds Tarka's SQL schema so cmd/api and cmd/worker can
// run DB_AUTO_MIGRATE without depending on a filesystem path at runtime.
// Grounded verbatim on the teacher's migrations/embed.go pattern (same
// rationale: a service binary should not depend on an on-disk ./migrations
// directory existing at its cwd).
package migrations

import "embed"

// FS contains every *.sql migration file embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
