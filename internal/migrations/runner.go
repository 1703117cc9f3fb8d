package migrations

import (
	"database/sql"

	"github.com/pressly/goose/v3"
)

// Run applies every pending migration in FS against db, using goose's
// Postgres dialect. Grounded on jordigilh-kubernaut's goose wiring (the
// teacher runs migrations by executing raw SQL strings; goose is adopted
// here per SPEC_FULL.md §4.12's domain-stack wiring table).
func Run(db *sql.DB) error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}
