package sqlite

import "database/sql"

// schema holds the session table. The client only ever stores a handful of
// fixed keys, so a single key/value table is enough.
const schema = `
CREATE TABLE IF NOT EXISTS session (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
