// Package store persists connection profiles and preferences in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps a SQLite database connection.
type Store struct {
	db *sql.DB
}

// NewStore opens or creates a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection serialises writers and keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS connections (
			connection_id TEXT PRIMARY KEY,
			database_type TEXT NOT NULL,
			connection_type TEXT NOT NULL,
			db_account_name TEXT NOT NULL,
			connect_string TEXT NOT NULL,
			oci_profile TEXT NOT NULL DEFAULT '',
			secret TEXT NOT NULL DEFAULT '',
			wallet_required INTEGER NOT NULL DEFAULT 0,
			wallet_location TEXT NOT NULL DEFAULT '',
			client_tool TEXT NOT NULL,
			client_tool_options TEXT NOT NULL DEFAULT '',
			start_directory TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			scope TEXT NOT NULL,
			preference_name TEXT NOT NULL,
			preference_value TEXT NOT NULL DEFAULT '',
			preference_label TEXT NOT NULL DEFAULT '',
			attr1 TEXT NOT NULL DEFAULT '',
			attr2 TEXT NOT NULL DEFAULT '',
			attr3 TEXT NOT NULL DEFAULT '',
			attr4 TEXT NOT NULL DEFAULT '',
			attr5 TEXT NOT NULL DEFAULT '',
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (scope, preference_name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_connections_client_tool ON connections(client_tool)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}
	}

	// Databases created before SSH tunnelling and banners existed lack these columns.
	return s.upgradeConnectionsSchema()
}

var connectionColumnUpgrades = []struct{ name, ddl string }{
	{"ssh_tunnel_required", `ALTER TABLE connections ADD COLUMN ssh_tunnel_required INTEGER NOT NULL DEFAULT 0`},
	{"ssh_tunnel_code", `ALTER TABLE connections ADD COLUMN ssh_tunnel_code TEXT NOT NULL DEFAULT ''`},
	{"listener_port", `ALTER TABLE connections ADD COLUMN listener_port INTEGER NOT NULL DEFAULT 0`},
	{"description", `ALTER TABLE connections ADD COLUMN description TEXT NOT NULL DEFAULT ''`},
	{"connection_banner", `ALTER TABLE connections ADD COLUMN connection_banner TEXT NOT NULL DEFAULT 'None'`},
	{"connection_message", `ALTER TABLE connections ADD COLUMN connection_message TEXT NOT NULL DEFAULT ''`},
	{"connection_text_colour", `ALTER TABLE connections ADD COLUMN connection_text_colour TEXT NOT NULL DEFAULT 'None'`},
}

func (s *Store) upgradeConnectionsSchema() error {
	rows, err := s.db.Query(`PRAGMA table_info(connections)`)
	if err != nil {
		return fmt.Errorf("read connections schema: %w", err)
	}
	have := make(map[string]bool)
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			rows.Close()
			return fmt.Errorf("scan connections schema: %w", err)
		}
		have[strings.ToLower(name)] = true
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("read connections schema: %w", err)
	}

	var pending []string
	for _, up := range connectionColumnUpgrades {
		if !have[up.name] {
			pending = append(pending, up.ddl)
		}
	}
	if len(pending) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin connections schema upgrade: %w", err)
	}
	defer tx.Rollback()

	for _, ddl := range pending {
		if _, err := tx.Exec(ddl); err != nil {
			return fmt.Errorf("upgrade connections schema: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit connections schema upgrade: %w", err)
	}
	return nil
}
