package store

import (
	"database/sql"
	"fmt"
)

const connectionColumns = `connection_id, database_type, connection_type, db_account_name,
	connect_string, oci_profile, secret, wallet_required, wallet_location, client_tool,
	client_tool_options, start_directory, ssh_tunnel_required, ssh_tunnel_code, listener_port,
	description, connection_banner, connection_message, connection_text_colour,
	created_at, updated_at`

// UpsertConnection inserts or replaces the row keyed by r.ID.
// Returns true when a new row was created.
func (s *Store) UpsertConnection(r *ConnectionRow) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin upsert connection: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(`SELECT 1 FROM connections WHERE connection_id = ?`, r.ID).Scan(&exists)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("check connection: %w", err)
	}
	created := err == sql.ErrNoRows

	_, err = tx.Exec(`INSERT INTO connections (
			connection_id, database_type, connection_type, db_account_name, connect_string,
			oci_profile, secret, wallet_required, wallet_location, client_tool,
			client_tool_options, start_directory, ssh_tunnel_required, ssh_tunnel_code,
			listener_port, description, connection_banner, connection_message,
			connection_text_colour)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(connection_id) DO UPDATE SET
			database_type = excluded.database_type,
			connection_type = excluded.connection_type,
			db_account_name = excluded.db_account_name,
			connect_string = excluded.connect_string,
			oci_profile = excluded.oci_profile,
			secret = excluded.secret,
			wallet_required = excluded.wallet_required,
			wallet_location = excluded.wallet_location,
			client_tool = excluded.client_tool,
			client_tool_options = excluded.client_tool_options,
			start_directory = excluded.start_directory,
			ssh_tunnel_required = excluded.ssh_tunnel_required,
			ssh_tunnel_code = excluded.ssh_tunnel_code,
			listener_port = excluded.listener_port,
			description = excluded.description,
			connection_banner = excluded.connection_banner,
			connection_message = excluded.connection_message,
			connection_text_colour = excluded.connection_text_colour,
			updated_at = CURRENT_TIMESTAMP`,
		r.ID, r.DatabaseType, r.ConnectionType, r.AccountName, r.ConnectString,
		r.VaultProfile, r.Secret, r.WalletRequired, r.WalletLocation, r.ClientTool,
		r.ClientToolOptions, r.StartDirectory, r.SSHTunnelRequired, r.SSHTunnelTemplate,
		r.ListenerPort, r.Description, r.Banner, r.Message, r.TextColour,
	)
	if err != nil {
		return false, fmt.Errorf("upsert connection: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit upsert connection: %w", err)
	}
	return created, nil
}

// GetConnection retrieves a connection row by identifier. Returns nil, nil when absent.
func (s *Store) GetConnection(id string) (*ConnectionRow, error) {
	row := s.db.QueryRow(`SELECT `+connectionColumns+` FROM connections WHERE connection_id = ?`, id)
	r, err := scanConnection(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get connection: %w", err)
	}
	return r, nil
}

// ListConnections returns all rows ordered by identifier.
func (s *Store) ListConnections() ([]ConnectionRow, error) {
	rows, err := s.db.Query(`SELECT ` + connectionColumns + ` FROM connections ORDER BY connection_id`)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	defer rows.Close()

	var out []ConnectionRow
	for rows.Next() {
		r, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ConnectionIDs returns every identifier in ascending order.
func (s *Store) ConnectionIDs() ([]string, error) {
	return s.queryStrings(`SELECT connection_id FROM connections ORDER BY connection_id`)
}

// DeleteConnection removes a row. Returns true if a row was deleted.
func (s *Store) DeleteConnection(id string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM connections WHERE connection_id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete connection: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ConnectionsUsingClientTool lists identifiers whose client_tool equals name.
func (s *Store) ConnectionsUsingClientTool(name string) ([]string, error) {
	return s.queryStrings(
		`SELECT connection_id FROM connections WHERE client_tool = ? ORDER BY connection_id`, name)
}

// ConnectionsUsingSSHTemplate lists identifiers that tunnel through template name.
func (s *Store) ConnectionsUsingSSHTemplate(name string) ([]string, error) {
	return s.queryStrings(
		`SELECT connection_id FROM connections
		 WHERE ssh_tunnel_required = 1 AND ssh_tunnel_code = ? ORDER BY connection_id`, name)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConnection(sc rowScanner) (*ConnectionRow, error) {
	r := &ConnectionRow{}
	err := sc.Scan(
		&r.ID, &r.DatabaseType, &r.ConnectionType, &r.AccountName, &r.ConnectString,
		&r.VaultProfile, &r.Secret, &r.WalletRequired, &r.WalletLocation, &r.ClientTool,
		&r.ClientToolOptions, &r.StartDirectory, &r.SSHTunnelRequired, &r.SSHTunnelTemplate,
		&r.ListenerPort, &r.Description, &r.Banner, &r.Message, &r.TextColour,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Store) queryStrings(query string, args ...any) ([]string, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
