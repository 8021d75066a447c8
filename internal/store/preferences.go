package store

import (
	"database/sql"
	"fmt"
	"strings"
	"unicode"
)

// DeriveLabel turns a preference name into a display label: underscores
// become spaces and each word is title-cased ("default_wallet" -> "Default Wallet").
func DeriveLabel(name string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range strings.ReplaceAll(name, "_", " ") {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		b.WriteRune(r)
		prevLetter = false
	}
	return b.String()
}

// GetPreference returns the entry for (scope, name), or nil, nil when absent.
func (s *Store) GetPreference(scope, name string) (*PreferenceRow, error) {
	p := &PreferenceRow{}
	err := s.db.QueryRow(
		`SELECT scope, preference_name, preference_value, preference_label,
			attr1, attr2, attr3, attr4, attr5
		 FROM preferences WHERE scope = ? AND preference_name = ?`, scope, name,
	).Scan(&p.Scope, &p.Name, &p.Value, &p.Label,
		&p.Attrs[0], &p.Attrs[1], &p.Attrs[2], &p.Attrs[3], &p.Attrs[4])
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preference: %w", err)
	}
	return p, nil
}

// UpsertPreference creates or updates (scope, name). An empty label leaves an
// existing label untouched and derives one for a new entry.
func (s *Store) UpsertPreference(scope, name, value, label string) error {
	insertLabel := label
	if insertLabel == "" {
		insertLabel = DeriveLabel(name)
	}
	_, err := s.db.Exec(
		`INSERT INTO preferences (scope, preference_name, preference_value, preference_label)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(scope, preference_name) DO UPDATE SET
			preference_value = excluded.preference_value,
			preference_label = CASE WHEN ? <> '' THEN excluded.preference_label
				ELSE preferences.preference_label END,
			updated_at = CURRENT_TIMESTAMP`,
		scope, name, value, insertLabel, label,
	)
	if err != nil {
		return fmt.Errorf("upsert preference: %w", err)
	}
	return nil
}

// PutPreferenceRow writes every column of p, replacing any existing entry.
func (s *Store) PutPreferenceRow(p *PreferenceRow) error {
	label := p.Label
	if label == "" {
		label = DeriveLabel(p.Name)
	}
	_, err := s.db.Exec(
		`INSERT INTO preferences (scope, preference_name, preference_value, preference_label,
			attr1, attr2, attr3, attr4, attr5)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(scope, preference_name) DO UPDATE SET
			preference_value = excluded.preference_value,
			preference_label = excluded.preference_label,
			attr1 = excluded.attr1, attr2 = excluded.attr2, attr3 = excluded.attr3,
			attr4 = excluded.attr4, attr5 = excluded.attr5,
			updated_at = CURRENT_TIMESTAMP`,
		p.Scope, p.Name, p.Value, label,
		p.Attrs[0], p.Attrs[1], p.Attrs[2], p.Attrs[3], p.Attrs[4],
	)
	if err != nil {
		return fmt.Errorf("put preference: %w", err)
	}
	return nil
}

// DeletePreference removes (scope, name). Returns true if a row was deleted.
func (s *Store) DeletePreference(scope, name string) (bool, error) {
	res, err := s.db.Exec(
		`DELETE FROM preferences WHERE scope = ? AND preference_name = ?`, scope, name)
	if err != nil {
		return false, fmt.Errorf("delete preference: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// PreferenceNames lists the names in scope, ascending.
func (s *Store) PreferenceNames(scope string) ([]string, error) {
	return s.queryStrings(
		`SELECT preference_name FROM preferences WHERE scope = ? ORDER BY preference_name`, scope)
}

// PreferenceRows lists the entries in scope ordered by name. An empty scope lists every entry.
func (s *Store) PreferenceRows(scope string) ([]PreferenceRow, error) {
	query := `SELECT scope, preference_name, preference_value, preference_label,
			attr1, attr2, attr3, attr4, attr5 FROM preferences`
	var args []any
	if scope != "" {
		query += ` WHERE scope = ?`
		args = append(args, scope)
	}
	query += ` ORDER BY scope, preference_name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	defer rows.Close()

	var out []PreferenceRow
	for rows.Next() {
		var p PreferenceRow
		if err := rows.Scan(&p.Scope, &p.Name, &p.Value, &p.Label,
			&p.Attrs[0], &p.Attrs[1], &p.Attrs[2], &p.Attrs[3], &p.Attrs[4]); err != nil {
			return nil, fmt.Errorf("scan preference: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
