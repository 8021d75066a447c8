package prefs

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aspect-build/dccm/internal/store"
)

// Backup writes every preference, across all scopes, to path as a JSON array.
// Returns human-readable feedback lines.
func (p *Prefs) Backup(path string) ([]string, error) {
	rows, err := p.st.PreferenceRows("")
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []store.PreferenceRow{}
	}
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return nil, fmt.Errorf("write preferences backup: %w", err)
	}
	return []string{fmt.Sprintf("Backed up %d preferences to %s", len(rows), path)}, nil
}

// Restore upserts every entry found in a Backup file. Entries with an unknown
// scope are skipped and reported.
func (p *Prefs) Restore(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preferences backup: %w", err)
	}
	var rows []store.PreferenceRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("decode preferences backup: %w", err)
	}

	var feedback []string
	restored := 0
	for _, r := range rows {
		scope, err := ParseScope(r.Scope)
		if err != nil {
			feedback = append(feedback, fmt.Sprintf("Skipped %s: %v", r.Name, err))
			continue
		}
		if err := p.Set(scope, r.Name, r.Value, r.Label); err != nil {
			return feedback, err
		}
		restored++
	}
	feedback = append(feedback, fmt.Sprintf("Restored %d preferences from %s", restored, path))
	return feedback, nil
}
