package prefs

import (
	_ "embed"
	"fmt"

	"github.com/aspect-build/dccm/internal/logx"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type seedEntry struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
	Label string `yaml:"label"`
}

type seedFile map[Scope][]seedEntry

func loadSeeds(data []byte) (seedFile, error) {
	var sf seedFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse default preferences: %w", err)
	}
	for scope := range sf {
		if _, err := ParseScope(string(scope)); err != nil {
			return nil, err
		}
	}
	return sf, nil
}

// Seed inserts the built-in entries that are not yet present and records
// appVersion. The reserved client tool is always restored.
func (p *Prefs) Seed(appVersion string) error {
	sf, err := loadSeeds(defaultsYAML)
	if err != nil {
		return err
	}
	for _, scope := range scopes {
		for _, e := range sf[scope] {
			_, ok, err := p.Get(scope, e.Name)
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			logx.Debugf("seeding %s/%s", scope, e.Name)
			if err := p.Set(scope, e.Name, e.Value, e.Label); err != nil {
				return err
			}
		}
	}

	if _, ok, err := p.ClientToolCommand(ReservedClientTool); err != nil {
		return err
	} else if !ok {
		if err := p.Set(ScopeClientTools, ReservedClientTool, ReservedClientCommand, ReservedClientTool); err != nil {
			return err
		}
	}

	return p.Set(ScopeSystem, systemAppVersion, appVersion, "Application Version")
}
