// Package prefs is the scoped key/value preference store used for settings,
// auto-saved state, client tool templates and SSH tunnel templates.
package prefs

import (
	"fmt"
	"strconv"

	"github.com/aspect-build/dccm/internal/store"
)

// Scope partitions the preference namespace.
type Scope string

const (
	ScopePreference   Scope = "preference"
	ScopeAuto         Scope = "auto"
	ScopeClientTools  Scope = "client_tools"
	ScopeSSHTemplates Scope = "ssh_templates"
	ScopeSystem       Scope = "system"
)

var scopes = []Scope{ScopePreference, ScopeAuto, ScopeClientTools, ScopeSSHTemplates, ScopeSystem}

// ParseScope validates s against the closed set of scopes.
func ParseScope(s string) (Scope, error) {
	for _, sc := range scopes {
		if string(sc) == s {
			return sc, nil
		}
	}
	return "", fmt.Errorf("unknown preference scope %q", s)
}

// Scopes returns every scope.
func Scopes() []Scope {
	return append([]Scope(nil), scopes...)
}

// Built-in client tool. Deletion is refused and its syntax is the one dccm
// knows how to drive.
const (
	ReservedClientTool    = "SQLcl"
	ReservedClientCommand = "sql"
)

// Setting names under ScopePreference.
const (
	SettingDefaultWalletDir   = "default_wallet_directory"
	SettingOCIConfig          = "oci_config"
	SettingAncillarySSHWindow = "enable_ancillary_ssh_window"
	SettingDefaultConnection  = "default_connection"
	SettingTNSAdmin           = "tns_admin"

	systemAppVersion = "app_version"
)

// Prefs reads and writes preferences.
type Prefs struct {
	st *store.Store
}

func New(st *store.Store) *Prefs {
	return &Prefs{st: st}
}

// Get returns the value for (scope, name); ok is false when the entry is absent.
func (p *Prefs) Get(scope Scope, name string) (value string, ok bool, err error) {
	row, err := p.st.GetPreference(string(scope), name)
	if err != nil {
		return "", false, err
	}
	if row == nil {
		return "", false, nil
	}
	return row.Value, true, nil
}

// Set creates or updates an entry. label may be empty; see store.UpsertPreference.
func (p *Prefs) Set(scope Scope, name, value, label string) error {
	if name == "" {
		return fmt.Errorf("preference name is required")
	}
	return p.st.UpsertPreference(string(scope), name, value, label)
}

// Delete removes an entry, reporting whether it existed.
func (p *Prefs) Delete(scope Scope, name string) (bool, error) {
	return p.st.DeletePreference(string(scope), name)
}

// Names lists the entry names within scope.
func (p *Prefs) Names(scope Scope) ([]string, error) {
	return p.st.PreferenceNames(string(scope))
}

// Rows lists full entries within scope.
func (p *Prefs) Rows(scope Scope) ([]store.PreferenceRow, error) {
	return p.st.PreferenceRows(string(scope))
}

func (p *Prefs) setting(name string) (string, error) {
	v, _, err := p.Get(ScopePreference, name)
	return v, err
}

func (p *Prefs) DefaultWalletDirectory() (string, error) { return p.setting(SettingDefaultWalletDir) }
func (p *Prefs) OCIConfig() (string, error)              { return p.setting(SettingOCIConfig) }
func (p *Prefs) TNSAdmin() (string, error)               { return p.setting(SettingTNSAdmin) }
func (p *Prefs) DefaultConnection() (string, error)      { return p.setting(SettingDefaultConnection) }

// AncillarySSHWindow reports whether tunnels launch in their own terminal window.
func (p *Prefs) AncillarySSHWindow() (bool, error) {
	v, err := p.setting(SettingAncillarySSHWindow)
	if err != nil || v == "" {
		return false, err
	}
	on, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", SettingAncillarySSHWindow, err)
	}
	return on, nil
}

// SaveGeometry records a window geometry under ScopeAuto.
func (p *Prefs) SaveGeometry(category, geometry string) error {
	return p.Set(ScopeAuto, category+"_geometry", geometry, "Auto-saved Geometry")
}

// Geometry returns the saved geometry for category, or "".
func (p *Prefs) Geometry(category string) (string, error) {
	v, _, err := p.Get(ScopeAuto, category+"_geometry")
	return v, err
}

// ClientToolCommand returns the command template for a client tool.
func (p *Prefs) ClientToolCommand(name string) (string, bool, error) {
	return p.Get(ScopeClientTools, name)
}

// SSHTemplate returns the SSH tunnel command template for name.
func (p *Prefs) SSHTemplate(name string) (string, bool, error) {
	return p.Get(ScopeSSHTemplates, name)
}

// AppVersion returns the version recorded by the last Seed.
func (p *Prefs) AppVersion() (string, error) {
	v, _, err := p.Get(ScopeSystem, systemAppVersion)
	return v, err
}
