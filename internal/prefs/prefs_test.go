package prefs

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aspect-build/dccm/internal/store"
)

func newTestPrefs(t *testing.T) *Prefs {
	t.Helper()
	st, err := store.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func TestParseScope(t *testing.T) {
	for _, sc := range Scopes() {
		got, err := ParseScope(string(sc))
		if err != nil || got != sc {
			t.Errorf("ParseScope(%q) = %q, %v", sc, got, err)
		}
	}
	if _, err := ParseScope("global"); err == nil {
		t.Error("expected error for unknown scope")
	}
}

func TestGetSetDelete(t *testing.T) {
	p := newTestPrefs(t)

	if _, ok, err := p.Get(ScopePreference, SettingOCIConfig); err != nil || ok {
		t.Fatalf("expected absent, ok=%v err=%v", ok, err)
	}
	if err := p.Set(ScopePreference, SettingOCIConfig, "/home/u/.oci/config", ""); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, err := p.OCIConfig()
	if err != nil || v != "/home/u/.oci/config" {
		t.Fatalf("OCIConfig = %q, %v", v, err)
	}

	ok, err := p.Delete(ScopePreference, SettingOCIConfig)
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	if err := p.Set(ScopePreference, "", "x", ""); err == nil {
		t.Error("expected error for empty name")
	}
}

func TestAncillarySSHWindow(t *testing.T) {
	p := newTestPrefs(t)
	on, err := p.AncillarySSHWindow()
	if err != nil || on {
		t.Fatalf("unset: on=%v err=%v", on, err)
	}
	_ = p.Set(ScopePreference, SettingAncillarySSHWindow, "1", "")
	if on, _ := p.AncillarySSHWindow(); !on {
		t.Error("expected enabled")
	}
	_ = p.Set(ScopePreference, SettingAncillarySSHWindow, "maybe", "")
	if _, err := p.AncillarySSHWindow(); err == nil {
		t.Error("expected parse error")
	}
}

func TestGeometry(t *testing.T) {
	p := newTestPrefs(t)
	if err := p.SaveGeometry("main", "900x600+10+10"); err != nil {
		t.Fatal(err)
	}
	g, err := p.Geometry("main")
	if err != nil || g != "900x600+10+10" {
		t.Fatalf("Geometry = %q, %v", g, err)
	}
	rows, _ := p.Rows(ScopeAuto)
	if len(rows) != 1 || rows[0].Name != "main_geometry" || rows[0].Label != "Auto-saved Geometry" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestSeed(t *testing.T) {
	p := newTestPrefs(t)

	// A user edit to a seeded template must survive re-seeding.
	if err := p.Set(ScopeSSHTemplates, "bastion_tunnel", "ssh custom", ""); err != nil {
		t.Fatal(err)
	}
	if err := p.Seed("1.2.3"); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if err := p.Seed("1.2.4"); err != nil {
		t.Fatalf("Seed again: %v", err)
	}

	cmd, ok, err := p.ClientToolCommand(ReservedClientTool)
	if err != nil || !ok || cmd != ReservedClientCommand {
		t.Fatalf("reserved tool = %q ok=%v err=%v", cmd, ok, err)
	}
	tmpl, _, _ := p.SSHTemplate("bastion_tunnel")
	if tmpl != "ssh custom" {
		t.Errorf("seed overwrote user template: %q", tmpl)
	}
	tmpl, ok, _ = p.SSHTemplate("oci_bastion_session")
	if !ok || !strings.Contains(tmpl, "#local_port#") {
		t.Errorf("seeded template = %q ok=%v", tmpl, ok)
	}
	if v, _ := p.AppVersion(); v != "1.2.4" {
		t.Errorf("AppVersion = %q", v)
	}
}

func TestLoadSeedsRejectsUnknownScope(t *testing.T) {
	if _, err := loadSeeds([]byte("global:\n  - name: x\n    value: y\n")); err == nil {
		t.Fatal("expected error for unknown scope")
	}
}

func TestBackupRestore(t *testing.T) {
	src := newTestPrefs(t)
	_ = src.Set(ScopePreference, SettingDefaultWalletDir, "/wallets", "")
	_ = src.Set(ScopeClientTools, "Toad", "toad.exe", "Quest Toad")

	path := filepath.Join(t.TempDir(), "prefs.json")
	fb, err := src.Backup(path)
	if err != nil {
		t.Fatalf("Backup: %v", err)
	}
	if len(fb) != 1 || !strings.Contains(fb[0], "2 preferences") {
		t.Errorf("backup feedback = %v", fb)
	}

	dst := newTestPrefs(t)
	fb, err = dst.Restore(path)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !strings.Contains(fb[len(fb)-1], "Restored 2") {
		t.Errorf("restore feedback = %v", fb)
	}
	rows, _ := dst.Rows(ScopeClientTools)
	if len(rows) != 1 || rows[0].Value != "toad.exe" || rows[0].Label != "Quest Toad" {
		t.Errorf("restored rows = %+v", rows)
	}
	if v, _ := dst.DefaultWalletDirectory(); v != "/wallets" {
		t.Errorf("DefaultWalletDirectory = %q", v)
	}
}

func TestRestoreSkipsUnknownScope(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	body := `[{"scope":"bogus","preference_name":"x","preference_value":"1","preference_label":""},
	          {"scope":"auto","preference_name":"y_geometry","preference_value":"1x1","preference_label":""}]`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	p := newTestPrefs(t)
	fb, err := p.Restore(path)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(fb) != 2 || !strings.HasPrefix(fb[0], "Skipped x") {
		t.Errorf("feedback = %v", fb)
	}
}
