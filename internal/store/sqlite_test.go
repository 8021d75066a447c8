package store

import (
	"database/sql"
	"path/filepath"
	"reflect"
	"testing"

	_ "modernc.org/sqlite"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRow(id string) *ConnectionRow {
	return &ConnectionRow{
		ID:             id,
		DatabaseType:   "Oracle",
		ConnectionType: "Legacy",
		AccountName:    "SCOTT",
		ConnectString:  "db.example.com:1521/ORCL",
		Secret:         "ciphertext",
		ClientTool:     "SQLcl",
		Banner:         "None",
		TextColour:     "None",
	}
}

func TestConnectionCRUD(t *testing.T) {
	s := newTestStore(t)

	created, err := s.UpsertConnection(sampleRow("prod"))
	if err != nil {
		t.Fatalf("UpsertConnection: %v", err)
	}
	if !created {
		t.Fatal("first upsert should create")
	}

	got, err := s.GetConnection("prod")
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	if got == nil {
		t.Fatal("GetConnection returned nil")
	}
	if got.AccountName != "SCOTT" || got.ClientTool != "SQLcl" || got.WalletRequired {
		t.Errorf("got %+v", got)
	}

	upd := sampleRow("prod")
	upd.AccountName = "HR"
	upd.WalletRequired = true
	upd.ListenerPort = 1522
	created, err = s.UpsertConnection(upd)
	if err != nil {
		t.Fatalf("UpsertConnection update: %v", err)
	}
	if created {
		t.Fatal("second upsert should update")
	}
	got, _ = s.GetConnection("prod")
	if got.AccountName != "HR" || !got.WalletRequired || got.ListenerPort != 1522 {
		t.Errorf("update not applied: %+v", got)
	}

	// Not found
	got, err = s.GetConnection("missing")
	if err != nil {
		t.Fatalf("GetConnection: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing connection")
	}

	ok, err := s.DeleteConnection("prod")
	if err != nil || !ok {
		t.Fatalf("DeleteConnection: ok=%v err=%v", ok, err)
	}
	ok, _ = s.DeleteConnection("prod")
	if ok {
		t.Fatal("second delete should report false")
	}
}

func TestConnectionIDsOrdered(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"zeta", "alpha", "mid"} {
		if _, err := s.UpsertConnection(sampleRow(id)); err != nil {
			t.Fatal(err)
		}
	}
	ids, err := s.ConnectionIDs()
	if err != nil {
		t.Fatalf("ConnectionIDs: %v", err)
	}
	if want := []string{"alpha", "mid", "zeta"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("ids = %v, want %v", ids, want)
	}

	rows, err := s.ListConnections()
	if err != nil {
		t.Fatalf("ListConnections: %v", err)
	}
	if len(rows) != 3 || rows[0].ID != "alpha" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestTemplateUsage(t *testing.T) {
	s := newTestStore(t)

	a := sampleRow("a")
	a.ClientTool = "Toad"
	a.SSHTunnelRequired = true
	a.SSHTunnelTemplate = "bastion"
	b := sampleRow("b")
	b.SSHTunnelTemplate = "bastion" // tunnel not required: does not count
	for _, r := range []*ConnectionRow{a, b} {
		if _, err := s.UpsertConnection(r); err != nil {
			t.Fatal(err)
		}
	}

	users, err := s.ConnectionsUsingClientTool("Toad")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(users, []string{"a"}) {
		t.Errorf("Toad users = %v", users)
	}

	users, err = s.ConnectionsUsingSSHTemplate("bastion")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(users, []string{"a"}) {
		t.Errorf("bastion users = %v", users)
	}

	users, _ = s.ConnectionsUsingClientTool("nobody")
	if len(users) != 0 {
		t.Errorf("expected no users, got %v", users)
	}
}

func TestDeriveLabel(t *testing.T) {
	cases := map[string]string{
		"default_wallet_directory": "Default Wallet Directory",
		"SQLcl":                    "Sqlcl",
		"ssh-jump":                 "Ssh-Jump",
		"":                         "",
	}
	for in, want := range cases {
		if got := DeriveLabel(in); got != want {
			t.Errorf("DeriveLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPreferenceUpsertLabels(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpsertPreference("preference", "oci_config", "/home/u/.oci/config", ""); err != nil {
		t.Fatalf("UpsertPreference: %v", err)
	}
	p, err := s.GetPreference("preference", "oci_config")
	if err != nil || p == nil {
		t.Fatalf("GetPreference: p=%v err=%v", p, err)
	}
	if p.Label != "Oci Config" {
		t.Errorf("derived label = %q", p.Label)
	}

	if err := s.UpsertPreference("preference", "oci_config", "/etc/oci", "OCI Config File"); err != nil {
		t.Fatal(err)
	}
	p, _ = s.GetPreference("preference", "oci_config")
	if p.Value != "/etc/oci" || p.Label != "OCI Config File" {
		t.Errorf("after explicit label: %+v", p)
	}

	// Value-only update keeps the explicit label.
	if err := s.UpsertPreference("preference", "oci_config", "/tmp/oci", ""); err != nil {
		t.Fatal(err)
	}
	p, _ = s.GetPreference("preference", "oci_config")
	if p.Value != "/tmp/oci" || p.Label != "OCI Config File" {
		t.Errorf("after value-only update: %+v", p)
	}
}

func TestPreferenceScopesAreIndependent(t *testing.T) {
	s := newTestStore(t)
	_ = s.UpsertPreference("client_tools", "SQLcl", "sql", "")
	_ = s.UpsertPreference("ssh_templates", "SQLcl", "ssh x", "")

	p, _ := s.GetPreference("client_tools", "SQLcl")
	if p == nil || p.Value != "sql" {
		t.Fatalf("client_tools entry = %+v", p)
	}

	ok, err := s.DeletePreference("ssh_templates", "SQLcl")
	if err != nil || !ok {
		t.Fatalf("DeletePreference: ok=%v err=%v", ok, err)
	}
	if p, _ := s.GetPreference("client_tools", "SQLcl"); p == nil {
		t.Fatal("delete leaked across scopes")
	}

	names, _ := s.PreferenceNames("ssh_templates")
	if len(names) != 0 {
		t.Errorf("expected empty scope, got %v", names)
	}
}

func TestPreferenceRows(t *testing.T) {
	s := newTestStore(t)
	_ = s.UpsertPreference("preference", "b", "2", "")
	_ = s.UpsertPreference("auto", "main_geometry", "800x600", "")
	_ = s.PutPreferenceRow(&PreferenceRow{Scope: "preference", Name: "a", Value: "1", Attrs: [5]string{"x"}})

	rows, err := s.PreferenceRows("preference")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].Name != "a" || rows[0].Attrs[0] != "x" || rows[0].Label != "A" {
		t.Errorf("rows = %+v", rows)
	}

	all, _ := s.PreferenceRows("")
	if len(all) != 3 || all[0].Scope != "auto" {
		t.Errorf("all rows = %+v", all)
	}
}

func TestUpgradeLegacyConnectionsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "legacy.db")

	raw, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	_, err = raw.Exec(`CREATE TABLE connections (
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
	)`)
	if err != nil {
		t.Fatal(err)
	}
	_, err = raw.Exec(`INSERT INTO connections (connection_id, database_type, connection_type,
		db_account_name, connect_string, client_tool) VALUES ('old', 'Oracle', 'Legacy', 'SCOTT', 'h:1/s', 'SQLcl')`)
	if err != nil {
		t.Fatal(err)
	}
	raw.Close()

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("NewStore on legacy db: %v", err)
	}
	defer s.Close()

	got, err := s.GetConnection("old")
	if err != nil || got == nil {
		t.Fatalf("GetConnection: %v %v", got, err)
	}
	if got.Banner != "None" || got.TextColour != "None" || got.SSHTunnelRequired {
		t.Errorf("defaults after upgrade: %+v", got)
	}
}
