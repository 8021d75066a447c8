package registry

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
	"testing"

	"github.com/aspect-build/dccm/internal/crypto"
	"github.com/aspect-build/dccm/internal/logx"
	"github.com/aspect-build/dccm/internal/prefs"
	"github.com/aspect-build/dccm/internal/resolver"
	"github.com/aspect-build/dccm/internal/store"
	"github.com/aspect-build/dccm/internal/vault"
)

type fakeFetcher struct {
	got vault.Request
}

func (f *fakeFetcher) FetchSecret(_ context.Context, req vault.Request) (string, error) {
	f.got = req
	return "from-vault", nil
}

type fixture struct {
	reg     *Registry
	st      *store.Store
	prefs   *prefs.Prefs
	fetcher *fakeFetcher
}

func newFixture(t *testing.T, machineID string) *fixture {
	t.Helper()
	st, err := store.NewStore(":memory:")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return newFixtureOn(t, st, machineID)
}

func newFixtureOn(t *testing.T, st *store.Store, machineID string) *fixture {
	t.Helper()
	p := prefs.New(st)
	if err := p.Seed("test"); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	cipher, err := crypto.NewAtRest(machineID)
	if err != nil {
		t.Fatalf("NewAtRest: %v", err)
	}
	f := &fakeFetcher{}
	reg := New(st, p, cipher, resolver.New(""), f)
	reg.SetHomeDir("/home/tester")
	return &fixture{reg: reg, st: st, prefs: p, fetcher: f}
}

func legacyProfile(id string) *Profile {
	return &Profile{
		Identifier:     id,
		ManagementKind: Legacy,
		AccountName:    "SCOTT",
		ConnectString:  "db.example.com:1521/ORCL",
		Secret:         "tiger",
		ClientTool:     prefs.ReservedClientTool,
	}
}

func TestUpsertAndGet(t *testing.T) {
	f := newFixture(t, "machine-a")

	created, err := f.reg.Upsert(legacyProfile("prod"))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if !created {
		t.Error("expected create")
	}

	got, err := f.reg.Get("prod")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Secret != "tiger" || got.AccountName != "SCOTT" {
		t.Errorf("got %+v", got)
	}
	if got.StartDirectory != "/home/tester" || got.DatabaseKind != DefaultDatabaseKind || got.Banner != "None" {
		t.Errorf("defaults not applied: %+v", got)
	}

	// Idempotent: same identifier replaces, never duplicates.
	p := legacyProfile("prod")
	p.AccountName = "HR"
	created, err = f.reg.Upsert(p)
	if err != nil || created {
		t.Fatalf("second Upsert: created=%v err=%v", created, err)
	}
	ids, _ := f.reg.Identifiers()
	if !reflect.DeepEqual(ids, []string{"prod"}) {
		t.Errorf("ids = %v", ids)
	}

	if got, err := f.reg.Get("missing"); got != nil || err != nil {
		t.Errorf("Get missing = %v, %v", got, err)
	}
	if _, err := f.reg.MustGet("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("MustGet missing: %v", err)
	}
}

func TestSecretEncryptedAtRest(t *testing.T) {
	f := newFixture(t, "machine-a")
	if _, err := f.reg.Upsert(legacyProfile("prod")); err != nil {
		t.Fatal(err)
	}
	row, err := f.st.GetConnection("prod")
	if err != nil || row == nil {
		t.Fatalf("GetConnection: %v", err)
	}
	if row.Secret == "" || strings.Contains(row.Secret, "tiger") {
		t.Errorf("secret stored in the clear: %q", row.Secret)
	}

	other := newFixtureOn(t, f.st, "machine-b")
	_, err = other.reg.Get("prod")
	var ie *IntegrityError
	if !errors.As(err, &ie) || !errors.Is(err, crypto.ErrIntegrity) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}
	if ie.Identifier != "prod" {
		t.Errorf("IntegrityError.Identifier = %q", ie.Identifier)
	}
}

func TestValidationErrors(t *testing.T) {
	f := newFixture(t, "machine-a")

	cases := []struct {
		name   string
		mutate func(p *Profile)
		field  string
	}{
		{"missing id", func(p *Profile) { p.Identifier = "  " }, "Identifier"},
		{"missing account", func(p *Profile) { p.AccountName = "" }, "AccountName"},
		{"missing secret", func(p *Profile) { p.Secret = "" }, "Secret"},
		{"bad kind", func(p *Profile) { p.ManagementKind = "Magic" }, "ManagementKind"},
		{"vault without profile", func(p *Profile) { p.ManagementKind = VaultManaged }, "VaultProfile"},
		{"wallet without path", func(p *Profile) { p.WalletRequired = true }, "WalletPath"},
		{"tunnel without template", func(p *Profile) { p.SSHTunnelRequired = true }, "SSHTemplate"},
		{"unknown tool", func(p *Profile) { p.ClientTool = "Toad" }, "ClientTool"},
		{"unknown ssh template", func(p *Profile) { p.SSHTunnelRequired = true; p.SSHTemplate = "nope" }, "SSHTemplate"},
		{"bad connect string", func(p *Profile) { p.ConnectString = "db:1521" }, "ConnectString"},
		{"bad banner", func(p *Profile) { p.Banner = "DANGER" }, "Banner"},
		{"bad port", func(p *Profile) { p.ListenerPort = 100000 }, "ListenerPort"},
	}
	for _, c := range cases {
		p := legacyProfile("x")
		c.mutate(p)
		_, err := f.reg.Upsert(p)
		var verrs ValidationErrors
		if !errors.As(err, &verrs) {
			t.Errorf("%s: expected ValidationErrors, got %v", c.name, err)
			continue
		}
		found := false
		for _, e := range verrs {
			if e.Field == c.field {
				found = true
			}
		}
		if !found {
			t.Errorf("%s: no error for field %s in %v", c.name, c.field, verrs)
		}
	}

	ids, _ := f.reg.Identifiers()
	if len(ids) != 0 {
		t.Errorf("invalid profiles were saved: %v", ids)
	}
}

func TestValidationMessage(t *testing.T) {
	f := newFixture(t, "machine-a")
	p := legacyProfile("x")
	p.Secret = ""
	err := f.reg.Validate(p)
	if err == nil || !strings.Contains(err.Error(), "You must supply a Password") {
		t.Fatalf("err = %v", err)
	}
}

func TestDelete(t *testing.T) {
	f := newFixture(t, "machine-a")
	_, _ = f.reg.Upsert(legacyProfile("a"))
	ok, err := f.reg.Delete("a")
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	if ok, _ := f.reg.Delete("a"); ok {
		t.Error("second delete reported true")
	}
}

func TestAsMap(t *testing.T) {
	f := newFixture(t, "machine-a")
	_, _ = f.reg.Upsert(legacyProfile("a"))
	_, _ = f.reg.Upsert(legacyProfile("b"))
	m, err := f.reg.AsMap()
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 2 || m["b"].Secret != "tiger" {
		t.Errorf("AsMap = %+v", m)
	}
}

func TestTemplateGuards(t *testing.T) {
	f := newFixture(t, "machine-a")
	_ = f.prefs.Set(prefs.ScopeClientTools, "Toad", "toad.exe", "")
	_ = f.prefs.Set(prefs.ScopeClientTools, "Spare", "spare", "")

	p := legacyProfile("uses-toad")
	p.ClientTool = "Toad"
	p.SSHTunnelRequired = true
	p.SSHTemplate = "bastion_tunnel"
	if _, err := f.reg.Upsert(p); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := f.reg.DeleteClientTool(prefs.ReservedClientTool); !errors.Is(err, ErrReservedTemplate) {
		t.Errorf("reserved delete: %v", err)
	}

	err := f.reg.DeleteClientTool("Toad")
	var inUse *TemplateInUseError
	if !errors.As(err, &inUse) || !reflect.DeepEqual(inUse.UsedBy, []string{"uses-toad"}) {
		t.Fatalf("expected TemplateInUseError, got %v", err)
	}
	if _, ok, _ := f.prefs.ClientToolCommand("Toad"); !ok {
		t.Error("in-use template was deleted")
	}

	if err := f.reg.DeleteSSHTemplate("bastion_tunnel"); !errors.As(err, &inUse) {
		t.Errorf("expected ssh template guard, got %v", err)
	}

	if err := f.reg.DeleteClientTool("Spare"); err != nil {
		t.Errorf("DeleteClientTool unused: %v", err)
	}
	if err := f.reg.DeleteClientTool("Spare"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}

	if _, err := f.reg.Delete("uses-toad"); err != nil {
		t.Fatal(err)
	}
	if err := f.reg.DeleteSSHTemplate("bastion_tunnel"); err != nil {
		t.Errorf("DeleteSSHTemplate after release: %v", err)
	}
}

func TestPasswordAndManagementKinds(t *testing.T) {
	f := newFixture(t, "machine-a")

	kinds, _ := f.reg.ManagementKinds()
	if !reflect.DeepEqual(kinds, []ManagementKind{Legacy}) {
		t.Errorf("kinds without oci config = %v", kinds)
	}
	_ = f.prefs.Set(prefs.ScopePreference, prefs.SettingOCIConfig, "/home/u/.oci/config", "")
	kinds, _ = f.reg.ManagementKinds()
	if len(kinds) != 2 || kinds[1] != VaultManaged {
		t.Errorf("kinds with oci config = %v", kinds)
	}

	p := legacyProfile("v")
	p.ManagementKind = VaultManaged
	p.VaultProfile = "DEFAULT"
	p.Secret = "ocid1.vaultsecret.oc1..xyz"
	if _, err := f.reg.Upsert(p); err != nil {
		t.Fatalf("Upsert vault profile: %v", err)
	}
	got, _ := f.reg.Get("v")
	pw, err := f.reg.Password(context.Background(), got)
	if err != nil || pw != "from-vault" {
		t.Fatalf("Password = %q, %v", pw, err)
	}
	want := vault.Request{ConfigFile: "/home/u/.oci/config", Profile: "DEFAULT", SecretID: "ocid1.vaultsecret.oc1..xyz"}
	if f.fetcher.got != want {
		t.Errorf("fetch request = %+v", f.fetcher.got)
	}

	pw, _ = f.reg.Password(context.Background(), legacyProfile("l"))
	if pw != "tiger" {
		t.Errorf("legacy password = %q", pw)
	}
}

func TestDefaultConnection(t *testing.T) {
	f := newFixture(t, "machine-a")
	_ = f.prefs.Set(prefs.ScopePreference, prefs.SettingDefaultConnection, "gone", "")
	if id, err := f.reg.DefaultConnection(); err != nil || id != "" {
		t.Errorf("stale default = %q, %v", id, err)
	}
	_, _ = f.reg.Upsert(legacyProfile("gone"))
	if id, _ := f.reg.DefaultConnection(); id != "gone" {
		t.Errorf("default = %q", id)
	}
}

func TestUpsertRejectsAliasThatDoesNotResolve(t *testing.T) {
	tns := filepath.Join(t.TempDir(), "tnsnames.ora")
	body := "BROKEN = (DESCRIPTION=(ADDRESS=(HOST=db.example.com))(CONNECT_DATA=(SERVICE_NAME=x)))\n" +
		"GOOD = (DESCRIPTION=(ADDRESS=(HOST=db.example.com)(PORT=1521))(CONNECT_DATA=(SERVICE_NAME=x)))\n"
	if err := os.WriteFile(tns, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	f := newFixture(t, "machine-a")
	cipher, err := crypto.NewAtRest("machine-a")
	if err != nil {
		t.Fatal(err)
	}
	reg := New(f.st, f.prefs, cipher, resolver.New(tns), nil)
	reg.SetHomeDir("/home/tester")

	p := legacyProfile("broken")
	p.ConnectString = "BROKEN"
	_, err = reg.Upsert(p)
	var ve ValidationErrors
	if !errors.As(err, &ve) || ve[0].Field != "ConnectString" {
		t.Fatalf("expected ConnectString validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "no PORT=") {
		t.Errorf("message = %q", err.Error())
	}
	if got, _ := reg.Get("broken"); got != nil {
		t.Error("profile with an unresolvable alias was saved")
	}

	p = legacyProfile("good")
	p.ConnectString = "GOOD"
	if _, err := reg.Upsert(p); err != nil {
		t.Fatalf("Upsert GOOD: %v", err)
	}
}

func TestGetUnknownManagementKind(t *testing.T) {
	f := newFixture(t, "machine-a")
	if _, err := f.reg.Upsert(legacyProfile("prod")); err != nil {
		t.Fatal(err)
	}
	row, err := f.st.GetConnection("prod")
	if err != nil || row == nil {
		t.Fatalf("GetConnection: %v", err)
	}
	row.ConnectionType = "OCI Valt"
	if _, err := f.st.UpsertConnection(row); err != nil {
		t.Fatal(err)
	}

	got, err := f.reg.Get("prod")
	var ie *IntegrityError
	if !errors.As(err, &ie) || got != nil {
		t.Fatalf("expected IntegrityError, got %v, %v", got, err)
	}
	if !strings.Contains(err.Error(), "OCI Valt") {
		t.Errorf("error = %v", err)
	}
}

func TestNewWarnsWithoutHomeDir(t *testing.T) {
	if runtime.GOOS == "windows" || runtime.GOOS == "plan9" {
		t.Skip("home directory comes from HOME only on unix")
	}
	t.Setenv("HOME", "")
	var buf bytes.Buffer
	logx.SetOutput(&buf)
	t.Cleanup(func() { logx.SetOutput(nil) })

	f := newFixture(t, "machine-a")
	if f.reg == nil {
		t.Fatal("nil registry")
	}
	if !strings.Contains(buf.String(), "home directory unavailable") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestSalvageKeepsMetadata(t *testing.T) {
	f := newFixture(t, "machine-a")
	orig := legacyProfile("prod")
	orig.Description = "finance reporting"
	orig.ClientToolOptions = "-nohistory"
	if _, err := f.reg.Upsert(orig); err != nil {
		t.Fatal(err)
	}

	other := newFixtureOn(t, f.st, "machine-b")
	var ie *IntegrityError
	if _, err := other.reg.Get("prod"); !errors.As(err, &ie) {
		t.Fatalf("expected IntegrityError, got %v", err)
	}

	p, err := other.reg.Salvage("prod")
	if err != nil || p == nil {
		t.Fatalf("Salvage: %v, %v", p, err)
	}
	if p.Secret != "" {
		t.Errorf("Salvage exposed a secret: %q", p.Secret)
	}
	if p.Description != "finance reporting" || p.ClientToolOptions != "-nohistory" ||
		p.AccountName != "SCOTT" || p.ManagementKind != Legacy {
		t.Errorf("metadata lost: %+v", p)
	}

	p.Secret = "new-tiger"
	if _, err := other.reg.Upsert(p); err != nil {
		t.Fatalf("Upsert after salvage: %v", err)
	}
	got, err := other.reg.Get("prod")
	if err != nil {
		t.Fatal(err)
	}
	if got.Secret != "new-tiger" || got.Description != "finance reporting" {
		t.Errorf("after re-entry: %+v", got)
	}

	if p, err := other.reg.Salvage("missing"); p != nil || err != nil {
		t.Errorf("Salvage missing = %v, %v", p, err)
	}
}
