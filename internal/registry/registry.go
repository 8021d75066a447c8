package registry

import (
	"context"
	"fmt"
	"os"

	"github.com/aspect-build/dccm/internal/crypto"
	"github.com/aspect-build/dccm/internal/logx"
	"github.com/aspect-build/dccm/internal/prefs"
	"github.com/aspect-build/dccm/internal/resolver"
	"github.com/aspect-build/dccm/internal/store"
	"github.com/aspect-build/dccm/internal/vault"
	"github.com/go-playground/validator/v10"
)

// Registry is the connection catalogue.
type Registry struct {
	st       *store.Store
	prefs    *prefs.Prefs
	cipher   *crypto.AtRest
	resolver *resolver.Resolver
	fetcher  vault.Fetcher
	validate *validator.Validate
	homeDir  string
}

// New wires a Registry. fetcher may be nil when no vault-managed profile is used.
func New(st *store.Store, p *prefs.Prefs, cipher *crypto.AtRest, res *resolver.Resolver, fetcher vault.Fetcher) *Registry {
	home, err := os.UserHomeDir()
	if err != nil {
		logx.Warnf("home directory unavailable, new profiles need an explicit start directory: %v", err)
	}
	return &Registry{
		st:       st,
		prefs:    p,
		cipher:   cipher,
		resolver: res,
		fetcher:  fetcher,
		validate: newValidator(),
		homeDir:  home,
	}
}

// SetHomeDir overrides the default start directory for new profiles.
func (r *Registry) SetHomeDir(dir string) {
	r.homeDir = dir
}

// Prefs exposes the preference store the registry checks templates against.
func (r *Registry) Prefs() *prefs.Prefs {
	return r.prefs
}

// Resolver exposes the connect-string resolver.
func (r *Registry) Resolver() *resolver.Resolver {
	return r.resolver
}

// Validate checks p without saving it. p is normalised in place.
func (r *Registry) Validate(p *Profile) error {
	p.normalize()
	if p.StartDirectory == "" {
		p.StartDirectory = r.homeDir
	}
	if err := r.validate.Struct(p); err != nil {
		return translate(err)
	}

	var problems ValidationErrors
	if err := r.resolver.Validate(p.ConnectString, p.Wallet()); err != nil {
		problems = append(problems, &ValidationError{Field: "ConnectString", Message: err.Error()})
	}
	if _, ok, err := r.prefs.ClientToolCommand(p.ClientTool); err != nil {
		return err
	} else if !ok {
		problems = append(problems, &ValidationError{
			Field: "ClientTool", Message: fmt.Sprintf("Client Tool %q is not defined", p.ClientTool)})
	}
	if p.SSHTunnelRequired {
		if _, ok, err := r.prefs.SSHTemplate(p.SSHTemplate); err != nil {
			return err
		} else if !ok {
			problems = append(problems, &ValidationError{
				Field: "SSHTemplate", Message: fmt.Sprintf("SSH Tunnel Template %q is not defined", p.SSHTemplate)})
		}
	}
	if len(problems) > 0 {
		return problems
	}
	return nil
}

// Upsert validates and saves p, replacing any profile with the same
// identifier. Returns true when a new profile was created.
func (r *Registry) Upsert(p *Profile) (bool, error) {
	if err := r.Validate(p); err != nil {
		return false, err
	}
	row, err := r.toRow(p)
	if err != nil {
		return false, err
	}
	created, err := r.st.UpsertConnection(row)
	if err != nil {
		return false, err
	}
	if created {
		logx.Infof("connection %s created", p.Identifier)
	} else {
		logx.Infof("connection %s updated", p.Identifier)
	}
	return created, nil
}

// Get returns the profile for id, or nil, nil when absent.
func (r *Registry) Get(id string) (*Profile, error) {
	row, err := r.st.GetConnection(id)
	if err != nil || row == nil {
		return nil, err
	}
	return r.fromRow(row)
}

// MustGet is Get with ErrNotFound for an absent profile.
func (r *Registry) MustGet(id string) (*Profile, error) {
	p, err := r.Get(id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return p, nil
}

// Delete removes id. Returns true if it existed.
func (r *Registry) Delete(id string) (bool, error) {
	ok, err := r.st.DeleteConnection(id)
	if err == nil && ok {
		logx.Infof("connection %s deleted", id)
	}
	return ok, err
}

// Identifiers lists every identifier in ascending order.
func (r *Registry) Identifiers() ([]string, error) {
	return r.st.ConnectionIDs()
}

// List returns every profile, decrypted, ordered by identifier.
func (r *Registry) List() ([]Profile, error) {
	rows, err := r.st.ListConnections()
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(rows))
	for i := range rows {
		p, err := r.fromRow(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

// AsMap returns every profile keyed by identifier.
func (r *Registry) AsMap() (map[string]Profile, error) {
	list, err := r.List()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Profile, len(list))
	for _, p := range list {
		out[p.Identifier] = p
	}
	return out, nil
}

// DefaultConnection returns the preferred connection if it still exists.
func (r *Registry) DefaultConnection() (string, error) {
	id, err := r.prefs.DefaultConnection()
	if err != nil || id == "" {
		return "", err
	}
	row, err := r.st.GetConnection(id)
	if err != nil || row == nil {
		return "", err
	}
	return id, nil
}

// ManagementKinds lists the kinds a new profile may use. VaultManaged is
// offered only once an OCI config file is configured.
func (r *Registry) ManagementKinds() ([]ManagementKind, error) {
	kinds := []ManagementKind{Legacy}
	cfg, err := r.prefs.OCIConfig()
	if err != nil {
		return nil, err
	}
	if cfg != "" {
		kinds = append(kinds, VaultManaged)
	}
	return kinds, nil
}

// Password returns the plaintext password for p, fetching it from the
// vault for VaultManaged profiles.
func (r *Registry) Password(ctx context.Context, p *Profile) (string, error) {
	if p.ManagementKind != VaultManaged {
		return p.Secret, nil
	}
	if r.fetcher == nil {
		return "", fmt.Errorf("connection %s is vault-managed but no vault fetcher is configured", p.Identifier)
	}
	cfg, err := r.prefs.OCIConfig()
	if err != nil {
		return "", err
	}
	return r.fetcher.FetchSecret(ctx, vault.Request{
		ConfigFile: cfg,
		Profile:    p.VaultProfile,
		SecretID:   p.Secret,
	})
}

func (r *Registry) toRow(p *Profile) (*store.ConnectionRow, error) {
	enc, err := r.cipher.Encrypt(p.Secret)
	if err != nil {
		return nil, fmt.Errorf("encrypt secret for %s: %w", p.Identifier, err)
	}
	return &store.ConnectionRow{
		ID:                p.Identifier,
		DatabaseType:      p.DatabaseKind,
		ConnectionType:    string(p.ManagementKind),
		AccountName:       p.AccountName,
		ConnectString:     p.ConnectString,
		VaultProfile:      p.VaultProfile,
		Secret:            enc,
		WalletRequired:    p.WalletRequired,
		WalletLocation:    p.WalletPath,
		ClientTool:        p.ClientTool,
		ClientToolOptions: p.ClientToolOptions,
		StartDirectory:    p.StartDirectory,
		SSHTunnelRequired: p.SSHTunnelRequired,
		SSHTunnelTemplate: p.SSHTemplate,
		ListenerPort:      p.ListenerPort,
		Description:       p.Description,
		Banner:            p.Banner,
		Message:           p.Message,
		TextColour:        p.TextColour,
	}, nil
}

func (r *Registry) fromRow(row *store.ConnectionRow) (*Profile, error) {
	secret, err := r.cipher.Decrypt(row.Secret)
	if err != nil {
		return nil, &IntegrityError{Identifier: row.ID, Err: err}
	}
	kind, err := ParseManagementKind(row.ConnectionType)
	if err != nil {
		return nil, &IntegrityError{Identifier: row.ID, Err: err}
	}
	p := profileFromRow(row)
	p.ManagementKind = kind
	p.Secret = secret
	return p, nil
}

// Salvage returns the stored profile for id without its secret, for rows that
// Get rejects with an IntegrityError. ManagementKind is left empty when the
// stored value is not recognised. Returns nil, nil when absent.
func (r *Registry) Salvage(id string) (*Profile, error) {
	row, err := r.st.GetConnection(id)
	if err != nil || row == nil {
		return nil, err
	}
	p := profileFromRow(row)
	if kind, err := ParseManagementKind(row.ConnectionType); err == nil {
		p.ManagementKind = kind
	}
	return p, nil
}

func profileFromRow(row *store.ConnectionRow) *Profile {
	return &Profile{
		Identifier:        row.ID,
		DatabaseKind:      row.DatabaseType,
		AccountName:       row.AccountName,
		ConnectString:     row.ConnectString,
		VaultProfile:      row.VaultProfile,
		WalletRequired:    row.WalletRequired,
		WalletPath:        row.WalletLocation,
		ClientTool:        row.ClientTool,
		ClientToolOptions: row.ClientToolOptions,
		StartDirectory:    row.StartDirectory,
		SSHTunnelRequired: row.SSHTunnelRequired,
		SSHTemplate:       row.SSHTunnelTemplate,
		ListenerPort:      row.ListenerPort,
		Description:       row.Description,
		Banner:            row.Banner,
		Message:           row.Message,
		TextColour:        row.TextColour,
	}
}
