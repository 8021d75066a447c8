package transfer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aspect-build/dccm/internal/crypto"
	"github.com/aspect-build/dccm/internal/logx"
	"github.com/aspect-build/dccm/internal/registry"
	"github.com/aspect-build/dccm/internal/version"
)

// MatchAll selects every connection.
const MatchAll = "all"

// ExportOptions controls Export.
type ExportOptions struct {
	Path string
	// Match is MatchAll or one connection identifier.
	Match string
	// Password encrypts secrets and wallets. Without it secrets are left
	// empty and wallets are never shipped.
	Password       string
	IncludeWallets bool
}

// Result is the outcome of an export or import.
type Result struct {
	Feedback []string
	Count    int
	LogFile  string
}

func (r *Result) add(format string, args ...any) {
	r.Feedback = append(r.Feedback, fmt.Sprintf(format, args...))
}

// Service exports and imports the catalogue held by a Registry.
type Service struct {
	reg *registry.Registry
}

func New(reg *registry.Registry) *Service {
	return &Service{reg: reg}
}

func isMatchAll(match string) bool {
	return match == "" || strings.EqualFold(match, MatchAll)
}

// Export writes the selected connections to opts.Path. The action log is
// written even when the export fails part way.
func (s *Service) Export(opts ExportOptions) (*Result, error) {
	res := &Result{LogFile: actionLogPath(opts.Path, "_exp.log")}
	err := s.export(opts, res)
	if err != nil {
		res.add("ERROR: %v", err)
	}
	if lerr := writeActionLog(res.LogFile, "export", res.Feedback); lerr != nil {
		logx.Warnf("export: %v", lerr)
	}
	return res, err
}

func (s *Service) export(opts ExportOptions, res *Result) error {
	match := opts.Match
	if isMatchAll(match) {
		match = MatchAll
	}

	var profiles []registry.Profile
	if match == MatchAll {
		list, err := s.reg.List()
		if err != nil {
			return err
		}
		profiles = list
	} else {
		p, err := s.reg.MustGet(match)
		if err != nil {
			return err
		}
		profiles = []registry.Profile{*p}
		res.add("Including connection, %s, to export...", match)
	}

	res.add("Matching connections for: %s", match)
	header := Header{DataSource: SourceTag, Version: version.ExportFormat, ExportMatch: match}
	if opts.Password != "" {
		header.PasswordHash = crypto.Fingerprint(opts.Password)
		res.add("Password supplied - connection passwords / secrets included and encrypted.")
	} else {
		res.add("Password not supplied - connection passwords / secrets, not included to export.")
		if opts.IncludeWallets {
			res.add("Wallets are only exported when a password is supplied.")
		}
	}
	res.add("")

	body := make(map[string]Record, len(profiles))
	for i := range profiles {
		rec, err := s.exportRecord(&profiles[i], opts)
		if err != nil {
			return err
		}
		body[profiles[i].Identifier] = rec
		res.add("Connection, %q, successfully exported...", profiles[i].Identifier)
		res.Count++
	}

	data, err := json.MarshalIndent([]any{header, body}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	if err := os.WriteFile(opts.Path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", opts.Path, err)
	}

	res.add("")
	res.add("Export completed with %d connections, and written to %s.", res.Count, opts.Path)
	logx.Infof("exported %d connections to %s", res.Count, opts.Path)
	return nil
}

func (s *Service) exportRecord(p *registry.Profile, opts ExportOptions) (Record, error) {
	rec := recordFromProfile(p)
	if opts.Password == "" {
		return rec, nil
	}

	enc, err := crypto.EncryptForExport(p.Secret, opts.Password)
	if err != nil {
		return Record{}, fmt.Errorf("encrypt secret for %s: %w", p.Identifier, err)
	}
	rec.Secret = enc

	if opts.IncludeWallets && p.Wallet() != "" {
		raw, err := os.ReadFile(p.Wallet())
		if err != nil {
			return Record{}, fmt.Errorf("read wallet for %s: %w", p.Identifier, err)
		}
		wallet, err := crypto.EncryptForExport(base64.StdEncoding.EncodeToString(raw), opts.Password)
		if err != nil {
			return Record{}, fmt.Errorf("encrypt wallet for %s: %w", p.Identifier, err)
		}
		rec.Base64Wallet = wallet
	}
	return rec, nil
}

// recordFromProfile copies everything except the secret.
func recordFromProfile(p *registry.Profile) Record {
	return Record{
		DatabaseType:      p.DatabaseKind,
		ConnectionType:    string(p.ManagementKind),
		AccountName:       p.AccountName,
		ConnectString:     p.ConnectString,
		VaultProfile:      p.VaultProfile,
		WalletRequired:    YN(p.WalletRequired),
		WalletLocation:    p.WalletPath,
		ClientTool:        p.ClientTool,
		ClientToolOptions: p.ClientToolOptions,
		StartDirectory:    p.StartDirectory,
		SSHTunnelRequired: YN(p.SSHTunnelRequired),
		SSHTunnelCode:     p.SSHTemplate,
		ListenerPort:      Port(p.ListenerPort),
		Description:       p.Description,
		Banner:            p.Banner,
		Message:           p.Message,
		TextColour:        p.TextColour,
	}
}
