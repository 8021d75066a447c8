package transfer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aspect-build/dccm/internal/crypto"
	"github.com/aspect-build/dccm/internal/logx"
	"github.com/aspect-build/dccm/internal/prefs"
	"github.com/aspect-build/dccm/internal/registry"
)

// PlaceholderSecret is stored for imported connections that arrive without a
// password, so the operator is prompted to set one.
const PlaceholderSecret = "Pwd update required."

var (
	ErrPasswordRequired   = errors.New("export is password protected and no password supplied")
	ErrNoDefaultWalletDir = errors.New("cannot remap wallet locations without a default wallet directory")
	ErrWalletsNeedRemap   = errors.New("importing wallets requires wallet location remapping")
)

// ImportOptions controls Import.
type ImportOptions struct {
	Path string
	// Match is MatchAll or one connection identifier.
	Match    string
	Password string
	// Merge overwrites connections that already exist.
	Merge bool
	// Remap rewrites wallet locations into the default wallet directory.
	Remap bool
	// Wallets writes shipped wallet files; requires Remap.
	Wallets bool
}

// Import reads opts.Path and upserts the selected connections. A returned
// error means the import was abandoned before any record was written;
// per-record problems are reported in Result.Feedback.
func (s *Service) Import(opts ImportOptions) (*Result, error) {
	res := &Result{LogFile: actionLogPath(opts.Path, "_imp.log")}
	err := s.importFile(opts, res)
	if err != nil {
		res.add("ERROR: %v", err)
		res.add("Import terminated!")
	}
	if lerr := writeActionLog(res.LogFile, "import", res.Feedback); lerr != nil {
		logx.Warnf("import: %v", lerr)
	}
	return res, err
}

func (s *Service) importFile(opts ImportOptions, res *Result) error {
	if opts.Wallets && !opts.Remap {
		return ErrWalletsNeedRemap
	}
	data, err := os.ReadFile(opts.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("the connections export file, %q, cannot be found: %w", opts.Path, err)
		}
		return fmt.Errorf("read export file: %w", err)
	}
	bundle, err := Classify(data)
	if err != nil {
		return err
	}

	if nb, ok := bundle.(*NativeBundle); ok && nb.Header.Protected() {
		if opts.Password == "" {
			return ErrPasswordRequired
		}
		if err := crypto.CheckFingerprint(opts.Password, nb.Header.PasswordHash); err != nil {
			return fmt.Errorf("invalid password supplied: %w", err)
		}
	}

	var walletDir string
	if opts.Remap {
		walletDir, err = s.reg.Prefs().DefaultWalletDirectory()
		if err != nil {
			return err
		}
		if walletDir == "" {
			return ErrNoDefaultWalletDir
		}
	}

	match := opts.Match
	if isMatchAll(match) {
		match = MatchAll
	}
	res.add("Matching connections for: %s", match)
	res.add("Merge connections: %s.", enabled(opts.Merge))
	res.add("Wallet location remapping: %s.", enabled(opts.Remap))
	res.add("")

	imp := &importer{svc: s, opts: opts, match: match, walletDir: walletDir, res: res}
	switch b := bundle.(type) {
	case *NativeBundle:
		err = imp.native(b)
	case *ThirdPartyBundle:
		err = imp.thirdParty(b)
	}
	if err != nil {
		return err
	}

	res.add("")
	res.add("Import from file, %s completed with %d connections inserted / updated.", opts.Path, res.Count)
	logx.Infof("imported %d connections from %s", res.Count, opts.Path)
	return nil
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

type importer struct {
	svc       *Service
	opts      ImportOptions
	match     string
	walletDir string
	res       *Result
}

func (im *importer) selected(id string) bool {
	return im.match == MatchAll || im.match == id
}

// admit reports whether id may be written, recording a skip when it exists
// and merging is off.
func (im *importer) admit(id string) (bool, error) {
	existing, err := im.svc.reg.Get(id)
	if err != nil {
		var ie *registry.IntegrityError
		if !errors.As(err, &ie) {
			return false, err
		}
		// An unreadable profile still occupies the identifier.
		existing = &registry.Profile{Identifier: id}
	}
	if existing != nil && !im.opts.Merge {
		im.res.add("Connection, %q, skipped - entry already exists, and merge option not specified.", id)
		return false, nil
	}
	return true, nil
}

// remap places a wallet's base name in the default wallet directory. Windows
// separators are normalised first so a path exported on one platform maps
// cleanly on another.
func (im *importer) remap(location string) string {
	base := path.Base(strings.ReplaceAll(location, `\`, "/"))
	if base == "." || base == "/" {
		return im.walletDir
	}
	return filepath.Join(im.walletDir, base)
}

func (im *importer) upsert(p *registry.Profile) {
	if _, err := im.svc.reg.Upsert(p); err != nil {
		im.res.add("Connection, %q, not imported: %v", p.Identifier, err)
		return
	}
	im.res.add("Connection, %q, successfully imported...", p.Identifier)
	im.res.Count++
}

func (im *importer) native(b *NativeBundle) error {
	ids := make([]string, 0, len(b.Body))
	for id := range b.Body {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if !im.selected(id) {
			continue
		}
		ok, err := im.admit(id)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		rec := b.Body[id]
		if b.Header.Version == legacyFormat {
			rec.SSHTunnelRequired = false
			rec.ListenerPort = 0
			rec.SSHTunnelCode = ""
			rec.ClientToolOptions = ""
		}

		p, err := im.nativeProfile(id, rec, b.Header.Protected())
		if err != nil {
			im.res.add("Connection, %q, not imported: %v", id, err)
			continue
		}
		im.upsert(p)
	}
	return nil
}

func (im *importer) nativeProfile(id string, rec Record, protected bool) (*registry.Profile, error) {
	kind, err := registry.ParseManagementKind(rec.ConnectionType)
	if err != nil {
		return nil, &registry.ValidationError{Field: "ManagementKind", Message: err.Error()}
	}
	p := &registry.Profile{
		Identifier:        id,
		DatabaseKind:      rec.DatabaseType,
		ManagementKind:    kind,
		AccountName:       rec.AccountName,
		ConnectString:     rec.ConnectString,
		VaultProfile:      rec.VaultProfile,
		Secret:            rec.Secret,
		WalletRequired:    bool(rec.WalletRequired),
		WalletPath:        rec.WalletLocation,
		ClientTool:        rec.ClientTool,
		ClientToolOptions: rec.ClientToolOptions,
		StartDirectory:    rec.StartDirectory,
		SSHTunnelRequired: bool(rec.SSHTunnelRequired),
		SSHTemplate:       rec.SSHTunnelCode,
		ListenerPort:      int(rec.ListenerPort),
		Description:       rec.Description,
		Banner:            rec.Banner,
		Message:           rec.Message,
		TextColour:        rec.TextColour,
	}
	if p.ClientTool == "" {
		p.ClientTool = prefs.ReservedClientTool
	}

	switch {
	case protected && p.Secret != "":
		plain, err := crypto.DecryptForExport(p.Secret, im.opts.Password)
		if err != nil {
			return nil, fmt.Errorf("decrypt secret: %w", err)
		}
		p.Secret = plain
	case p.Secret == "":
		p.Secret = PlaceholderSecret
	}

	if im.opts.Remap && p.WalletRequired {
		p.WalletPath = im.remap(rec.WalletLocation)
		if im.opts.Wallets && rec.Base64Wallet != "" && protected {
			if err := im.writeWallet(id, rec.Base64Wallet, p.WalletPath); err != nil {
				return nil, err
			}
		}
	}
	return p, nil
}

func (im *importer) writeWallet(id, token, dest string) error {
	encoded, err := crypto.DecryptForExport(token, im.opts.Password)
	if err != nil {
		return fmt.Errorf("decrypt wallet: %w", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return fmt.Errorf("decode wallet: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o700); err != nil {
		return fmt.Errorf("create wallet directory: %w", err)
	}
	if err := os.WriteFile(dest, raw, 0o600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}
	im.res.add("Decoding wallet for connection, %q, to default wallet location, %s.", id, im.walletDir)
	return nil
}

const jdbcThinPrefix = "jdbc:oracle:thin:@"

func stripJDBC(s string) string {
	if len(s) >= len(jdbcThinPrefix) && strings.EqualFold(s[:len(jdbcThinPrefix)], jdbcThinPrefix) {
		return s[len(jdbcThinPrefix):]
	}
	return s
}

func (im *importer) thirdParty(b *ThirdPartyBundle) error {
	for _, c := range b.Connections {
		if !im.selected(c.Name) {
			continue
		}
		if kind := infoString(c.Info, "RaptorConnectionType"); kind != "Oracle" {
			im.res.add("Connection, %q, skipped - unsupported connection type, %s.", c.Name, kind)
			continue
		}
		ok, err := im.admit(c.Name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		im.upsert(im.thirdPartyProfile(c))
	}
	return nil
}

func (im *importer) thirdPartyProfile(c ThirdPartyConnection) *registry.Profile {
	p := &registry.Profile{
		Identifier:     c.Name,
		DatabaseKind:   registry.DefaultDatabaseKind,
		ManagementKind: registry.Legacy,
		AccountName:    infoString(c.Info, "user"),
		Secret:         PlaceholderSecret,
		ClientTool:     prefs.ReservedClientTool,
	}

	customURL := stripJDBC(infoString(c.Info, "customUrl"))
	switch infoString(c.Info, "OracleConnectionType") {
	case "TNS":
		p.ConnectString = customURL
		if p.ConnectString == "" {
			p.ConnectString = infoString(c.Info, "TnsAlias")
		}
	case "CLOUD":
		p.ConnectString = customURL
		p.WalletRequired = true
		p.WalletPath = infoString(c.Info, "sqldev.cloud.configfile")
		if im.opts.Remap {
			p.WalletPath = im.remap(p.WalletPath)
		}
	default:
		p.ConnectString = fmt.Sprintf("%s:%s/%s",
			infoString(c.Info, "hostname"), infoString(c.Info, "port"), infoString(c.Info, "serviceName"))
	}
	return p
}
