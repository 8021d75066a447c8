package launch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/aspect-build/dccm/internal/banner"
	"github.com/aspect-build/dccm/internal/logx"
	"github.com/aspect-build/dccm/internal/placeholder"
	"github.com/aspect-build/dccm/internal/prefs"
	"github.com/aspect-build/dccm/internal/registry"
	"github.com/aspect-build/dccm/internal/resolver"
)

// Formulation is the outcome of formulating a command. A non-empty Status
// means no command could be produced; Warnings never block the command.
type Formulation struct {
	Command  string   `json:"command,omitempty"`
	Status   string   `json:"status,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Banner   string   `json:"banner,omitempty"`
	WorkDir  string   `json:"work_dir,omitempty"`
	// Secrets lists values that must be masked wherever Command is echoed.
	Secrets []string `json:"-"`
}

// OK reports whether a command was produced.
func (f Formulation) OK() bool {
	return f.Status == "" && f.Command != ""
}

func failed(format string, args ...any) Formulation {
	return Formulation{Status: fmt.Sprintf(format, args...)}
}

type ProbeFunc func(ctx context.Context, host string, port int, timeout time.Duration) error

// Formulator builds launch commands from saved profiles.
type Formulator struct {
	reg          *registry.Registry
	prefs        *prefs.Prefs
	platform     Platform
	scratchDir   string
	probeTimeout time.Duration

	lookPath func(string) (string, error)
	probe    ProbeFunc
	getwd    func() (string, error)
}

type Option func(*Formulator)

func WithPlatform(p Platform) Option { return func(f *Formulator) { f.platform = p } }

func WithLookPath(fn func(string) (string, error)) Option {
	return func(f *Formulator) { f.lookPath = fn }
}

// WithProbe replaces the listener probe. nil disables probing.
func WithProbe(fn ProbeFunc) Option { return func(f *Formulator) { f.probe = fn } }

func WithProbeTimeout(d time.Duration) Option { return func(f *Formulator) { f.probeTimeout = d } }

func WithGetwd(fn func() (string, error)) Option { return func(f *Formulator) { f.getwd = fn } }

func NewFormulator(reg *registry.Registry, scratchDir string, opts ...Option) *Formulator {
	f := &Formulator{
		reg:          reg,
		prefs:        reg.Prefs(),
		platform:     CurrentPlatform(),
		scratchDir:   scratchDir,
		probeTimeout: 3 * time.Second,
		lookPath:     exec.LookPath,
		probe:        resolver.Probe,
		getwd:        os.Getwd,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

// ClientCommand formulates the client launch for connection id. The error
// return is reserved for store and integrity failures; everything the
// operator can fix is reported in Formulation.Status.
func (f *Formulator) ClientCommand(ctx context.Context, id string, mode Mode, scriptName string) (Formulation, error) {
	p, err := f.reg.Get(id)
	if err != nil {
		return Formulation{}, err
	}
	if p == nil {
		return failed("Invalid connection identifier: %q", id), nil
	}

	password, err := f.reg.Password(ctx, p)
	if err != nil {
		return failed("Unable to retrieve the password for %q: %v", id, err), nil
	}
	if password == "" {
		return failed("No password defined for connection %q, please rectify.", id), nil
	}

	tmpl, ok, err := f.prefs.ClientToolCommand(p.ClientTool)
	if err != nil {
		return Formulation{}, err
	}
	if !ok || strings.TrimSpace(tmpl) == "" {
		return failed("%v", &ResourceError{Kind: "Client tool", Ref: p.ClientTool,
			Hint: "Perhaps this connection was imported from another repository? Define it under client tools."}), nil
	}

	var script any
	if scriptName != "" {
		script = scriptName
	}
	cmd := placeholder.Substitute(tmpl, placeholder.Attrs{
		"connection_identifier": p.Identifier,
		"database_type":         p.DatabaseKind,
		"connection_type":       string(p.ManagementKind),
		"db_account_name":       p.AccountName,
		"username":              p.AccountName,
		"password":              password,
		"connect_string":        p.ConnectString,
		"oci_profile":           p.VaultProfile,
		"wallet_location":       p.Wallet(),
		"client_tool_options":   p.ClientToolOptions,
		"start_directory":       p.StartDirectory,
		"script_name":           script,
	}, "")

	if !f.commandFound(cmd) {
		return failed("%v", &ResourceError{Kind: "Client command", Ref: cmd,
			Hint: "Ensure it is on the PATH or that its full pathname is valid."}), nil
	}

	if f.platform == Darwin {
		cmd = wrapWhich(cmd)
	}

	if p.ClientTool == prefs.ReservedClientTool {
		parts := []string{cmd}
		if mode == ModePlugin {
			parts = append(parts, "-S")
		}
		if p.WalletRequired {
			parts = append(parts, "-cloudconfig "+p.WalletPath)
		}
		parts = append(parts, fmt.Sprintf("%s/%s@%s", p.AccountName, password, p.ConnectString))
		if scriptName != "" {
			parts = append(parts, "@"+scriptName)
		}
		cmd = strings.Join(parts, " ")
	}

	out := Formulation{
		Banner:  banner.Render(p.Banner, p.Message, p.TextColour),
		WorkDir: p.StartDirectory,
		Secrets: []string{password},
	}
	out.Warnings = f.probeListener(ctx, p)

	if mode == ModeGUI {
		cmd, err = f.wrapGUI(cmd, "sql.sh")
		if err != nil {
			return failed("Unable to prepare the terminal launch: %v", err), nil
		}
	}
	out.Command = cmd
	return out, nil
}

// TunnelCommand formulates the SSH tunnel for connection id.
func (f *Formulator) TunnelCommand(ctx context.Context, id string, mode Mode) (Formulation, error) {
	p, err := f.reg.Get(id)
	if err != nil {
		return Formulation{}, err
	}
	if p == nil {
		return failed("Invalid connection identifier: %q", id), nil
	}
	if !p.SSHTunnelRequired {
		return failed("Connection %q is not configured for SSH tunnelling.", id), nil
	}

	ep, err := f.reg.Resolver().Resolve(p.ConnectString, p.Wallet())
	if err != nil {
		return failed("Unable to resolve the connect string for %q: %v", id, err), nil
	}

	tmpl, ok, err := f.prefs.SSHTemplate(p.SSHTemplate)
	if err != nil {
		return Formulation{}, err
	}
	if !ok {
		return failed("%v", &ResourceError{Kind: "SSH tunnelling template", Ref: p.SSHTemplate,
			Hint: fmt.Sprintf("It is referenced by %q; restore your preferences or pick another template.", id)}), nil
	}

	var listener any
	if p.ListenerPort > 0 {
		listener = p.ListenerPort
	} else if containsToken(tmpl, "listener_port") {
		return failed("Connection %q has no listener port, which template %q requires.", id, p.SSHTemplate), nil
	}

	cmd := placeholder.Substitute(tmpl, placeholder.Attrs{
		"database_host": ep.Host,
		"listener_port": listener,
		"local_port":    ep.Port,
	}, "")

	if !f.commandFound(cmd) {
		return failed("%v", &ResourceError{Kind: "SSH command", Ref: firstToken(cmd),
			Hint: "Ensure ssh is installed and on the PATH."}), nil
	}

	if mode == ModeGUI {
		cmd, err = f.wrapGUI(cmd, "ssh.sh")
		if err != nil {
			return failed("Unable to prepare the terminal launch: %v", err), nil
		}
		return Formulation{Command: cmd}, nil
	}

	ancillary, err := f.prefs.AncillarySSHWindow()
	if err != nil {
		logx.Warnf("ignoring ancillary ssh window preference: %v", err)
	}
	if ancillary {
		prefix, err := f.ancillaryPrefix()
		if err != nil {
			return failed("Unable to open an ancillary window: %v", err), nil
		}
		cmd = prefix + cmd
	}
	return Formulation{Command: cmd}, nil
}

func (f *Formulator) probeListener(ctx context.Context, p *registry.Profile) []string {
	if f.probe == nil {
		return nil
	}
	ep, err := f.reg.Resolver().Resolve(p.ConnectString, p.Wallet())
	if err != nil {
		return []string{fmt.Sprintf("Unable to resolve %s to a host and port: %v", p.ConnectString, err)}
	}
	if err := f.probe(ctx, ep.Host, ep.Port, f.probeTimeout); err != nil {
		logx.Debugf("probe %s failed: %v", ep, err)
		return []string{fmt.Sprintf("Nothing is listening on %s; the connection may fail.", ep)}
	}
	return nil
}

func (f *Formulator) wrapGUI(cmd, scriptName string) (string, error) {
	switch f.platform {
	case Darwin:
		if f.scratchDir == "" {
			return "", errors.New("no scratch directory configured")
		}
		if err := os.MkdirAll(f.scratchDir, 0o700); err != nil {
			return "", err
		}
		path := filepath.Join(f.scratchDir, scriptName)
		if err := os.WriteFile(path, []byte(cmd+"\n"), 0o750); err != nil {
			return "", err
		}
		// WriteFile leaves an existing file's mode alone.
		if err := os.Chmod(path, 0o750); err != nil {
			return "", err
		}
		return "open -a Terminal.app " + path, nil
	case Windows:
		return "start cmd /c " + cmd, nil
	default:
		return `gnome-terminal -- bash -c "` + cmd + `"`, nil
	}
}

func (f *Formulator) ancillaryPrefix() (string, error) {
	switch f.platform {
	case Windows:
		return "start; ", nil
	case Darwin:
		wd, err := f.getwd()
		if err != nil {
			return "", err
		}
		return "open -a Terminal.app " + wd + "; ", nil
	default:
		return "gnome-terminal; ", nil
	}
}

// commandFound reports whether the first token of cmd is an existing path or
// is on the PATH. "start" is a cmd.exe builtin and always counts on Windows.
func (f *Formulator) commandFound(cmd string) bool {
	name := firstToken(cmd)
	if name == "" {
		return false
	}
	if name == "start" && f.platform == Windows {
		return true
	}
	if _, err := os.Stat(name); err == nil {
		return true
	}
	_, err := f.lookPath(name)
	return err == nil
}

func firstToken(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// wrapWhich resolves the program through `which` so Terminal.app finds it
// without the login PATH.
func wrapWhich(cmd string) string {
	name := firstToken(cmd)
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cmd), name))
	out := "`which " + name + "`"
	if rest != "" {
		out += " " + rest
	}
	return out
}

func containsToken(tmpl, name string) bool {
	for _, t := range placeholder.Tokens(tmpl) {
		if t == name {
			return true
		}
	}
	return false
}
