package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aspect-build/dccm/internal/config"
	"github.com/aspect-build/dccm/internal/crypto"
	"github.com/aspect-build/dccm/internal/launch"
	"github.com/aspect-build/dccm/internal/logx"
	"github.com/aspect-build/dccm/internal/machineid"
	"github.com/aspect-build/dccm/internal/prefs"
	"github.com/aspect-build/dccm/internal/registry"
	"github.com/aspect-build/dccm/internal/resolver"
	"github.com/aspect-build/dccm/internal/store"
	"github.com/aspect-build/dccm/internal/transfer"
	"github.com/aspect-build/dccm/internal/vault"
	"github.com/aspect-build/dccm/internal/version"
	"golang.org/x/term"
)

// app holds the wired components every subcommand works against.
type app struct {
	cfg   *config.Config
	st    *store.Store
	prefs *prefs.Prefs
	reg   *registry.Registry
	form  *launch.Formulator
	xfer  *transfer.Service
}

func openApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logx.Configure(logLevel, verbose); err != nil {
		return nil, err
	}
	if cfg.LogFile != "" {
		logx.SetFile(cfg.LogFile)
	}
	if err := cfg.EnsureHome(); err != nil {
		return nil, err
	}
	if err := cfg.PrepareScratch(); err != nil {
		return nil, err
	}

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	p := prefs.New(st)
	if err := p.Seed(version.Version); err != nil {
		st.Close()
		return nil, fmt.Errorf("seed preferences: %w", err)
	}

	cipher, err := crypto.NewAtRest(machineid.Resolve(machineid.Host{}))
	if err != nil {
		st.Close()
		return nil, err
	}

	aliasFile := cfg.AliasFile()
	if dir, err := p.TNSAdmin(); err != nil {
		logx.Warnf("tns_admin preference: %v", err)
	} else if dir != "" {
		aliasFile = filepath.Join(dir, "tnsnames.ora")
	}
	logx.Debugf("alias file: %q", aliasFile)

	reg := registry.New(st, p, cipher, resolver.New(aliasFile), vault.NewOCICLI())
	return &app{
		cfg:   cfg,
		st:    st,
		prefs: p,
		reg:   reg,
		form:  launch.NewFormulator(reg, cfg.ScratchDir, launch.WithProbeTimeout(cfg.ProbeTimeout)),
		xfer:  transfer.New(reg),
	}, nil
}

func (a *app) Close() {
	if err := a.st.Close(); err != nil {
		logx.Warnf("close database: %v", err)
	}
}

// withApp opens the app for the duration of fn.
func withApp(fn func(a *app) error) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

// readPassword resolves a --password flag value. "-" prompts on the terminal
// without echo.
func readPassword(flagValue, prompt string) (string, error) {
	if flagValue != "-" {
		return flagValue, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--password - needs an interactive terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(pw), nil
}
