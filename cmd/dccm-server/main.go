package main

import (
	"flag"
	"fmt"
	"log"
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
	"github.com/aspect-build/dccm/internal/server"
	"github.com/aspect-build/dccm/internal/store"
	"github.com/aspect-build/dccm/internal/vault"
	"github.com/aspect-build/dccm/internal/version"
	"github.com/gin-gonic/gin"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version and exit")
	verbose := flag.Bool("verbose", false, "Enable verbose debug logs (same as --log-level debug)")
	logLevel := flag.String("log-level", "", "Log level: debug|info|warn|error (or DCCM_LOG_LEVEL)")
	flag.BoolVar(showVersion, "v", false, "Print version and exit")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n\n", version.String("dccm-server"))
		fmt.Fprintf(os.Stderr, "dccm-server lets editor plugins list connections and formulate launch commands over loopback HTTP.\n\n")
		fmt.Fprintf(os.Stderr, "Environment variables:\n")
		fmt.Fprintf(os.Stderr, "  DCCM_API_TOKEN      Bearer token plugins must send (min 16 chars, required)\n")
		fmt.Fprintf(os.Stderr, "  DCCM_HOME           dccm home directory (default: ~/.dccm)\n")
		fmt.Fprintf(os.Stderr, "  DCCM_DB_PATH        SQLite database path (default: $DCCM_HOME/dccm.db)\n")
		fmt.Fprintf(os.Stderr, "  DCCM_LISTEN_ADDR    Listen address (default: 127.0.0.1:7878)\n")
		fmt.Fprintf(os.Stderr, "  DCCM_CORS_ORIGINS   Comma-separated origins allowed to call the API\n")
		fmt.Fprintf(os.Stderr, "  DCCM_LOG_LEVEL      Log level: debug|info|warn|error (default: info)\n")
		fmt.Fprintf(os.Stderr, "  DCCM_LOG_FILE       Also write logs to this rotated file\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("dccm-server"))
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := logx.Configure(*logLevel, *verbose); err != nil {
		log.Fatalf("configure logging: %v", err)
	}
	if err := cfg.RequireAPIToken(); err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.LogFile != "" {
		logx.SetFile(cfg.LogFile)
		defer logx.Close()
	}
	if err := cfg.EnsureHome(); err != nil {
		log.Fatalf("prepare home: %v", err)
	}
	if err := cfg.PrepareScratch(); err != nil {
		log.Fatalf("prepare scratch: %v", err)
	}

	st, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer st.Close()

	p := prefs.New(st)
	if err := p.Seed(version.Version); err != nil {
		log.Fatalf("seed preferences: %v", err)
	}
	cipher, err := crypto.NewAtRest(machineid.Resolve(machineid.Host{}))
	if err != nil {
		log.Fatalf("init cipher: %v", err)
	}

	aliasFile := cfg.AliasFile()
	if dir, _ := p.TNSAdmin(); dir != "" {
		aliasFile = filepath.Join(dir, "tnsnames.ora")
	}
	reg := registry.New(st, p, cipher, resolver.New(aliasFile), vault.NewOCICLI())
	f := launch.NewFormulator(reg, cfg.ScratchDir, launch.WithProbeTimeout(cfg.ProbeTimeout))

	if !logx.IsDebug() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := server.NewRouter(reg, f, cfg)

	logx.Infof("dccm-server listening on %s", cfg.ListenAddr)
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
