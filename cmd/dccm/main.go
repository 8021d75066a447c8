package main

import (
	"fmt"
	"os"

	"github.com/aspect-build/dccm/internal/logx"
	"github.com/aspect-build/dccm/internal/version"
	"github.com/spf13/cobra"
)

// exitCode carries a launched client's exit status out of RunE so deferred
// cleanup runs before the process exits.
var exitCode int

// Root log flags. openApp re-applies them once .env files are loaded.
var (
	logLevel string
	verbose  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "dccm",
		Short:         "Database client connection manager",
		Long:          "dccm saves database connection profiles and launches SQL clients and SSH tunnels for them.",
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logx.Configure(logLevel, verbose)
		},
	}
	rootCmd.SetVersionTemplate(version.String("dccm") + "\n")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug|info|warn|error (or DCCM_LOG_LEVEL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose debug logs (same as --log-level debug)")

	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newShowCmd())
	rootCmd.AddCommand(newSetCmd())
	rootCmd.AddCommand(newDeleteCmd())
	rootCmd.AddCommand(newDefaultCmd())
	rootCmd.AddCommand(newLaunchCmd())
	rootCmd.AddCommand(newTunnelCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newPrefsCmd())
	rootCmd.AddCommand(newToolsCmd())
	rootCmd.AddCommand(newSSHTemplatesCmd())
	rootCmd.AddCommand(newScratchCmd())

	err := rootCmd.Execute()
	_ = logx.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "dccm: %v\n", err)
		os.Exit(1)
	}
	os.Exit(exitCode)
}
