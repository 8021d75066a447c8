package main

import (
	"fmt"
	"os"

	"github.com/aspect-build/dccm/internal/transfer"
	"github.com/spf13/cobra"
)

func printFeedback(res *transfer.Result) {
	if res == nil {
		return
	}
	for _, line := range res.Feedback {
		fmt.Println(line)
	}
	if res.LogFile != "" {
		fmt.Fprintf(os.Stderr, "Log written to %s\n", res.LogFile)
	}
}

func newExportCmd() *cobra.Command {
	var (
		match    string
		password string
		wallets  bool
	)

	cmd := &cobra.Command{
		Use:   "export <file.json>",
		Short: "Export connections to a portable JSON file",
		Long: `Export connections. Without --password secrets are left out and wallets
are never shipped. --password - prompts without echo.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readPassword(password, "Export password: ")
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				res, err := a.xfer.Export(transfer.ExportOptions{
					Path:           args[0],
					Match:          match,
					Password:       pw,
					IncludeWallets: wallets,
				})
				printFeedback(res)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&match, "match", transfer.MatchAll, `"all" or one connection id`)
	cmd.Flags().StringVar(&password, "password", "", `Export password ("-" to prompt)`)
	cmd.Flags().BoolVar(&wallets, "wallets", false, "Ship wallet files (requires --password)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var (
		match    string
		password string
		merge    bool
		remap    bool
		wallets  bool
	)

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import connections from a dccm or SQL Developer export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if wallets && !remap {
				return fmt.Errorf("--wallets requires --remap")
			}
			pw, err := readPassword(password, "Import password: ")
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				if remap {
					dir, err := a.prefs.DefaultWalletDirectory()
					if err != nil {
						return err
					}
					if dir == "" && !wallets {
						fmt.Fprintln(os.Stderr, "WARNING: no default wallet directory configured; wallet locations will not be remapped.")
						remap = false
					}
				}
				res, err := a.xfer.Import(transfer.ImportOptions{
					Path:     args[0],
					Match:    match,
					Password: pw,
					Merge:    merge,
					Remap:    remap,
					Wallets:  wallets,
				})
				printFeedback(res)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&match, "match", transfer.MatchAll, `"all" or one connection id`)
	cmd.Flags().StringVar(&password, "password", "", `Password the export was made with ("-" to prompt)`)
	cmd.Flags().BoolVar(&merge, "merge", false, "Overwrite connections that already exist")
	cmd.Flags().BoolVar(&remap, "remap", true, "Move wallet locations into the default wallet directory")
	cmd.Flags().BoolVar(&wallets, "wallets", false, "Write shipped wallet files (requires --remap)")
	return cmd
}
