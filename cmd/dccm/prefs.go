package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aspect-build/dccm/internal/prefs"
	"github.com/aspect-build/dccm/internal/registry"
	"github.com/spf13/cobra"
)

func newPrefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Manage preferences",
	}

	var scope string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List preferences, optionally for one scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var sc prefs.Scope
			if scope != "" {
				var err error
				if sc, err = prefs.ParseScope(scope); err != nil {
					return err
				}
			}
			return withApp(func(a *app) error {
				rows, err := a.prefs.Rows(sc)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "SCOPE\tNAME\tLABEL\tVALUE")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Scope, r.Name, r.Label, r.Value)
				}
				return tw.Flush()
			})
		},
	}
	listCmd.Flags().StringVar(&scope, "scope", "", "Only this scope")

	getCmd := &cobra.Command{
		Use:   "get <scope> <name>",
		Short: "Print one preference value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := prefs.ParseScope(args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				v, ok, err := a.prefs.Get(sc, args[1])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("preference %s/%s is not set", sc, args[1])
				}
				fmt.Println(v)
				return nil
			})
		},
	}

	var label string
	setCmd := &cobra.Command{
		Use:   "set <scope> <name> <value>",
		Short: "Set a preference",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := prefs.ParseScope(args[0])
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				return a.prefs.Set(sc, args[1], args[2], label)
			})
		},
	}
	setCmd.Flags().StringVar(&label, "label", "", "Display label (derived from the name when empty)")

	deleteCmd := &cobra.Command{
		Use:   "delete <scope> <name>",
		Short: "Delete a preference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := prefs.ParseScope(args[0])
			if err != nil {
				return err
			}
			if sc == prefs.ScopeClientTools || sc == prefs.ScopeSSHTemplates {
				return fmt.Errorf("use 'dccm tools delete' or 'dccm ssh-templates delete' for %s", sc)
			}
			return withApp(func(a *app) error {
				ok, err := a.prefs.Delete(sc, args[1])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("preference %s/%s is not set", sc, args[1])
				}
				return nil
			})
		},
	}

	backupCmd := &cobra.Command{
		Use:   "backup <file.json>",
		Short: "Write every preference to a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				lines, err := a.prefs.Backup(args[0])
				printLines(lines)
				return err
			})
		},
	}

	restoreCmd := &cobra.Command{
		Use:   "restore <file.json>",
		Short: "Restore preferences from a backup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				lines, err := a.prefs.Restore(args[0])
				printLines(lines)
				return err
			})
		},
	}

	cmd.AddCommand(listCmd, getCmd, setCmd, deleteCmd, backupCmd, restoreCmd)
	return cmd
}

func printLines(lines []string) {
	for _, l := range lines {
		fmt.Println(l)
	}
}

// templateCmd builds the list/set/delete group shared by client tools and
// SSH tunnel templates.
func templateCmd(use, short string, scope prefs.Scope, del func(*registry.Registry, string) error) *cobra.Command {
	cmd := &cobra.Command{Use: use, Short: short}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				rows, err := a.prefs.Rows(scope)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tCOMMAND")
				for _, r := range rows {
					fmt.Fprintf(tw, "%s\t%s\n", r.Name, r.Value)
				}
				return tw.Flush()
			})
		},
	})

	var label string
	setCmd := &cobra.Command{
		Use:   "set <name> <command>",
		Short: "Create or replace a template; #placeholders# are substituted at launch",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				return a.prefs.Set(scope, args[0], args[1], label)
			})
		},
	}
	setCmd.Flags().StringVar(&label, "label", "", "Display label")
	cmd.AddCommand(setCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a template no connection uses",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				return del(a.reg, args[0])
			})
		},
	})
	return cmd
}

func newToolsCmd() *cobra.Command {
	return templateCmd("tools", "Manage client tool command templates", prefs.ScopeClientTools,
		(*registry.Registry).DeleteClientTool)
}

func newSSHTemplatesCmd() *cobra.Command {
	return templateCmd("ssh-templates", "Manage SSH tunnel templates", prefs.ScopeSSHTemplates,
		(*registry.Registry).DeleteSSHTemplate)
}

func newScratchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scratch",
		Short: "Manage the scratch directory",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove every file in the scratch directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if err := a.cfg.PrepareScratch(); err != nil {
					return err
				}
				fmt.Printf("Scratch directory %s purged.\n", a.cfg.ScratchDir)
				return nil
			})
		},
	})
	return cmd
}
