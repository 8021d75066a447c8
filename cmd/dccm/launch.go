package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/aspect-build/dccm/internal/launch"
	"github.com/aspect-build/dccm/internal/logx"
	"github.com/spf13/cobra"
)

// connectionArg returns the id argument or, when absent, the default connection.
func connectionArg(a *app, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	id, err := a.reg.DefaultConnection()
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.New("no connection given and no default connection set")
	}
	return id, nil
}

// readPluginScript copies stdin into the scratch buffer the client runs.
func readPluginScript(a *app, in io.Reader) (string, error) {
	if err := os.MkdirAll(a.cfg.ScratchDir, 0o700); err != nil {
		return "", fmt.Errorf("create scratch dir: %w", err)
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return "", fmt.Errorf("read script from stdin: %w", err)
	}
	path := filepath.Join(a.cfg.ScratchDir, launch.PluginBuffer)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write script buffer: %w", err)
	}
	return path, nil
}

// execute prints diagnostics for out and then runs or echoes the command.
func execute(ctx context.Context, out launch.Formulation, dryRun bool) error {
	if !out.OK() {
		return errors.New(out.Status)
	}
	for _, w := range out.Warnings {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}
	if dryRun {
		fmt.Println(launch.Mask(out.Command, out.Secrets))
		return nil
	}
	if out.Banner != "" {
		fmt.Fprintln(os.Stderr, out.Banner)
	}
	logx.Debugf("running: %s", launch.Mask(out.Command, out.Secrets))

	code, err := launch.Run(ctx, launch.RunConfig{
		Command: out.Command,
		Dir:     out.WorkDir,
		Secrets: out.Secrets,
	})
	if err != nil {
		return err
	}
	exitCode = code
	return nil
}

func newLaunchCmd() *cobra.Command {
	var (
		mode   string
		script string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "launch [id]",
		Short: "Launch the connection's client tool",
		Long: `Formulate and run the client command for a connection (the default
connection when no id is given). In plugin mode the script is read from stdin.
The password is masked as [REDACTED_BY_DCCM] in all output.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := launch.ParseMode(mode)
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				id, err := connectionArg(a, args)
				if err != nil {
					return err
				}
				if m == launch.ModePlugin && script == "" {
					if script, err = readPluginScript(a, cmd.InOrStdin()); err != nil {
						return err
					}
				}
				out, err := a.form.ClientCommand(cmd.Context(), id, m, script)
				if err != nil {
					return err
				}
				return execute(cmd.Context(), out, dryRun)
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(launch.ModeCommand), "Launch mode: command|gui|plugin")
	cmd.Flags().StringVar(&script, "script", "", "Script to run on connect")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the masked command instead of running it")
	return cmd
}

func newTunnelCmd() *cobra.Command {
	var (
		mode   string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "tunnel [id]",
		Short: "Open the connection's SSH tunnel",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := launch.ParseMode(mode)
			if err != nil {
				return err
			}
			return withApp(func(a *app) error {
				id, err := connectionArg(a, args)
				if err != nil {
					return err
				}
				out, err := a.form.TunnelCommand(cmd.Context(), id, m)
				if err != nil {
					return err
				}
				return execute(cmd.Context(), out, dryRun)
			})
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(launch.ModeCommand), "Launch mode: command|gui")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the command instead of running it")
	return cmd
}
