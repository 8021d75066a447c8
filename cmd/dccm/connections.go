package main

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/aspect-build/dccm/internal/logx"
	"github.com/aspect-build/dccm/internal/prefs"
	"github.com/aspect-build/dccm/internal/registry"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				profiles, err := a.reg.List()
				if err != nil {
					return err
				}
				def, _ := a.reg.DefaultConnection()
				tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTYPE\tACCOUNT\tCONNECT STRING\tTOOL\tDESCRIPTION")
				for _, p := range profiles {
					id := p.Identifier
					if id == def {
						id += " *"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						id, p.ManagementKind, p.AccountName, p.ConnectString, p.ClientTool, p.Description)
				}
				return tw.Flush()
			})
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one connection (the password is never printed)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				p, err := a.reg.MustGet(args[0])
				if err != nil {
					return err
				}
				fmt.Printf("connection_id=%s\n", p.Identifier)
				fmt.Printf("database_type=%s\n", p.DatabaseKind)
				fmt.Printf("connection_type=%s\n", p.ManagementKind)
				fmt.Printf("db_account_name=%s\n", p.AccountName)
				fmt.Printf("connect_string=%s\n", p.ConnectString)
				if p.ManagementKind == registry.VaultManaged {
					fmt.Printf("oci_profile=%s\n", p.VaultProfile)
					fmt.Printf("secret_ocid=%s\n", p.Secret)
				}
				fmt.Printf("wallet_required=%v\n", p.WalletRequired)
				fmt.Printf("wallet_location=%s\n", p.WalletPath)
				fmt.Printf("client_tool=%s\n", p.ClientTool)
				fmt.Printf("client_tool_options=%s\n", p.ClientToolOptions)
				fmt.Printf("start_directory=%s\n", p.StartDirectory)
				fmt.Printf("ssh_tunnel_required=%v\n", p.SSHTunnelRequired)
				fmt.Printf("ssh_tunnel_code=%s\n", p.SSHTemplate)
				fmt.Printf("listener_port=%d\n", p.ListenerPort)
				fmt.Printf("description=%s\n", p.Description)
				fmt.Printf("connection_banner=%s\n", p.Banner)
				fmt.Printf("connection_message=%s\n", p.Message)
				fmt.Printf("connection_text_colour=%s\n", p.TextColour)
				return nil
			})
		},
	}
}

func newSetCmd() *cobra.Command {
	var (
		kind          string
		account       string
		connectString string
		password      string
		secretOCID    string
		ociProfile    string
		wallet        string
		clientTool    string
		clientOptions string
		startDir      string
		sshTemplate   string
		listenerPort  int
		description   string
		bannerKind    string
		message       string
		colour        string
	)

	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Create or update a connection",
		Long: `Create a connection, or update the flags given for an existing one.
--wallet "" clears the wallet; --ssh-template "" disables tunnelling.
--password - prompts for the password without echo.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				p, err := a.reg.Get(args[0])
				var ie *registry.IntegrityError
				switch {
				case errors.As(err, &ie):
					if !cmd.Flags().Changed("password") && !cmd.Flags().Changed("secret-ocid") {
						return fmt.Errorf("%w; supply --password or --secret-ocid to replace it", err)
					}
					if p, err = a.reg.Salvage(args[0]); err != nil || p == nil {
						return fmt.Errorf("connection %s could not be re-read: %v", args[0], err)
					}
					logx.Warnf("connection %s: replacing a password that cannot be decrypted on this machine", args[0])
				case err != nil:
					return err
				case p == nil:
					p = &registry.Profile{Identifier: args[0], ClientTool: prefs.ReservedClientTool, ManagementKind: registry.Legacy}
				}

				flags := cmd.Flags()
				if flags.Changed("type") {
					mk, err := registry.ParseManagementKind(kind)
					if err != nil {
						return err
					}
					p.ManagementKind = mk
				}
				if flags.Changed("account") {
					p.AccountName = account
				}
				if flags.Changed("connect-string") {
					p.ConnectString = connectString
				}
				if flags.Changed("password") {
					pw, err := readPassword(password, "Password: ")
					if err != nil {
						return err
					}
					p.Secret = pw
				}
				if flags.Changed("secret-ocid") {
					p.Secret = secretOCID
				}
				if flags.Changed("oci-profile") {
					p.VaultProfile = ociProfile
				}
				if flags.Changed("wallet") {
					p.WalletPath = wallet
					p.WalletRequired = wallet != ""
				}
				if flags.Changed("client-tool") {
					p.ClientTool = clientTool
				}
				if flags.Changed("client-options") {
					p.ClientToolOptions = clientOptions
				}
				if flags.Changed("start-dir") {
					p.StartDirectory = startDir
				}
				if flags.Changed("ssh-template") {
					p.SSHTemplate = sshTemplate
					p.SSHTunnelRequired = sshTemplate != ""
				}
				if flags.Changed("listener-port") {
					p.ListenerPort = listenerPort
				}
				if flags.Changed("description") {
					p.Description = description
				}
				if flags.Changed("banner") {
					p.Banner = bannerKind
				}
				if flags.Changed("message") {
					p.Message = message
				}
				if flags.Changed("colour") {
					p.TextColour = colour
				}

				created, err := a.reg.Upsert(p)
				if err != nil {
					var verrs registry.ValidationErrors
					if errors.As(err, &verrs) {
						for _, v := range verrs {
							fmt.Fprintf(os.Stderr, "  %s: %s\n", v.Field, v.Message)
						}
						return fmt.Errorf("connection %s not saved", p.Identifier)
					}
					return err
				}
				if created {
					fmt.Printf("Connection %s created.\n", p.Identifier)
				} else {
					fmt.Printf("Connection %s updated.\n", p.Identifier)
				}
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&kind, "type", string(registry.Legacy), `Management kind: "Legacy" or "OCI Vault"`)
	f.StringVar(&account, "account", "", "Database account name")
	f.StringVar(&connectString, "connect-string", "", "EZConnect string, TNS descriptor or alias")
	f.StringVar(&password, "password", "", `Password ("-" to prompt)`)
	f.StringVar(&secretOCID, "secret-ocid", "", "OCI Vault secret OCID (OCI Vault connections)")
	f.StringVar(&ociProfile, "oci-profile", "", "OCI config profile (OCI Vault connections)")
	f.StringVar(&wallet, "wallet", "", "Wallet ZIP location")
	f.StringVar(&clientTool, "client-tool", prefs.ReservedClientTool, "Client tool name")
	f.StringVar(&clientOptions, "client-options", "", "Extra client tool options")
	f.StringVar(&startDir, "start-dir", "", "Directory the client starts in")
	f.StringVar(&sshTemplate, "ssh-template", "", "SSH tunnel template")
	f.IntVar(&listenerPort, "listener-port", 0, "Database listener port behind the tunnel")
	f.StringVar(&description, "description", "", "Free-text description")
	f.StringVar(&bannerKind, "banner", "", `Banner: "None", "WARNING !" or "INFO :"`)
	f.StringVar(&message, "message", "", "Banner message")
	f.StringVar(&colour, "colour", "", "Banner colour")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ok, err := a.reg.Delete(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("%w: %s", registry.ErrNotFound, args[0])
				}
				fmt.Printf("Connection %s deleted.\n", args[0])
				return nil
			})
		},
	}
}

func newDefaultCmd() *cobra.Command {
	var unset bool
	cmd := &cobra.Command{
		Use:   "default [id]",
		Short: "Show or set the default connection",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				switch {
				case unset:
					_, err := a.prefs.Delete(prefs.ScopePreference, prefs.SettingDefaultConnection)
					return err
				case len(args) == 0:
					id, err := a.reg.DefaultConnection()
					if err != nil {
						return err
					}
					fmt.Println(id)
					return nil
				}
				if _, err := a.reg.MustGet(args[0]); err != nil {
					return err
				}
				return a.prefs.Set(prefs.ScopePreference, prefs.SettingDefaultConnection, args[0], "")
			})
		},
	}
	cmd.Flags().BoolVar(&unset, "clear", false, "Remove the default connection")
	return cmd
}
