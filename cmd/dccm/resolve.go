package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "validate <connect-string>",
		Short: "Check a connect string before saving it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				if err := a.reg.Resolver().Validate(args[0], wallet); err != nil {
					return err
				}
				fmt.Println("OK")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "Wallet ZIP holding the alias")
	return cmd
}

func newResolveCmd() *cobra.Command {
	var wallet string
	cmd := &cobra.Command{
		Use:   "resolve <connect-string>",
		Short: "Resolve a connect string to host, port and service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				ep, err := a.reg.Resolver().Resolve(args[0], wallet)
				if err != nil {
					return err
				}
				fmt.Printf("host=%s\n", ep.Host)
				fmt.Printf("port=%d\n", ep.Port)
				fmt.Printf("service=%s\n", ep.Service)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&wallet, "wallet", "", "Wallet ZIP holding the alias")
	return cmd
}
