package cmd

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/hsp-booker/internal/application/usecases"
)

func newCredentialsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Check the credentials file or seal a portal password for it",
	}
	cmd.AddCommand(newCredentialsCheckCmd(g))
	cmd.AddCommand(newCredentialsEncryptCmd(g))
	return cmd
}

func newCredentialsCheckCmd(g *globalFlags) *cobra.Command {
	var path string

	c := &cobra.Command{
		Use:   "check",
		Short: "Validate the credentials file and report the first problem",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd, g)
			if err != nil {
				return err
			}
			if path == "" {
				path = cfg.CredentialsPath
			}
			creds, err := usecases.CredentialsService{Key: cfg.CredKey}.Load(path)
			if err != nil {
				return err
			}
			access := "personal details form"
			if creds.HasLogin() {
				access = "portal login"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%s %s, %s, %s)\n", path, creds.Name, creds.Surname, creds.Status, access)
			return nil
		},
	}
	c.Flags().StringVar(&path, "file", "", "credentials file (overrides HSP_CREDENTIALS)")
	return c
}

func newCredentialsEncryptCmd(g *globalFlags) *cobra.Command {
	c := &cobra.Command{
		Use:   "encrypt",
		Short: "Read a portal password from stdin and print its password_enc value",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd, g)
			if err != nil {
				return err
			}
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			sealed, err := usecases.CredentialsService{Key: cfg.CredKey}.Seal(strings.TrimRight(line, "\r\n"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "password_enc: %s\n", sealed)
			return nil
		},
	}
	return c
}
