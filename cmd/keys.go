package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/example/hsp-booker/internal/infrastructure/crypto"
)

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate an HSP_CRED_KEY value (base64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := crypto.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "export HSP_CRED_KEY=%s\n", key)
			return nil
		},
	}
}
