package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/release-utils/version"
)

func check(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "keybridge",
		Short: "Relay signing-key certificates to a ledger oracle",
		Long: `Relay signing-key certificates to a ledger oracle.

keybridge decodes X.509 certificates down to their raw RSA public key
components and moves Wormhole-attested certificate snapshots from the
guardian network onto the target ledger's oracle contract.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("expected command")
		},
	}
	c.AddCommand(version.Version())
	c.AddCommand(extractKeyCmd())
	c.AddCommand(parseVAACmd())
	c.AddCommand(relayCmd())
	c.AddCommand(checkDriftCmd())
	// We print our own errors and usage in the check function.
	c.SilenceErrors = true
	return c
}

func main() {
	check(rootCmd().Execute())
}
