package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/keybridge/go-keybridge/relay"
)

func extractKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract-key certificate.pem",
		Short: "Extracts the RSA modulus and exponent from a PEM certificate",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("expects a single path to a PEM certificate")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			pemData, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			components, err := relay.ExtractCertificateKey(pemData)
			if err != nil {
				return err
			}

			out, err := json.MarshalIndent(struct {
				Modulus  string `json:"modulus"`
				Exponent string `json:"exponent"`
				Size     int    `json:"size"`
			}{
				Modulus:  components.ModulusHex(),
				Exponent: components.ExponentHex(),
				Size:     components.Size(),
			}, "", " ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
