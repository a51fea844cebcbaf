package main

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/keybridge/go-keybridge/relay/vaa"
)

func parseVAACmd() *cobra.Command {
	var hexInput bool

	cmd := &cobra.Command{
		Use:   "parse-vaa vaa",
		Short: "Decodes a signed VAA and prints its envelope and payload",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("expects a single VAA file path or hex string")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			if hexInput {
				raw, err = hex.DecodeString(strings.TrimPrefix(strings.TrimSpace(args[0]), "0x"))
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			envelope, err := vaa.Parse(raw)
			if err != nil {
				return err
			}
			digest := vaa.Digest(raw)

			out, err := json.MarshalIndent(struct {
				Version          uint8  `json:"version"`
				GuardianSetIndex uint32 `json:"guardianSetIndex"`
				Signatures       int    `json:"signatures"`
				Timestamp        uint32 `json:"timestamp"`
				Nonce            uint32 `json:"nonce"`
				EmitterChain     uint16 `json:"emitterChain"`
				Emitter          string `json:"emitter"`
				Sequence         uint64 `json:"sequence"`
				ConsistencyLevel uint8  `json:"consistencyLevel"`
				Digest           string `json:"digest"`
				Payload          string `json:"payload"`
			}{
				Version:          envelope.Version,
				GuardianSetIndex: envelope.GuardianSetIndex,
				Signatures:       int(envelope.SignatureCount),
				Timestamp:        envelope.Timestamp,
				Nonce:            envelope.Nonce,
				EmitterChain:     envelope.EmitterChain,
				Emitter:          envelope.EmitterHex(),
				Sequence:         envelope.Sequence,
				ConsistencyLevel: envelope.ConsistencyLevel,
				Digest:           hex.EncodeToString(digest[:]),
				Payload:          string(envelope.Payload),
			}, "", " ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().BoolVar(&hexInput, "hex", false, "treat the argument as a hex string instead of a file path")
	return cmd
}
