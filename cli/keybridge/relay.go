package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/keybridge/go-keybridge/relay"
	"github.com/keybridge/go-keybridge/relay/certsource"
	"github.com/keybridge/go-keybridge/relay/guardian"
	"github.com/keybridge/go-keybridge/relay/ledger"
	"github.com/keybridge/go-keybridge/relay/vaa"
)

type relayOptions struct {
	guardianURL   string
	rpcURL        string
	gatewayURL    string
	contractID    string
	emitter       string
	emitterChain  uint16
	startSequence uint64
	interval      time.Duration
}

func (o *relayOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.guardianURL, "guardian-url", "https://api.wormholescan.io", "guardian API base URL")
	cmd.Flags().StringVar(&o.rpcURL, "rpc-url", "", "JSON-RPC endpoint of the target ledger")
	cmd.Flags().StringVar(&o.gatewayURL, "gateway-url", "", "transaction gateway endpoint for submissions")
	cmd.Flags().StringVar(&o.contractID, "contract", "", "oracle contract account ID")
	cmd.Flags().StringVar(&o.emitter, "emitter", "", "trusted emitter address (hex)")
	cmd.Flags().Uint16Var(&o.emitterChain, "emitter-chain", 0, "Wormhole chain ID of the trusted emitter")
	cmd.Flags().Uint64Var(&o.startSequence, "start-sequence", 0, "first emitter sequence to relay")
	cmd.Flags().DurationVar(&o.interval, "interval", 30*time.Second, "poll interval")
}

func relayCmd() *cobra.Command {
	o := &relayOptions{}

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Polls the guardian API and submits attested certificate snapshots to the oracle",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := guardian.New(o.guardianURL)
			if err != nil {
				return fmt.Errorf("setting up guardian client: %w", err)
			}
			oracle := ledger.New(o.rpcURL, o.gatewayURL, o.contractID)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			trusted, err := oracle.GetTrustedEmitter(ctx)
			if err != nil {
				return fmt.Errorf("reading trusted emitter from oracle: %w", err)
			}
			if vaa.NormalizeEmitter(trusted) != vaa.NormalizeEmitter(o.emitter) {
				return fmt.Errorf("oracle trusts emitter %s, not %s", trusted, o.emitter)
			}

			relayer := relay.NewRelayer(source, oracle, relay.Config{
				EmitterChain:  o.emitterChain,
				Emitter:       o.emitter,
				StartSequence: o.startSequence,
				Interval:      o.interval,
				Logger:        log.New(os.Stderr, "keybridge: ", log.LstdFlags),
			})
			return relayer.Run(ctx)
		},
	}

	o.addFlags(cmd)
	for _, flag := range []string{"rpc-url", "gateway-url", "contract", "emitter", "emitter-chain"} {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}
	return cmd
}

func checkDriftCmd() *cobra.Command {
	var certsURL, rpcURL, contractID string

	cmd := &cobra.Command{
		Use:   "check-drift",
		Short: "Compares the key provider's certificates against the oracle's stored snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := certsource.New(certsURL)
			oracle := ledger.New(rpcURL, "", contractID)

			drifted, err := relay.CheckDrift(cmd.Context(), source, oracle)
			if err != nil {
				return err
			}
			if len(drifted) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "oracle snapshot is in sync")
				return nil
			}
			for _, keyID := range drifted {
				fmt.Fprintln(cmd.OutOrStdout(), keyID)
			}
			return fmt.Errorf("%d keys out of sync", len(drifted))
		},
	}

	cmd.Flags().StringVar(&certsURL, "certs-url", "", "key provider certificate document URL")
	cmd.Flags().StringVar(&rpcURL, "rpc-url", "", "JSON-RPC endpoint of the target ledger")
	cmd.Flags().StringVar(&contractID, "contract", "", "oracle contract account ID")
	for _, flag := range []string{"certs-url", "rpc-url", "contract"} {
		if err := cmd.MarkFlagRequired(flag); err != nil {
			panic(err)
		}
	}
	return cmd
}
