/*
# Certificate Key Relay

This package ties the decoders together and moves signing-key material
between the source of truth and the oracle contract on the target
ledger:

  - Decode a PEM certificate down to its raw RSA modulus and exponent
    (the pipeline the source-side emitter runs before publishing).

  - Watch the guardian network for the next attested certificate
    snapshot, check it against the trusted emitter, guard against
    replays, validate its payload, and submit it to the oracle.

Signature verification of the attested messages is not done here; the
Wormhole core contract on the target ledger performs it when the oracle
calls out to it during submission.
*/
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"k8s.io/utils/clock"

	"github.com/keybridge/go-keybridge/relay/der"
	"github.com/keybridge/go-keybridge/relay/guardian"
	"github.com/keybridge/go-keybridge/relay/spki"
	"github.com/keybridge/go-keybridge/relay/vaa"
)

// Snapshot is the certificate document carried in a VAA payload: key
// IDs mapped to PEM certificates.
type Snapshot map[string]string

// ExtractCertificateKey decodes a PEM certificate down to its RSA
// public key components: PEM armor is stripped, the DER tree decoded,
// the SubjectPublicKeyInfo located, and the modulus and exponent
// extracted with sign padding removed.
func ExtractCertificateKey(pemData []byte) (spki.PublicKeyComponents, error) {
	derBytes, err := spki.ParsePEMCertificate(pemData)
	if err != nil {
		return spki.PublicKeyComponents{}, fmt.Errorf("decoding certificate PEM: %w", err)
	}

	root, next, err := der.Decode(derBytes, 0)
	if err != nil {
		return spki.PublicKeyComponents{}, fmt.Errorf("decoding certificate DER: %w", err)
	}
	if next != len(derBytes) {
		return spki.PublicKeyComponents{}, fmt.Errorf("%w: %d trailing bytes after certificate", der.ErrMalformed, len(derBytes)-next)
	}

	spkiNode, err := spki.LocateSubjectPublicKeyInfo(root)
	if err != nil {
		return spki.PublicKeyComponents{}, fmt.Errorf("locating public key info: %w", err)
	}

	components, err := spki.ExtractKeyComponents(spkiNode)
	if err != nil {
		return spki.PublicKeyComponents{}, fmt.Errorf("extracting key components: %w", err)
	}
	return components, nil
}

// ParseSnapshot validates a VAA payload as a certificate snapshot:
// it must be a JSON object mapping key IDs to PEM certificates, and
// every certificate must decode to an RSA key.
func ParseSnapshot(payload []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, fmt.Errorf("payload is not a certificate snapshot: %w", err)
	}
	if len(snapshot) == 0 {
		return nil, errors.New("certificate snapshot contains no keys")
	}
	for keyID, certPEM := range snapshot {
		if _, err := ExtractCertificateKey([]byte(certPEM)); err != nil {
			return nil, fmt.Errorf("snapshot key %s: %w", keyID, err)
		}
	}
	return snapshot, nil
}

// SignedVAASource retrieves raw signed VAAs from the guardian network.
type SignedVAASource interface {
	GetSignedVAA(ctx context.Context, chain uint16, emitter string, sequence uint64) ([]byte, error)
}

// Ledger is the oracle contract surface the relayer needs.
type Ledger interface {
	GetSnapshot(ctx context.Context) (string, error)
	GetSnapshotCount(ctx context.Context) (uint64, error)
	SubmitVAA(ctx context.Context, rawVAA []byte) error
}

// CertificateSource fetches the current certificate document from the
// key provider.
type CertificateSource interface {
	GetSnapshot(ctx context.Context) ([]byte, map[string]string, error)
}

// Config configures a Relayer.
type Config struct {
	// EmitterChain and Emitter identify the trusted source contract.
	// Emitter is normalized internally.
	EmitterChain uint16
	Emitter      string

	// StartSequence is the first emitter sequence to relay.
	StartSequence uint64

	// Interval between polls of the guardian API.
	Interval time.Duration

	// Logger for relay progress. Defaults to the standard logger.
	Logger *log.Logger
}

// Relayer polls the guardian network for attested certificate snapshots
// and submits them to the oracle contract in sequence order.
type Relayer struct {
	source       SignedVAASource
	ledger       Ledger
	emitterChain uint16
	emitter      string
	sequence     uint64
	interval     time.Duration
	clock        clock.WithTicker
	log          *log.Logger

	// processed guards against submitting the same VAA twice within
	// this process; the contract keeps the durable replay record.
	processed map[[32]byte]bool
}

// NewRelayer creates a Relayer. The zero interval defaults to 30s.
func NewRelayer(source SignedVAASource, ledger Ledger, cfg Config) *Relayer {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	return &Relayer{
		source:       source,
		ledger:       ledger,
		emitterChain: cfg.EmitterChain,
		emitter:      vaa.NormalizeEmitter(cfg.Emitter),
		sequence:     cfg.StartSequence,
		interval:     cfg.Interval,
		clock:        clock.RealClock{},
		log:          cfg.Logger,
		processed:    make(map[[32]byte]bool),
	}
}

// Run polls until ctx is canceled. Transient conditions (attestation
// still pending, truncated messages) only delay the next attempt;
// anything else is logged and retried on the next tick as well, since
// guardian APIs routinely serve stale or partial data.
func (r *Relayer) Run(ctx context.Context) error {
	if count, err := r.ledger.GetSnapshotCount(ctx); err == nil {
		r.log.Printf("oracle holds %d snapshots, relaying from sequence %d", count, r.sequence)
	}

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if err := r.Once(ctx); err != nil && !isRetryable(err) {
			r.log.Printf("relay attempt failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
		}
	}
}

// Once attempts to relay the next sequence. A nil error means either a
// successful submission or nothing to do yet.
func (r *Relayer) Once(ctx context.Context) error {
	raw, err := r.source.GetSignedVAA(ctx, r.emitterChain, r.emitter, r.sequence)
	if err != nil {
		if isRetryable(err) {
			return nil
		}
		return fmt.Errorf("fetching signed VAA for sequence %d: %w", r.sequence, err)
	}

	if err := r.Process(ctx, raw); err != nil {
		if isRetryable(err) {
			return nil
		}
		return fmt.Errorf("relaying sequence %d: %w", r.sequence, err)
	}

	r.sequence++
	return nil
}

// Process validates one raw VAA against the trusted emitter and replay
// guard, checks its payload is a usable certificate snapshot, and
// submits it to the oracle contract.
func (r *Relayer) Process(ctx context.Context, raw []byte) error {
	envelope, err := vaa.Parse(raw)
	if err != nil {
		return fmt.Errorf("parsing VAA: %w", err)
	}

	if envelope.EmitterChain != r.emitterChain {
		return fmt.Errorf("unexpected emitter chain: expected %d, got %d", r.emitterChain, envelope.EmitterChain)
	}
	if emitter := envelope.EmitterHex(); emitter != r.emitter {
		return fmt.Errorf("unexpected emitter address: expected %s, got %s", r.emitter, emitter)
	}

	digest := vaa.Digest(raw)
	if r.processed[digest] {
		return fmt.Errorf("VAA %x already processed", digest[:8])
	}

	snapshot, err := ParseSnapshot(envelope.Payload)
	if err != nil {
		return fmt.Errorf("validating payload: %w", err)
	}

	if err := r.ledger.SubmitVAA(ctx, raw); err != nil {
		return fmt.Errorf("submitting to oracle: %w", err)
	}

	r.processed[digest] = true
	r.log.Printf("relayed snapshot with %d keys (chain %d, sequence %d)",
		len(snapshot), envelope.EmitterChain, envelope.Sequence)
	return nil
}

// CheckDrift compares the key provider's current certificate document
// against the snapshot stored on the ledger and returns the key IDs
// that differ. A non-empty result means the oracle is serving stale
// keys and a new attestation should be expected.
func CheckDrift(ctx context.Context, source CertificateSource, ledger Ledger) ([]string, error) {
	_, current, err := source.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching provider snapshot: %w", err)
	}

	stored, err := ledger.GetSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching ledger snapshot: %w", err)
	}
	var onLedger Snapshot
	if err := json.Unmarshal([]byte(stored), &onLedger); err != nil {
		return nil, fmt.Errorf("parsing ledger snapshot: %w", err)
	}

	var drifted []string
	for keyID, certPEM := range current {
		if onLedger[keyID] != certPEM {
			drifted = append(drifted, keyID)
		}
	}
	for keyID := range onLedger {
		if _, ok := current[keyID]; !ok {
			drifted = append(drifted, keyID)
		}
	}
	sort.Strings(drifted)
	return drifted, nil
}

// isRetryable reports whether an error describes the expected transient
// state while an attestation is still being collected upstream.
func isRetryable(err error) bool {
	return errors.Is(err, vaa.ErrTruncated) || errors.Is(err, guardian.ErrNotFound)
}
