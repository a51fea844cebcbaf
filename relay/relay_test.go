package relay

import (
	"context"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"log"
	"testing"
	"time"

	fuzzheaders "github.com/AdaLogics/go-fuzz-headers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	testingclock "k8s.io/utils/clock/testing"

	"github.com/keybridge/go-keybridge/blobs"
	"github.com/keybridge/go-keybridge/relay/guardian"
	"github.com/keybridge/go-keybridge/relay/spki"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestExtractCertificateKey(t *testing.T) {
	testCases := map[string]string{
		"v3 certificate": blobs.SigningCertPEM,
		"v1 certificate": blobs.SigningCertV1PEM,
	}

	for name, certPEM := range testCases {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			components, err := ExtractCertificateKey([]byte(certPEM))
			require.NoError(err)
			assert.Equal(blobs.SigningKeyModulusHex, components.ModulusHex())
			assert.Equal([]byte{0x01, 0x00, 0x01}, components.Exponent)
			assert.Equal(256, components.Size())
		})
	}
}

func TestExtractCertificateKeyInvalid(t *testing.T) {
	derBytes, err := spki.ParsePEMCertificate([]byte(blobs.SigningCertPEM))
	require.NoError(t, err)
	withTrailer := pem.EncodeToMemory(&pem.Block{
		Type:  "CERTIFICATE",
		Bytes: append(append([]byte{}, derBytes...), 0x00),
	})

	testCases := map[string][]byte{
		"empty input":             {},
		"not PEM":                 []byte("-----BEGIN NOISE-----"),
		"garbage DER":             pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: []byte{0xff, 0xff}}),
		"trailing data after DER": withTrailer,
	}

	for name, input := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractCertificateKey(input)
			assert.Error(t, err)
		})
	}
}

func TestParseSnapshot(t *testing.T) {
	testCases := map[string]struct {
		payload  []byte
		wantKeys int
		wantErr  bool
	}{
		"single key": {
			payload:  mustSnapshotJSON(t, map[string]string{"kid-1": blobs.SigningCertPEM}),
			wantKeys: 1,
		},
		"two keys": {
			payload: mustSnapshotJSON(t, map[string]string{
				"kid-1": blobs.SigningCertPEM,
				"kid-2": blobs.SigningCertV1PEM,
			}),
			wantKeys: 2,
		},
		"not JSON": {
			payload: []byte("certificates ahoy"),
			wantErr: true,
		},
		"empty document": {
			payload: []byte("{}"),
			wantErr: true,
		},
		"value is not a certificate": {
			payload: mustSnapshotJSON(t, map[string]string{"kid-1": "not a certificate"}),
			wantErr: true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			snapshot, err := ParseSnapshot(tc.payload)
			if tc.wantErr {
				assert.Error(err)
				return
			}
			assert.NoError(err)
			assert.Len(snapshot, tc.wantKeys)
		})
	}
}

type fakeVAASource struct {
	vaas  map[uint64][]byte
	err   error
	calls int
}

func (f *fakeVAASource) GetSignedVAA(_ context.Context, _ uint16, _ string, sequence uint64) ([]byte, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	raw, ok := f.vaas[sequence]
	if !ok {
		return nil, fmt.Errorf("sequence %d: %w", sequence, guardian.ErrNotFound)
	}
	return raw, nil
}

type fakeLedger struct {
	snapshot  string
	count     uint64
	submitted [][]byte
	submitErr error
}

func (f *fakeLedger) GetSnapshot(context.Context) (string, error) { return f.snapshot, nil }

func (f *fakeLedger) GetSnapshotCount(context.Context) (uint64, error) { return f.count, nil }

func (f *fakeLedger) SubmitVAA(_ context.Context, rawVAA []byte) error {
	if f.submitErr != nil {
		return f.submitErr
	}
	f.submitted = append(f.submitted, rawVAA)
	return nil
}

type fakeCertSource struct {
	raw  []byte
	keys map[string]string
	err  error
}

func (f *fakeCertSource) GetSnapshot(context.Context) ([]byte, map[string]string, error) {
	return f.raw, f.keys, f.err
}

func newTestRelayer(source SignedVAASource, ledger Ledger) *Relayer {
	return NewRelayer(source, ledger, Config{
		EmitterChain: blobs.TestEmitterChain,
		Emitter:      "0x" + blobs.TestEmitterHex,
		Interval:     time.Minute,
		Logger:       log.New(io.Discard, "", 0),
	})
}

func snapshotVAA(t *testing.T, params blobs.VAAParams) []byte {
	t.Helper()
	if params.Payload == nil {
		params.Payload = mustSnapshotJSON(t, map[string]string{"kid-1": blobs.SigningCertPEM})
	}
	return blobs.TestVAA(params)
}

func TestProcess(t *testing.T) {
	testCases := map[string]struct {
		raw       []byte
		submitErr error
		wantErr   bool
	}{
		"valid snapshot VAA": {
			raw: snapshotVAA(t, blobs.VAAParams{SignatureCount: 13, Sequence: 7}),
		},
		"wrong emitter chain": {
			raw:     snapshotVAA(t, blobs.VAAParams{EmitterChain: 2}),
			wantErr: true,
		},
		"wrong emitter address": {
			raw: snapshotVAA(t, blobs.VAAParams{
				EmitterHex: "000000000000000000000000ffffffffffffffffffffffffffffffffffffffff",
			}),
			wantErr: true,
		},
		"payload is not a snapshot": {
			raw:     blobs.TestVAA(blobs.VAAParams{Payload: []byte("ahoy")}),
			wantErr: true,
		},
		"truncated VAA": {
			raw:     snapshotVAA(t, blobs.VAAParams{})[:30],
			wantErr: true,
		},
		"submission rejected": {
			raw:       snapshotVAA(t, blobs.VAAParams{}),
			submitErr: errors.New("contract panicked"),
			wantErr:   true,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)

			ledger := &fakeLedger{submitErr: tc.submitErr}
			relayer := newTestRelayer(&fakeVAASource{}, ledger)

			err := relayer.Process(context.Background(), tc.raw)
			if tc.wantErr {
				assert.Error(err)
				assert.Empty(ledger.submitted)
				return
			}
			assert.NoError(err)
			assert.Equal([][]byte{tc.raw}, ledger.submitted)
		})
	}
}

func TestProcessRejectsReplay(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	raw := snapshotVAA(t, blobs.VAAParams{Sequence: 3})
	ledger := &fakeLedger{}
	relayer := newTestRelayer(&fakeVAASource{}, ledger)

	require.NoError(relayer.Process(context.Background(), raw))
	err := relayer.Process(context.Background(), raw)
	assert.Error(err)
	assert.Len(ledger.submitted, 1)
}

func TestOnce(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	ledger := &fakeLedger{}
	source := &fakeVAASource{vaas: map[uint64][]byte{
		0: snapshotVAA(t, blobs.VAAParams{Sequence: 0}),
		1: snapshotVAA(t, blobs.VAAParams{Sequence: 1}),
	}}
	relayer := newTestRelayer(source, ledger)

	// Sequences 0 and 1 are attested, sequence 2 is still pending.
	require.NoError(relayer.Once(context.Background()))
	require.NoError(relayer.Once(context.Background()))
	require.NoError(relayer.Once(context.Background()))

	assert.Len(ledger.submitted, 2)
	assert.Equal(uint64(2), relayer.sequence)
	assert.Equal(3, source.calls)
}

func TestOnceKeepsSequenceOnTruncatedVAA(t *testing.T) {
	assert := assert.New(t)

	ledger := &fakeLedger{}
	source := &fakeVAASource{vaas: map[uint64][]byte{
		0: snapshotVAA(t, blobs.VAAParams{})[:20],
	}}
	relayer := newTestRelayer(source, ledger)

	assert.NoError(relayer.Once(context.Background()))
	assert.Equal(uint64(0), relayer.sequence)
	assert.Empty(ledger.submitted)
}

func TestRunStopsOnCanceledContext(t *testing.T) {
	assert := assert.New(t)

	source := &fakeVAASource{}
	relayer := newTestRelayer(source, &fakeLedger{})
	relayer.clock = testingclock.NewFakeClock(time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := relayer.Run(ctx)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(1, source.calls)
}

func TestCheckDrift(t *testing.T) {
	testCases := map[string]struct {
		current map[string]string
		stored  map[string]string
		want    []string
	}{
		"in sync": {
			current: map[string]string{"kid-1": blobs.SigningCertPEM},
			stored:  map[string]string{"kid-1": blobs.SigningCertPEM},
			want:    nil,
		},
		"rotated key": {
			current: map[string]string{"kid-1": blobs.SigningCertPEM, "kid-2": blobs.SigningCertV1PEM},
			stored:  map[string]string{"kid-1": blobs.SigningCertPEM},
			want:    []string{"kid-2"},
		},
		"retired and changed keys": {
			current: map[string]string{"kid-1": blobs.SigningCertV1PEM},
			stored:  map[string]string{"kid-1": blobs.SigningCertPEM, "kid-0": blobs.SigningCertPEM},
			want:    []string{"kid-0", "kid-1"},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			stored, err := json.Marshal(tc.stored)
			require.NoError(err)

			drifted, err := CheckDrift(context.Background(),
				&fakeCertSource{keys: tc.current},
				&fakeLedger{snapshot: string(stored)},
			)
			assert.NoError(err)
			assert.Equal(tc.want, drifted)
		})
	}
}

func mustSnapshotJSON(t testing.TB, keys map[string]string) []byte {
	t.Helper()
	payload, err := json.Marshal(keys)
	require.NoError(t, err)
	return payload
}

func FuzzProcess(f *testing.F) {
	payload, err := json.Marshal(map[string]string{"kid-1": blobs.SigningCertPEM})
	if err != nil {
		f.Fatal(err)
	}
	f.Add(blobs.TestVAA(blobs.VAAParams{SignatureCount: 13, Payload: payload}))
	f.Fuzz(func(t *testing.T, a []byte) {
		params := blobs.VAAParams{}
		fuzzConsumer := fuzzheaders.NewConsumer(a)
		err := fuzzConsumer.GenerateStruct(&params)
		if err != nil {
			return
		}
		// Keep the fixture builder's preconditions.
		params.SignatureCount = int(byte(params.SignatureCount))
		params.EmitterHex = blobs.TestEmitterHex

		relayer := newTestRelayer(&fakeVAASource{}, &fakeLedger{})
		_ = relayer.Process(context.Background(), blobs.TestVAA(params))
	})
}
