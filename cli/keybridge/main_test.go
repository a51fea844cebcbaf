package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keybridge/go-keybridge/blobs"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := rootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtractKeyCmd(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	certPath := filepath.Join(t.TempDir(), "cert.pem")
	require.NoError(os.WriteFile(certPath, []byte(blobs.SigningCertPEM), 0o644))

	out, err := runCommand(t, "extract-key", certPath)
	require.NoError(err)

	var result struct {
		Modulus  string `json:"modulus"`
		Exponent string `json:"exponent"`
		Size     int    `json:"size"`
	}
	require.NoError(json.Unmarshal([]byte(out), &result))
	assert.Equal(blobs.SigningKeyModulusHex, result.Modulus)
	assert.Equal("010001", result.Exponent)
	assert.Equal(256, result.Size)
}

func TestExtractKeyCmdRejectsGarbage(t *testing.T) {
	require := require.New(t)

	certPath := filepath.Join(t.TempDir(), "cert.pem")
	require.NoError(os.WriteFile(certPath, []byte("not a certificate"), 0o644))

	_, err := runCommand(t, "extract-key", certPath)
	require.Error(err)
}

func TestParseVAACmd(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	raw := blobs.TestVAA(blobs.VAAParams{
		SignatureCount: 13,
		Sequence:       42,
		Payload:        []byte(`{"kid-1":"pem"}`),
	})

	out, err := runCommand(t, "parse-vaa", "--hex", hex.EncodeToString(raw))
	require.NoError(err)

	var result struct {
		Signatures   int    `json:"signatures"`
		EmitterChain uint16 `json:"emitterChain"`
		Emitter      string `json:"emitter"`
		Sequence     uint64 `json:"sequence"`
		Payload      string `json:"payload"`
	}
	require.NoError(json.Unmarshal([]byte(out), &result))
	assert.Equal(13, result.Signatures)
	assert.Equal(blobs.TestEmitterChain, result.EmitterChain)
	assert.Equal(blobs.TestEmitterHex, result.Emitter)
	assert.Equal(uint64(42), result.Sequence)
	assert.Equal(`{"kid-1":"pem"}`, result.Payload)
}

func TestParseVAACmdTruncated(t *testing.T) {
	raw := blobs.TestVAA(blobs.VAAParams{SignatureCount: 1})

	_, err := runCommand(t, "parse-vaa", "--hex", hex.EncodeToString(raw[:len(raw)-1]))
	require.Error(t, err)
}
