/*
Package vaa decodes Wormhole VAA (verifiable action approval) envelopes.

	Offset 0: version                    (1 byte)
	Offset 1: guardian set index         (4 bytes, big endian)
	Offset 5: signature count n          (1 byte)
	Offset 6: n signature records        (66 bytes each:
	          guardian index 1, r 32, s 32, recovery 1)
	Body, at offset 6 + n*66:
	          timestamp                  (4 bytes)
	          nonce                      (4 bytes)
	          emitter chain              (2 bytes)
	          emitter address            (32 bytes)
	          sequence                   (8 bytes)
	          consistency level          (1 byte)
	          payload                    (remaining bytes)

This is a structural decoder only: the guardian signatures are skipped,
not verified. Signature verification is done by the Wormhole core
contract on the target ledger, and a successful decode here is no
statement about the message's signers.
*/
package vaa

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

const (
	headerSize = 6
	bodySize   = 51

	// SignatureSize is the wire size of one guardian signature record.
	SignatureSize = 66

	// EmitterHexLen is the length of a normalized emitter address:
	// 32 bytes, hex encoded.
	EmitterHexLen = 64
)

// ErrTruncated is returned when the buffer is shorter than the payload
// offset computed from its declared signature count. This is the
// expected state while the guardians are still collecting signatures
// upstream; callers should retry later instead of discarding the source.
var ErrTruncated = errors.New("truncated VAA")

// Envelope is a decoded VAA. Payload aliases the input buffer and must
// be treated as read-only.
type Envelope struct {
	Version          uint8
	GuardianSetIndex uint32
	SignatureCount   uint8
	Timestamp        uint32
	Nonce            uint32
	EmitterChain     uint16
	EmitterAddress   [32]byte
	Sequence         uint64
	ConsistencyLevel uint8
	Payload          []byte
}

// EmitterHex returns the emitter address as a lowercase hex string.
func (e Envelope) EmitterHex() string {
	return hex.EncodeToString(e.EmitterAddress[:])
}

// PayloadOffset returns the byte offset of the payload for a given
// signature count.
func PayloadOffset(signatureCount int) int {
	return headerSize + signatureCount*SignatureSize + bodySize
}

// ExtractPayload returns the payload bytes of a raw VAA. The payload is
// opaque at this layer; higher layers interpret it, typically as a JSON
// certificate snapshot.
func ExtractPayload(data []byte) ([]byte, error) {
	offset, err := payloadOffset(data)
	if err != nil {
		return nil, err
	}
	return data[offset:], nil
}

// Parse decodes the header and body fields of a raw VAA. The signature
// records are length-checked and skipped, never interpreted.
func Parse(data []byte) (Envelope, error) {
	offset, err := payloadOffset(data)
	if err != nil {
		return Envelope{}, err
	}

	body := data[offset-bodySize:]
	return Envelope{
		Version:          data[0],
		GuardianSetIndex: binary.BigEndian.Uint32(data[1:5]),
		SignatureCount:   data[5],
		Timestamp:        binary.BigEndian.Uint32(body[0:4]),
		Nonce:            binary.BigEndian.Uint32(body[4:8]),
		EmitterChain:     binary.BigEndian.Uint16(body[8:10]),
		EmitterAddress:   [32]byte(body[10:42]),
		Sequence:         binary.BigEndian.Uint64(body[42:50]),
		ConsistencyLevel: body[50],
		Payload:          data[offset:],
	}, nil
}

// payloadOffset validates the buffer against its declared signature
// count and returns the payload offset. Any shortfall is ErrTruncated:
// the minimum payload offset is 57 bytes, so a buffer too short to even
// hold the 6-byte header is necessarily shorter than its payload offset.
func payloadOffset(data []byte) (int, error) {
	if len(data) < headerSize {
		return 0, fmt.Errorf("%w: %d bytes is too short for the %d byte header", ErrTruncated, len(data), headerSize)
	}
	offset := PayloadOffset(int(data[5]))
	if len(data) < offset {
		return 0, fmt.Errorf("%w: %d signatures require at least %d bytes, got %d", ErrTruncated, data[5], offset, len(data))
	}
	return offset, nil
}

// Digest returns the Keccak-256 digest of a raw VAA, used as its replay
// guard identity. The oracle contract computes the same digest.
func Digest(data []byte) [32]byte {
	hash := sha3.NewLegacyKeccak256()
	hash.Write(data)
	return [32]byte(hash.Sum(nil))
}

// NormalizeEmitter brings an emitter address into the canonical form
// stored by the oracle contract: lowercase hex without a 0x prefix,
// left-padded with zeros to 32 bytes (Ethereum addresses are shorter).
func NormalizeEmitter(emitter string) string {
	normalized := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(emitter)), "0x")
	if pad := EmitterHexLen - len(normalized); pad > 0 {
		normalized = strings.Repeat("0", pad) + normalized
	}
	return normalized
}
