// Package spki walks a decoded X.509 certificate down to its
// SubjectPublicKeyInfo and extracts the raw RSA key components.
//
// The package performs no cryptographic validation: signatures, trust
// chains, and expiry are checked by the verifier contract on the target
// ledger, not here.
package spki

import (
	"encoding/hex"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/keybridge/go-keybridge/relay/der"
)

// ErrSchemaMismatch is returned when a well-formed DER tree does not
// have the shape of a certificate. Inputs failing with this error are
// unusable and must be discarded by the caller.
var ErrSchemaMismatch = errors.New("certificate schema mismatch")

// ErrInvalidPublicKey is returned when the SubjectPublicKeyInfo node
// does not contain a well-formed RSA public key. No partial components
// are ever returned alongside it.
var ErrInvalidPublicKey = errors.New("invalid public key encoding")

// spkiPosition is the position of SubjectPublicKeyInfo inside
// TBSCertificate, counting from the field after the optional version:
// serialNumber, signature, issuer, validity, subject, subjectPublicKeyInfo.
const spkiPosition = 5

// PublicKeyComponents are the raw big-endian RSA key parameters pulled
// out of a certificate, with DER sign padding removed.
type PublicKeyComponents struct {
	Modulus  []byte
	Exponent []byte
}

// ModulusHex returns the modulus as a lowercase hex string.
func (c PublicKeyComponents) ModulusHex() string {
	return hex.EncodeToString(c.Modulus)
}

// ExponentHex returns the exponent as a lowercase hex string.
func (c PublicKeyComponents) ExponentHex() string {
	return hex.EncodeToString(c.Exponent)
}

// Size returns the modulus length in bytes (256 for a 2048-bit key).
func (c PublicKeyComponents) Size() int {
	return len(c.Modulus)
}

// LocateSubjectPublicKeyInfo walks the fixed TBSCertificate schema of a
// decoded certificate and returns the SubjectPublicKeyInfo node.
//
// The optional leading version field is recognized by its tag (context
// class, number 0), never by counting the remaining siblings against an
// expected total. A schema variant that inserts further optional fields
// before SubjectPublicKeyInfo would therefore not be detected here.
func LocateSubjectPublicKeyInfo(root der.Node) (der.Node, error) {
	if !root.Constructed || len(root.Children) == 0 {
		return der.Node{}, fmt.Errorf("%w: certificate is not a constructed sequence with a TBSCertificate", ErrSchemaMismatch)
	}

	tbs := root.Children[0]
	if !tbs.Constructed || len(tbs.Children) == 0 {
		return der.Node{}, fmt.Errorf("%w: TBSCertificate is not a constructed sequence", ErrSchemaMismatch)
	}

	fields := tbs.Children
	start := 0
	if fields[0].Class == der.ClassContextSpecific && fields[0].Tag == 0 {
		// Explicit version field (present in v2/v3 certificates).
		start = 1
	}

	index := start + spkiPosition
	if index >= len(fields) {
		return der.Node{}, fmt.Errorf("%w: TBSCertificate has %d fields, SubjectPublicKeyInfo expected at position %d",
			ErrSchemaMismatch, len(fields), index)
	}
	return fields[index], nil
}

// ExtractKeyComponents unwraps the BIT STRING payload of a
// SubjectPublicKeyInfo node and returns the RSA modulus and exponent.
// The BIT STRING carries a nested DER sequence of exactly the two
// INTEGER fields; a single sign-padding zero byte is stripped from each.
func ExtractKeyComponents(spki der.Node) (PublicKeyComponents, error) {
	if !spki.Constructed || len(spki.Children) < 2 {
		return PublicKeyComponents{}, fmt.Errorf("%w: SubjectPublicKeyInfo must hold an algorithm and a subjectPublicKey", ErrInvalidPublicKey)
	}

	bitString := spki.Children[1]
	if bitString.Class != der.ClassUniversal || bitString.Tag != der.TagBitString {
		return PublicKeyComponents{}, fmt.Errorf("%w: subjectPublicKey is not a bit string (class %d, tag %d)",
			ErrInvalidPublicKey, bitString.Class, bitString.Tag)
	}
	if len(bitString.Value) < 2 {
		return PublicKeyComponents{}, fmt.Errorf("%w: bit string too short (%d bytes)", ErrInvalidPublicKey, len(bitString.Value))
	}
	if unused := bitString.Value[0]; unused != 0 {
		return PublicKeyComponents{}, fmt.Errorf("%w: bit string declares %d unused bits, expected 0", ErrInvalidPublicKey, unused)
	}

	keyBytes := bitString.Value[1:]
	keyNode, next, err := der.Decode(keyBytes, 0)
	if err != nil {
		return PublicKeyComponents{}, fmt.Errorf("%w: decoding RSAPublicKey: %w", ErrInvalidPublicKey, err)
	}
	if next != len(keyBytes) {
		return PublicKeyComponents{}, fmt.Errorf("%w: %d trailing bytes after RSAPublicKey", ErrInvalidPublicKey, len(keyBytes)-next)
	}
	if !keyNode.Constructed || len(keyNode.Children) < 2 {
		return PublicKeyComponents{}, fmt.Errorf("%w: RSAPublicKey must hold a modulus and an exponent", ErrInvalidPublicKey)
	}

	modulus, err := integerValue(keyNode.Children[0])
	if err != nil {
		return PublicKeyComponents{}, fmt.Errorf("%w: modulus: %w", ErrInvalidPublicKey, err)
	}
	exponent, err := integerValue(keyNode.Children[1])
	if err != nil {
		return PublicKeyComponents{}, fmt.Errorf("%w: exponent: %w", ErrInvalidPublicKey, err)
	}

	return PublicKeyComponents{Modulus: modulus, Exponent: exponent}, nil
}

// integerValue validates an INTEGER node and returns its value with at
// most one leading sign-padding zero removed. The padding byte is only
// stripped when a byte remains afterwards, so the zero value 0x00 0x00
// decodes to 0x00, never to an empty sequence.
func integerValue(node der.Node) ([]byte, error) {
	if node.Class != der.ClassUniversal || node.Tag != der.TagInteger {
		return nil, fmt.Errorf("expected an integer, got class %d, tag %d", node.Class, node.Tag)
	}
	if len(node.Value) == 0 {
		return nil, errors.New("integer has no content bytes")
	}
	value := node.Value
	if len(value) >= 2 && value[0] == 0 {
		value = value[1:]
	}
	return value, nil
}

// ParsePEMCertificate strips the PEM armor from a certificate and
// returns the DER bytes of the first CERTIFICATE block.
func ParsePEMCertificate(pemData []byte) ([]byte, error) {
	for block, rest := pem.Decode(pemData); block != nil; block, rest = pem.Decode(rest) {
		if block.Type == "CERTIFICATE" {
			return block.Bytes, nil
		}
	}
	return nil, errors.New("no CERTIFICATE block found in PEM data")
}
