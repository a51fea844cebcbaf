// Package blobs holds binary test fixtures shared by the module's tests.
package blobs

import (
	"encoding/binary"
	"encoding/hex"
)

// SigningKeyModulusHex is the modulus of the RSA key in SigningCert and
// SigningCertV1, as reported by openssl x509 -modulus (256 bytes).
const SigningKeyModulusHex = "bfa1562d6586a186184467ea57d02026c0d9d91b3dc64d71b6af35b6994d9103" +
	"d9e2be70afa6aefc5b5c121ca75917d3d709f17b8a4e3a7c62152a7e387e258b" +
	"221ba6e1686d05fec991e05eceaf30c7456e5bf17aac7aa0f0440e3d31bc1aa2" +
	"6a2d02d37f22a0e77c68ba593cedca27521b7d6f5e5d218da3b815ffb5c2d5f7" +
	"046595fe394c4e8d21dc24c062ae5cae8487cc38a99fd840f1726fb7746b1080" +
	"e6e8363bc19eebae980a1b79adc4b8102efd8e7d7173b7011ddc4349f23b4422" +
	"5143f265852cbf633aafec883e84124568ccd2e16752ada071cdf88ae705072c" +
	"1be750491231c7b58813cfa1c4bb1fea282c25f894680503bd8d0842af82421b"

// SigningCertPEM is a self-signed 2048-bit RSA test certificate
// (X.509 v3, so the explicit version field is present). Its public
// exponent is 65537 (0x010001).
const SigningCertPEM = `-----BEGIN CERTIFICATE-----
MIIDYzCCAkugAwIBAgIUWaBErrQM9D5Y4wap1uVT6EHQF7EwDQYJKoZIhvcNAQEL
BQAwQTElMCMGA1UEAwwcZmVkZXJhdGVkLXNpZ25vbi5leGFtcGxlLmNvbTEYMBYG
A1UECgwPS2V5IEJyaWRnZSBUZXN0MB4XDTI2MDgyNzAyMTYyOFoXDTM2MDgyNDAy
MTYyOFowQTElMCMGA1UEAwwcZmVkZXJhdGVkLXNpZ25vbi5leGFtcGxlLmNvbTEY
MBYGA1UECgwPS2V5IEJyaWRnZSBUZXN0MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8A
MIIBCgKCAQEAv6FWLWWGoYYYRGfqV9AgJsDZ2Rs9xk1xtq81tplNkQPZ4r5wr6au
/FtcEhynWRfT1wnxe4pOOnxiFSp+OH4liyIbpuFobQX+yZHgXs6vMMdFblvxeqx6
oPBEDj0xvBqiai0C038ioOd8aLpZPO3KJ1IbfW9eXSGNo7gV/7XC1fcEZZX+OUxO
jSHcJMBirlyuhIfMOKmf2EDxcm+3dGsQgOboNjvBnuuumAobea3EuBAu/Y59cXO3
AR3cQ0nyO0QiUUPyZYUsv2M6r+yIPoQSRWjM0uFnUq2gcc34iucFBywb51BJEjHH
tYgTz6HEux/qKCwl+JRoBQO9jQhCr4JCGwIDAQABo1MwUTAdBgNVHQ4EFgQUGHsX
B661/EHzcZxjhO0RCik8UC4wHwYDVR0jBBgwFoAUGHsXB661/EHzcZxjhO0RCik8
UC4wDwYDVR0TAQH/BAUwAwEB/zANBgkqhkiG9w0BAQsFAAOCAQEAl1mWI3KK5J86
7zXVipzF4cT/rdFASKDa9/Z3F+nLPsOZsEtQ2oh1lG29tuipn745UI8ZugQ+bYcI
K2bfrWoFgMWKonhT9NLcQzzgz3rC63/7y8h3vgdj9now5zjgPyP5h9zL4HlM2EFM
GLoDjv2bzvr+xFwsh6KYUBmYw9StQMQxP1BvGeT/f648gLvLLRTGyl7PvC3MD+33
q6YGW4rLLrNVqrHcebwn2O7Fr0Rk2Yi44bzP/YA3Z/u4mhrzeoYQV/dAzT27aRUJ
hHEjGfNwc4Zk1/iUBC6m92+7PzXdED6ZE5zcCiV1xFrn3VAI+moLhPxaa0NVj/Bj
LE8NO6Cbgg==
-----END CERTIFICATE-----
`

// SigningCertV1PEM carries the same RSA key as SigningCertPEM, issued
// as an X.509 v1 certificate: the optional version field is absent from
// its TBSCertificate.
const SigningCertV1PEM = `-----BEGIN CERTIFICATE-----
MIIDCTCCAfECFArMW1vyW2mB7XSqIu+dC2x/+b2RMA0GCSqGSIb3DQEBCwUAMEEx
JTAjBgNVBAMMHGZlZGVyYXRlZC1zaWdub24uZXhhbXBsZS5jb20xGDAWBgNVBAoM
D0tleSBCcmlkZ2UgVGVzdDAeFw0yNjA4MjcwMjE2NDlaFw0zNjA4MjQwMjE2NDla
MEExJTAjBgNVBAMMHGZlZGVyYXRlZC1zaWdub24uZXhhbXBsZS5jb20xGDAWBgNV
BAoMD0tleSBCcmlkZ2UgVGVzdDCCASIwDQYJKoZIhvcNAQEBBQADggEPADCCAQoC
ggEBAL+hVi1lhqGGGERn6lfQICbA2dkbPcZNcbavNbaZTZED2eK+cK+mrvxbXBIc
p1kX09cJ8XuKTjp8YhUqfjh+JYsiG6bhaG0F/smR4F7OrzDHRW5b8XqseqDwRA49
MbwaomotAtN/IqDnfGi6WTztyidSG31vXl0hjaO4Ff+1wtX3BGWV/jlMTo0h3CTA
Yq5croSHzDipn9hA8XJvt3RrEIDm6DY7wZ7rrpgKG3mtxLgQLv2OfXFztwEd3ENJ
8jtEIlFD8mWFLL9jOq/siD6EEkVozNLhZ1KtoHHN+IrnBQcsG+dQSRIxx7WIE8+h
xLsf6igsJfiUaAUDvY0IQq+CQhsCAwEAATANBgkqhkiG9w0BAQsFAAOCAQEAjdHG
J/Vuw75oCL7O6WcU7HNCf0Ypk828NFuMiyArHRk3Or4/6G90Np+xEkUN0vrFXOBT
D0/wd90Sun8H6dxtLVTOFydRyaDYiwUx5+ipt6HJViGcjE0mVZaRiMQB9RJZ90/C
gF3ykGPekfad7GrS992pdx1d7D1XzF0mB6pbvlGNzZ/+ly8MLeLrxMM0DVA7lsUE
3phKO6/OpmHZmbkuoXXkbAA1UVF0HiFnFzvwHkKlsAPaucMDFNlaEWnar2RbetvQ
XH6soBFD0NhI6okduCjDAWACV8H4cAZuFje3wcV2GvTfMfqMBO2GEGfg6unTeSdI
/9HgmOa4TsF5RQ2VzQ==
-----END CERTIFICATE-----
`

// TestEmitterHex is the emitter address used by synthetic VAAs: an
// Ethereum-style 20-byte address, left-padded to 32 bytes.
const TestEmitterHex = "000000000000000000000000a36085f69e2889c224210f603d836748e7dc0088"

// TestEmitterChain is the emitter chain ID used by synthetic VAAs
// (Wormhole's ID for Arbitrum Sepolia).
const TestEmitterChain uint16 = 10003

// VAAParams describe a synthetic VAA built by TestVAA.
type VAAParams struct {
	GuardianSetIndex uint32
	SignatureCount   int
	Timestamp        uint32
	Nonce            uint32
	EmitterChain     uint16
	EmitterHex       string
	Sequence         uint64
	ConsistencyLevel uint8
	Payload          []byte
}

// TestVAA assembles a structurally valid version-1 VAA from params.
// Signature records are filled with a recognizable repeating pattern;
// they carry no cryptographic meaning.
func TestVAA(params VAAParams) []byte {
	if params.EmitterHex == "" {
		params.EmitterHex = TestEmitterHex
	}
	if params.EmitterChain == 0 {
		params.EmitterChain = TestEmitterChain
	}
	emitter, err := hex.DecodeString(params.EmitterHex)
	if err != nil || len(emitter) != 32 {
		panic("blobs: emitter must be 32 bytes of hex")
	}

	out := make([]byte, 0, 6+params.SignatureCount*66+51+len(params.Payload))
	out = append(out, 1) // version
	out = binary.BigEndian.AppendUint32(out, params.GuardianSetIndex)
	out = append(out, byte(params.SignatureCount))
	for i := 0; i < params.SignatureCount; i++ {
		sig := make([]byte, 66)
		sig[0] = byte(i) // guardian index
		for j := 1; j < 66; j++ {
			sig[j] = byte(i + j)
		}
		out = append(out, sig...)
	}
	out = binary.BigEndian.AppendUint32(out, params.Timestamp)
	out = binary.BigEndian.AppendUint32(out, params.Nonce)
	out = binary.BigEndian.AppendUint16(out, params.EmitterChain)
	out = append(out, emitter...)
	out = binary.BigEndian.AppendUint64(out, params.Sequence)
	out = append(out, params.ConsistencyLevel)
	out = append(out, params.Payload...)
	return out
}
