// Package bip32 implements the BIP-32 hierarchical-deterministic key tree:
// seeded master derivation, soft and hard child derivation, a typed
// derivation-path algebra, and Base58Check import/export of extended keys.
// It treats secp256k1 group arithmetic and the SHA-256/RIPEMD-160/HMAC-SHA512
// primitives as external, pure-function collaborators; this package owns no
// I/O and no global state, and every fallible operation returns an error
// rather than panicking, except MustParsePath, which panics on a malformed
// path.
package bip32

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

const (
	versionSerializationLen     = 4
	depthSerializationLen       = 1
	fingerprintSerializationLen = 4
	childNumberSerializationLen = 4
	chainCodeSerializationLen   = 32
	keySerializationLen         = 33

	extendedKeySerializationLen = versionSerializationLen +
		depthSerializationLen +
		fingerprintSerializationLen +
		childNumberSerializationLen +
		chainCodeSerializationLen +
		keySerializationLen +
		checkSumLen

	hardenedIndexStart = 0x80000000

	identifierLen = 20
)

// XPrv is an extended private key: a secp256k1 secret scalar plus the
// chain code and positional metadata needed to derive children from it.
type XPrv struct {
	Depth     uint8
	ParentFP  [4]byte
	Index     uint32
	ChainCode [32]byte
	Secret    btcec.ModNScalar
}

// XPub is an extended public key: a secp256k1 point plus the same
// positional metadata as XPrv. Public derivation (soft only) operates
// entirely on this type, without ever materializing a secret.
type XPub struct {
	Depth     uint8
	ParentFP  [4]byte
	Index     uint32
	ChainCode [32]byte
	Point     *btcec.PublicKey
}

// IsHardened reports whether index denotes a hardened child (the top bit of
// the raw 32-bit index, as used in the HMAC message, is set).
func IsHardened(index uint32) bool {
	return index >= hardenedIndexStart
}

// DeriveXPub projects an XPrv onto its XPub: same depth, parent fingerprint,
// index, and chain code, with the secret scalar replaced by its public
// point. This is the N((k,c)) -> (K,c) function from BIP-32.
func DeriveXPub(x *XPrv) (*XPub, error) {
	secretBytes := x.Secret.Bytes()
	pub, err := secpGeneratePub(secretBytes)
	if err != nil {
		return nil, errors.Wrap(err, "bip32: deriving public key from secret")
	}
	return &XPub{
		Depth:     x.Depth,
		ParentFP:  x.ParentFP,
		Index:     x.Index,
		ChainCode: x.ChainCode,
		Point:     pub,
	}, nil
}

// Identifier returns RIPEMD160(SHA256(serialize_compressed(point))) — the
// 20-byte key identifier defined by BIP-32.
func (x *XPub) Identifier() [identifierLen]byte {
	compressed := secpSerializeCompressed(x.Point)
	return hash160(compressed[:])
}

// Fingerprint returns the first 4 bytes of Identifier.
func (x *XPub) Fingerprint() [4]byte {
	id := x.Identifier()
	var fp [4]byte
	copy(fp[:], id[:4])
	return fp
}

// Identifier returns the identifier of the corresponding public key, i.e.
// id(xprv) := id(deriveXPub(xprv)).
func (x *XPrv) Identifier() ([identifierLen]byte, error) {
	pub, err := DeriveXPub(x)
	if err != nil {
		return [identifierLen]byte{}, err
	}
	return pub.Identifier(), nil
}

// Fingerprint returns the first 4 bytes of Identifier.
func (x *XPrv) Fingerprint() ([4]byte, error) {
	id, err := x.Identifier()
	if err != nil {
		return [4]byte{}, err
	}
	var fp [4]byte
	copy(fp[:], id[:4])
	return fp, nil
}
