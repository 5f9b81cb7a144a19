package bip32

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/pkg/errors"
)

// This file is the derivation engine (C4): master-from-seed, and the three
// child-derivation functions (soft-private, soft-public, hard-private) from
// spec §4.2. Every function here returns either a *XPrv/*XPub or an error
// (ErrInvalidSeed, ErrInvalidPath, ErrHardenedFromPublic, ErrDepthOverflow,
// or the recoverable ErrInvalidChild); none of them panic on adversarial
// input.

const (
	minSeedLen = 16
	maxSeedLen = 64
)

var masterHMACKey = []byte("Bitcoin seed")

// NewMaster derives the master extended private key from a seed, per BIP-32:
// I = HMAC-SHA512(key="Bitcoin seed", msg=seed); IL becomes the secret, IR
// the chain code. The seed must be 16-64 bytes; the derived secret must be
// nonzero and below the curve order, or ErrInvalidSeed is returned.
func NewMaster(seed []byte) (*XPrv, error) {
	if len(seed) < minSeedLen || len(seed) > maxSeedLen {
		return nil, errors.Wrapf(ErrInvalidSeed, "seed must be %d-%d bytes, got %d", minSeedLen, maxSeedLen, len(seed))
	}

	il, ir := hmacSHA512Split(masterHMACKey, seed)

	var secret btcec.ModNScalar
	overflow := secret.SetBytes(&il)
	if overflow != 0 || secret.IsZero() {
		return nil, errors.Wrap(ErrInvalidSeed, "derived secret is zero or exceeds the curve order")
	}

	return &XPrv{
		Depth:     0,
		ParentFP:  [4]byte{},
		Index:     0,
		ChainCode: ir,
		Secret:    secret,
	}, nil
}

// Child derives the soft (non-hardened) private child at index i, per
// spec §4.2 prv_sub: message = ser_P(x.point) || ser32(i),
// k' = IL + x.secret mod n. i must be < 2^31; ErrInvalidPath is returned
// otherwise. A negligible fraction of indices yield ErrInvalidChild, which
// the caller should handle by retrying at i+1.
func (x *XPrv) Child(i uint32) (*XPrv, error) {
	if IsHardened(i) {
		return nil, errors.Wrapf(ErrInvalidPath, "soft child index must be < 2^31, got %#x", i)
	}

	pub, err := DeriveXPub(x)
	if err != nil {
		return nil, err
	}
	compressed := secpSerializeCompressed(pub.Point)

	msg := make([]byte, 0, keySerializationLen+4)
	msg = append(msg, compressed[:]...)
	msg = append(msg, serializeUint32(i)...)

	return x.deriveFromHMACMessage(pub, i, msg)
}

// ChildHardened derives the hardened private child at index i (caller passes
// i < 2^31; the hardened bit is set internally), per spec §4.2 hard_sub:
// message = 0x00 || ser32(x.secret,32) || ser32(index).
func (x *XPrv) ChildHardened(i uint32) (*XPrv, error) {
	if IsHardened(i) {
		return nil, errors.Wrapf(ErrInvalidPath, "hardened child index must be passed as < 2^31, got %#x", i)
	}
	hardIndex := i | hardenedIndexStart

	pub, err := DeriveXPub(x)
	if err != nil {
		return nil, err
	}

	secretBytes := x.Secret.Bytes()
	msg := make([]byte, 0, 1+32+4)
	msg = append(msg, 0x00)
	msg = append(msg, secretBytes[:]...)
	msg = append(msg, serializeUint32(hardIndex)...)

	return x.deriveFromHMACMessage(pub, hardIndex, msg)
}

// deriveFromHMACMessage runs the shared second half of soft and hard private
// derivation: HMAC with the parent chain code, split IL/IR, tweak the
// secret, and assemble the child's metadata.
func (x *XPrv) deriveFromHMACMessage(parentPub *XPub, rawIndex uint32, msg []byte) (*XPrv, error) {
	if x.Depth == 0xff {
		return nil, ErrDepthOverflow
	}

	il, ir := hmacSHA512Split(x.ChainCode[:], msg)

	childSecret, err := secpTweakAddSec(&x.Secret, il)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidChild, "index %#x: %s", rawIndex, err)
	}

	return &XPrv{
		Depth:     x.Depth + 1,
		ParentFP:  parentPub.Fingerprint(),
		Index:     rawIndex,
		ChainCode: ir,
		Secret:    *childSecret,
	}, nil
}

// Child derives the soft (non-hardened) public child at index i, per
// spec §4.2 pub_sub: message = ser_P(X.point) || ser32(i),
// P' = IL*G + X.point. Hardened derivation from a public key is not
// possible (BIP-32); i must be < 2^31.
func (x *XPub) Child(i uint32) (*XPub, error) {
	if IsHardened(i) {
		return nil, errors.Wrap(ErrHardenedFromPublic, "")
	}
	if x.Depth == 0xff {
		return nil, ErrDepthOverflow
	}

	compressed := secpSerializeCompressed(x.Point)
	msg := make([]byte, 0, keySerializationLen+4)
	msg = append(msg, compressed[:]...)
	msg = append(msg, serializeUint32(i)...)

	il, ir := hmacSHA512Split(x.ChainCode[:], msg)

	childPoint, ok := secpTweakAddPub(x.Point, il)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidChild, "index %#x", i)
	}

	return &XPub{
		Depth:     x.Depth + 1,
		ParentFP:  x.Fingerprint(),
		Index:     i,
		ChainCode: ir,
		Point:     childPoint,
	}, nil
}

func serializeUint32(v uint32) []byte {
	out := make([]byte, 4)
	binary.BigEndian.PutUint32(out, v)
	return out
}

// IndexCycle is a restartable, wrapping generator of soft derivation
// indices, per spec §4.2 cycle_from: an infinite sequence starting at i0
// that wraps 0x7fffffff -> 0 rather than ever emitting a hardened index.
// It is deliberately not a materialized slice or lazy list (spec §9): it
// holds only the next value to emit.
type IndexCycle struct {
	next uint32
}

// CycleFrom returns an IndexCycle that will emit i0 on its first Next call.
// i0 is reduced modulo 2^31 so the cycle never starts on a hardened index.
func CycleFrom(i0 uint32) *IndexCycle {
	return &IndexCycle{next: i0 & (hardenedIndexStart - 1)}
}

// Next returns the next soft index in the cycle and advances the generator,
// wrapping 0x7fffffff back to 0.
func (c *IndexCycle) Next() uint32 {
	v := c.next
	if c.next == hardenedIndexStart-1 {
		c.next = 0
	} else {
		c.next++
	}
	return v
}
