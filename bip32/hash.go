package bip32

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"hash"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ripemd160"
)

// This file is the hash adapter (C2): HMAC-SHA512 for derivation, the
// double-SHA256 Base58Check checksum, hash160 for fingerprints, and the
// BIP-340/341 tagged hash used by the taproot package.

const checkSumLen = 4

func newHMACWriter(key []byte) hmacWriter {
	return hmacWriter{
		Hash: hmac.New(sha512.New, key),
	}
}

type hmacWriter struct {
	hash.Hash
}

func (hw hmacWriter) InfallibleWrite(p []byte) {
	_, err := hw.Write(p)
	if err != nil {
		panic(errors.Wrap(err, "writing to hmac should never fail"))
	}
}

// hmacSHA512Split runs HMAC-SHA512(key, msg) and splits the 64-byte output
// into its two 32-byte halves, as every BIP-32 derivation step does.
func hmacSHA512Split(key, msg []byte) (il, ir [32]byte) {
	mac := newHMACWriter(key)
	mac.InfallibleWrite(msg)
	sum := mac.Sum(nil)
	copy(il[:], sum[:32])
	copy(ir[:], sum[32:])
	return il, ir
}

func calcChecksum(data []byte) []byte {
	return doubleSha256(data)[:checkSumLen]
}

func doubleSha256(data []byte) []byte {
	sha1 := sha256.New()
	sha2 := sha256.New()
	sha1.Write(data)
	sha2.Write(sha1.Sum(nil))
	return sha2.Sum(nil)
}

func validateChecksum(data []byte) error {
	if len(data) < checkSumLen {
		return errors.New("bip32: payload shorter than checksum")
	}
	checksum := data[len(data)-checkSumLen:]
	expectedChecksum := calcChecksum(data[:len(data)-checkSumLen])
	if !bytes.Equal(expectedChecksum, checksum) {
		return errors.Wrapf(ErrChecksumFail, "expected checksum %x but got %x", expectedChecksum, checksum)
	}

	return nil
}

// hash160 is RIPEMD160(SHA256(data)), used for BIP-32 key identifiers and
// fingerprints.
func hash160(data []byte) [20]byte {
	sha := sha256.Sum256(data)
	r := ripemd160.New()
	r.Write(sha[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}

// TaggedHash computes the BIP-340 tagged hash SHA256(SHA256(tag) ||
// SHA256(tag) || parts...), used throughout BIP-341 (TapLeaf, TapBranch,
// TapTweak) to domain-separate otherwise-identical-looking digests.
func TaggedHash(tag string, parts ...[]byte) [32]byte {
	tagHash := sha256.Sum256([]byte(tag))

	h := sha256.New()
	h.Write(tagHash[:])
	h.Write(tagHash[:])
	for _, p := range parts {
		h.Write(p)
	}

	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
