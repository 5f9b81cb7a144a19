package bip32

import (
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/pkg/errors"
)

// This file is the thin adapter over the secp256k1 collaborator (C1). Every
// function here either wraps a single btcec/v2 operation or composes two of
// them; none of it contains derivation logic, which lives in derive.go.

// secpGeneratePub returns the public point sec*G for a 32-byte secret scalar.
func secpGeneratePub(sec [32]byte) (*btcec.PublicKey, error) {
	var scalar btcec.ModNScalar
	overflow := scalar.SetBytes(&sec)
	if overflow != 0 || scalar.IsZero() {
		return nil, errors.New("bip32: secret out of range")
	}
	priv := btcec.PrivKeyFromScalar(&scalar)
	return priv.PubKey(), nil
}

// secpTweakAddSec adds tweak to sec modulo the curve order, failing
// (recoverably) if the tweak is out of range or the sum is zero.
func secpTweakAddSec(sec *btcec.ModNScalar, tweak [32]byte) (*btcec.ModNScalar, error) {
	var tweakScalar btcec.ModNScalar
	overflow := tweakScalar.SetBytes(&tweak)
	if overflow != 0 {
		return nil, errors.New("bip32: tweak exceeds the curve order")
	}

	sum := *sec
	sum.Add(&tweakScalar)
	if sum.IsZero() {
		return nil, errors.New("bip32: tweaked secret is zero")
	}
	return &sum, nil
}

// secpTweakAddPub computes pub + tweak*G, returning false if the tweak is out
// of range or the result is the point at infinity.
func secpTweakAddPub(pub *btcec.PublicKey, tweak [32]byte) (*btcec.PublicKey, bool) {
	var tweakScalar btcec.ModNScalar
	overflow := tweakScalar.SetBytes(&tweak)
	if overflow != 0 {
		return nil, false
	}

	var parentPoint, tweakPoint, sumPoint btcec.JacobianPoint
	pub.AsJacobian(&parentPoint)
	btcec.ScalarBaseMultNonConst(&tweakScalar, &tweakPoint)
	btcec.AddNonConst(&parentPoint, &tweakPoint, &sumPoint)

	if sumPoint.Z.IsZero() {
		return nil, false
	}
	sumPoint.ToAffine()
	return btcec.NewPublicKey(&sumPoint.X, &sumPoint.Y), true
}

// secpSerializeCompressed returns the 33-byte SEC1-compressed encoding.
func secpSerializeCompressed(pub *btcec.PublicKey) [33]byte {
	var out [33]byte
	copy(out[:], pub.SerializeCompressed())
	return out
}

// secpXOnly projects pub onto its 32-byte X coordinate and reports whether Y
// is odd.
func secpXOnly(pub *btcec.PublicKey) (x [32]byte, oddY bool) {
	compressed := pub.SerializeCompressed()
	copy(x[:], compressed[1:])
	oddY = compressed[0] == secp256k1PubKeyFormatOdd
	return x, oddY
}

// secpLiftX recovers the even-Y point for a 32-byte X coordinate, per BIP-340
// lift_x. It fails if x is not the X coordinate of a point on the curve.
func secpLiftX(x [32]byte) (*btcec.PublicKey, error) {
	pub, err := schnorr.ParsePubKey(x[:])
	if err != nil {
		return nil, errors.Wrap(err, "bip32: lift_x failed")
	}
	return pub, nil
}

// secpParsePub parses a 33-byte compressed point, rejecting the identity and
// any encoding that is not on the curve.
func secpParsePub(compressed []byte) (*btcec.PublicKey, error) {
	pub, err := btcec.ParsePubKey(compressed)
	if err != nil {
		return nil, errors.Wrap(err, "bip32: invalid public point")
	}
	return pub, nil
}

const secp256k1PubKeyFormatOdd = 0x03

// Exported mirrors of the adapter above, for consumers outside this
// package (the taproot package's tweak computation) that need the same
// secp256k1 collaborator operations listed in the collaborator interface
// table: generate_pub, tweak_add_pub, lift_x, serialize_compressed, x_only.

// GeneratePub returns the public point sec*G for a 32-byte secret scalar.
func GeneratePub(sec [32]byte) (*btcec.PublicKey, error) { return secpGeneratePub(sec) }

// TweakAddPub computes pub + tweak*G, reporting false if the tweak is out
// of range or the result is the point at infinity.
func TweakAddPub(pub *btcec.PublicKey, tweak [32]byte) (*btcec.PublicKey, bool) {
	return secpTweakAddPub(pub, tweak)
}

// LiftX recovers the even-Y point for a 32-byte X coordinate.
func LiftX(x [32]byte) (*btcec.PublicKey, error) { return secpLiftX(x) }

// SerializeCompressedPub returns the 33-byte SEC1-compressed encoding.
func SerializeCompressedPub(pub *btcec.PublicKey) [33]byte { return secpSerializeCompressed(pub) }

// XOnly projects pub onto its 32-byte X coordinate and reports whether Y
// is odd.
func XOnly(pub *btcec.PublicKey) (x [32]byte, oddY bool) { return secpXOnly(pub) }

// ParsePub parses a 33-byte compressed point.
func ParsePub(compressed []byte) (*btcec.PublicKey, error) { return secpParsePub(compressed) }
