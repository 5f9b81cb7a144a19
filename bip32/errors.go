package bip32

import "github.com/pkg/errors"

// Sentinel errors returned by the derivation and serialization engine. Callers
// that need to distinguish a recoverable condition (skip to the next index)
// from a fatal one (stop, the key or path is unusable) should compare against
// these with errors.Is; wrapping with errors.Wrap preserves the comparison.
var (
	// ErrInvalidSeed is returned by NewMaster when the seed is outside
	// [16, 64] bytes, or when HMAC-SHA512(seed) yields a secret that is
	// zero or not smaller than the curve order.
	ErrInvalidSeed = errors.New("bip32: invalid seed")

	// ErrInvalidChild is returned by Child/ChildHardened when the
	// intermediate scalar or point produced for the given index is
	// invalid (probability ~2^-127). The caller should retry at i+1.
	ErrInvalidChild = errors.New("bip32: invalid child at this index")

	// ErrDepthOverflow is returned when deriving a child would push depth
	// past 255.
	ErrDepthOverflow = errors.New("bip32: derivation depth overflow")

	// ErrHardenedFromPublic is returned when a hardened index is
	// requested from an XPub, which has no secret to mix in.
	ErrHardenedFromPublic = errors.New("bip32: cannot derive a hardened child from a public key")

	// ErrInvalidPath is returned by path parsing and by ToHard/ToSoft
	// when a path cannot be represented in the requested form.
	ErrInvalidPath = errors.New("bip32: invalid derivation path")

	// ErrPathHardnessMismatch is returned by ApplyToXPub when an "M/..." or
	// unmarked path carries a hardened segment and so cannot be derived
	// from an XPub.
	ErrPathHardnessMismatch = errors.New("bip32: path requires a private key (hardened segment present)")

	// ErrNeedPrivateKey is returned by ApplyToXPub when an "m/..." path is
	// applied to an XPub.
	ErrNeedPrivateKey = errors.New("bip32: path requires a private key")

	// ErrVersionMismatch is returned by ParseXPrv/ParseXPub when the
	// decoded version bytes don't match the expected network Params.
	ErrVersionMismatch = errors.New("bip32: extended key version does not match network")

	// ErrChecksumFail is returned when the Base58Check checksum does not
	// verify.
	ErrChecksumFail = errors.New("bip32: base58check checksum mismatch")

	// ErrInvalidKeyMaterial is returned when the decoded 78-byte payload
	// fails a structural check: wrong length, bad private-key padding
	// byte, an out-of-range secret, or an off-curve public point.
	ErrInvalidKeyMaterial = errors.New("bip32: invalid key material")
)
