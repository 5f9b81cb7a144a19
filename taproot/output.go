package taproot

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"

	"github.com/hdkeyengine/bip32taproot/bip32"
)

// ErrInvalidTweak is returned by OutputKey when the computed tweak is not
// below the curve order, when the tweaked point is the point at infinity,
// or when the internal key does not lift to a curve point. For a valid
// internal key these are negligible-probability events, treated as fatal
// per the taproot tweak failure policy.
var ErrInvalidTweak = errors.New("taproot: invalid tweak")

// TaprootOutput is an internal key plus an optional script tree. A nil
// Tree denotes a key-path-only output.
type TaprootOutput struct {
	InternalKey [32]byte
	Tree        MAST
}

// KeyPathOnly builds a TaprootOutput with no script tree.
func KeyPathOnly(internalKey [32]byte) TaprootOutput {
	return TaprootOutput{InternalKey: internalKey}
}

// MerkleRootOf reports the Merkle root of o's tree, if any.
func (o TaprootOutput) MerkleRootOf() (root [32]byte, ok bool) {
	if o.Tree == nil {
		return [32]byte{}, false
	}
	return MerkleRoot(o.Tree), true
}

// OutputKey computes t = TapTweak(x(internal_key) || merkle_root_or_empty),
// Q = lift_x(internal_key) + t*G, and returns (x(Q), Q.y is odd).
func (o TaprootOutput) OutputKey() (outputKey [32]byte, parity bool, err error) {
	internalPoint, err := bip32.LiftX(o.InternalKey)
	if err != nil {
		return [32]byte{}, false, errors.Wrap(ErrInvalidTweak, err.Error())
	}

	msg := append([]byte{}, o.InternalKey[:]...)
	if root, ok := o.MerkleRootOf(); ok {
		msg = append(msg, root[:]...)
	}
	tweak := bip32.TaggedHash("TapTweak", msg)

	tweakedPoint, ok := bip32.TweakAddPub(internalPoint, tweak)
	if !ok {
		return [32]byte{}, false, ErrInvalidTweak
	}

	x, oddY := bip32.XOnly(tweakedPoint)
	return x, oddY, nil
}

// OutputAddress returns the bech32m Taproot address for o's output key
// under net.
func (o TaprootOutput) OutputAddress(net *chaincfg.Params) (btcutil.Address, error) {
	outputKey, _, err := o.OutputKey()
	if err != nil {
		return nil, err
	}
	addr, err := btcutil.NewAddressTaproot(outputKey[:], net)
	if err != nil {
		return nil, errors.Wrap(err, "taproot: building output address")
	}
	return addr, nil
}
