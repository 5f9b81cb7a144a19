package address

import (
	"bytes"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"

	"github.com/hdkeyengine/bip32taproot/bip32"
)

// DeriveMSAddr derives the soft child at index i of every key in keys,
// sorts the resulting compressed points lexicographically (BIP-67), builds
// an m-of-n CHECKMULTISIG redeem script from them, and returns the P2SH
// address wrapping it together with the redeem script itself.
func DeriveMSAddr(net *chaincfg.Params, keys []*bip32.XPub, m int, i uint32) (btcutil.Address, []byte, error) {
	if m <= 0 || m > len(keys) {
		return nil, nil, errors.Errorf("address: threshold %d out of range for %d keys", m, len(keys))
	}

	points := make([][]byte, 0, len(keys))
	for _, key := range keys {
		child, err := key.Child(i)
		if err != nil {
			return nil, nil, err
		}
		points = append(points, child.Point.SerializeCompressed())
	}

	sort.Slice(points, func(a, b int) bool {
		return bytes.Compare(points[a], points[b]) < 0
	})

	builder := txscript.NewScriptBuilder()
	builder.AddInt64(int64(m))
	for _, p := range points {
		builder.AddData(p)
	}
	builder.AddInt64(int64(len(points)))
	builder.AddOp(txscript.OP_CHECKMULTISIG)

	redeemScript, err := builder.Script()
	if err != nil {
		return nil, nil, errors.Wrap(err, "address: building multisig redeem script")
	}

	scriptHash := btcutil.Hash160(redeemScript)
	addr, err := btcutil.NewAddressScriptHashFromHash(scriptHash, net)
	if err != nil {
		return nil, nil, errors.Wrap(err, "address: building P2SH-multisig address")
	}

	return addr, redeemScript, nil
}
