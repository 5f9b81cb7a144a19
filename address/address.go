// Package address maps extended public keys onto the address formats in
// everyday use across the Bitcoin ecosystem: P2PKH, P2WPKH, and the
// P2SH-wrapped form of P2WPKH used for backwards compatibility with nodes
// that predate segwit. It treats Base58/Bech32 text encoding, script
// assembly, and network parameter tables as external collaborators,
// consuming them through btcutil and txscript rather than reimplementing
// them.
package address

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/pkg/errors"

	"github.com/hdkeyengine/bip32taproot/bip32"
)

// DeriveAddr derives the soft child at index i of x and returns its P2PKH
// address under net.
func DeriveAddr(net *chaincfg.Params, x *bip32.XPub, i uint32) (btcutil.Address, error) {
	child, err := x.Child(i)
	if err != nil {
		return nil, err
	}
	return pubKeyHashAddr(net, child)
}

// DeriveWitnessAddr derives the soft child at index i of x and returns its
// P2WPKH address under net.
func DeriveWitnessAddr(net *chaincfg.Params, x *bip32.XPub, i uint32) (btcutil.Address, error) {
	child, err := x.Child(i)
	if err != nil {
		return nil, err
	}
	return witnessPubKeyHashAddr(net, child)
}

// DeriveCompatWitnessAddr derives the soft child at index i of x and
// returns a P2SH address wrapping its P2WPKH witness program, for wallets
// that need a legacy-looking address backed by a segwit output.
func DeriveCompatWitnessAddr(net *chaincfg.Params, x *bip32.XPub, i uint32) (btcutil.Address, error) {
	child, err := x.Child(i)
	if err != nil {
		return nil, err
	}
	return compatWitnessAddr(net, child)
}

func pubKeyHashAddr(net *chaincfg.Params, x *bip32.XPub) (btcutil.Address, error) {
	compressed := x.Point.SerializeCompressed()
	hash := btcutil.Hash160(compressed)
	addr, err := btcutil.NewAddressPubKeyHash(hash, net)
	if err != nil {
		return nil, errors.Wrap(err, "address: building P2PKH address")
	}
	return addr, nil
}

func witnessPubKeyHashAddr(net *chaincfg.Params, x *bip32.XPub) (btcutil.Address, error) {
	compressed := x.Point.SerializeCompressed()
	hash := btcutil.Hash160(compressed)
	addr, err := btcutil.NewAddressWitnessPubKeyHash(hash, net)
	if err != nil {
		return nil, errors.Wrap(err, "address: building P2WPKH address")
	}
	return addr, nil
}

func compatWitnessAddr(net *chaincfg.Params, x *bip32.XPub) (btcutil.Address, error) {
	witAddr, err := witnessPubKeyHashAddr(net, x)
	if err != nil {
		return nil, err
	}
	witnessProgram, err := txscript.PayToAddrScript(witAddr)
	if err != nil {
		return nil, errors.Wrap(err, "address: building witness program")
	}
	scriptHash := btcutil.Hash160(witnessProgram)
	addr, err := btcutil.NewAddressScriptHashFromHash(scriptHash, net)
	if err != nil {
		return nil, errors.Wrap(err, "address: building P2SH-P2WPKH address")
	}
	return addr, nil
}

// DeriveAddrs derives n consecutive P2PKH addresses starting at the index
// c yields first, advancing c each step. The caller owns c and can resume
// the sequence later from wherever it left off.
func DeriveAddrs(net *chaincfg.Params, x *bip32.XPub, c *bip32.IndexCycle, n int) ([]btcutil.Address, error) {
	out := make([]btcutil.Address, 0, n)
	for i := 0; i < n; i++ {
		addr, err := DeriveAddr(net, x, c.Next())
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// DeriveWitnessAddrs derives n consecutive P2WPKH addresses the same way
// DeriveAddrs derives P2PKH ones.
func DeriveWitnessAddrs(net *chaincfg.Params, x *bip32.XPub, c *bip32.IndexCycle, n int) ([]btcutil.Address, error) {
	out := make([]btcutil.Address, 0, n)
	for i := 0; i < n; i++ {
		addr, err := DeriveWitnessAddr(net, x, c.Next())
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}
