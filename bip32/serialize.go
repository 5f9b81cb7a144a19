package bip32

import (
	"encoding/binary"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/pkg/errors"
)

// This file is the serialization layer (C6): the fixed 78-byte wire layout
// shared with every other BIP-32 implementation, Base58Check import/export,
// and WIF export of the inner secret. Every encode/parse function takes its
// network version prefixes explicitly as a Params value; MainNetParams and
// TestNetParams are ready-made Params values, and the String methods use
// MainNetParams.

// Params carries one network's two version prefixes (private and public)
// and the chaincfg network needed to compute a WIF export.
type Params struct {
	PrivateVersion [4]byte
	PublicVersion  [4]byte
	Net            *chaincfg.Params
}

// MainNetParams holds Bitcoin mainnet's xprv/xpub version bytes.
var MainNetParams = Params{
	PrivateVersion: [4]byte{0x04, 0x88, 0xad, 0xe4},
	PublicVersion:  [4]byte{0x04, 0x88, 0xb2, 0x1e},
	Net:            &chaincfg.MainNetParams,
}

// TestNetParams holds Bitcoin testnet's tprv/tpub version bytes.
var TestNetParams = Params{
	PrivateVersion: [4]byte{0x04, 0x35, 0x83, 0x94},
	PublicVersion:  [4]byte{0x04, 0x35, 0x87, 0xcf},
	Net:            &chaincfg.TestNet3Params,
}

// EncodeXPrv composes the 78-byte record described in §4.4 and returns its
// Base58Check string under params' private version.
func EncodeXPrv(params Params, x *XPrv) (string, error) {
	return base58.Encode(serializeXPrv(params.PrivateVersion, x)), nil
}

// String is a convenience wrapper equivalent to EncodeXPrv(MainNetParams, x).
func (x *XPrv) String() string {
	s, err := EncodeXPrv(MainNetParams, x)
	if err != nil {
		return ""
	}
	return s
}

func serializeXPrv(version [4]byte, x *XPrv) []byte {
	secretBytes := x.Secret.Bytes()

	buf := make([]byte, 0, extendedKeySerializationLen)
	buf = append(buf, version[:]...)
	buf = append(buf, x.Depth)
	buf = append(buf, x.ParentFP[:]...)
	buf = append(buf, serializeUint32(x.Index)...)
	buf = append(buf, x.ChainCode[:]...)
	buf = append(buf, 0x00)
	buf = append(buf, secretBytes[:]...)

	checksum := calcChecksum(buf)
	buf = append(buf, checksum...)
	return buf
}

// EncodeXPub composes the 78-byte record for an XPub and returns its
// Base58Check string under params' public version.
func EncodeXPub(params Params, x *XPub) (string, error) {
	payload := serializeXPub(params.PublicVersion, x)
	return base58.Encode(payload), nil
}

// String is a convenience wrapper equivalent to EncodeXPub(MainNetParams, x).
func (x *XPub) String() string {
	s, err := EncodeXPub(MainNetParams, x)
	if err != nil {
		return ""
	}
	return s
}

func serializeXPub(version [4]byte, x *XPub) []byte {
	compressed := secpSerializeCompressed(x.Point)

	buf := make([]byte, 0, extendedKeySerializationLen)
	buf = append(buf, version[:]...)
	buf = append(buf, x.Depth)
	buf = append(buf, x.ParentFP[:]...)
	buf = append(buf, serializeUint32(x.Index)...)
	buf = append(buf, x.ChainCode[:]...)
	buf = append(buf, compressed[:]...)

	checksum := calcChecksum(buf)
	buf = append(buf, checksum...)
	return buf
}

// ParseXPrv decodes a Base58Check extended-private-key string, validating
// its checksum, length, version against params, padding byte, and that the
// embedded secret is in [1, n).
func ParseXPrv(params Params, s string) (*XPrv, error) {
	// base58.CheckDecode assumes a single-byte version; BIP-32 extended keys
	// carry a 4-byte version, so checksum and split the raw decode ourselves.
	raw := base58.Decode(s)
	if err := validateChecksum(raw); err != nil {
		return nil, err
	}
	payload := raw[:len(raw)-checkSumLen]

	if len(payload) != extendedKeySerializationLen-checkSumLen {
		return nil, errors.Wrapf(ErrInvalidKeyMaterial, "expected %d bytes, got %d", extendedKeySerializationLen-checkSumLen, len(payload))
	}

	var version [4]byte
	copy(version[:], payload[:versionSerializationLen])
	if version != params.PrivateVersion {
		return nil, errors.Wrapf(ErrVersionMismatch, "got %x, want %x", version, params.PrivateVersion)
	}

	off := versionSerializationLen
	depth := payload[off]
	off += depthSerializationLen

	var parentFP [4]byte
	copy(parentFP[:], payload[off:off+fingerprintSerializationLen])
	off += fingerprintSerializationLen

	index := binary.BigEndian.Uint32(payload[off : off+childNumberSerializationLen])
	off += childNumberSerializationLen

	var chainCode [32]byte
	copy(chainCode[:], payload[off:off+chainCodeSerializationLen])
	off += chainCodeSerializationLen

	pad := payload[off]
	if pad != 0x00 {
		return nil, errors.Wrapf(ErrInvalidKeyMaterial, "private key padding byte must be 0x00, got %#x", pad)
	}
	off++

	var secretBytes [32]byte
	copy(secretBytes[:], payload[off:off+32])

	var secret btcec.ModNScalar
	overflow := secret.SetBytes(&secretBytes)
	if overflow != 0 || secret.IsZero() {
		return nil, errors.Wrap(ErrInvalidKeyMaterial, "secret is zero or exceeds the curve order")
	}

	return &XPrv{
		Depth:     depth,
		ParentFP:  parentFP,
		Index:     index,
		ChainCode: chainCode,
		Secret:    secret,
	}, nil
}

// ParseXPub decodes a Base58Check extended-public-key string, validating its
// checksum, length, version against params, and that the embedded point is
// on-curve and non-identity.
func ParseXPub(params Params, s string) (*XPub, error) {
	raw := base58.Decode(s)
	if err := validateChecksum(raw); err != nil {
		return nil, err
	}
	payload := raw[:len(raw)-checkSumLen]

	if len(payload) != extendedKeySerializationLen-checkSumLen {
		return nil, errors.Wrapf(ErrInvalidKeyMaterial, "expected %d bytes, got %d", extendedKeySerializationLen-checkSumLen, len(payload))
	}

	var version [4]byte
	copy(version[:], payload[:versionSerializationLen])
	if version != params.PublicVersion {
		return nil, errors.Wrapf(ErrVersionMismatch, "got %x, want %x", version, params.PublicVersion)
	}

	off := versionSerializationLen
	depth := payload[off]
	off += depthSerializationLen

	var parentFP [4]byte
	copy(parentFP[:], payload[off:off+fingerprintSerializationLen])
	off += fingerprintSerializationLen

	index := binary.BigEndian.Uint32(payload[off : off+childNumberSerializationLen])
	off += childNumberSerializationLen

	var chainCode [32]byte
	copy(chainCode[:], payload[off:off+chainCodeSerializationLen])
	off += chainCodeSerializationLen

	point, err := secpParsePub(payload[off : off+keySerializationLen])
	if err != nil {
		return nil, errors.Wrap(ErrInvalidKeyMaterial, err.Error())
	}

	return &XPub{
		Depth:     depth,
		ParentFP:  parentFP,
		Index:     index,
		ChainCode: chainCode,
		Point:     point,
	}, nil
}

// WIF exports the inner secret of x in Wallet Import Format, compressed,
// under the given network.
func (x *XPrv) WIF(net *chaincfg.Params) (string, error) {
	secretBytes := x.Secret.Bytes()
	priv, _ := btcec.PrivKeyFromBytes(secretBytes[:])
	wif, err := btcutil.NewWIF(priv, net, true)
	if err != nil {
		return "", errors.Wrap(err, "bip32: encoding WIF")
	}
	return wif.String(), nil
}
