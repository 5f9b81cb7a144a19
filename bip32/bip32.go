package bip32

import "crypto/rand"

// GenerateSeed returns 32 bytes of cryptographically random seed material
// suitable for NewMaster.
func GenerateSeed() ([]byte, error) {
	seed := make([]byte, 32)
	_, err := rand.Read(seed)
	if err != nil {
		return nil, err
	}
	return seed, nil
}

// NewMasterAtPath derives the master key from seed and folds pathString
// over it, returning an XPrv for "m/…" and unmarked paths or projecting to
// an XPub for "M/…".
func NewMasterAtPath(seed []byte, pathString string) (prv *XPrv, pub *XPub, err error) {
	master, err := NewMaster(seed)
	if err != nil {
		return nil, nil, err
	}

	parsed, err := ParsePath(pathString)
	if err != nil {
		return nil, nil, err
	}

	return ApplyToXPrv(parsed, master)
}
