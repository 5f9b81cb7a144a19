package taproot

import "github.com/pkg/errors"

// ControlBlock is the witness element proving a specific leaf is committed
// by a Taproot output key: the leaf version and output-key parity packed
// into one byte, the x-only internal key, and the Merkle proof.
type ControlBlock struct {
	LeafVersion byte
	Parity      bool
	InternalKey [32]byte
	Proof       [][32]byte
}

// EncodeControlBlock serializes cb as (v|b) || ser_X(P) || h1 || ... || hm.
func EncodeControlBlock(cb ControlBlock) []byte {
	out := make([]byte, 0, 1+32+32*len(cb.Proof))
	first := cb.LeafVersion
	if cb.Parity {
		first |= 1
	}
	out = append(out, first)
	out = append(out, cb.InternalKey[:]...)
	for _, h := range cb.Proof {
		out = append(out, h[:]...)
	}
	return out
}

// DecodeControlBlock parses the wire form produced by EncodeControlBlock.
func DecodeControlBlock(raw []byte) (ControlBlock, error) {
	if len(raw) < 33 || (len(raw)-33)%32 != 0 {
		return ControlBlock{}, errors.Errorf("taproot: control block must be 33+32m bytes, got %d", len(raw))
	}

	first := raw[0]
	cb := ControlBlock{
		LeafVersion: first &^ 1,
		Parity:      first&1 == 1,
	}
	copy(cb.InternalKey[:], raw[1:33])

	proofBytes := raw[33:]
	cb.Proof = make([][32]byte, len(proofBytes)/32)
	for i := range cb.Proof {
		copy(cb.Proof[i][:], proofBytes[i*32:(i+1)*32])
	}
	return cb, nil
}

// ScriptPathSpend is everything a script-path witness needs beyond the
// signatures/preimages the script itself requires: the script, its leaf
// version, and the control block proving its membership.
type ScriptPathSpend struct {
	Stack        [][]byte
	Script       []byte
	LeafVersion  byte
	ControlBlock ControlBlock
	Annex        []byte
}

// ScriptPathSpend locates leafScript/leafVersion in o's tree and builds
// the ScriptPathSpend for it, with stack supplying whatever witness
// elements the script itself requires (signatures, preimages, and so on).
func (o TaprootOutput) ScriptPathSpend(leafVersion byte, leafScript []byte, stack [][]byte) (ScriptPathSpend, error) {
	if o.Tree == nil {
		return ScriptPathSpend{}, errors.New("taproot: output has no script tree")
	}

	_, parity, err := o.OutputKey()
	if err != nil {
		return ScriptPathSpend{}, err
	}

	for _, p := range GetMerkleProofs(o.Tree) {
		if p.Leaf.LeafVersion != leafVersion || !bytesEqual(p.Leaf.Script, leafScript) {
			continue
		}
		return ScriptPathSpend{
			Stack:       stack,
			Script:      leafScript,
			LeafVersion: leafVersion,
			ControlBlock: ControlBlock{
				LeafVersion: leafVersion,
				Parity:      parity,
				InternalKey: o.InternalKey,
				Proof:       p.Proof,
			},
		}, nil
	}
	return ScriptPathSpend{}, errors.New("taproot: leaf not found in tree")
}

// EncodeTaprootWitness returns the witness stack for a script-path spend:
// the caller-supplied stack, the script, the control block, and (if
// present) the annex.
func EncodeTaprootWitness(sp ScriptPathSpend) [][]byte {
	witness := make([][]byte, 0, len(sp.Stack)+3)
	witness = append(witness, sp.Stack...)
	witness = append(witness, sp.Script)
	witness = append(witness, EncodeControlBlock(sp.ControlBlock))
	if len(sp.Annex) > 0 {
		witness = append(witness, sp.Annex)
	}
	return witness
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
