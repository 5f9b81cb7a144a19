package taproot

import "github.com/hdkeyengine/bip32taproot/bip32"

// VerifyScriptPathData reconstructs the Merkle root by folding sp's proof
// from the leaf hash up, sorting each pair lexicographically before
// hashing, then recomputes the tweak and candidate output key from sp's
// internal key. It reports whether the candidate equals outputKey and the
// control block's parity bit matches.
func VerifyScriptPathData(outputKey [32]byte, sp ScriptPathSpend) bool {
	leaf := Leaf{LeafVersion: sp.LeafVersion, Script: sp.Script}
	cur := leaf.commitmentHash()
	for _, sibling := range sp.ControlBlock.Proof {
		cur = branchHash(cur, sibling)
	}
	merkleRoot := cur

	internalPoint, err := bip32.LiftX(sp.ControlBlock.InternalKey)
	if err != nil {
		return false
	}

	msg := append([]byte{}, sp.ControlBlock.InternalKey[:]...)
	msg = append(msg, merkleRoot[:]...)
	tweak := bip32.TaggedHash("TapTweak", msg)

	tweakedPoint, ok := bip32.TweakAddPub(internalPoint, tweak)
	if !ok {
		return false
	}

	candidate, oddY := bip32.XOnly(tweakedPoint)
	return candidate == outputKey && oddY == sp.ControlBlock.Parity
}
