// Package taproot builds BIP-341 Taproot outputs on top of an internal key
// and an optional Merkle Abstract Syntax Tree of tapscripts: Merkle
// commitment, output-key tweak, Merkle proofs, control-block emission, and
// script-path verification. Signing is out of scope; this package produces
// and checks the public commitments a spender and a verifier each need,
// not signatures.
package taproot

import "github.com/hdkeyengine/bip32taproot/bip32"

// MAST is a Merkle Abstract Syntax Tree node: a Leaf carrying a tapscript,
// a Branch carrying two children, or a Commitment carrying a precomputed
// hash for a subtree whose contents are not known to the caller.
type MAST interface {
	commitmentHash() [32]byte
}

// Leaf is a tapscript leaf: a leaf version and the script it commits to.
type Leaf struct {
	LeafVersion byte
	Script      []byte
}

// Branch is an internal MAST node with two children; it carries no data
// of its own, only the commitment each child contributes.
type Branch struct {
	Left, Right MAST
}

// Commitment is an opaque 32-byte precomputed branch hash, used when only
// a Merkle proof is available rather than the full sibling subtree.
type Commitment struct {
	Hash [32]byte
}

func compactSize(n int) []byte {
	switch {
	case n < 0xfd:
		return []byte{byte(n)}
	case n <= 0xffff:
		return []byte{0xfd, byte(n), byte(n >> 8)}
	case n <= 0xffffffff:
		return []byte{0xfe, byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
	default:
		v := uint64(n)
		return []byte{0xff,
			byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24),
			byte(v >> 32), byte(v >> 40), byte(v >> 48), byte(v >> 56),
		}
	}
}

func (l Leaf) commitmentHash() [32]byte {
	return bip32.TaggedHash("TapLeaf", []byte{l.LeafVersion}, compactSize(len(l.Script)), l.Script)
}

func (b Branch) commitmentHash() [32]byte {
	left := b.Left.commitmentHash()
	right := b.Right.commitmentHash()
	return branchHash(left, right)
}

func branchHash(a, b [32]byte) [32]byte {
	if lexLess(a, b) {
		return bip32.TaggedHash("TapBranch", a[:], b[:])
	}
	return bip32.TaggedHash("TapBranch", b[:], a[:])
}

func lexLess(a, b [32]byte) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

func (c Commitment) commitmentHash() [32]byte {
	return c.Hash
}

// MASTCommitment wraps a precomputed hash as an opaque tree node.
func MASTCommitment(h [32]byte) MAST {
	return Commitment{Hash: h}
}

// MerkleRoot returns the 32-byte Merkle root of tree. It is total: every
// MAST variant, including a bare Commitment, yields a root.
func MerkleRoot(tree MAST) [32]byte {
	return tree.commitmentHash()
}

// LeafProof pairs a leaf with its sibling-hash path from leaf to root, in
// bottom-up order (the leaf's immediate sibling first).
type LeafProof struct {
	Leaf  Leaf
	Proof [][32]byte
}

// GetMerkleProofs enumerates every Leaf reachable in tree together with
// its Merkle proof. A Commitment node contributes no leaves, since its
// subtree is opaque by construction.
func GetMerkleProofs(tree MAST) []LeafProof {
	return leafProofs(tree, nil)
}

func leafProofs(node MAST, pathTopDown [][32]byte) []LeafProof {
	switch n := node.(type) {
	case Leaf:
		proof := make([][32]byte, len(pathTopDown))
		for i, h := range pathTopDown {
			proof[len(pathTopDown)-1-i] = h
		}
		return []LeafProof{{Leaf: n, Proof: proof}}
	case Branch:
		leftHash := n.Left.commitmentHash()
		rightHash := n.Right.commitmentHash()

		leftPath := append(append([][32]byte{}, pathTopDown...), rightHash)
		rightPath := append(append([][32]byte{}, pathTopDown...), leftHash)

		proofs := leafProofs(n.Left, leftPath)
		proofs = append(proofs, leafProofs(n.Right, rightPath)...)
		return proofs
	default:
		return nil
	}
}
