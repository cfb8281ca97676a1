// Package merkle provides the merkle engine that commits a block to the
// ordered set of its transaction ids.
//
// Parent nodes are the hex digest of the raw concatenation of the two child
// hex strings. When a level has an odd number of nodes, the trailing node is
// promoted to the next level unmodified instead of being paired with itself.
// This differs from the Bitcoin construction and must be preserved, every
// root in an existing chain depends on it.
package merkle

import (
	"errors"
	"fmt"
	"strings"

	"github.com/BenjaminLonguechaud/Blockchain/foundation/ledger/hashing"
)

// Hashable represents the behavior concrete data must exhibit to be used as
// a leaf in the merkle tree.
type Hashable[T any] interface {
	LeafHash() string
	Equals(other T) bool
}

// Root computes the merkle root for the specified leaves. The boolean is
// false when there are no leaves, in which case no root exists and the
// caller's stored root must be left alone.
func Root(leaves []string) (string, bool) {
	if len(leaves) == 0 {
		return "", false
	}

	levels := buildLevels(leaves)
	return levels[len(levels)-1][0], true
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits
// the behavior defined by the Hashable constraint. Every level is kept so
// inclusion proofs can be produced.
type Tree[T Hashable[T]] struct {
	Leafs      []T
	Levels     [][]string
	MerkleRoot string
}

// NewTree constructs a new merkle tree from the values in the order given.
func NewTree[T Hashable[T]](values []T) (*Tree[T], error) {
	var t Tree[T]
	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Generate constructs the levels of the tree from the specified data. If the
// tree has been generated previously, it is re-generated from scratch.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return errors.New("cannot construct tree with no content")
	}

	leaves := make([]string, len(values))
	for i, value := range values {
		leaves[i] = value.LeafHash()
	}

	t.Leafs = append([]T(nil), values...)
	t.Levels = buildLevels(leaves)
	t.MerkleRoot = t.Levels[len(t.Levels)-1][0]

	return nil
}

// Rebuild regenerates the tree reusing the values it currently holds.
func (t *Tree[T]) Rebuild() error {
	return t.Generate(t.Leafs)
}

// Verify recomputes every level from the leaf values and checks the result
// against the stored levels and root.
func (t *Tree[T]) Verify() error {
	if len(t.Leafs) == 0 {
		return errors.New("tree has no content")
	}

	leaves := make([]string, len(t.Leafs))
	for i, value := range t.Leafs {
		leaves[i] = value.LeafHash()
	}

	levels := buildLevels(leaves)
	if len(levels) != len(t.Levels) {
		return fmt.Errorf("tree depth mismatch, got %d, exp %d", len(t.Levels), len(levels))
	}

	for depth := range levels {
		if len(levels[depth]) != len(t.Levels[depth]) {
			return fmt.Errorf("level %d width mismatch", depth)
		}
		for i := range levels[depth] {
			if levels[depth][i] != t.Levels[depth][i] {
				return fmt.Errorf("node %d at level %d is invalid", i, depth)
			}
		}
	}

	if root := levels[len(levels)-1][0]; root != t.MerkleRoot {
		return fmt.Errorf("root hash invalid, got %s, exp %s", t.MerkleRoot, root)
	}

	return nil
}

// Proof returns the set of sibling hashes and the order of concatenating
// them for proving a value is in the tree.
//
// Order 0 says the proof hash comes first, order 1 says it comes second:
//
//	hash = value.LeafHash()
//	hash = sha256hex(proof[0] + hash)  -- order[0] == 0
//	hash = sha256hex(hash + proof[1])  -- order[1] == 1
//
// The final hash should match the merkle root. A node that was promoted
// without a sibling contributes no step.
func (t *Tree[T]) Proof(data T) ([]string, []int64, error) {
	for idx, value := range t.Leafs {
		if !value.Equals(data) {
			continue
		}

		var proof []string
		var order []int64

		for depth := 0; depth < len(t.Levels)-1; depth++ {
			level := t.Levels[depth]

			switch {
			case idx%2 == 1:
				proof = append(proof, level[idx-1])
				order = append(order, 0)
			case idx+1 < len(level):
				proof = append(proof, level[idx+1])
				order = append(order, 1)
			}

			idx /= 2
		}

		return proof, order, nil
	}

	return nil, nil, errors.New("unable to find data in tree")
}

// Values returns a copy of the values stored in the tree.
func (t *Tree[T]) Values() []T {
	return append([]T(nil), t.Leafs...)
}

// RootHex returns the merkle root.
func (t *Tree[T]) RootHex() string {
	return t.MerkleRoot
}

// String returns a string representation of the tree, one level per line
// starting with the leaves.
func (t *Tree[T]) String() string {
	var sb strings.Builder
	for depth, level := range t.Levels {
		fmt.Fprintf(&sb, "%d: %s\n", depth, strings.Join(level, " "))
	}

	return sb.String()
}

// =============================================================================

// VerifyProof replays a proof produced by Tree.Proof for the leaf hash and
// reports whether it lands on the root.
func VerifyProof(root string, leaf string, proof []string, order []int64) bool {
	if len(proof) != len(order) {
		return false
	}

	hash := leaf
	for i, sibling := range proof {
		switch order[i] {
		case 0:
			hash = hashing.Hex(sibling + hash)
		case 1:
			hash = hashing.Hex(hash + sibling)
		default:
			return false
		}
	}

	return hash == root
}

// buildLevels computes every level of the tree bottom up. The first level is
// a copy of the leaves and the last level holds the single root.
func buildLevels(leaves []string) [][]string {
	level := append([]string(nil), leaves...)
	levels := [][]string{level}

	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)

		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}

			next = append(next, hashing.Hex(level[i]+level[i+1]))
		}

		levels = append(levels, next)
		level = next
	}

	return levels
}
