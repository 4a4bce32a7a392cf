// Package merkle precomputes the Bitcoin merkle branch for a job's
// non-coinbase transactions, so that each submitted share only needs to walk
// a fixed list of sibling hashes up to the root instead of rehashing the
// whole transaction set.
package merkle

import "github.com/seehuhn/sha256d"

// Tree holds the branch steps derived from a fixed list of leaves (the
// template's transactions, in internal byte order). It never holds the
// leaves themselves after construction.
type Tree struct {
	branch [][]byte
}

// New computes the merkle branch for leaves, i.e. the list of sibling
// hashes that, combined in order with a future first leaf L0, reproduce the
// root of [L0, leaves...]. Bitcoin's odd-level duplication rule applies at
// every level: if a level has an odd number of nodes, the last one is
// paired with itself.
func New(leaves [][]byte) *Tree {
	t := &Tree{}
	level := make([][]byte, len(leaves))
	copy(level, leaves)

	for len(level) > 0 {
		t.branch = append(t.branch, level[0])
		if len(level) == 1 {
			break
		}
		level = level[1:]
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, len(level)/2)
		for i := range next {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		level = next
	}
	return t
}

// Branch returns the precomputed branch steps, in order, as read-only byte
// slices. Callers must not mutate the returned slices.
func (t *Tree) Branch() [][]byte {
	return t.branch
}

// WithFirst threads leaf (a candidate coinbase hash, already double-SHA256'd
// and in internal byte order) up through the precomputed branch and returns
// the merkle root.
func (t *Tree) WithFirst(leaf []byte) []byte {
	root := make([]byte, len(leaf))
	copy(root, leaf)
	for _, step := range t.branch {
		root = hashPair(root, step)
	}
	return root
}

func hashPair(left, right []byte) []byte {
	h := sha256d.New()
	h.Write(left)
	h.Write(right)
	return h.Sum(nil)
}

// Root computes the naive merkle root of leaves directly, for callers that
// need a one-shot root without keeping branch state, e.g. SegWit merkle
// roots computed once at init for witness-commitment coins.
func Root(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		return nil
	}
	level := make([][]byte, len(leaves))
	copy(level, leaves)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, len(level)/2)
		for i := range next {
			next[i] = hashPair(level[2*i], level[2*i+1])
		}
		level = next
	}
	return level[0]
}
