package merkle

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leaf(b byte) []byte {
	l := make([]byte, 32)
	for i := range l {
		l[i] = b
	}
	return l
}

func naiveRoot(leaves [][]byte) []byte {
	level := append([][]byte{}, leaves...)
	for len(level) > 1 {
		if len(level)%2 == 1 {
			level = append(level, level[len(level)-1])
		}
		next := make([][]byte, len(level)/2)
		for i := range next {
			first := sha256.Sum256(append(append([]byte{}, level[2*i]...), level[2*i+1]...))
			second := sha256.Sum256(first[:])
			next[i] = second[:]
		}
		level = next
	}
	return level[0]
}

func TestWithFirstMatchesNaiveRoot(t *testing.T) {
	cases := [][][]byte{
		{leaf(1)},
		{leaf(1), leaf(2)},
		{leaf(1), leaf(2), leaf(3)},
		{leaf(1), leaf(2), leaf(3), leaf(4)},
		{leaf(1), leaf(2), leaf(3), leaf(4), leaf(5)},
	}
	l0 := leaf(0)
	for _, leaves := range cases {
		tree := New(leaves)
		got := tree.WithFirst(l0)
		want := naiveRoot(append([][]byte{l0}, leaves...))
		assert.Equal(t, want, got)
	}
}

func TestRootMatchesNaiveRoot(t *testing.T) {
	leaves := [][]byte{leaf(1), leaf(2), leaf(3)}
	require.Equal(t, naiveRoot(leaves), Root(leaves))
}

func TestBranchLengthMatchesLevelCount(t *testing.T) {
	tree := New([][]byte{leaf(1), leaf(2), leaf(3), leaf(4)})
	assert.Equal(t, 3, len(tree.Branch()))
}
