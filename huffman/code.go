package huffman

import (
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/huffzip/ezip/bitstream"
)

// Codeword is the path from the root to a leaf: 0 for left, 1 for right.
type Codeword []bitstream.Bit

func (c Codeword) String() string {
	var sb strings.Builder
	for _, b := range c {
		if b == bitstream.Zero {
			sb.WriteByte('0')
		} else {
			sb.WriteByte('1')
		}
	}
	return sb.String()
}

// Table maps each symbol of a tree to its codeword.
type Table map[byte]Codeword

// NewTable derives the code of every leaf by a depth-first walk of the tree.
// The only leaf of a degenerate tree gets an empty codeword.
func NewTable(t *Tree) Table {
	table := make(Table)

	var traverse func(n Node, prefix Codeword)
	traverse = func(n Node, prefix Codeword) {
		switch n := n.(type) {
		case *Leaf:
			table[n.Symbol] = slices.Clone(prefix)
		case *Internal:
			traverse(n.Left, append(prefix, bitstream.Zero))
			traverse(n.Right, append(prefix, bitstream.One))
		}
	}
	traverse(t.Root, make(Codeword, 0, 16))

	return table
}

// Symbols returns the symbols covered by the table in ascending order.
func (t Table) Symbols() []byte {
	syms := maps.Keys(t)
	slices.Sort(syms)
	return syms
}

// BitLen is the number of payload bits needed to encode data with the given
// counts, padding excluded.
func (t Table) BitLen(records []Record) uint64 {
	var n uint64
	for _, r := range records {
		n += r.Count * uint64(len(t[r.Symbol]))
	}
	return n
}
