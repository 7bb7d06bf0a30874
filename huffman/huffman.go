// Package huffman builds Huffman trees from ordered byte frequencies and
// encodes/decodes byte streams with the resulting prefix code.
package huffman

import (
	"container/heap"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/huffzip/ezip/bitstream"
)

var (
	// ErrNoSymbols is returned when a tree is requested for an empty record list.
	// There is nothing to encode, so callers skip the payload entirely.
	ErrNoSymbols = errors.New("huffman: no symbols")

	// ErrTruncated indicates the bitstream ended before every symbol was decoded.
	ErrTruncated = errors.New("huffman: truncated payload")

	// ErrWeightOverflow indicates the summed counts do not fit in 64 bits.
	ErrWeightOverflow = errors.New("huffman: total count overflows uint64")
)

// DuplicateSymbolError is returned when a record list names a symbol twice.
type DuplicateSymbolError struct {
	Symbol byte
}

func (e *DuplicateSymbolError) Error() string {
	return fmt.Sprintf("huffman: duplicate symbol %#02x", e.Symbol)
}

// MissingCodeError is returned by the Encoder for a byte the code table does
// not cover. It means the table was built from different data than is being
// encoded.
type MissingCodeError struct {
	Symbol byte
}

func (e *MissingCodeError) Error() string {
	return fmt.Sprintf("huffman: no code for symbol %#02x", e.Symbol)
}

// Node is a node of a Huffman tree: either a *Leaf or an *Internal.
type Node interface {
	Weight() uint64
	isNode()
}

// Leaf carries a symbol and its occurrence count.
type Leaf struct {
	Symbol byte
	Count  uint64
}

// Internal owns two subtrees. Its count is the sum of theirs.
type Internal struct {
	Count       uint64
	Left, Right Node
}

func (l *Leaf) Weight() uint64     { return l.Count }
func (n *Internal) Weight() uint64 { return n.Count }

func (*Leaf) isNode()     {}
func (*Internal) isNode() {}

// item is a heap entry. seq orders entries of equal weight: leaves take their
// record index and merged nodes take increasing values after the last leaf.
type item struct {
	node Node
	seq  int
}

// PriorityQueue implements a min-heap of nodes ordered by (weight, seq).
type PriorityQueue []item

func (pq *PriorityQueue) Len() int { return len(*pq) }
func (pq *PriorityQueue) Less(i, j int) bool {
	a, b := (*pq)[i], (*pq)[j]
	if wa, wb := a.node.Weight(), b.node.Weight(); wa != wb {
		return wa < wb
	}
	return a.seq < b.seq
}
func (pq *PriorityQueue) Swap(i, j int) { (*pq)[i], (*pq)[j] = (*pq)[j], (*pq)[i] }

// Push adds an element to the priority queue.
func (pq *PriorityQueue) Push(x interface{}) {
	*pq = append(*pq, x.(item))
}

// Pop removes and returns the smallest element from the priority queue.
func (pq *PriorityQueue) Pop() interface{} {
	n := len(*pq)
	it := (*pq)[n-1]
	*pq = (*pq)[:n-1]
	return it
}

// Tree is a Huffman tree together with the number of symbols it was built for.
type Tree struct {
	Root Node
	// Total is the sum of all record counts, i.e. the length of the data.
	Total uint64
}

// Degenerate reports whether the tree is a single leaf. A single-leaf tree has
// an empty code for its only symbol: no payload bits are written for it and the
// decoder emits the symbol Total times without reading any.
func (t *Tree) Degenerate() bool {
	_, ok := t.Root.(*Leaf)
	return ok
}

// NewTree builds a Huffman tree by greedy pairwise merging.
// The result depends only on the order and values of records: the two
// lightest nodes are merged first, ties going to the node that entered the
// queue earliest, and the first node popped becomes the left child.
func NewTree(records []Record) (*Tree, error) {
	if len(records) == 0 {
		return nil, ErrNoSymbols
	}

	var seen [256]bool
	var total uint64
	pq := make(PriorityQueue, 0, len(records))
	for i, r := range records {
		if seen[r.Symbol] {
			return nil, &DuplicateSymbolError{Symbol: r.Symbol}
		}
		seen[r.Symbol] = true
		if total > math.MaxUint64-r.Count {
			return nil, ErrWeightOverflow
		}
		total += r.Count
		pq = append(pq, item{node: &Leaf{Symbol: r.Symbol, Count: r.Count}, seq: i})
	}
	heap.Init(&pq)

	// Build the tree by merging the two smallest nodes until one node remains.
	seq := len(records)
	for pq.Len() > 1 {
		left := heap.Pop(&pq).(item)
		right := heap.Pop(&pq).(item)

		parent := &Internal{
			Count: left.node.Weight() + right.node.Weight(),
			Left:  left.node,
			Right: right.node,
		}
		heap.Push(&pq, item{node: parent, seq: seq})
		seq++
	}

	return &Tree{Root: pq[0].node, Total: total}, nil
}

// Encoder writes the code of each byte to a bit stream.
type Encoder struct {
	w *bitstream.Writer
	t Table
}

// NewEncoder creates an [Encoder] from a code [Table] and a [bitstream.Writer].
// The Encoder does not own the writer.
func NewEncoder(t Table, w *bitstream.Writer) *Encoder {
	return &Encoder{t: t, w: w}
}

// Write implements [io.Writer]. A byte absent from the table stops the write
// with a *MissingCodeError.
func (e *Encoder) Write(p []byte) (n int, err error) {
	for n = range p {
		code, ok := e.t[p[n]]
		if !ok {
			return n, &MissingCodeError{Symbol: p[n]}
		}
		if err = e.w.WriteCode(code); err != nil {
			return
		}
	}
	return len(p), nil
}

// Decoder walks a Huffman tree bit by bit and yields the decoded bytes.
type Decoder struct {
	tree      *Tree
	r         *bitstream.Reader
	remaining uint64
}

// NewDecoder creates a [Decoder] for tree reading from r. It yields exactly
// tree.Total bytes; bits after the last symbol are padding and are left unread.
func NewDecoder(tree *Tree, r *bitstream.Reader) *Decoder {
	return &Decoder{tree: tree, r: r, remaining: tree.Total}
}

// Read implements [io.Reader].
func (d *Decoder) Read(p []byte) (n int, err error) {
	if d.remaining == 0 {
		return 0, io.EOF
	}
	for n < len(p) && d.remaining > 0 {
		if p[n], err = d.next(); err != nil {
			return
		}
		n++
		d.remaining--
	}
	return n, nil
}

// Remaining is the number of bytes still to be decoded.
func (d *Decoder) Remaining() uint64 {
	return d.remaining
}

// next decodes one symbol starting from the root. For a degenerate tree the
// root is already a leaf and no bits are consumed.
func (d *Decoder) next() (byte, error) {
	cur := d.tree.Root
	for {
		switch n := cur.(type) {
		case *Leaf:
			return n.Symbol, nil
		case *Internal:
			b, err := d.r.ReadBit()
			if err == io.EOF {
				return 0, ErrTruncated
			}
			if err != nil {
				return 0, err
			}
			if b == bitstream.Zero {
				cur = n.Left
			} else {
				cur = n.Right
			}
		default:
			panic("huffman: unknown node type")
		}
	}
}
