package btree

import "github.com/novadb/novadb/internal/heap"

// order-4 B+Tree: internal nodes hold up to 3 separator keys and 4 children;
// leaves hold up to 3 (key, value-list) entries. Parent->child references
// are one-directional; leaf sibling links are forward-only (no cyclic
// ownership, per the node-shape notes in the design).
const (
	maxKeys = 3
)

type node interface {
	isLeaf() bool
}

// leafNode holds sorted (key, []RowId) entries — a multimap, since distinct
// rows may share the same indexed-column values. next is the forward link
// to the next leaf in key order, forming a single in-order linked list
// across all leaves.
type leafNode struct {
	keys   []CompositeKey
	values [][]heap.RowId
	next   *leafNode
}

func (*leafNode) isLeaf() bool { return true }

// internalNode holds len(keys) separators and len(keys)+1 children. The i-th
// key is > every key in children[i] and <= every key in children[i+1] (a
// leaf split promotes the first key of the new right leaf).
type internalNode struct {
	keys     []CompositeKey
	children []node
}

func (*internalNode) isLeaf() bool { return false }

// lowerBound returns the index of the first key >= target (insertion point
// keeping keys sorted ascending).
func lowerBound(keys []CompositeKey, target CompositeKey) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if keys[mid].Less(target) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// childIndex picks the child to descend into for key: the first child i such
// that keys[i] is strictly greater than key. A key equal to a separator is
// routed right, into the subtree whose smallest key that separator is.
func (n *internalNode) childIndex(key CompositeKey) int {
	for i, k := range n.keys {
		if key.Less(k) {
			return i
		}
	}
	return len(n.children) - 1
}
