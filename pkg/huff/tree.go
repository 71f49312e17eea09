// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package huff

// 🌳 node is a tree node; leaves have left == -1
type node struct {
	sym   byte
	freq  uint64
	left  int
	right int
}

func (n node) isLeaf() bool {
	return n.left < 0
}

// 🌳 tree is a Huffman tree stored as a flat slice of nodes
type tree struct {
	nodes []node
	root  int
	// leaves is the number of distinct symbols
	leaves int
}

// code is a codeword, the low length bits of bits, MSB first
type code struct {
	bits   uint64
	length uint
}

// firstInternal is the index of the first internal node; indexes below
// it are the leaves, one per byte value
const firstInternal = 256

// sortLeaves orders leaf indexes by ascending frequency with an in-place
// heapsort. Equal frequencies keep the order this particular heapsort
// leaves them in, which fixes the tree shape and so the output bytes.
func sortLeaves(nodes []node, leaves []int) {
	less := func(x, y int) bool {
		return nodes[leaves[x]].freq < nodes[leaves[y]].freq
	}
	// sift works on a heap rooted at pos whose last index is last
	sift := func(pos, last int) {
		j := 2 * pos
		for j <= last {
			if j < last && less(j, j+1) {
				j++
			}
			if !less(pos, j) {
				return
			}
			leaves[pos], leaves[j] = leaves[j], leaves[pos]
			pos, j = j, 2*j
		}
	}

	last := len(leaves) - 1
	for i := last / 2; i >= 0; i-- {
		sift(i, last)
	}
	for i := last; i > 0; i-- {
		leaves[i], leaves[0] = leaves[0], leaves[i]
		sift(0, i-1)
	}
}

// 🏗️ buildTree builds the tree for the given byte frequencies.
// At least one frequency must be non-zero.
//
// Sorted leaves and created nodes form two queues that are both in
// ascending frequency order. Each new node takes its children from the
// queue heads, preferring the leaf on ties.
func buildTree(freq *[256]uint64) *tree {
	t := &tree{nodes: make([]node, firstInternal, 2*256-1)}

	var leaves []int
	for sym, f := range freq {
		t.nodes[sym] = node{sym: byte(sym), freq: f, left: -1, right: -1}
		if f != 0 {
			leaves = append(leaves, sym)
		}
	}
	t.leaves = len(leaves)

	if len(leaves) == 1 {
		t.root = leaves[0]
		return t
	}

	sortLeaves(t.nodes, leaves)

	nextLeaf, nextNode := 0, firstInternal
	leafFirst := func(built int) bool {
		if nextLeaf >= len(leaves) {
			return false
		}
		if nextNode >= built {
			return true
		}
		return t.nodes[leaves[nextLeaf]].freq <= t.nodes[nextNode].freq
	}
	take := func(built int) int {
		if leafFirst(built) {
			nextLeaf++
			return leaves[nextLeaf-1]
		}
		nextNode++
		return nextNode - 1
	}

	for built := firstInternal; built < firstInternal+len(leaves)-1; built++ {
		var left, right int
		if built == firstInternal {
			// the two rarest leaves seed the node queue
			left, right = leaves[0], leaves[1]
			nextLeaf = 2
		} else {
			left = take(built)
			right = take(built)
		}
		t.nodes = append(t.nodes, node{
			freq:  t.nodes[left].freq + t.nodes[right].freq,
			left:  left,
			right: right,
		})
	}
	t.root = len(t.nodes) - 1

	return t
}

// 📖 codes returns the codeword of every symbol in the tree
func (t *tree) codes() [256]code {
	var out [256]code

	// a lone symbol still needs one bit per occurrence
	if t.nodes[t.root].isLeaf() {
		out[t.nodes[t.root].sym] = code{bits: 0, length: 1}
		return out
	}

	var walk func(n int, c code)
	walk = func(n int, c code) {
		if t.nodes[n].isLeaf() {
			out[t.nodes[n].sym] = c
			return
		}
		walk(t.nodes[n].left, code{bits: c.bits << 1, length: c.length + 1})
		walk(t.nodes[n].right, code{bits: c.bits<<1 | 1, length: c.length + 1})
	}
	walk(t.root, code{})

	return out
}

// preorder calls fn for every node, parents before children, left before right
func (t *tree) preorder(fn func(n node) error) error {
	var walk func(n int) error
	walk = func(n int) error {
		if err := fn(t.nodes[n]); err != nil {
			return err
		}
		if t.nodes[n].isLeaf() {
			return nil
		}
		if err := walk(t.nodes[n].left); err != nil {
			return err
		}
		return walk(t.nodes[n].right)
	}
	return walk(t.root)
}
