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

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrTooLarge is returned when the input does not fit the 32-bit length field
	ErrTooLarge = errors.Base("input larger than 4GiB")
	// ErrCorrupt is returned when a stream cannot be decoded
	ErrCorrupt = errors.Base("corrupt huff stream")
)

// 📦 Encode reads r twice (frequency pass, then coding pass) and writes the encoded stream to w.
func Encode(w io.Writer, r io.ReadSeeker) error {
	var freq [256]uint64
	var size uint64

	br := bufio.NewReader(r)
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Errorf("counting frequencies: %w", err)
		}
		freq[c]++
		size++
	}

	if size == 0 {
		return nil
	}
	if size > math.MaxUint32 {
		return errors.WithStack(ErrTooLarge)
	}

	t := buildTree(&freq)
	codes := t.codes()

	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return errors.Errorf("rewinding input: %w", err)
	}

	bw := bufio.NewWriter(w)
	if err := writeHeader(bw, t, uint32(size)); err != nil {
		return errors.Errorf("writing header: %w", err)
	}

	br.Reset(r)
	bits := &bitWriter{w: bw}
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			break
		}
		if err != nil {
			return errors.Errorf("reading input: %w", err)
		}
		if codes[c].length == 0 {
			return errors.Errorf("input changed while encoding: byte %#x has no code", c)
		}
		if err := bits.writeCode(codes[c]); err != nil {
			return errors.Errorf("writing code: %w", err)
		}
	}
	if err := bits.flush(); err != nil {
		return errors.Errorf("writing code: %w", err)
	}

	if err := bw.Flush(); err != nil {
		return errors.Errorf("flushing output: %w", err)
	}
	return nil
}

// writeHeader writes the length, the leaf count, the leaves and the tree shape
func writeHeader(bw *bufio.Writer, t *tree, size uint32) error {
	var hdr [6]byte
	binary.BigEndian.PutUint32(hdr[0:4], size)

	// the leaf count is stored as the sum of two bytes so that 256 fits
	if t.leaves == 256 {
		hdr[4], hdr[5] = 1, 255
	} else {
		hdr[4], hdr[5] = 0, byte(t.leaves)
	}
	if _, err := bw.Write(hdr[:]); err != nil {
		return err
	}

	err := t.preorder(func(n node) error {
		if n.isLeaf() {
			return bw.WriteByte(n.sym)
		}
		return nil
	})
	if err != nil {
		return err
	}

	bits := &bitWriter{w: bw}
	err = t.preorder(func(n node) error {
		if n.isLeaf() {
			return bits.writeBit(1)
		}
		return bits.writeBit(0)
	})
	if err != nil {
		return err
	}
	return bits.flush()
}

// 📤 Decode reads an encoded stream from r and writes the original bytes to w.
func Decode(w io.Writer, r io.Reader) error {
	br := bufio.NewReader(r)

	var hdr [6]byte
	n, err := io.ReadFull(br, hdr[:])
	if n == 0 && err == io.EOF {
		return nil
	}
	if err != nil {
		return errors.Errorf("reading header: %w", corrupt(err))
	}

	size := binary.BigEndian.Uint32(hdr[0:4])
	leaves := int(hdr[4]) + int(hdr[5])
	if leaves == 0 || leaves > 256 {
		return errors.Errorf("invalid leaf count %d: %w", leaves, ErrCorrupt)
	}

	syms := make([]byte, leaves)
	if _, err := io.ReadFull(br, syms); err != nil {
		return errors.Errorf("reading leaves: %w", corrupt(err))
	}

	t, err := readTree(&bitReader{r: br}, syms)
	if err != nil {
		return errors.Errorf("reading tree: %w", err)
	}

	bw := bufio.NewWriter(w)
	bits := &bitReader{r: br}
	for i := uint32(0); i < size; i++ {
		cur := t.root
		for !t.nodes[cur].isLeaf() {
			bit, err := bits.readBit()
			if err != nil {
				return errors.Errorf("reading code at byte %d: %w", i, corrupt(err))
			}
			if bit == 0 {
				cur = t.nodes[cur].left
			} else {
				cur = t.nodes[cur].right
			}
		}
		if err := bw.WriteByte(t.nodes[cur].sym); err != nil {
			return errors.Errorf("writing output: %w", err)
		}
	}

	if err := bw.Flush(); err != nil {
		return errors.Errorf("flushing output: %w", err)
	}
	return nil
}

// readTree rebuilds the tree from its preorder shape bits and leaf symbols.
// The reader is left aligned on the next byte.
func readTree(bits *bitReader, syms []byte) (*tree, error) {
	t := &tree{nodes: make([]node, 0, 2*len(syms)-1), leaves: len(syms)}
	usedLeaves, internal := 0, 0

	var read func() (int, error)
	read = func() (int, error) {
		bit, err := bits.readBit()
		if err != nil {
			return 0, corrupt(err)
		}

		if bit == 1 {
			if usedLeaves >= len(syms) {
				return 0, errors.Errorf("more leaves than declared: %w", ErrCorrupt)
			}
			t.nodes = append(t.nodes, node{sym: syms[usedLeaves], left: -1, right: -1})
			usedLeaves++
			return len(t.nodes) - 1, nil
		}

		if internal >= len(syms)-1 {
			return 0, errors.Errorf("more internal nodes than leaves allow: %w", ErrCorrupt)
		}
		internal++
		idx := len(t.nodes)
		t.nodes = append(t.nodes, node{})

		left, err := read()
		if err != nil {
			return 0, err
		}
		right, err := read()
		if err != nil {
			return 0, err
		}
		t.nodes[idx].left, t.nodes[idx].right = left, right
		return idx, nil
	}

	root, err := read()
	if err != nil {
		return nil, err
	}
	if usedLeaves != len(syms) {
		return nil, errors.Errorf("tree uses %d of %d leaves: %w", usedLeaves, len(syms), ErrCorrupt)
	}
	t.root = root
	bits.align()

	return t, nil
}

func corrupt(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Errorf("truncated: %w", ErrCorrupt)
	}
	return err
}
