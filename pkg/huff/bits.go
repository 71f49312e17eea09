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

import "io"

type bitWriter struct {
	w   io.ByteWriter
	cur byte
	n   uint
}

func (b *bitWriter) writeBit(bit uint64) error {
	b.cur = b.cur<<1 | byte(bit&1)
	b.n++
	if b.n < 8 {
		return nil
	}
	err := b.w.WriteByte(b.cur)
	b.cur, b.n = 0, 0
	return err
}

func (b *bitWriter) writeCode(c code) error {
	for i := c.length; i > 0; i-- {
		if err := b.writeBit(c.bits >> (i - 1)); err != nil {
			return err
		}
	}
	return nil
}

// flush pads the pending bits with zeros and writes them out
func (b *bitWriter) flush() error {
	if b.n == 0 {
		return nil
	}
	err := b.w.WriteByte(b.cur << (8 - b.n))
	b.cur, b.n = 0, 0
	return err
}

type bitReader struct {
	r   io.ByteReader
	cur byte
	n   uint
}

func (b *bitReader) readBit() (uint, error) {
	if b.n == 0 {
		c, err := b.r.ReadByte()
		if err != nil {
			return 0, err
		}
		b.cur, b.n = c, 8
	}
	b.n--
	return uint(b.cur>>b.n) & 1, nil
}

// align drops the remaining bits of the current byte
func (b *bitReader) align() {
	b.n = 0
}
