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

// Package huff implements the static Huffman codec used for .huff artifacts.
//
// A stream holds the input length, the leaf symbols and tree shape in
// preorder, and the packed code bits:
//
//	+----------+---------+--------------+-------------+-----------+
//	| size u32 | a  | b  | a+b leaves   | tree bits   | code bits |
//	+----------+---------+--------------+-------------+-----------+
//
// Tree bits are 1 for a leaf and 0 for an internal node. Both bit
// sections are written MSB-first and zero padded to a byte boundary.
// Empty input encodes to an empty stream.
package huff
