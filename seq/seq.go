// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package seq provides a compact nucleotide sequence type.
package seq

import (
	"github.com/willf/bitset"
)

// baseCode maps letters to their 2-bit codes. Letters other than
// ACGT in either case are 4.
var baseCode [256]byte

const codeBase = "ACGT"

func init() {
	for i := range baseCode {
		baseCode[i] = 4
	}
	for i, c := range codeBase {
		baseCode[c] = byte(i)
		baseCode[c-'A'+'a'] = byte(i)
	}
}

// Sequence is a named nucleotide sequence stored with four bases per
// byte. Positions holding anything other than A, C, G or T are masked
// and read as N. Case is not retained.
type Sequence struct {
	name   string
	length int
	bases  []byte
	mask   *bitset.BitSet
}

// New returns a Sequence with the given name holding the letters of s.
func New(name, s string) *Sequence {
	sq := alloc(name, len(s))
	for i := 0; i < len(s); i++ {
		sq.set(i, s[i])
	}
	return sq
}

func alloc(name string, n int) *Sequence {
	return &Sequence{
		name:   name,
		length: n,
		bases:  make([]byte, (n+3)/4),
		mask:   bitset.New(uint(n)),
	}
}

func (s *Sequence) set(i int, c byte) {
	code := baseCode[c]
	if code == 4 {
		s.mask.Set(uint(i))
		code = 0
	}
	s.bases[i/4] |= code << (uint(i%4) * 2)
}

// Name returns the name of the sequence.
func (s *Sequence) Name() string { return s.name }

// SetName sets the name of the sequence.
func (s *Sequence) SetName(name string) { s.name = name }

// Len returns the number of bases in the sequence.
func (s *Sequence) Len() int { return s.length }

// At returns the base at position i. It panics if i is out of range.
func (s *Sequence) At(i int) byte {
	if i < 0 || i >= s.length {
		panic("seq: index out of range")
	}
	if s.mask.Test(uint(i)) {
		return 'N'
	}
	return codeBase[(s.bases[i/4]>>(uint(i%4)*2))&3]
}

// complement returns the complement of the base at position i. Masked
// positions complement to N.
func (s *Sequence) complement(i int) byte {
	if s.mask.Test(uint(i)) {
		return 'N'
	}
	return codeBase[3-(s.bases[i/4]>>(uint(i%4)*2))&3]
}

// ReverseComplement returns a new Sequence with the same name holding
// the reverse complement of s.
func (s *Sequence) ReverseComplement() *Sequence {
	rc := alloc(s.name, s.length)
	for i, j := 0, s.length-1; i < s.length; i, j = i+1, j-1 {
		rc.set(j, s.complement(i))
	}
	return rc
}

// Slice returns a new unnamed Sequence holding the bases [start, end)
// of s. Negative indices count back from the end of the sequence and
// out of range indices are clamped.
func (s *Sequence) Slice(start, end int) *Sequence {
	if start < 0 {
		start += s.length
	}
	if end < 0 {
		end += s.length
	}
	start = clamp(start, 0, s.length)
	end = clamp(end, 0, s.length)
	if end < start {
		end = start
	}
	sl := alloc("", end-start)
	for i := start; i < end; i++ {
		sl.set(i-start, s.At(i))
	}
	return sl
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// String returns the bases of s.
func (s *Sequence) String() string {
	b := make([]byte, s.length)
	for i := range b {
		b[i] = s.At(i)
	}
	return string(b)
}

// Concat returns a new unnamed Sequence holding the bases of each of
// seqs in order.
func Concat(seqs ...*Sequence) *Sequence {
	var n int
	for _, s := range seqs {
		n += s.Len()
	}
	c := alloc("", n)
	var k int
	for _, s := range seqs {
		for i := 0; i < s.Len(); i++ {
			c.set(k, s.At(i))
			k++
		}
	}
	return c
}
