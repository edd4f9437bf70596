// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Cigar is a set of CIGAR operations.
type Cigar []CigarOp

// IsValid returns whether the CIGAR is valid for a record of the given
// sequence length: the query consuming operations sum to length and hard
// clips appear only at the ends.
func (c Cigar) IsValid(length int) bool {
	for i, co := range c {
		if co.Type() == CigarHardClipped && i != 0 && i != len(c)-1 {
			return false
		}
		length -= co.Len() * co.Type().Consumes().Query
	}
	return length == 0
}

// String returns the CIGAR string for c, "*" when c is empty.
func (c Cigar) String() string {
	if len(c) == 0 {
		return "*"
	}
	var sb strings.Builder
	for _, co := range c {
		sb.WriteString(strconv.Itoa(co.Len()))
		sb.WriteString(co.Type().String())
	}
	return sb.String()
}

// Lengths returns the number of reference and read bases described by the Cigar.
func (c Cigar) Lengths() (ref, read int) {
	for _, co := range c {
		con := co.Type().Consumes()
		ref += co.Len() * con.Reference
		read += co.Len() * con.Query
	}
	return ref, read
}

// CigarOp is a single CIGAR operation including the operation type and the
// length of the operation, packed as in BAM.
type CigarOp uint32

// NewCigarOp returns a CIGAR operation of the specified type with length n.
func NewCigarOp(t CigarOpType, n int) CigarOp {
	return CigarOp(t) | (CigarOp(n) << 4)
}

// Type returns the type of the CIGAR operation for the CigarOp.
func (co CigarOp) Type() CigarOpType { return CigarOpType(co & 0xf) }

// Len returns the number of positions affected by the CigarOp CIGAR operation.
func (co CigarOp) Len() int { return int(co >> 4) }

// String returns the string representation of the CigarOp
func (co CigarOp) String() string { return strconv.Itoa(co.Len()) + co.Type().String() }

// A CigarOpType represents the type of operation described by a CigarOp.
type CigarOpType byte

const (
	CigarMatch       CigarOpType = iota // Alignment match (can be a sequence match or mismatch).
	CigarInsertion                      // Insertion to the reference.
	CigarDeletion                       // Deletion from the reference.
	CigarSkipped                        // Skipped region from the reference.
	CigarSoftClipped                    // Soft clipping (clipped sequences present in SEQ).
	CigarHardClipped                    // Hard clipping (clipped sequences NOT present in SEQ).
	CigarPadded                         // Padding (silent deletion from padded reference).
	CigarEqual                          // Sequence match.
	CigarMismatch                       // Sequence mismatch.
	lastCigar
)

const cigarOps = "MIDNSHP=X?"

// Consumes returns the CIGAR operation alignment consumption characteristics for the CigarOpType.
//
// The Consume values for each of the CigarOpTypes is as follows:
//
//	                  Query  Reference
//	CigarMatch          1        1
//	CigarInsertion      1        0
//	CigarDeletion       0        1
//	CigarSkipped        0        1
//	CigarSoftClipped    1        0
//	CigarHardClipped    0        0
//	CigarPadded         0        0
//	CigarEqual          1        1
//	CigarMismatch       1        1
func (ct CigarOpType) Consumes() Consume {
	if ct > lastCigar {
		ct = lastCigar
	}
	return consume[ct]
}

// IsAligned returns whether the operation pairs query and reference bases.
func (ct CigarOpType) IsAligned() bool {
	return ct == CigarMatch || ct == CigarEqual || ct == CigarMismatch
}

// String returns the string representation of a CigarOpType.
func (ct CigarOpType) String() string {
	if ct > lastCigar {
		ct = lastCigar
	}
	return cigarOps[ct : ct+1]
}

// Consume describes how CIGAR operations consume alignment bases.
type Consume struct {
	Query, Reference int
}

var consume = []Consume{
	CigarMatch:       {Query: 1, Reference: 1},
	CigarInsertion:   {Query: 1, Reference: 0},
	CigarDeletion:    {Query: 0, Reference: 1},
	CigarSkipped:     {Query: 0, Reference: 1},
	CigarSoftClipped: {Query: 1, Reference: 0},
	CigarHardClipped: {Query: 0, Reference: 0},
	CigarPadded:      {Query: 0, Reference: 0},
	CigarEqual:       {Query: 1, Reference: 1},
	CigarMismatch:    {Query: 1, Reference: 1},
	lastCigar:        {},
}

var cigarOpTypeLookup [256]CigarOpType

func init() {
	for i := range cigarOpTypeLookup {
		cigarOpTypeLookup[i] = lastCigar
	}
	for op, c := range []byte(cigarOps[:lastCigar]) {
		cigarOpTypeLookup[c] = CigarOpType(op)
	}
}

// maxCigarLen is the largest operation length representable in BAM.
const maxCigarLen = 1<<28 - 1

// ParseCigar returns a Cigar parsed from the provided byte slice.
// "*" parses to an empty Cigar.
func ParseCigar(b []byte) (Cigar, error) {
	if len(b) == 1 && b[0] == '*' {
		return nil, nil
	}
	var (
		c     Cigar
		n     int
		digit bool
	)
	for i, v := range b {
		if '0' <= v && v <= '9' {
			n = n*10 + int(v-'0')
			if n > maxCigarLen {
				return nil, errors.Errorf("sam: invalid cigar operation count in %q at %d", b, i)
			}
			digit = true
			continue
		}
		op := cigarOpTypeLookup[v]
		if op == lastCigar {
			return nil, errors.Errorf("sam: failed to parse cigar string %q: unknown operation %q", b, v)
		}
		if !digit {
			return nil, errors.Errorf("sam: failed to parse cigar string %q: missing count at %d", b, i)
		}
		c = append(c, NewCigarOp(op, n))
		n, digit = 0, false
	}
	if digit {
		return nil, errors.Errorf("sam: failed to parse cigar string %q: trailing count", b)
	}
	return c, nil
}
