// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package alignment defines the contract shared by pairwise alignments,
// whatever their source, and the renderings derived from it: CIGAR
// strings, SAM and PSL lines, pretty printed text and coordinate maps.
package alignment

import (
	"strconv"

	"github.com/pkg/errors"
)

const (
	// DefaultMinIntron is the shortest reference-only gap rendered as
	// a skipped region (N) rather than a deletion (D).
	DefaultMinIntron = 68

	// DefaultWidth is the line width used by PrettyPrint.
	DefaultWidth = 50
)

var (
	ErrMissingQuery     = errors.New("alignment: query sequence not set")
	ErrMissingReference = errors.New("alignment: reference sequence not set")
)

// Block is a half-open interval [Start, End) of 0-based positions.
type Block struct {
	Start, End int
}

// Len returns the length of the block.
func (b Block) Len() int { return b.End - b.Start }

// Overlaps returns whether b and o share at least one position.
func (b Block) Overlaps(o Block) bool {
	return b.Start < o.End && o.Start < b.End
}

func (b Block) String() string {
	return "[" + strconv.Itoa(b.Start) + "," + strconv.Itoa(b.End) + ")"
}

// Direction is the strand of the query relative to the reference.
type Direction byte

const (
	Forward Direction = '+'
	Reverse Direction = '-'
)

func (d Direction) String() string { return string(d) }

// Sequence is a sequence of bases.
type Sequence interface {
	Len() int
	At(i int) byte
	String() string
}

// Alignment is a local pairwise alignment. The query and reference
// blocks returned by Blocks are co-indexed and of equal length: query
// block i is aligned base for base with reference block i. Both lists
// are strictly increasing.
//
// Query coordinates are on the aligned strand: when Direction is
// Reverse they index the reverse complement of the query and
// QuerySequence returns that reverse complement.
type Alignment interface {
	QueryName() string
	ReferenceName() string
	Direction() Direction
	Blocks() (query, reference []Block)

	// QueryLength returns the length of the query including
	// clipped bases.
	QueryLength() int

	// QuerySequence and ReferenceSequence return nil when the
	// sequence is not known.
	QuerySequence() Sequence
	ReferenceSequence() Sequence

	// ReferenceLength returns the length of the reference or -1 if
	// it is not known.
	ReferenceLength() int
}

// Qualifier is implemented by alignments carrying base qualities.
type Qualifier interface {
	// QualityString returns Phred+33 encoded qualities, or the
	// empty string if there are none.
	QualityString() string
}

// Letters is a Sequence held as text.
type Letters []byte

func (l Letters) Len() int       { return len(l) }
func (l Letters) At(i int) byte  { return l[i] }
func (l Letters) String() string { return string(l) }

// sliceOf returns the bases of s in the interval b.
func sliceOf(s Sequence, b Block) string {
	if l, ok := s.(Letters); ok {
		return string(l[b.Start:b.End])
	}
	buf := make([]byte, 0, b.Len())
	for i := b.Start; i < b.End; i++ {
		buf = append(buf, s.At(i))
	}
	return string(buf)
}
