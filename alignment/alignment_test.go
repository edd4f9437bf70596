// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alignment

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	qname, rname string
	dir          Direction
	q, r         []Block
	qlen         int
	qseq, rseq   Sequence
	qual         string
}

func (p *pair) QueryName() string                  { return p.qname }
func (p *pair) ReferenceName() string              { return p.rname }
func (p *pair) Direction() Direction               { return p.dir }
func (p *pair) Blocks() (query, reference []Block) { return p.q, p.r }
func (p *pair) QueryLength() int                   { return p.qlen }
func (p *pair) QuerySequence() Sequence            { return p.qseq }
func (p *pair) ReferenceSequence() Sequence        { return p.rseq }
func (p *pair) QualityString() string              { return p.qual }
func (p *pair) ReferenceLength() int {
	if p.rseq == nil {
		return -1
	}
	return p.rseq.Len()
}

func TestCigar(t *testing.T) {
	for _, test := range []struct {
		name      string
		a         *pair
		minIntron int
		want      string
	}{
		{
			name: "empty",
			a:    &pair{qlen: 10},
			want: "*",
		},
		{
			name: "merged",
			a:    &pair{q: []Block{{0, 2}, {2, 4}}, r: []Block{{7, 9}, {9, 11}}, qlen: 4},
			want: "4M",
		},
		{
			name:      "intron",
			a:         &pair{q: []Block{{2, 5}, {5, 8}, {10, 12}}, r: []Block{{0, 3}, {100, 103}, {103, 105}}, qlen: 14},
			minIntron: DefaultMinIntron,
			want:      "2S3M97N3M2I2M2S",
		},
		{
			name:      "deletion",
			a:         &pair{q: []Block{{2, 5}, {5, 8}, {10, 12}}, r: []Block{{0, 3}, {100, 103}, {103, 105}}, qlen: 14},
			minIntron: 98,
			want:      "2S3M97D3M2I2M2S",
		},
		{
			name:      "deletion then insertion",
			a:         &pair{q: []Block{{0, 21}, {21, 22}, {22, 53}, {54, 96}}, r: []Block{{0, 21}, {23, 24}, {25, 56}, {56, 98}}, qlen: 98},
			minIntron: DefaultMinIntron,
			want:      "21M2D1M1D31M1I42M2S",
		},
		{
			name: "both gaps",
			a:    &pair{q: []Block{{0, 3}, {5, 8}}, r: []Block{{0, 3}, {4, 7}}, qlen: 8},
			want: "3M1D2I3M",
		},
	} {
		minIntron := test.minIntron
		if minIntron == 0 {
			minIntron = DefaultMinIntron
		}
		assert.Equal(t, test.want, Cigar(test.a, minIntron), test.name)
	}
}

func TestSAMLine(t *testing.T) {
	a := &pair{
		qname: "read1",
		rname: "chr1",
		dir:   Reverse,
		q:     []Block{{1, 4}},
		r:     []Block{{9, 12}},
		qlen:  5,
		qseq:  Letters("TACGA"),
		rseq:  Letters(strings.Repeat("N", 9) + "ACGNNNN"),
	}
	assert.Equal(t, "read1\t16\tchr1\t10\t255\t1S3M1S\t*\t0\t16\tTACGA\t*", SAMLine(a, DefaultMinIntron))

	a.qual = "IIIII"
	a.dir = Forward
	a.rseq = nil
	assert.Equal(t, "read1\t0\tchr1\t10\t255\t1S3M1S\t*\t0\t0\tTACGA\tIIIII", SAMLine(a, DefaultMinIntron))

	empty := &pair{qname: "q", rname: "r", dir: Forward}
	assert.Equal(t, "q\t0\tr\t0\t255\t*\t*\t0\t0\t*\t*", SAMLine(empty, DefaultMinIntron))
}

func TestPSLLine(t *testing.T) {
	a := &pair{
		qname: "q",
		rname: "r",
		dir:   Forward,
		q:     []Block{{0, 3}, {3, 8}},
		r:     []Block{{0, 3}, {4, 9}},
		qlen:  8,
		qseq:  Letters("AACCGGTT"),
		rseq:  Letters("aacGGGTTTT"),
	}
	got, err := PSLLine(a)
	require.NoError(t, err)
	assert.Equal(t, "6\t2\t0\t0\t0\t0\t1\t1\t+\tq\t8\t0\t8\tr\t10\t0\t9\t2\t3,5\t0,3\t0,4", got)

	a.qseq = Letters("ANCCGGTT")
	a.dir = Reverse
	a.q = []Block{{0, 3}, {4, 7}}
	a.r = []Block{{0, 3}, {3, 6}}
	got, err = PSLLine(a)
	require.NoError(t, err)
	fields := strings.Split(got, "\t")
	require.Len(t, fields, 21)
	assert.Equal(t, []string{"4", "1", "0", "1", "1", "1", "0", "0", "-"}, fields[:9])
	assert.Equal(t, []string{"1", "8"}, fields[11:13], "reverse strand query coordinates")
	assert.Equal(t, "0,4", fields[19])

	a.rseq = nil
	_, err = PSLLine(a)
	assert.True(t, errors.Is(err, ErrMissingReference))
	a.qseq = nil
	_, err = PSLLine(a)
	assert.True(t, errors.Is(err, ErrMissingQuery))
}

func TestPrettyPrint(t *testing.T) {
	a := &pair{
		dir:  Forward,
		q:    []Block{{0, 4}, {4, 8}},
		r:    []Block{{0, 4}, {5, 9}},
		qlen: 8,
		qseq: Letters("ACGTACGT"),
		rseq: Letters("ACGAACGTT"),
	}
	got, err := PrettyPrint(a, 0)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		"          * *** ",
		"Q + 1: ACGT-ACGT",
		"R   1: ACGAACGTT",
		"",
	}, "\n"), got)

	got, err = PrettyPrint(a, 4)
	require.NoError(t, err)
	lines := strings.Split(got, "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "Q + 5: -ACG", lines[4])
	assert.Equal(t, "R   5: ACGT", lines[5])
	assert.Equal(t, "Q + 8: T", lines[7])
	assert.Equal(t, "R   9: T", lines[8])

	a.rseq = nil
	_, err = PrettyPrint(a, 0)
	assert.True(t, errors.Is(err, ErrMissingReference))
}

func TestMapping(t *testing.T) {
	a := &pair{
		qname: "tx",
		rname: "chr2",
		dir:   Reverse,
		q:     []Block{{0, 21}, {21, 22}, {22, 53}, {54, 96}},
		r:     []Block{{0, 21}, {23, 24}, {25, 56}, {56, 98}},
		qlen:  98,
	}
	m := ReferenceMap(a)
	assert.Equal(t, "tx", m.Name)
	assert.Equal(t, "chr2", m.RefName)
	assert.Equal(t, Reverse, m.Direction)
	assert.Equal(t, 0, m.Start())
	assert.Equal(t, 98, m.End())
	assert.Equal(t, 4, m.ExonCount())
	assert.Equal(t, 95, m.Length())

	s := m.Smooth(2)
	assert.Equal(t, []Block{{0, 98}}, s.Exons)
	assert.Equal(t, 4, m.ExonCount(), "smoothing must not alter the receiver")
	assert.Equal(t, []Block{{0, 21}, {23, 98}}, m.Smooth(1).Exons)

	qm := QueryMap(a)
	assert.Equal(t, "tx", qm.RefName)
	assert.Equal(t, 96, qm.End())

	o := &Mapping{RefName: "chr2", Direction: Forward, Exons: []Block{{21, 23}}}
	assert.False(t, m.Overlaps(o, false), "o lies in the gap")
	o.Exons = []Block{{20, 23}}
	assert.True(t, m.Overlaps(o, false))
	assert.False(t, m.Overlaps(o, true))
	o.RefName = "chr3"
	assert.False(t, m.Overlaps(o, false))

	empty := ReferenceMap(&pair{})
	assert.Equal(t, 0, empty.Start())
	assert.Equal(t, 0, empty.End())
}
