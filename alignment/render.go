// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package alignment

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Cigar returns the CIGAR string describing a. Leading and trailing
// unaligned query bases are soft clipped. Reference-only gaps of at
// least minIntron bases are skipped regions (N), shorter ones are
// deletions (D). Query-only gaps are insertions (I). An alignment
// without blocks is "*".
func Cigar(a Alignment, minIntron int) string {
	q, r := a.Blocks()
	if len(q) == 0 {
		return "*"
	}
	var sb strings.Builder
	op := func(n int, c byte) {
		if n > 0 {
			sb.WriteString(strconv.Itoa(n))
			sb.WriteByte(c)
		}
	}

	op(q[0].Start, 'S')
	run := q[0].Len()
	for i := 1; i < len(q); i++ {
		qgap := q[i].Start - q[i-1].End
		rgap := r[i].Start - r[i-1].End
		if qgap == 0 && rgap == 0 {
			run += q[i].Len()
			continue
		}
		op(run, 'M')
		if rgap >= minIntron {
			op(rgap, 'N')
		} else {
			op(rgap, 'D')
		}
		op(qgap, 'I')
		run = q[i].Len()
	}
	op(run, 'M')
	op(a.QueryLength()-q[len(q)-1].End, 'S')
	return sb.String()
}

// SAMLine returns a SAM record line for a without a trailing newline.
// MAPQ is 255 and the mate fields are unset. TLEN is the reference
// length when it is known.
func SAMLine(a Alignment, minIntron int) string {
	_, r := a.Blocks()
	flag, pos := 0, 0
	if a.Direction() == Reverse {
		flag = 16
	}
	if len(r) != 0 {
		pos = r[0].Start + 1
	}
	tlen := a.ReferenceLength()
	if tlen < 0 {
		tlen = 0
	}
	seq := "*"
	if s := a.QuerySequence(); s != nil && s.Len() != 0 {
		seq = s.String()
	}
	qual := "*"
	if q, ok := a.(Qualifier); ok && q.QualityString() != "" {
		qual = q.QualityString()
	}
	return strings.Join([]string{
		a.QueryName(),
		strconv.Itoa(flag),
		a.ReferenceName(),
		strconv.Itoa(pos),
		"255",
		Cigar(a, minIntron),
		"*",
		"0",
		strconv.Itoa(tlen),
		seq,
		qual,
	}, "\t")
}

// PSLLine returns the 21 column PSL line for a without a trailing
// newline. Both sequences must be available. Aligned bases are
// compared ignoring case and any pair involving N is counted as N
// rather than as a match or mismatch.
func PSLLine(a Alignment) (string, error) {
	qs, rs := a.QuerySequence(), a.ReferenceSequence()
	if qs == nil {
		return "", errors.Wrap(ErrMissingQuery, "psl")
	}
	if rs == nil {
		return "", errors.Wrap(ErrMissingReference, "psl")
	}
	q, r := a.Blocks()

	var matches, mismatches, ns int
	for i := range q {
		for k := 0; k < q[i].Len(); k++ {
			qb := upper(qs.At(q[i].Start + k))
			rb := upper(rs.At(r[i].Start + k))
			switch {
			case qb == 'N' || rb == 'N':
				ns++
			case qb == rb:
				matches++
			default:
				mismatches++
			}
		}
	}
	var qNumInsert, qBaseInsert, tNumInsert, tBaseInsert int
	for i := 1; i < len(q); i++ {
		if gap := q[i].Start - q[i-1].End; gap > 0 {
			qNumInsert++
			qBaseInsert += gap
		}
		if gap := r[i].Start - r[i-1].End; gap > 0 {
			tNumInsert++
			tBaseInsert += gap
		}
	}

	qSize := a.QueryLength()
	var qStart, qEnd, tStart, tEnd int
	if len(q) != 0 {
		qStart, qEnd = q[0].Start, q[len(q)-1].End
		if a.Direction() == Reverse {
			qStart, qEnd = qSize-qEnd, qSize-qStart
		}
		tStart, tEnd = r[0].Start, r[len(r)-1].End
	}
	sizes := make([]int, len(q))
	qStarts := make([]int, len(q))
	tStarts := make([]int, len(r))
	for i := range q {
		sizes[i] = q[i].Len()
		qStarts[i] = q[i].Start
		tStarts[i] = r[i].Start
	}

	return strings.Join([]string{
		strconv.Itoa(matches),
		strconv.Itoa(mismatches),
		"0",
		strconv.Itoa(ns),
		strconv.Itoa(qNumInsert),
		strconv.Itoa(qBaseInsert),
		strconv.Itoa(tNumInsert),
		strconv.Itoa(tBaseInsert),
		a.Direction().String(),
		a.QueryName(),
		strconv.Itoa(qSize),
		strconv.Itoa(qStart),
		strconv.Itoa(qEnd),
		a.ReferenceName(),
		strconv.Itoa(rs.Len()),
		strconv.Itoa(tStart),
		strconv.Itoa(tEnd),
		strconv.Itoa(len(q)),
		joinInts(sizes),
		joinInts(qStarts),
		joinInts(tStarts),
	}, "\t"), nil
}

func upper(b byte) byte {
	if 'a' <= b && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ",")
}

// PrettyPrint returns a gapped rendering of a wrapped at width columns.
// Each row is three lines: a line marking mismatched columns with '*',
// the query line prefixed with "Q", the direction and the 1-based
// position of its first base, and the reference line prefixed with "R"
// and its position. A width less than one uses DefaultWidth.
func PrettyPrint(a Alignment, width int) (string, error) {
	qs, rs := a.QuerySequence(), a.ReferenceSequence()
	if qs == nil {
		return "", errors.Wrap(ErrMissingQuery, "pretty print")
	}
	if rs == nil {
		return "", errors.Wrap(ErrMissingReference, "pretty print")
	}
	if width < 1 {
		width = DefaultWidth
	}
	q, r := a.Blocks()
	if len(q) == 0 {
		return "", nil
	}

	var qlong, rlong bytes.Buffer
	for i := range q {
		if i > 0 {
			if gap := (Block{q[i-1].End, q[i].Start}); gap.Len() > 0 {
				qlong.WriteString(sliceOf(qs, gap))
				rlong.WriteString(strings.Repeat("-", gap.Len()))
			}
			if gap := (Block{r[i-1].End, r[i].Start}); gap.Len() > 0 {
				qlong.WriteString(strings.Repeat("-", gap.Len()))
				rlong.WriteString(sliceOf(rs, gap))
			}
		}
		qlong.WriteString(sliceOf(qs, q[i]))
		rlong.WriteString(sliceOf(rs, r[i]))
	}

	var sb strings.Builder
	qtext, rtext := qlong.Bytes(), rlong.Bytes()
	qpos, rpos := q[0].Start+1, r[0].Start+1
	for off := 0; off < len(qtext); off += width {
		end := off + width
		if end > len(qtext) {
			end = len(qtext)
		}
		qrow, rrow := qtext[off:end], rtext[off:end]

		digits := len(strconv.Itoa(max(qpos, rpos)))
		sb.WriteString(strings.Repeat(" ", len("Q + ")+digits+len(": ")))
		for j := range qrow {
			if qrow[j] != '-' && rrow[j] != '-' && qrow[j] != rrow[j] {
				sb.WriteByte('*')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
		sb.WriteString("Q " + a.Direction().String() + " " + pad(qpos, digits) + ": ")
		sb.Write(qrow)
		sb.WriteByte('\n')
		sb.WriteString("R   " + pad(rpos, digits) + ": ")
		sb.Write(rrow)
		sb.WriteByte('\n')

		qpos += len(qrow) - bytes.Count(qrow, []byte{'-'})
		rpos += len(rrow) - bytes.Count(rrow, []byte{'-'})
	}
	return sb.String(), nil
}

func pad(n, digits int) string {
	s := strconv.Itoa(n)
	if len(s) < digits {
		s = strings.Repeat(" ", digits-len(s)) + s
	}
	return s
}
