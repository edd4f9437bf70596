// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package align implements Smith-Waterman local alignment of a query
// sequence against a reference on both strands of the query.
package align

import (
	"sort"
	"sync"

	"github.com/biogo/seqtools/alignment"
	"github.com/biogo/seqtools/seq"
)

// Options holds the scoring parameters of an Aligner. Zero valued
// fields take their value from DefaultOptions.
type Options struct {
	Match     int
	Mismatch  int
	GapOpen   int
	GapExtend int

	// MaxGap is the longest gap considered when scoring a cell.
	MaxGap int
}

// DefaultOptions are the default scoring parameters.
var DefaultOptions = Options{
	Match:     2,
	Mismatch:  -2,
	GapOpen:   -5,
	GapExtend: -2,
	MaxGap:    10,
}

// Aligner performs local alignments. It holds no state beyond its
// options and is safe for concurrent use.
type Aligner struct {
	opts Options
}

// New returns an Aligner using the given options.
func New(opts Options) *Aligner {
	def := DefaultOptions
	for _, f := range []struct{ v, d *int }{
		{&opts.Match, &def.Match},
		{&opts.Mismatch, &def.Mismatch},
		{&opts.GapOpen, &def.GapOpen},
		{&opts.GapExtend, &def.GapExtend},
		{&opts.MaxGap, &def.MaxGap},
	} {
		if *f.v == 0 {
			*f.v = *f.d
		}
	}
	return &Aligner{opts: opts}
}

// Options returns the options in use by a.
func (a *Aligner) Options() Options { return a.opts }

// matrix is a dense score matrix with one row per query base and one
// column per reference base. Row i scores reference position i and
// column j scores query position j.
type matrix struct {
	rows, cols int
	cells      []int
}

func newMatrix(rows, cols int) *matrix {
	return &matrix{rows: rows, cols: cols, cells: make([]int, rows*cols)}
}

func (m *matrix) at(i, j int) int     { return m.cells[i*m.cols+j] }
func (m *matrix) set(i, j int, v int) { m.cells[i*m.cols+j] = v }

// predecessor returns the traceback step from (i, j). Ties prefer the
// diagonal, then the row above.
func (m *matrix) predecessor(i, j int) (ni, nj, score int) {
	var row, col, diag int
	if i > 0 {
		row = m.at(i-1, j)
	}
	if j > 0 {
		col = m.at(i, j-1)
	}
	if i > 0 && j > 0 {
		diag = m.at(i-1, j-1)
	}
	switch {
	case diag >= row && diag >= col:
		return i - 1, j - 1, diag
	case row >= col:
		return i - 1, j, row
	default:
		return i, j - 1, col
	}
}

// Align aligns query and its reverse complement against reference.
func (a *Aligner) Align(query, reference *seq.Sequence) *Results {
	rc := query.ReverseComplement()
	return &Results{
		query:     query,
		queryRC:   rc,
		reference: reference,
		fwd:       a.fill(query, reference),
		rev:       a.fill(rc, reference),
	}
}

func (a *Aligner) fill(query, reference *seq.Sequence) *matrix {
	m := newMatrix(query.Len(), reference.Len())
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			var diag int
			if i > 0 && j > 0 {
				diag = m.at(i-1, j-1)
			}
			best := diag + a.substitution(reference, i, query, j)
			if v := a.rowGap(m, i, j); v > best {
				best = v
			}
			if v := a.colGap(m, i, j); v > best {
				best = v
			}
			if best < 0 {
				best = 0
			}
			m.set(i, j, best)
		}
	}
	return m
}

// substitution returns the score for aligning reference position i
// with query position j. Positions past the end of either sequence
// never match.
func (a *Aligner) substitution(reference *seq.Sequence, i int, query *seq.Sequence, j int) int {
	if i < reference.Len() && j < query.Len() && reference.At(i) == query.At(j) {
		return a.opts.Match
	}
	return a.opts.Mismatch
}

func (a *Aligner) rowGap(m *matrix, i, j int) int {
	if i == 0 {
		return 0
	}
	best := m.at(i-1, j) + a.opts.GapOpen
	for k := max(0, i-a.opts.MaxGap); k < i; k++ {
		if v := m.at(k, j) + a.opts.GapOpen + (i-k-1)*a.opts.GapExtend; v > best {
			best = v
		}
	}
	return best
}

func (a *Aligner) colGap(m *matrix, i, j int) int {
	if j == 0 {
		return 0
	}
	best := m.at(i, j-1) + a.opts.GapOpen
	for k := max(0, j-a.opts.MaxGap); k < j; k++ {
		if v := m.at(i, k) + a.opts.GapOpen + (j-k-1)*a.opts.GapExtend; v > best {
			best = v
		}
	}
	return best
}

// cell is a ranked matrix position.
type cell struct {
	row, col int
	score    int
	dir      alignment.Direction
}

// Results holds the score matrices of an alignment of both strands of
// a query against a reference.
type Results struct {
	query, queryRC *seq.Sequence
	reference      *seq.Sequence

	fwd, rev *matrix

	once   sync.Once
	ranked []cell
}

// rank orders every cell of both matrices by descending score. Equal
// scores keep forward cells before reverse cells, each in row-major
// order.
func (r *Results) rank() {
	r.once.Do(func() {
		r.ranked = make([]cell, 0, len(r.fwd.cells)+len(r.rev.cells))
		for _, s := range []struct {
			m   *matrix
			dir alignment.Direction
		}{
			{r.fwd, alignment.Forward},
			{r.rev, alignment.Reverse},
		} {
			for i := 0; i < s.m.rows; i++ {
				for j := 0; j < s.m.cols; j++ {
					r.ranked = append(r.ranked, cell{row: i, col: j, score: s.m.at(i, j), dir: s.dir})
				}
			}
		}
		sort.SliceStable(r.ranked, func(i, j int) bool {
			return r.ranked[i].score > r.ranked[j].score
		})
	})
}

// Len returns the number of ranked cells.
func (r *Results) Len() int {
	r.rank()
	return len(r.ranked)
}

// Entry returns the alignment ending at the k-th best scoring cell.
// It panics if k is out of range.
func (r *Results) Entry(k int) *Alignment {
	r.rank()
	return r.traceback(r.ranked[k])
}

// Best returns the highest scoring alignment. If either sequence is
// empty the returned alignment has no blocks.
func (r *Results) Best() *Alignment {
	if r.Len() == 0 {
		return &Alignment{query: r.query, reference: r.reference, dir: alignment.Forward}
	}
	return r.Entry(0)
}

const (
	pair          = iota // query and reference bases aligned
	queryOnly            // query base against a reference gap
	referenceOnly        // reference base against a query gap
)

func (r *Results) traceback(c cell) *Alignment {
	h, query := r.fwd, r.query
	if c.dir == alignment.Reverse {
		h, query = r.rev, r.queryRC
	}

	// moves is filled from the end of the alignment backwards.
	var moves []byte
	i, j, score := c.row, c.col, c.score
	isave, jsave := i, j
	for score > 0 && i >= 0 && j >= 0 {
		isave, jsave = i, j
		var ni, nj int
		ni, nj, score = h.predecessor(i, j)
		switch {
		case ni == i:
			moves = append(moves, queryOnly)
		case nj == j:
			moves = append(moves, referenceOnly)
		default:
			moves = append(moves, pair)
		}
		i, j = ni, nj
	}

	var q, ref []alignment.Block
	qi, ri := jsave, isave
	open := false
	for k := len(moves) - 1; k >= 0; k-- {
		switch moves[k] {
		case pair:
			if open {
				q[len(q)-1].End++
				ref[len(ref)-1].End++
			} else {
				q = append(q, alignment.Block{Start: qi, End: qi + 1})
				ref = append(ref, alignment.Block{Start: ri, End: ri + 1})
				open = true
			}
			qi++
			ri++
		case queryOnly:
			open = false
			qi++
		case referenceOnly:
			open = false
			ri++
		}
	}
	q, ref = clip(q, ref, query.Len(), r.reference.Len())

	return &Alignment{
		query:     query,
		reference: r.reference,
		dir:       c.dir,
		q:         q,
		r:         ref,
		score:     c.score,
	}
}

// clip trims co-indexed blocks to lie within sequences of length qlen
// and rlen, dropping blocks that become empty.
func clip(q, r []alignment.Block, qlen, rlen int) (cq, cr []alignment.Block) {
	for k := range q {
		n := min(q[k].Len(), qlen-q[k].Start, rlen-r[k].Start)
		if n <= 0 {
			continue
		}
		cq = append(cq, alignment.Block{Start: q[k].Start, End: q[k].Start + n})
		cr = append(cr, alignment.Block{Start: r[k].Start, End: r[k].Start + n})
	}
	return cq, cr
}

// Alignment is a single local alignment taken from Results. When its
// direction is reverse, query coordinates and the query sequence refer
// to the reverse complement of the query.
type Alignment struct {
	query     *seq.Sequence
	reference *seq.Sequence
	dir       alignment.Direction
	q, r      []alignment.Block
	score     int
}

var _ alignment.Alignment = (*Alignment)(nil)

// Score returns the score of the cell the alignment ends at.
func (a *Alignment) Score() int { return a.score }

func (a *Alignment) QueryName() string              { return a.query.Name() }
func (a *Alignment) ReferenceName() string          { return a.reference.Name() }
func (a *Alignment) Direction() alignment.Direction { return a.dir }
func (a *Alignment) QueryLength() int               { return a.query.Len() }
func (a *Alignment) ReferenceLength() int           { return a.reference.Len() }

func (a *Alignment) Blocks() (query, reference []alignment.Block) { return a.q, a.r }

func (a *Alignment) QuerySequence() alignment.Sequence     { return a.query }
func (a *Alignment) ReferenceSequence() alignment.Sequence { return a.reference }
