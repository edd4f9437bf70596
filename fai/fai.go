// Copyright ©2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fai implements FAI indexed FASTA sequence files, giving
// random access to named sequences.
package fai

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrNonUnique  = errors.New("fai: non-unique record name")
	ErrBadLine    = errors.New("fai: irregular sequence line")
	ErrBadIndex   = errors.New("fai: invalid index line")
	ErrNoSequence = errors.New("fai: no sequence")
	ErrOutOfRange = errors.New("fai: index out of range")
)

// Index is an FAI index.
type Index map[string]Record

// Names returns the names of the indexed sequences in file order.
func (idx Index) Names() []string {
	recs := make([]Record, 0, len(idx))
	for _, r := range idx {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Start < recs[j].Start })
	names := make([]string, len(recs))
	for i, r := range recs {
		names[i] = r.Name
	}
	return names
}

// NewIndex returns a new Index constructed from the FASTA sequence
// in the provided io.Reader. Every line of a sequence but the last
// must have the same length.
func NewIndex(fasta io.Reader) (Index, error) {
	br := bufio.NewReader(fasta)
	idx := make(Index)
	var (
		rec    Record
		offset int64
		short  bool
	)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) != 0 {
			b := bytes.TrimSpace(line)
			switch {
			case len(b) == 0:
			case b[0] == '>':
				if rec.Name != "" {
					idx[rec.Name] = rec
				}
				f := bytes.Fields(b[1:])
				if len(f) == 0 {
					return nil, errors.Wrapf(ErrBadLine, "unnamed sequence at offset %d", offset)
				}
				rec = Record{Name: string(f[0]), Start: offset + int64(len(line))}
				if _, exists := idx[rec.Name]; exists {
					return nil, errors.Wrapf(ErrNonUnique, "%q at offset %d", rec.Name, offset)
				}
				short = false
			default:
				switch {
				case rec.Name == "":
					return nil, errors.Wrapf(ErrBadLine, "sequence before header at offset %d", offset)
				case short:
					return nil, errors.Wrapf(ErrBadLine, "unexpected short line before offset %d", offset)
				case rec.BasesPerLine == 0:
					rec.BasesPerLine = len(b)
					rec.BytesPerLine = len(line)
				case len(b) > rec.BasesPerLine || len(line) > rec.BytesPerLine:
					return nil, errors.Wrapf(ErrBadLine, "unexpected long line at offset %d", offset)
				case len(b) < rec.BasesPerLine:
					short = true
				}
				rec.Length += len(b)
			}
			offset += int64(len(line))
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	if rec.Name != "" {
		idx[rec.Name] = rec
	}
	return idx, nil
}

// Record is a single FAI index record.
type Record struct {
	// Name is the name of the sequence.
	Name string
	// Length is the length of the sequence.
	Length int
	// Start is the starting seek offset of
	// the sequence.
	Start int64
	// BasesPerLine is the number of sequences
	// bases per line.
	BasesPerLine int
	// BytesPerLine is the number of bytes
	// used to represent each line.
	BytesPerLine int
}

// Position returns the seek offset of the sequence position p for the
// given Record.
func (r Record) Position(p int) int64 {
	if p < 0 || r.Length <= p {
		panic("fai: index out of range")
	}
	return r.position(p)
}

func (r Record) position(p int) int64 {
	return r.Start + int64(p/r.BasesPerLine*r.BytesPerLine+p%r.BasesPerLine)
}

// endOfLineOffset returns the number of bases until the end of the
// line holding position p.
func (r Record) endOfLineOffset(p int) int {
	if p/r.BasesPerLine == r.Length/r.BasesPerLine {
		return r.Length - p
	}
	return r.BasesPerLine - p%r.BasesPerLine
}

// ReadFrom returns an Index from the stream provided by an io.Reader.
// Each line holds the five tab separated FAI fields.
func ReadFrom(r io.Reader) (Index, error) {
	sc := bufio.NewScanner(r)
	var idx Index
	for line := 1; sc.Scan(); line++ {
		f := strings.Split(sc.Text(), "\t")
		if len(f) != 5 {
			return nil, errors.Wrapf(ErrBadIndex, "line %d: %d fields", line, len(f))
		}
		var v [4]int64
		for i, s := range f[1:] {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil || n < 0 {
				return nil, errors.Wrapf(ErrBadIndex, "line %d: field %d %q", line, i+2, s)
			}
			v[i] = n
		}
		if v[0] != 0 && (v[2] == 0 || v[3] < v[2]) {
			return nil, errors.Wrapf(ErrBadIndex, "line %d: line lengths %d/%d", line, v[2], v[3])
		}
		if idx == nil {
			idx = make(Index)
		} else if _, exists := idx[f[0]]; exists {
			return nil, errors.Wrapf(ErrNonUnique, "line %d: %q", line, f[0])
		}
		idx[f[0]] = Record{
			Name:         f[0],
			Length:       int(v[0]),
			Start:        v[1],
			BasesPerLine: int(v[2]),
			BytesPerLine: int(v[3]),
		}
	}
	return idx, sc.Err()
}

// WriteTo writes the the given index to w in order of ascending start position.
func WriteTo(w io.Writer, idx Index) error {
	for _, name := range idx.Names() {
		r := idx[name]
		_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\n", r.Name, r.Length, r.Start, r.BasesPerLine, r.BytesPerLine)
		if err != nil {
			return err
		}
	}
	return nil
}
