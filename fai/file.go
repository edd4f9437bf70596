// Copyright ©2020 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package fai

import (
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/biogo/seqtools/internal/fileio"
	"github.com/biogo/seqtools/seq"
)

// File is a sequence file with an FAI index.
type File struct {
	r   io.ReaderAt
	in  *fileio.Input
	idx Index
}

// NewFile returns a File reading sequence data from r using idx.
func NewFile(r io.ReaderAt, idx Index) *File {
	return &File{r: r, idx: idx}
}

// Open memory maps the FASTA file at path. The index is read from
// path+".fai" when that file exists and is built from the sequence
// data otherwise.
func Open(path string) (*File, error) {
	in, err := fileio.Open(path, nil)
	if err != nil {
		return nil, err
	}
	m, _ := in.ReaderAt()
	var idx Index
	fi, err := os.Open(path + ".fai")
	switch {
	case err == nil:
		idx, err = ReadFrom(fi)
		fi.Close()
	case os.IsNotExist(err):
		idx, err = NewIndex(io.NewSectionReader(m, 0, int64(m.Len())))
	}
	if err != nil {
		in.Close()
		return nil, errors.Wrapf(err, "fai: index %s", path)
	}
	return &File{r: m, in: in, idx: idx}, nil
}

// Index returns the index of f.
func (f *File) Index() Index { return f.idx }

// Close releases resources held by f. Sequences already returned
// remain valid.
func (f *File) Close() error {
	var err error
	if f.in != nil {
		err = f.in.Close()
	}
	*f = File{}
	return err
}

// Sequence returns the complete sequence identified by name.
func (f *File) Sequence(name string) (*seq.Sequence, error) {
	rec, ok := f.idx[name]
	if !ok {
		return nil, errors.Wrapf(ErrNoSequence, "%q", name)
	}
	return f.SequenceRange(name, 0, rec.Length)
}

// SequenceRange returns the bases [start, end) of the sequence
// identified by name. The returned sequence carries the name.
func (f *File) SequenceRange(name string, start, end int) (*seq.Sequence, error) {
	rec, ok := f.idx[name]
	if !ok {
		return nil, errors.Wrapf(ErrNoSequence, "%q", name)
	}
	if start < 0 || end < start || rec.Length < end {
		return nil, errors.Wrapf(ErrOutOfRange, "[%d,%d) of %q with length %d", start, end, name, rec.Length)
	}
	b := make([]byte, end-start)
	for i, p := 0, start; p < end; {
		n := min(rec.endOfLineOffset(p), end-p)
		got, err := f.r.ReadAt(b[i:i+n], rec.position(p))
		if got < n {
			if err == nil || err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, errors.Wrapf(err, "fai: reading %q at %d", name, p)
		}
		i += n
		p += n
	}
	return seq.New(name, string(b)), nil
}
