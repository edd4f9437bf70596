// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package fileio opens command inputs and outputs. Named input files
// are memory mapped; the name "-" refers to the standard streams.
package fileio

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/exp/mmap"

	"github.com/biogo/seqtools/bgzf"
)

// Stdio is the file name referring to standard input or output.
const Stdio = "-"

// Input is a readable command input.
type Input struct {
	name string

	// m is nil for streamed input.
	m *mmap.ReaderAt
	r io.Reader
}

// Open opens the named input. If name is Stdio, stdin is used and the
// Input does not support random access.
func Open(name string, stdin io.Reader) (*Input, error) {
	if name == Stdio {
		return &Input{name: name, r: stdin}, nil
	}
	m, err := mmap.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "fileio: open %s", name)
	}
	return &Input{name: name, m: m, r: io.NewSectionReader(m, 0, int64(m.Len()))}, nil
}

// Name returns the name the Input was opened with.
func (in *Input) Name() string { return in.name }

// Read implements io.Reader.
func (in *Input) Read(p []byte) (int, error) { return in.r.Read(p) }

// ReaderAt returns the mapped file and true, or nil and false for
// streamed input.
func (in *Input) ReaderAt() (*mmap.ReaderAt, bool) { return in.m, in.m != nil }

// HasBGZFEOF reports whether the input ends with a BGZF EOF marker.
// Streamed input is not checked and reports true.
func (in *Input) HasBGZFEOF() (bool, error) {
	if in.m == nil {
		return true, nil
	}
	return bgzf.HasEOF(in.m)
}

// Close releases the mapping. Standard input is not closed.
func (in *Input) Close() error {
	if in.m == nil {
		return nil
	}
	return in.m.Close()
}

// Create returns a writer for the named output. If name is Stdio or
// empty, stdout is returned with a no-op Close.
func Create(name string, stdout io.Writer) (io.WriteCloser, error) {
	if name == Stdio || name == "" {
		return nopCloser{stdout}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, errors.Wrapf(err, "fileio: create %s", name)
	}
	return f, nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
