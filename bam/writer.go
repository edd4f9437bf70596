// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"io"

	"github.com/biogo/seqtools/bgzf"
	"github.com/biogo/seqtools/sam"
)

// Writer implements BAM data writing.
type Writer struct {
	h  *sam.Header
	bg *bgzf.Writer
}

// NewWriter returns a new Writer using the given SAM header and
// compressing at bgzf.DefaultLevel.
func NewWriter(w io.Writer, h *sam.Header) (*Writer, error) {
	return NewWriterLevel(w, h, bgzf.DefaultLevel)
}

func makeWriter(w io.Writer, level int) (*bgzf.Writer, error) {
	if bw, ok := w.(*bgzf.Writer); ok {
		return bw, nil
	}
	return bgzf.NewWriterLevel(w, level)
}

// NewWriterLevel returns a new Writer using the given SAM header and
// compression level. Valid values for level are described in the
// compress/flate documentation. If w is a *bgzf.Writer it is used
// directly and level is ignored.
func NewWriterLevel(w io.Writer, h *sam.Header, level int) (*Writer, error) {
	if h == nil {
		return nil, ErrMissingHeader
	}
	bg, err := makeWriter(w, level)
	if err != nil {
		return nil, err
	}
	b, err := EncodeHeader(h)
	if err != nil {
		return nil, err
	}
	if _, err = bg.Write(b); err != nil {
		return nil, err
	}
	return &Writer{h: h, bg: bg}, nil
}

// Write writes r to the BAM stream.
func (bw *Writer) Write(r *sam.Record) error {
	rec, err := Marshal(r, bw.h)
	if err != nil {
		return err
	}
	return bw.WriteRecord(rec)
}

// WriteRecord writes an encoded record to the BAM stream.
func (bw *Writer) WriteRecord(r *Record) error {
	_, err := bw.bg.Write(r.Bytes())
	return err
}

// Close flushes buffered data and writes the BGZF EOF marker. It does
// not close the underlying io.Writer.
func (bw *Writer) Close() error {
	return bw.bg.Close()
}
