// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sam implements SAM file format reading and writing. The SAM format
// is described in the SAM specification.
//
// http://samtools.github.io/hts-specs/SAMv1.pdf
package sam

import (
	"bufio"
	"bytes"
	"io"
)

// mandatoryFields is the number of tab separated fields every
// alignment line holds.
const mandatoryFields = 11

// Reader implements SAM format reading.
type Reader struct {
	r *bufio.Reader
	h *Header

	// pending is the first alignment line, read while
	// collecting the header.
	pending []byte
	err     error
}

// NewReader returns a new Reader, reading from the given io.Reader.
// The header is the run of lines preceding the first line with at
// least eleven tab separated fields.
func NewReader(r io.Reader) (*Reader, error) {
	sr := &Reader{r: bufio.NewReader(r)}
	var text []byte
	for {
		line, err := sr.readLine()
		if err != nil {
			if err != io.EOF {
				return nil, err
			}
			sr.err = err
			break
		}
		if bytes.Count(line, []byte{'\t'}) >= mandatoryFields-1 {
			sr.pending = line
			break
		}
		text = append(text, line...)
		text = append(text, '\n')
	}
	var err error
	sr.h, err = NewHeader(text, nil)
	if err != nil {
		return nil, err
	}
	return sr, nil
}

// readLine returns the next line without its line ending. A final line
// without a newline is returned with a nil error.
func (r *Reader) readLine() ([]byte, error) {
	b, err := r.r.ReadBytes('\n')
	if err == io.EOF && len(b) != 0 {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	b = bytes.TrimSuffix(b, []byte{'\n'})
	b = bytes.TrimSuffix(b, []byte{'\r'})
	return b, nil
}

// Header returns the SAM Header held by the Reader.
func (r *Reader) Header() *Header {
	return r.h
}

// Read returns the next sam.Record in the SAM stream. Blank lines are
// skipped. At the end of the stream Read returns io.EOF.
func (r *Reader) Read() (*Record, error) {
	for {
		var line []byte
		switch {
		case r.pending != nil:
			line, r.pending = r.pending, nil
		case r.err != nil:
			return nil, r.err
		default:
			line, r.err = r.readLine()
			if r.err != nil {
				return nil, r.err
			}
		}
		if len(line) == 0 {
			continue
		}
		return ParseRecord(line)
	}
}

// RecordReader wraps types that can read SAM Records.
type RecordReader interface {
	Read() (*Record, error)
}

// Iterator wraps a Reader to provide a convenient loop interface for reading SAM/BAM data.
// Successive calls to the Next method will step through the features of the provided
// Reader. Iteration stops unrecoverably at EOF or the first error.
type Iterator struct {
	r   RecordReader
	rec *Record
	err error
}

// NewIterator returns a Iterator to read from r.
//
//	i := NewIterator(r)
//	for i.Next() {
//		fn(i.Record())
//	}
//	return i.Error()
func NewIterator(r RecordReader) *Iterator { return &Iterator{r: r} }

// Next advances the Iterator past the next record, which will then be available through
// the Record method. It returns false when the iteration stops, either by reaching the end of the
// input or an error. After Next returns false, the Error method will return any error that
// occurred during iteration, except that if it was io.EOF, Error will return nil.
func (i *Iterator) Next() bool {
	if i.err != nil {
		return false
	}
	i.rec, i.err = i.r.Read()
	return i.err == nil
}

// Error returns the first non-EOF error that was encountered by the Iterator.
func (i *Iterator) Error() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Record returns the most recent record read by a call to Next.
func (i *Iterator) Record() *Record { return i.rec }

// Writer implements SAM format writing.
type Writer struct {
	w   io.Writer
	buf []byte
}

// NewWriter returns a Writer to the given io.Writer, writing the text
// of h first. A nil Header writes no header.
func NewWriter(w io.Writer, h *Header) (*Writer, error) {
	sw := &Writer{w: w}
	if h == nil {
		return sw, nil
	}
	text, err := h.MarshalText()
	if err != nil {
		return nil, err
	}
	if len(text) != 0 && text[len(text)-1] != '\n' {
		text = append(text, '\n')
	}
	_, err = w.Write(text)
	if err != nil {
		return nil, err
	}
	return sw, nil
}

// Write writes r to the SAM stream.
func (w *Writer) Write(r *Record) error {
	if r.Qual != nil && r.Seq != nil && len(r.Qual) != len(r.Seq) {
		return errSeqQualMismatch
	}
	w.buf = append(r.appendSAM(w.buf[:0]), '\n')
	_, err := w.w.Write(w.buf)
	return err
}
