// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"io"

	"github.com/pkg/errors"

	"github.com/biogo/seqtools/bgzf"
	"github.com/biogo/seqtools/sam"
)

// readSize is the size of reads from the decompressed stream.
const readSize = bgzf.MaxDataSize

// Reader implements BAM data reading.
type Reader struct {
	r   io.Reader
	dec Decoder
	buf []byte
	eof bool
}

// NewReader returns a new Reader reading BGZF compressed BAM data from
// r. The header is read before NewReader returns.
func NewReader(r io.Reader) (*Reader, error) {
	return newReader(bgzf.NewReader(r))
}

// NewRawReader returns a new Reader reading uncompressed BAM data
// from r.
func NewRawReader(r io.Reader) (*Reader, error) {
	return newReader(r)
}

func newReader(r io.Reader) (*Reader, error) {
	br := &Reader{r: r, buf: make([]byte, readSize)}
	for {
		ok, err := br.dec.readHeader()
		if err != nil {
			return nil, err
		}
		if ok {
			return br, nil
		}
		if br.eof {
			return nil, errors.Wrap(io.ErrUnexpectedEOF, "bam: reading header")
		}
		if err = br.fill(); err != nil {
			return nil, err
		}
	}
}

// fill reads the next chunk of input into the decoder.
func (br *Reader) fill() error {
	n, err := br.r.Read(br.buf)
	br.dec.Write(br.buf[:n])
	switch err {
	case nil:
	case io.EOF:
		br.eof = true
	default:
		return err
	}
	return nil
}

// Header returns the SAM Header held by the Reader.
func (br *Reader) Header() *sam.Header {
	return br.dec.Header()
}

// ReadRecord returns the next BAM record. At the end of the stream it
// returns io.EOF. A partial record at the end of the stream is
// ErrTruncatedRecord.
func (br *Reader) ReadRecord() (*Record, error) {
	for {
		r, ok, err := br.dec.Next()
		if err != nil {
			return nil, err
		}
		if ok {
			return r, nil
		}
		if br.eof {
			if br.dec.Len() != 0 {
				return nil, errors.Wrapf(ErrTruncatedRecord, "%d trailing bytes", br.dec.Len())
			}
			return nil, io.EOF
		}
		if err = br.fill(); err != nil {
			return nil, err
		}
	}
}

// Read returns the next record in the BAM stream converted to a
// sam.Record.
func (br *Reader) Read() (*sam.Record, error) {
	r, err := br.ReadRecord()
	if err != nil {
		return nil, err
	}
	return r.SAM(br.Header())
}

var _ sam.RecordReader = (*Reader)(nil)
