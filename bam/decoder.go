// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/biogo/seqtools/sam"
)

// Decoder decodes a decompressed BAM stream delivered in chunks of any
// size. The header is decoded once, before the first record.
type Decoder struct {
	buf []byte
	off int
	h   *sam.Header
}

// Write appends p to the data waiting to be decoded.
func (d *Decoder) Write(p []byte) (int, error) {
	if d.off != 0 {
		d.buf = append(d.buf[:0], d.buf[d.off:]...)
		d.off = 0
	}
	d.buf = append(d.buf, p...)
	return len(p), nil
}

// Len returns the number of buffered bytes not yet decoded.
func (d *Decoder) Len() int { return len(d.buf) - d.off }

// Header returns the decoded header, or nil if the header has not yet
// been decoded.
func (d *Decoder) Header() *sam.Header { return d.h }

// readHeader decodes the header if it has not yet been decoded.
func (d *Decoder) readHeader() (ok bool, err error) {
	if d.h != nil {
		return true, nil
	}
	h, n, ok, err := DecodeHeader(d.buf[d.off:])
	if !ok || err != nil {
		return false, err
	}
	d.h = h
	d.off += n
	return true, nil
}

// Next returns the next record in the stream. If more input is needed
// to decode the header or the next record, ok is false and err is nil.
func (d *Decoder) Next() (r *Record, ok bool, err error) {
	ok, err = d.readHeader()
	if !ok || err != nil {
		return nil, false, err
	}
	b := d.buf[d.off:]
	if len(b) < lenFieldSize {
		return nil, false, nil
	}
	bs := int(int32(binary.LittleEndian.Uint32(b)))
	if bs < fixedSize {
		return nil, false, errors.Wrapf(ErrBadRecord, "block size %d", bs)
	}
	if len(b) < lenFieldSize+bs {
		return nil, false, nil
	}
	n := lenFieldSize + bs
	r, err = NewRecord(append([]byte(nil), b[:n]...))
	if err != nil {
		return nil, false, err
	}
	d.off += n
	return r, true, nil
}
