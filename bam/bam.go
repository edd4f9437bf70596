// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bam implements the BAM binary alignment format: the header
// and record codecs, a streaming decoder, and readers and writers over
// BGZF. The BAM format is described in the SAM specification.
//
// http://samtools.github.io/hts-specs/SAMv1.pdf
package bam

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/biogo/seqtools/sam"
)

const bamMagic = "BAM\x01"

var (
	ErrBadMagic        = errors.New("bam: magic number mismatch")
	ErrBadName         = errors.New("bam: invalid name")
	ErrMissingHeader   = errors.New("bam: missing header")
	ErrTruncatedRecord = errors.New("bam: truncated record")
	ErrBadRecord       = errors.New("bam: invalid record")
)

// DecodeHeader decodes the BAM header at the start of b, returning the
// header and the number of bytes it occupies. If b does not yet hold
// the complete header, ok is false and err is nil.
func DecodeHeader(b []byte) (h *sam.Header, n int, ok bool, err error) {
	m := len(b)
	if m > len(bamMagic) {
		m = len(bamMagic)
	}
	if string(b[:m]) != bamMagic[:m] {
		return nil, 0, false, ErrBadMagic
	}
	d := decoder{b: b, off: len(bamMagic)}
	lText, ok := d.int32()
	if !ok {
		return nil, 0, false, nil
	}
	if lText < 0 {
		return nil, 0, false, errors.Wrapf(ErrBadRecord, "negative header text length %d", lText)
	}
	text, ok := d.bytes(int(lText))
	if !ok {
		return nil, 0, false, nil
	}
	nRef, ok := d.int32()
	if !ok {
		return nil, 0, false, nil
	}
	if nRef < 0 {
		return nil, 0, false, errors.Wrapf(ErrBadRecord, "negative reference count %d", nRef)
	}
	refs := make([]*sam.Reference, 0, nRef)
	for i := 0; i < int(nRef); i++ {
		lName, ok := d.int32()
		if !ok {
			return nil, 0, false, nil
		}
		if lName < 1 {
			return nil, 0, false, errors.Wrapf(ErrBadName, "reference %d name length %d", i, lName)
		}
		name, ok := d.bytes(int(lName))
		if !ok {
			return nil, 0, false, nil
		}
		if name[lName-1] != 0 {
			return nil, 0, false, errors.Wrapf(ErrBadName, "reference %d name not NUL terminated", i)
		}
		lRef, ok := d.int32()
		if !ok {
			return nil, 0, false, nil
		}
		ref, err := sam.NewReference(string(name[:lName-1]), int(lRef))
		if err != nil {
			return nil, 0, false, errors.Wrapf(err, "bam: reference %d", i)
		}
		refs = append(refs, ref)
	}
	h, err = sam.NewHeader(bytes.TrimRight(text, "\x00"), refs)
	if err != nil {
		return nil, 0, false, err
	}
	return h, d.off, true, nil
}

// EncodeHeader returns the BAM encoding of h.
func EncodeHeader(h *sam.Header) ([]byte, error) {
	if h == nil {
		return nil, ErrMissingHeader
	}
	text, err := h.MarshalText()
	if err != nil {
		return nil, err
	}
	b := append([]byte(nil), bamMagic...)
	b = appendInt32(b, int32(len(text)))
	b = append(b, text...)
	b = appendInt32(b, int32(len(h.Refs())))
	for _, r := range h.Refs() {
		b = appendInt32(b, int32(len(r.Name())+1))
		b = append(b, r.Name()...)
		b = append(b, 0)
		b = appendInt32(b, int32(r.Len()))
	}
	return b, nil
}

// decoder is a bounds checked little-endian cursor.
type decoder struct {
	b   []byte
	off int
}

func (d *decoder) bytes(n int) ([]byte, bool) {
	if n < 0 || len(d.b)-d.off < n {
		return nil, false
	}
	s := d.b[d.off : d.off+n]
	d.off += n
	return s, true
}

func (d *decoder) int32() (int32, bool) {
	s, ok := d.bytes(4)
	if !ok {
		return 0, false
	}
	return int32(binary.LittleEndian.Uint32(s)), true
}

func appendInt32(b []byte, v int32) []byte {
	return binary.LittleEndian.AppendUint32(b, uint32(v))
}

func appendUint16(b []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(b, v)
}
