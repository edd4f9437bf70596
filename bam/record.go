// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bam

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/biogo/seqtools/internal/bin"
	"github.com/biogo/seqtools/sam"
)

// BAM record layout, offsets from the start of the block_size field.
const (
	offRefID     = 4
	offPos       = 8
	offNameLen   = 12
	offMapQ      = 13
	offBin       = 14
	offNCigar    = 16
	offFlags     = 18
	offSeqLen    = 20
	offNextRefID = 24
	offNextPos   = 28
	offTempLen   = 32

	// fixedSize is the length of the fixed part of a record
	// following block_size.
	fixedSize = 32

	lenFieldSize = 4
	headSize     = lenFieldSize + fixedSize
)

// Record is a BAM alignment record held in its binary form. The
// offsets of the variable length fields are computed once when the
// Record is created.
type Record struct {
	data []byte

	nameEnd  int
	cigarEnd int
	seqEnd   int
	qualEnd  int
}

// NewRecord returns a Record for the BAM encoded record at the start
// of data, including its block_size field. The Record retains data.
func NewRecord(data []byte) (*Record, error) {
	if len(data) < lenFieldSize {
		return nil, ErrTruncatedRecord
	}
	bs := int(int32(binary.LittleEndian.Uint32(data)))
	if bs < fixedSize {
		return nil, errors.Wrapf(ErrBadRecord, "block size %d", bs)
	}
	if len(data) < lenFieldSize+bs {
		return nil, errors.Wrapf(ErrTruncatedRecord, "%d bytes for block size %d", len(data), bs)
	}
	r := &Record{data: data[:lenFieldSize+bs]}

	lName := int(data[offNameLen])
	if lName < 1 {
		return nil, errors.Wrap(ErrBadName, "empty read name field")
	}
	lSeq := r.SeqLen()
	if lSeq < 0 {
		return nil, errors.Wrapf(ErrBadRecord, "sequence length %d", lSeq)
	}
	r.nameEnd = headSize + lName
	r.cigarEnd = r.nameEnd + 4*r.NCigar()
	r.seqEnd = r.cigarEnd + (lSeq+1)/2
	r.qualEnd = r.seqEnd + lSeq
	if r.qualEnd > len(r.data) {
		return nil, errors.Wrapf(ErrTruncatedRecord, "variable fields need %d bytes of %d", r.qualEnd, len(r.data))
	}
	if r.data[r.nameEnd-1] != 0 {
		return nil, errors.Wrap(ErrBadName, "read name not NUL terminated")
	}
	return r, nil
}

func (r *Record) int32At(off int) int { return int(int32(binary.LittleEndian.Uint32(r.data[off:]))) }
func (r *Record) uint16At(off int) int { return int(binary.LittleEndian.Uint16(r.data[off:])) }

// Bytes returns the encoded record including its block_size field.
func (r *Record) Bytes() []byte { return r.data }

// BlockSize returns the length of the record excluding the block_size field.
func (r *Record) BlockSize() int { return r.int32At(0) }

func (r *Record) RefID() int     { return r.int32At(offRefID) }
func (r *Record) NextRefID() int { return r.int32At(offNextRefID) }

// Pos returns the 1-based leftmost position, 0 when unplaced.
func (r *Record) Pos() int { return r.int32At(offPos) + 1 }

// NextPos returns the 1-based position of the next segment, 0 when
// unavailable.
func (r *Record) NextPos() int { return r.int32At(offNextPos) + 1 }

func (r *Record) TempLen() int     { return r.int32At(offTempLen) }
func (r *Record) Bin() uint16      { return uint16(r.uint16At(offBin)) }
func (r *Record) MapQ() byte       { return r.data[offMapQ] }
func (r *Record) NameLen() int     { return int(r.data[offNameLen]) }
func (r *Record) Flags() sam.Flags { return sam.Flags(r.uint16At(offFlags)) }
func (r *Record) NCigar() int      { return r.uint16At(offNCigar) }
func (r *Record) SeqLen() int      { return r.int32At(offSeqLen) }

// Name returns the read name without its NUL terminator.
func (r *Record) Name() string { return string(r.data[headSize : r.nameEnd-1]) }

// Cigar returns the decoded CIGAR operations.
func (r *Record) Cigar() sam.Cigar {
	if r.NCigar() == 0 {
		return nil
	}
	c := make(sam.Cigar, r.NCigar())
	for i := range c {
		c[i] = sam.CigarOp(binary.LittleEndian.Uint32(r.data[r.nameEnd+4*i:]))
	}
	return c
}

// Seq returns the decoded bases, nil when the sequence is absent.
func (r *Record) Seq() []byte {
	n := r.SeqLen()
	if n == 0 {
		return nil
	}
	s := make([]byte, n)
	packed := r.data[r.cigarEnd:r.seqEnd]
	for i := range s {
		if i&1 == 0 {
			s[i] = n16TableRev[packed[i>>1]>>4]
		} else {
			s[i] = n16TableRev[packed[i>>1]&0xf]
		}
	}
	return s
}

// Qual returns the Phred quality scores, nil when they are absent.
func (r *Record) Qual() []byte {
	q := r.data[r.seqEnd:r.qualEnd]
	if len(q) == 0 || (q[0] == 0xff && bytes.Count(q, []byte{0xff}) == len(q)) {
		return nil
	}
	return append([]byte(nil), q...)
}

// AuxFields returns the decoded auxiliary fields. Fields of types
// f, H and B are reported as sam.ErrUnsupportedTagType.
func (r *Record) AuxFields() (sam.AuxFields, error) {
	aux := r.data[r.qualEnd:]
	var f sam.AuxFields
	for i := 0; i < len(aux); {
		if len(aux)-i < 3 {
			return nil, errors.Wrap(ErrTruncatedRecord, "aux field header")
		}
		typ := aux[i+2]
		switch size := sam.ValueSize(typ); {
		case size > 0:
			if len(aux)-i < 3+size {
				return nil, errors.Wrapf(ErrTruncatedRecord, "aux field %s", aux[i:i+2])
			}
			f = append(f, append(sam.Aux(nil), aux[i:i+3+size]...))
			i += 3 + size
		case size < 0:
			j := bytes.IndexByte(aux[i+3:], 0)
			if j < 0 {
				return nil, errors.Wrapf(ErrTruncatedRecord, "aux field %s not NUL terminated", aux[i:i+2])
			}
			f = append(f, append(sam.Aux(nil), aux[i:i+3+j]...))
			i += 3 + j + 1
		default:
			return nil, errors.Wrapf(sam.ErrUnsupportedTagType, "bam: aux field %s type %q", aux[i:i+2], typ)
		}
	}
	return f, nil
}

// SAM returns the SAM form of r, translating reference IDs to names
// using h. A next reference equal to the record's reference is
// rendered as "=".
func (r *Record) SAM(h *sam.Header) (*sam.Record, error) {
	ref, err := h.Ref(r.RefID())
	if err != nil {
		return nil, errors.Wrapf(err, "bam: record %q", r.Name())
	}
	mate := "*"
	switch next := r.NextRefID(); {
	case next == -1:
	case next == r.RefID():
		mate = "="
	default:
		m, err := h.Ref(next)
		if err != nil {
			return nil, errors.Wrapf(err, "bam: record %q next reference", r.Name())
		}
		mate = m.Name()
	}
	aux, err := r.AuxFields()
	if err != nil {
		return nil, err
	}
	return &sam.Record{
		Name:      r.Name(),
		Flags:     r.Flags(),
		Ref:       ref.Name(),
		Pos:       r.Pos(),
		MapQ:      r.MapQ(),
		Cigar:     r.Cigar(),
		MateRef:   mate,
		MatePos:   r.NextPos(),
		TempLen:   r.TempLen(),
		Seq:       r.Seq(),
		Qual:      r.Qual(),
		AuxFields: aux,
	}, nil
}

// Marshal returns the BAM encoding of r. Reference names are
// translated to IDs using h; "*" and names absent from h are -1.
func Marshal(r *sam.Record, h *sam.Header) (*Record, error) {
	if h == nil {
		return nil, ErrMissingHeader
	}
	if len(r.Name) > 254 {
		return nil, errors.Wrapf(ErrBadName, "name length %d", len(r.Name))
	}
	if len(r.Cigar) > 0xffff {
		return nil, errors.Wrapf(ErrBadRecord, "%d cigar operations", len(r.Cigar))
	}
	if r.Qual != nil && len(r.Qual) != len(r.Seq) {
		return nil, errors.Wrap(ErrBadRecord, "sequence/quality length mismatch")
	}
	if !bin.IsValidPos(r.Pos - 1) {
		return nil, errors.Wrapf(ErrBadRecord, "position %d out of range", r.Pos)
	}
	if !bin.IsValidPos(r.MatePos - 1) {
		return nil, errors.Wrapf(ErrBadRecord, "mate position %d out of range", r.MatePos)
	}
	if !bin.IsValidTempLen(r.TempLen) {
		return nil, errors.Wrapf(ErrBadRecord, "template length %d out of range", r.TempLen)
	}
	refID := h.RefID(r.Ref)
	nextRefID := refID
	if r.MateRef != "=" {
		nextRefID = h.RefID(r.MateRef)
	}

	size := headSize + len(r.Name) + 1 + 4*len(r.Cigar) + (len(r.Seq)+1)/2 + len(r.Seq)
	for _, a := range r.AuxFields {
		size += len(a)
		if a.Type() == 'Z' {
			size++
		}
	}
	b := make([]byte, 0, size)
	b = appendInt32(b, int32(size-lenFieldSize))
	b = appendInt32(b, int32(refID))
	b = appendInt32(b, int32(r.Pos-1))
	b = append(b, byte(len(r.Name)+1), r.MapQ)
	b = appendUint16(b, uint16(r.Bin()))
	b = appendUint16(b, uint16(len(r.Cigar)))
	b = appendUint16(b, uint16(r.Flags))
	b = appendInt32(b, int32(len(r.Seq)))
	b = appendInt32(b, int32(nextRefID))
	b = appendInt32(b, int32(r.MatePos-1))
	b = appendInt32(b, int32(r.TempLen))
	b = append(b, r.Name...)
	b = append(b, 0)
	for _, co := range r.Cigar {
		b = binary.LittleEndian.AppendUint32(b, uint32(co))
	}
	b = appendSeq(b, r.Seq)
	if r.Qual != nil {
		b = append(b, r.Qual...)
	} else {
		for range r.Seq {
			b = append(b, 0xff)
		}
	}
	for _, a := range r.AuxFields {
		b = append(b, a...)
		if a.Type() == 'Z' {
			b = append(b, 0)
		}
	}
	return NewRecord(b)
}

// appendSeq appends s packed two bases per byte, high nybble first.
func appendSeq(b, s []byte) []byte {
	for i := 0; i < len(s); i += 2 {
		v := n16Table[s[i]] << 4
		if i+1 < len(s) {
			v |= n16Table[s[i+1]]
		}
		b = append(b, v)
	}
	return b
}

var (
	n16TableRev = [16]byte{'=', 'A', 'C', 'M', 'G', 'R', 'S', 'V', 'T', 'W', 'Y', 'H', 'K', 'D', 'B', 'N'}
	n16Table    = [256]byte{
		0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0x1, 0x2, 0x4, 0x8, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0x0, 0xf, 0xf,
		0xf, 0x1, 0xe, 0x2, 0xd, 0xf, 0xf, 0x4, 0xb, 0xf, 0xf, 0xc, 0xf, 0x3, 0xf, 0xf,
		0xf, 0xf, 0x5, 0x6, 0x8, 0xf, 0x7, 0x9, 0xf, 0xa, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0xf, 0x1, 0xe, 0x2, 0xd, 0xf, 0xf, 0x4, 0xb, 0xf, 0xf, 0xc, 0xf, 0x3, 0xf, 0xf,
		0xf, 0xf, 0x5, 0x6, 0x8, 0xf, 0x7, 0x9, 0xf, 0xa, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
		0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf, 0xf,
	}
)
