// Copyright ©2012-2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"bytes"
	"strconv"

	"github.com/pkg/errors"

	"github.com/biogo/seqtools/alignment"
	"github.com/biogo/seqtools/internal/bin"
)

var (
	// ErrShortRecord is returned when a SAM line has fewer than the
	// eleven mandatory fields.
	ErrShortRecord = errors.New("sam: missing SAM fields")

	errSeqQualMismatch = errors.New("sam: sequence/quality length mismatch")
)

// Record is a SAM alignment record. References are held by name so a
// Record does not depend on a Header; the BAM codec translates names
// to reference IDs.
type Record struct {
	Name  string
	Flags Flags

	// Ref is the reference name, "*" when unplaced.
	Ref string

	// Pos is the 1-based leftmost mapping position, 0 when unplaced.
	Pos int

	MapQ  byte
	Cigar Cigar

	// MateRef is the reference name of the next segment, "=" for the
	// reference of this record or "*" when unavailable.
	MateRef string
	MatePos int
	TempLen int

	// Seq holds the bases of the read, nil when absent.
	Seq []byte

	// Qual holds Phred base qualities without the ASCII offset, nil
	// when absent.
	Qual []byte

	AuxFields AuxFields

	reference alignment.Sequence
}

// ParseRecord returns the Record described by the SAM line b.
func ParseRecord(b []byte) (*Record, error) {
	var r Record
	if err := r.UnmarshalSAM(b); err != nil {
		return nil, err
	}
	return &r, nil
}

// UnmarshalText implements the encoding.TextUnmarshaler interface.
func (r *Record) UnmarshalText(b []byte) error { return r.UnmarshalSAM(b) }

// UnmarshalSAM parses a SAM format alignment line without its line
// ending. The CIGAR is decomposed into operations here.
func (r *Record) UnmarshalSAM(b []byte) error {
	f := bytes.Split(b, []byte{'\t'})
	if len(f) < 11 {
		return errors.Wrapf(ErrShortRecord, "%d fields", len(f))
	}
	*r = Record{
		Name:    string(f[0]),
		Ref:     string(f[2]),
		MateRef: string(f[6]),
	}
	flags, err := strconv.ParseUint(string(f[1]), 10, 16)
	if err != nil {
		return errors.Wrap(err, "sam: failed to parse flags")
	}
	r.Flags = Flags(flags)
	r.Pos, err = strconv.Atoi(string(f[3]))
	if err != nil || r.Pos < 0 {
		return errors.Errorf("sam: failed to parse position %q", f[3])
	}
	mapQ, err := strconv.ParseUint(string(f[4]), 10, 8)
	if err != nil {
		return errors.Wrap(err, "sam: failed to parse map quality")
	}
	r.MapQ = byte(mapQ)
	r.Cigar, err = ParseCigar(f[5])
	if err != nil {
		return err
	}
	r.MatePos, err = strconv.Atoi(string(f[7]))
	if err != nil || r.MatePos < 0 {
		return errors.Errorf("sam: failed to parse mate position %q", f[7])
	}
	r.TempLen, err = strconv.Atoi(string(f[8]))
	if err != nil {
		return errors.Wrap(err, "sam: failed to parse template length")
	}
	if !isStar(f[9]) {
		r.Seq = append([]byte(nil), f[9]...)
		if len(r.Cigar) != 0 && !r.Cigar.IsValid(len(r.Seq)) {
			return errors.Errorf("sam: sequence/CIGAR length mismatch %d != %v", len(r.Seq), r.Cigar)
		}
	}
	if !isStar(f[10]) {
		if r.Seq != nil && len(f[10]) != len(r.Seq) {
			return errSeqQualMismatch
		}
		r.Qual = make([]byte, len(f[10]))
		for i, q := range f[10] {
			if q < 33 || q > 126 {
				return errors.Errorf("sam: invalid quality %q", q)
			}
			r.Qual[i] = q - 33
		}
	}
	for _, aux := range f[11:] {
		a, err := ParseAux(aux)
		if err != nil {
			return err
		}
		r.AuxFields = append(r.AuxFields, a)
	}
	return nil
}

func isStar(b []byte) bool { return len(b) == 1 && b[0] == '*' }

// MarshalText implements the encoding.TextMarshaler interface.
func (r *Record) MarshalText() ([]byte, error) { return r.MarshalSAM() }

// MarshalSAM formats r as a SAM line without a line ending. Integer
// aux fields are written with the 'i' type.
func (r *Record) MarshalSAM() ([]byte, error) {
	if r.Qual != nil && r.Seq != nil && len(r.Qual) != len(r.Seq) {
		return nil, errSeqQualMismatch
	}
	return r.appendSAM(nil), nil
}

func (r *Record) appendSAM(b []byte) []byte {
	field := func(s string) {
		b = append(b, s...)
		b = append(b, '\t')
	}
	field(r.Name)
	b = strconv.AppendUint(b, uint64(r.Flags), 10)
	b = append(b, '\t')
	field(orStar(r.Ref))
	b = strconv.AppendInt(b, int64(r.Pos), 10)
	b = append(b, '\t')
	b = strconv.AppendUint(b, uint64(r.MapQ), 10)
	b = append(b, '\t')
	field(r.Cigar.String())
	field(orStar(r.MateRef))
	b = strconv.AppendInt(b, int64(r.MatePos), 10)
	b = append(b, '\t')
	b = strconv.AppendInt(b, int64(r.TempLen), 10)
	b = append(b, '\t')
	if r.Seq == nil {
		b = append(b, '*')
	} else {
		b = append(b, r.Seq...)
	}
	b = append(b, '\t')
	if r.Qual == nil {
		b = append(b, '*')
	} else {
		for _, q := range r.Qual {
			b = append(b, q+33)
		}
	}
	for _, a := range r.AuxFields {
		b = append(b, '\t')
		b = append(b, a.String()...)
	}
	return b
}

func orStar(s string) string {
	if s == "" {
		return "*"
	}
	return s
}

// String returns the SAM line for r.
func (r *Record) String() string { return string(r.appendSAM(nil)) }

// Tag returns the aux field with the given tag, or nil.
func (r *Record) Tag(t Tag) Aux { return r.AuxFields.Get(t) }

// Start returns the 0-based leftmost reference position of the
// alignment, -1 when unplaced.
func (r *Record) Start() int { return r.Pos - 1 }

// End returns the 0-based exclusive end of the reference positions
// covered by the alignment.
func (r *Record) End() int {
	ref, _ := r.Cigar.Lengths()
	return r.Start() + ref
}

// Len returns the number of reference positions covered by the
// alignment.
func (r *Record) Len() int { return r.End() - r.Start() }

// Bin returns the BAM index bin of the record.
func (r *Record) Bin() uint32 {
	if r.Flags&Unmapped != 0 || r.Pos == 0 {
		return bin.Unmapped
	}
	return bin.For(r.Start(), r.End())
}

// Strand returns 1 for a forward strand alignment and -1 for a reverse
// strand alignment.
func (r *Record) Strand() int8 {
	if r.Flags&Reverse != 0 {
		return -1
	}
	return 1
}

// WithReference returns a shallow copy of r holding the given
// reference sequence. The reference is needed by renderings that
// compare bases, such as alignment.PSLLine.
func (r *Record) WithReference(s alignment.Sequence) *Record {
	c := *r
	c.reference = s
	return &c
}

// FromAlignment returns a Record rendering a.
func FromAlignment(a alignment.Alignment, minIntron int) (*Record, error) {
	return ParseRecord([]byte(alignment.SAMLine(a, minIntron)))
}

var (
	_ alignment.Alignment = (*Record)(nil)
	_ alignment.Qualifier = (*Record)(nil)
)

func (r *Record) QueryName() string     { return r.Name }
func (r *Record) ReferenceName() string { return orStar(r.Ref) }

// Direction returns alignment.Reverse when the Reverse flag is set.
func (r *Record) Direction() alignment.Direction {
	if r.Flags&Reverse != 0 {
		return alignment.Reverse
	}
	return alignment.Forward
}

// Blocks returns the aligned blocks described by the position and the
// CIGAR of r. Each aligning CIGAR operation is a block. Unmapped and
// unplaced records have no blocks.
func (r *Record) Blocks() (query, reference []alignment.Block) {
	if r.Flags&Unmapped != 0 || r.Pos == 0 {
		return nil, nil
	}
	qpos, rpos := 0, r.Start()
	for _, co := range r.Cigar {
		n := co.Len()
		t := co.Type()
		if t.IsAligned() {
			query = append(query, alignment.Block{Start: qpos, End: qpos + n})
			reference = append(reference, alignment.Block{Start: rpos, End: rpos + n})
		}
		c := t.Consumes()
		qpos += n * c.Query
		rpos += n * c.Reference
	}
	return query, reference
}

// QueryLength returns the length of the read, taken from the CIGAR
// when the sequence is absent.
func (r *Record) QueryLength() int {
	if r.Seq != nil {
		return len(r.Seq)
	}
	_, read := r.Cigar.Lengths()
	return read
}

func (r *Record) QuerySequence() alignment.Sequence {
	if r.Seq == nil {
		return nil
	}
	return alignment.Letters(r.Seq)
}

func (r *Record) ReferenceSequence() alignment.Sequence { return r.reference }

// ReferenceLength returns the length of the attached reference
// sequence, or -1 if there is none.
func (r *Record) ReferenceLength() int {
	if r.reference == nil {
		return -1
	}
	return r.reference.Len()
}

// QualityString returns the Phred+33 encoded qualities of r.
func (r *Record) QualityString() string {
	if r.Qual == nil {
		return ""
	}
	b := make([]byte, len(r.Qual))
	for i, q := range r.Qual {
		b[i] = q + 33
	}
	return string(b)
}
