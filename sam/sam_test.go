// Copyright ©2013 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/kortschak/utter"
	"github.com/pkg/errors"
	"gopkg.in/check.v1"

	"github.com/biogo/seqtools/alignment"
)

func Test(t *testing.T) { check.TestingT(t) }

type S struct{}

var _ = check.Suite(&S{})

const specHeader = "@HD\tVN:1.5\tSO:coordinate\n@SQ\tSN:ref\tLN:45\n"

func (s *S) TestParseCigar(c *check.C) {
	for _, t := range []struct {
		cigar string
		want  Cigar
		err   bool
	}{
		{cigar: "*"},
		{
			cigar: "8M2I4M1D3M",
			want: Cigar{
				NewCigarOp(CigarMatch, 8),
				NewCigarOp(CigarInsertion, 2),
				NewCigarOp(CigarMatch, 4),
				NewCigarOp(CigarDeletion, 1),
				NewCigarOp(CigarMatch, 3),
			},
		},
		{
			cigar: "5H3S2=1X6N1P",
			want: Cigar{
				NewCigarOp(CigarHardClipped, 5),
				NewCigarOp(CigarSoftClipped, 3),
				NewCigarOp(CigarEqual, 2),
				NewCigarOp(CigarMismatch, 1),
				NewCigarOp(CigarSkipped, 6),
				NewCigarOp(CigarPadded, 1),
			},
		},
		{cigar: "M", err: true},
		{cigar: "10", err: true},
		{cigar: "3Q", err: true},
		{cigar: "1000000000M", err: true},
	} {
		got, err := ParseCigar([]byte(t.cigar))
		if t.err {
			c.Check(err, check.NotNil, check.Commentf("cigar %q", t.cigar))
			continue
		}
		c.Assert(err, check.Equals, nil)
		c.Check(got, check.DeepEquals, t.want)
		c.Check(got.String(), check.Equals, t.cigar)
	}
}

func (s *S) TestCigarLengths(c *check.C) {
	co, err := ParseCigar([]byte("3S6M1P1I4M2D5N"))
	c.Assert(err, check.Equals, nil)
	ref, read := co.Lengths()
	c.Check(ref, check.Equals, 17)
	c.Check(read, check.Equals, 14)
	c.Check(co.IsValid(14), check.Equals, true)
	c.Check(co.IsValid(13), check.Equals, false)

	co, err = ParseCigar([]byte("2M3H2M"))
	c.Assert(err, check.Equals, nil)
	c.Check(co.IsValid(4), check.Equals, false, check.Commentf("inner hard clip"))

	c.Check(CigarOpType(200).String(), check.Equals, "?")
	c.Check(CigarInsertion.Consumes(), check.Equals, Consume{Query: 1})
}

func (s *S) TestAux(c *check.C) {
	for _, t := range []struct {
		text  string
		typ   byte
		value interface{}
		size  int
		out   string
	}{
		{text: "XA:A:x", typ: 'A', value: byte('x'), size: 4},
		{text: "NM:i:1", typ: 'C', value: uint8(1), size: 4},
		{text: "NM:i:-1", typ: 'c', value: int8(-1), size: 4},
		{text: "XS:i:300", typ: 'S', value: uint16(300), size: 5},
		{text: "XS:i:-300", typ: 's', value: int16(-300), size: 5},
		{text: "XI:i:70000", typ: 'I', value: uint32(70000), size: 7},
		{text: "XI:i:-70000", typ: 'i', value: int32(-70000), size: 7},
		{text: "XI:i:4294967295", typ: 'I', value: uint32(4294967295), size: 7},
		{text: "RG:Z:group one", typ: 'Z', value: "group one", size: 12},
		{text: "RG:Z:", typ: 'Z', value: "", size: 3},
	} {
		a, err := ParseAux([]byte(t.text))
		c.Assert(err, check.Equals, nil, check.Commentf("aux %q", t.text))
		c.Check(a.Type(), check.Equals, t.typ, check.Commentf("aux %q", t.text))
		c.Check(a.Value(), check.Equals, t.value, check.Commentf("aux %q", t.text))
		c.Check(len(a), check.Equals, t.size, check.Commentf("aux %q", t.text))
		c.Check(a.String(), check.Equals, t.text)
		c.Check(a.Tag(), check.Equals, NewTag(t.text[:2]))
	}

	for _, text := range []string{"XF:f:1.5", "XH:H:1AE3", "XB:B:c,1,2"} {
		_, err := ParseAux([]byte(text))
		c.Check(errors.Is(err, ErrUnsupportedTagType), check.Equals, true, check.Commentf("aux %q", text))
	}
	for _, text := range []string{"X:i:1", "XX:i", "XX:i:one", "XX:A:ab", "XX:q:1", "XX:i:4294967296", "XX:i:-2147483649"} {
		_, err := ParseAux([]byte(text))
		c.Check(err, check.NotNil, check.Commentf("aux %q", text))
	}

	a, err := NewAux(NewTag("XS"), 's', int16(5))
	c.Assert(err, check.Equals, nil)
	c.Check(a.String(), check.Equals, "XS:i:5")
	c.Check(a.Int(), check.Equals, int64(5))
	_, err = NewAux(NewTag("XS"), 's', 5)
	c.Check(err, check.NotNil)
	_, err = NewAux(NewTag("XF"), 'f', float32(1))
	c.Check(errors.Is(err, ErrUnsupportedTagType), check.Equals, true)

	c.Check(ValueSize('S'), check.Equals, 2)
	c.Check(ValueSize('Z'), check.Equals, -1)
	c.Check(ValueSize('B'), check.Equals, 0)

	f := AuxFields{a}
	c.Check(f.Get(NewTag("XS")), check.DeepEquals, a)
	c.Check(f.Get(NewTag("NM")), check.IsNil)
}

func (s *S) TestRecordRoundTrip(c *check.C) {
	for _, line := range []string{
		"r001\t99\tref\t7\t30\t8M2I4M1D3M\t=\t37\t39\tTTAGATAAAGGATACTG\t*",
		"r003\t0\tref\t9\t30\t5S6M\t*\t0\t0\tGCCTAAGCTAA\t*\tSA:Z:ref,29,-,6H5M,17,0;",
		"r001\t147\tref\t37\t30\t9M\t=\t7\t-39\tCAGCGGCAT\tIIIII####\tNM:i:1\tXA:A:y",
		"u1\t4\t*\t0\t0\t*\t*\t0\t0\tACGT\t!!!!",
		"u2\t4\t*\t0\t0\t*\t*\t0\t0\t*\t*",
	} {
		r, err := ParseRecord([]byte(line))
		c.Assert(err, check.Equals, nil, check.Commentf("line %q", line))
		b, err := r.MarshalSAM()
		c.Assert(err, check.Equals, nil)
		c.Check(string(b), check.Equals, line)
		c.Check(r.String(), check.Equals, line)
	}

	r, err := ParseRecord([]byte("q\t16\tchr1\t100\t60\t4M\tchr2\t5\t0\tACGT\tABCD"))
	c.Assert(err, check.Equals, nil)
	c.Check(r.Flags, check.Equals, Reverse)
	c.Check(r.Qual, check.DeepEquals, []byte{32, 33, 34, 35})
	c.Check(r.QualityString(), check.Equals, "ABCD")
	c.Check(r.Strand(), check.Equals, int8(-1))
	c.Check(r.Start(), check.Equals, 99)
	c.Check(r.End(), check.Equals, 103)
	c.Check(r.Len(), check.Equals, 4)
	c.Check(r.Bin(), check.Equals, uint32(4681))

	var u Record
	c.Assert(u.UnmarshalText([]byte("u\t4\t*\t0\t0\t*\t*\t0\t0\t*\t*")), check.Equals, nil)
	c.Check(u.Bin(), check.Equals, uint32(4680))
	c.Check(u.Seq, check.IsNil)
	c.Check(u.Qual, check.IsNil)
}

func (s *S) TestRecordErrors(c *check.C) {
	for _, line := range []string{
		"r\t0\tref\t1\t30\t4M\t*\t0\t0\tACGT",
		"r\tx\tref\t1\t30\t4M\t*\t0\t0\tACGT\t*",
		"r\t0\tref\t-1\t30\t4M\t*\t0\t0\tACGT\t*",
		"r\t0\tref\t1\t300\t4M\t*\t0\t0\tACGT\t*",
		"r\t0\tref\t1\t30\t4Y\t*\t0\t0\tACGT\t*",
		"r\t0\tref\t1\t30\t5M\t*\t0\t0\tACGT\t*",
		"r\t0\tref\t1\t30\t4M\t*\t0\t0\tACGT\tIII",
		"r\t0\tref\t1\t30\t4M\t*\t0\tz\tACGT\t*",
		"r\t0\tref\t1\t30\t4M\t*\t0\t0\tACGT\t*\tXF:f:1.0",
		"r\t0x10\tref\t1\t30\t4M\t*\t0\t0\tACGT\t*",
	} {
		_, err := ParseRecord([]byte(line))
		c.Check(err, check.NotNil, check.Commentf("line %q", line))
	}
	_, err := ParseRecord([]byte("r\t0"))
	c.Check(errors.Is(err, ErrShortRecord), check.Equals, true)

	r := &Record{Name: "r", Seq: []byte("ACGT"), Qual: []byte{1}}
	_, err = r.MarshalSAM()
	c.Check(err, check.NotNil)
}

func (s *S) TestFlagsDecimal(c *check.C) {
	for _, test := range []struct {
		field string
		want  Flags
	}{
		{field: "016", want: Reverse},
		{field: "0099", want: Paired | ProperPair | MateReverse | Read1},
		{field: "0", want: 0},
	} {
		r, err := ParseRecord([]byte("r\t" + test.field + "\tref\t1\t30\t4M\t*\t0\t0\tACGT\t*"))
		c.Assert(err, check.Equals, nil, check.Commentf("flag %q", test.field))
		c.Check(r.Flags, check.Equals, test.want, check.Commentf("flag %q", test.field))
	}
}

func (s *S) TestReader(c *check.C) {
	text := specHeader +
		"r001\t99\tref\t7\t30\t8M2I4M1D3M\t=\t37\t39\tTTAGATAAAGGATACTG\t*\n" +
		"\n" +
		"r002\t0\tref\t9\t30\t3S6M1P1I4M\t*\t0\t0\tAAAAGATAAGGATA\t*\r\n" +
		"r003\t0\tref\t9\t30\t5S6M\t*\t0\t0\tGCCTAAGCTAA\t*"
	sr, err := NewReader(strings.NewReader(text))
	c.Assert(err, check.Equals, nil)
	h := sr.Header()
	c.Check(string(h.Text()), check.Equals, specHeader)
	c.Assert(h.Refs(), check.HasLen, 1)
	c.Check(h.Refs()[0].Name(), check.Equals, "ref")
	c.Check(h.Refs()[0].Len(), check.Equals, 45)

	var names []string
	it := NewIterator(sr)
	for it.Next() {
		names = append(names, it.Record().Name)
	}
	c.Check(it.Error(), check.Equals, nil)
	c.Check(names, check.DeepEquals, []string{"r001", "r002", "r003"})
	_, err = sr.Read()
	c.Check(err, check.Equals, io.EOF)

	sr, err = NewReader(strings.NewReader("q\t0\tchr\t1\t0\t*\t*\t0\t0\t*\t*\n"))
	c.Assert(err, check.Equals, nil)
	c.Check(sr.Header().Text(), check.HasLen, 0)
	r, err := sr.Read()
	c.Assert(err, check.Equals, nil)
	c.Check(r.Ref, check.Equals, "chr")

	sr, err = NewReader(strings.NewReader(specHeader))
	c.Assert(err, check.Equals, nil)
	_, err = sr.Read()
	c.Check(err, check.Equals, io.EOF)

	_, err = NewReader(strings.NewReader("@SQ\tSN:ref\n"))
	c.Check(err, check.NotNil, check.Commentf("missing LN"))
}

func (s *S) TestWriter(c *check.C) {
	h, err := NewHeader([]byte("@HD\tVN:1.5"), nil)
	c.Assert(err, check.Equals, nil)
	var buf bytes.Buffer
	w, err := NewWriter(&buf, h)
	c.Assert(err, check.Equals, nil)
	r, err := ParseRecord([]byte("q\t0\t*\t0\t0\t*\t*\t0\t0\tAC\t*\tNM:i:3"))
	c.Assert(err, check.Equals, nil)
	c.Assert(w.Write(r), check.Equals, nil)
	c.Assert(w.Write(r), check.Equals, nil)
	c.Check(buf.String(), check.Equals, "@HD\tVN:1.5\n"+
		"q\t0\t*\t0\t0\t*\t*\t0\t0\tAC\t*\tNM:i:3\n"+
		"q\t0\t*\t0\t0\t*\t*\t0\t0\tAC\t*\tNM:i:3\n")

	buf.Reset()
	w, err = NewWriter(&buf, nil)
	c.Assert(err, check.Equals, nil)
	c.Check(w.Write(&Record{Name: "q", Seq: []byte("A"), Qual: []byte{1, 2}}), check.NotNil)
	c.Check(buf.Len(), check.Equals, 0)
}

func (s *S) TestHeader(c *check.C) {
	chr1, err := NewReference("chr1", 1000)
	c.Assert(err, check.Equals, nil)
	h, err := NewHeader([]byte("@HD\tVN:1.6\n@SQ\tSN:chr1\tLN:1000\n@SQ\tSN:chr2\tLN:20\n"), []*Reference{chr1})
	c.Assert(err, check.Equals, nil)
	c.Assert(h.Refs(), check.HasLen, 2)
	c.Check(h.RefID("chr1"), check.Equals, 0)
	c.Check(h.RefID("chr2"), check.Equals, 1)
	c.Check(h.RefID("chr3"), check.Equals, -1)
	c.Check(h.RefID("*"), check.Equals, -1)

	ref, err := h.Ref(1)
	c.Assert(err, check.Equals, nil)
	c.Check(ref.Name(), check.Equals, "chr2")
	ref, err = h.Ref(-1)
	c.Check(err, check.Equals, nil)
	c.Check(ref, check.IsNil)
	c.Check(ref.Name(), check.Equals, "*")
	_, err = h.Ref(2)
	c.Check(errors.Is(err, ErrRefOutOfRange), check.Equals, true)

	c.Check(h.AddReference(chr1), check.NotNil, check.Commentf("reference already owned"))
	dup, _ := NewReference("chr2", 20)
	c.Check(h.AddReference(dup), check.NotNil, check.Commentf("duplicate name"))

	_, err = NewHeader([]byte("@SQ\tSN:chr1\tLN:5\n"), []*Reference{chr1.Clone()})
	c.Check(err, check.NotNil, check.Commentf("conflicting lengths"))

	bare, err := NewHeader(nil, []*Reference{chr1.Clone()})
	c.Assert(err, check.Equals, nil)
	text, err := bare.MarshalText()
	c.Assert(err, check.Equals, nil)
	c.Check(string(text), check.Equals, "@SQ\tSN:chr1\tLN:1000\n")

	for _, name := range []string{"", "*", "="} {
		_, err = NewReference(name, 1)
		c.Check(err, check.NotNil)
	}
	_, err = NewReference("x", -1)
	c.Check(err, check.NotNil)

	var nilHeader *Header
	c.Check(nilHeader.Refs(), check.IsNil)
	c.Check(nilHeader.RefID("chr1"), check.Equals, -1)
}

func (s *S) TestAddProgram(c *check.C) {
	chr1, _ := NewReference("chr1", 10)
	h, err := NewHeader(nil, []*Reference{chr1})
	c.Assert(err, check.Equals, nil)
	c.Assert(h.AddProgram(Program{UID: "a", Name: "seqtools", Version: "1"}), check.Equals, nil)
	c.Assert(h.AddProgram(Program{UID: "b", Command: "seqtools view"}), check.Equals, nil)
	c.Check(string(h.Text()), check.Equals, "@SQ\tSN:chr1\tLN:10\n"+
		"@PG\tID:a\tPN:seqtools\tVN:1\n"+
		"@PG\tID:b\tCL:seqtools view\tPP:a\n")
	c.Check(errors.Is(h.AddProgram(Program{UID: "a"}), ErrDuplicateProgram), check.Equals, true)
	c.Check(h.AddProgram(Program{}), check.NotNil)
	c.Check(h.Refs(), check.HasLen, 1)
}

func (s *S) TestFlags(c *check.C) {
	f := Paired | Reverse | Read1
	c.Check(f.String(), check.Equals, "p---r-1-----")
	c.Check((Read1 | Duplicate).String(), check.Equals, "----------d-")

	for _, t := range []struct {
		in   string
		want Flags
	}{
		{"16", Reverse},
		{"0x4", Unmapped},
		{"ur", Unmapped | Reverse},
		{"p---r-1-----", f},
	} {
		got, err := ParseFlags(t.in)
		c.Check(err, check.Equals, nil)
		c.Check(got, check.Equals, t.want, check.Commentf("flags %q", t.in))
	}
	for _, in := range []string{"", "zz", "70000"} {
		_, err := ParseFlags(in)
		c.Check(err, check.NotNil, check.Commentf("flags %q", in))
	}
}

func (s *S) TestAlignmentView(c *check.C) {
	r, err := ParseRecord([]byte("q\t16\tchr\t3\t60\t2S3M2I2M3D1M4N2M1S\t*\t0\t0\tTTACGGGACTCCG\tIIIIIIIIIIIII"))
	c.Assert(err, check.Equals, nil)
	q, ref := r.Blocks()
	c.Check(q, check.DeepEquals, []alignment.Block{{Start: 2, End: 5}, {Start: 7, End: 9}, {Start: 9, End: 10}, {Start: 10, End: 12}}, check.Commentf("%s", utter.Sdump(q)))
	c.Check(ref, check.DeepEquals, []alignment.Block{{Start: 2, End: 5}, {Start: 5, End: 7}, {Start: 10, End: 11}, {Start: 15, End: 17}})
	c.Check(r.Direction(), check.Equals, alignment.Reverse)
	c.Check(r.QueryLength(), check.Equals, 13)
	c.Check(r.QueryName(), check.Equals, "q")
	c.Check(r.ReferenceName(), check.Equals, "chr")
	c.Check(r.ReferenceLength(), check.Equals, -1)
	c.Check(r.ReferenceSequence(), check.IsNil)
	c.Check(alignment.Cigar(r, alignment.DefaultMinIntron), check.Equals, "2S3M2I2M3D1M4D2M1S")

	unmapped, err := ParseRecord([]byte("u\t4\t*\t0\t0\t*\t*\t0\t0\t*\t*"))
	c.Assert(err, check.Equals, nil)
	q, ref = unmapped.Blocks()
	c.Check(q, check.HasLen, 0)
	c.Check(ref, check.HasLen, 0)
	c.Check(unmapped.QuerySequence(), check.IsNil)
	c.Check(unmapped.QualityString(), check.Equals, "")

	withRef := r.WithReference(alignment.Letters("NNACGGGACTTTTCCGGG"))
	c.Check(r.ReferenceSequence(), check.IsNil, check.Commentf("receiver must not change"))
	c.Check(withRef.ReferenceLength(), check.Equals, 18)
	_, err = alignment.PSLLine(withRef)
	c.Check(err, check.Equals, nil)
	_, err = alignment.PSLLine(r)
	c.Check(errors.Is(err, alignment.ErrMissingReference), check.Equals, true)

	back, err := FromAlignment(withRef, alignment.DefaultMinIntron)
	c.Assert(err, check.Equals, nil)
	c.Check(back.String(), check.Equals, "q\t16\tchr\t3\t255\t2S3M2I2M3D1M4D2M1S\t*\t0\t18\tTTACGGGACTCCG\tIIIIIIIIIIIII")
}
