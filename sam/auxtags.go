// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"bytes"
	"encoding/binary"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// ErrUnsupportedTagType is returned for auxiliary fields of the
// float, hex and array types.
var ErrUnsupportedTagType = errors.New("sam: unsupported aux tag type")

// An Aux represents an auxiliary data field from a SAM alignment record.
// It holds the two tag bytes, the type byte and the little-endian value
// as it is laid out in BAM, without the NUL terminator of Z values.
type Aux []byte

// NewAux returns a new Aux with the given tag, type and value. Acceptable value
// types depend on the typ parameter:
//
//	A - byte
//	c - int8
//	C - uint8
//	s - int16
//	S - uint16
//	i - int, int32
//	I - uint32
//	Z - []byte or string
//
// The int type is provided as a convenience: the value must fit within
// either int32 or uint32 and is converted to the smallest representation.
// Types f, H and B are not supported.
func NewAux(t Tag, typ byte, value interface{}) (Aux, error) {
	switch typ {
	case 'A':
		if c, ok := value.(byte); ok {
			return Aux{t[0], t[1], 'A', c}, nil
		}
	case 'c':
		if i, ok := value.(int8); ok {
			return Aux{t[0], t[1], 'c', byte(i)}, nil
		}
	case 'C':
		if i, ok := value.(uint8); ok {
			return Aux{t[0], t[1], 'C', i}, nil
		}
	case 's':
		if i, ok := value.(int16); ok {
			return newAuxUint(t, 's', uint64(uint16(i)), 2), nil
		}
	case 'S':
		if i, ok := value.(uint16); ok {
			return newAuxUint(t, 'S', uint64(i), 2), nil
		}
	case 'i':
		switch i := value.(type) {
		case int:
			return newAuxInt(t, int64(i))
		case int32:
			return newAuxUint(t, 'i', uint64(uint32(i)), 4), nil
		}
	case 'I':
		if i, ok := value.(uint32); ok {
			return newAuxUint(t, 'I', uint64(i), 4), nil
		}
	case 'Z':
		switch s := value.(type) {
		case []byte:
			return append(Aux{t[0], t[1], 'Z'}, s...), nil
		case string:
			return append(Aux{t[0], t[1], 'Z'}, s...), nil
		}
	case 'f', 'H', 'B':
		return nil, errors.Wrapf(ErrUnsupportedTagType, "%c", typ)
	default:
		return nil, errors.Errorf("sam: unknown aux type %q", typ)
	}
	return nil, errors.Errorf("sam: wrong dynamic type %T for %q tag", value, typ)
}

// newAuxInt returns an integer Aux in the narrowest type holding i.
// Negative values use the signed types and others the unsigned types.
func newAuxInt(t Tag, i int64) (Aux, error) {
	switch {
	case i < math.MinInt32:
		return nil, errors.Errorf("sam: integer value out of range %d < %d", i, math.MinInt32)
	case i < math.MinInt16:
		return newAuxUint(t, 'i', uint64(uint32(i)), 4), nil
	case i < math.MinInt8:
		return newAuxUint(t, 's', uint64(uint16(i)), 2), nil
	case i < 0:
		return Aux{t[0], t[1], 'c', byte(i)}, nil
	case i <= math.MaxUint8:
		return Aux{t[0], t[1], 'C', byte(i)}, nil
	case i <= math.MaxUint16:
		return newAuxUint(t, 'S', uint64(i), 2), nil
	case i <= math.MaxUint32:
		return newAuxUint(t, 'I', uint64(i), 4), nil
	default:
		return nil, errors.Errorf("sam: integer value out of range %d > %d", i, uint32(math.MaxUint32))
	}
}

func newAuxUint(t Tag, typ byte, v uint64, width int) Aux {
	a := make(Aux, 3+width)
	a[0], a[1], a[2] = t[0], t[1], typ
	switch width {
	case 2:
		binary.LittleEndian.PutUint16(a[3:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(a[3:], uint32(v))
	}
	return a
}

// ParseAux returns an Aux parsed from the given TAG:TYPE:VALUE text.
func ParseAux(text []byte) (Aux, error) {
	tf := bytes.SplitN(text, []byte{':'}, 3)
	if len(tf) != 3 || len(tf[0]) != 2 || len(tf[1]) != 1 {
		return nil, errors.Errorf("sam: invalid aux tag field: %q", text)
	}
	t := Tag{tf[0][0], tf[0][1]}
	var value interface{}
	switch typ := tf[1][0]; typ {
	case 'A':
		if len(tf[2]) != 1 {
			return nil, errors.Errorf("sam: invalid aux tag field: %q", text)
		}
		value = tf[2][0]
	case 'i':
		i, err := strconv.ParseInt(string(tf[2]), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "sam: invalid aux tag field %q", text)
		}
		return newAuxInt(t, i)
	case 'Z':
		value = tf[2]
	case 'f', 'H', 'B':
		return nil, errors.Wrapf(ErrUnsupportedTagType, "%q", text)
	default:
		return nil, errors.Errorf("sam: invalid aux tag field: %q", text)
	}
	return NewAux(t, tf[1][0], value)
}

// auxSize returns the number of value bytes for fixed width types and
// -1 for Z. Unsupported types are zero.
var auxSize = [256]int{
	'A': 1,
	'c': 1, 'C': 1,
	's': 2, 'S': 2,
	'i': 4, 'I': 4,
	'Z': -1,
}

// ValueSize returns the number of bytes holding a value of the given
// type in BAM, -1 for NUL-terminated strings and 0 for unsupported
// types.
func ValueSize(typ byte) int { return auxSize[typ] }

var auxKind = [256]byte{
	'A': 'A',
	'c': 'i', 'C': 'i',
	's': 'i', 'S': 'i',
	'i': 'i', 'I': 'i',
	'Z': 'Z',
}

// String returns the SAM text representation of an Aux. Integer
// types are all written with the type code 'i'.
func (a Aux) String() string {
	switch a.Kind() {
	case 'A':
		return string(a[:2]) + ":A:" + string(a[3:4])
	case 'i':
		return string(a[:2]) + ":i:" + strconv.FormatInt(a.Int(), 10)
	}
	return string(a[:2]) + ":" + string(a.Kind()) + ":" + string(a[3:])
}

// A Tag represents an auxiliary tag label.
type Tag [2]byte

// NewTag returns a Tag from the tag string. It panics is len(tag) != 2.
func NewTag(tag string) Tag {
	var t Tag
	if copy(t[:], tag) != 2 || len(tag) != 2 {
		panic("sam: illegal tag length")
	}
	return t
}

// String returns a string representation of a Tag.
func (t Tag) String() string { return string(t[:]) }

// Tag returns the Tag representation of the Aux tag ID.
func (a Aux) Tag() Tag { var t Tag; copy(t[:], a[:2]); return t }

// Type returns a byte corresponding to the type of the auxiliary tag.
// Returned values are in {'A', 'c', 'C', 's', 'S', 'i', 'I', 'Z'}.
func (a Aux) Type() byte { return a[2] }

// Kind returns a byte corresponding to the kind of the auxiliary tag.
// Returned values are in {'A', 'i', 'Z'}.
func (a Aux) Kind() byte { return auxKind[a[2]] }

// Int returns the value of an integer tag widened to int64.
func (a Aux) Int() int64 {
	switch a.Type() {
	case 'c':
		return int64(int8(a[3]))
	case 'C':
		return int64(a[3])
	case 's':
		return int64(int16(binary.LittleEndian.Uint16(a[3:5])))
	case 'S':
		return int64(binary.LittleEndian.Uint16(a[3:5]))
	case 'i':
		return int64(int32(binary.LittleEndian.Uint32(a[3:7])))
	case 'I':
		return int64(binary.LittleEndian.Uint32(a[3:7]))
	}
	return 0
}

// Value returns v containing the value of the auxiliary tag.
func (a Aux) Value() interface{} {
	switch a.Type() {
	case 'A':
		return a[3]
	case 'c':
		return int8(a[3])
	case 'C':
		return uint8(a[3])
	case 's':
		return int16(binary.LittleEndian.Uint16(a[3:5]))
	case 'S':
		return binary.LittleEndian.Uint16(a[3:5])
	case 'i':
		return int32(binary.LittleEndian.Uint32(a[3:7]))
	case 'I':
		return binary.LittleEndian.Uint32(a[3:7])
	case 'Z':
		return string(a[3:])
	}
	return nil
}

// AuxFields is a set of auxiliary fields.
type AuxFields []Aux

// Get returns the auxiliary field identified by the given tag, or nil
// if no field matches.
func (a AuxFields) Get(tag Tag) Aux {
	for _, f := range a {
		if f.Tag() == tag {
			return f
		}
	}
	return nil
}
