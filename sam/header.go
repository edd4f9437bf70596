// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	errDupReference  = errors.New("sam: duplicate reference name")
	errUsedReference = errors.New("sam: reference already used")
	errBadLen        = errors.New("sam: reference length out of range")

	// ErrRefOutOfRange is returned when a reference ID is neither -1
	// nor a valid index into the header's reference dictionary.
	ErrRefOutOfRange = errors.New("sam: reference id out of range")
)

var (
	refDictTag   = []byte("@SQ")
	refNameTag   = []byte("SN:")
	refLengthTag = []byte("LN:")
)

type set map[string]int32

// Header is a SAM or BAM header: the free header text and the
// reference dictionary translating between reference names and IDs.
type Header struct {
	text     []byte
	refs     []*Reference
	seenRefs set
}

// NewHeader returns a new Header based on the given text and list
// of References. @SQ lines in the text that do not name one of the
// given References are appended to the dictionary. If there is a
// conflict between the text and the given References NewHeader will
// return a non-nil error.
func NewHeader(text []byte, r []*Reference) (*Header, error) {
	bh := &Header{seenRefs: set{}}
	for _, ref := range r {
		if err := bh.AddReference(ref); err != nil {
			return nil, err
		}
	}
	if err := bh.UnmarshalText(text); err != nil {
		return nil, err
	}
	return bh, nil
}

// UnmarshalText sets the header text and adds the references declared
// by its @SQ lines.
func (bh *Header) UnmarshalText(text []byte) error {
	bh.text = append(bh.text[:0], text...)
	for _, line := range bytes.Split(text, []byte{'\n'}) {
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if !bytes.HasPrefix(line, refDictTag) {
			continue
		}
		name, length, err := parseRefLine(line)
		if err != nil {
			return err
		}
		if id, ok := bh.seenRefs[name]; ok {
			if bh.refs[id].Len() != length {
				return errors.Wrapf(errDupReference, "%q declared with lengths %d and %d", name, bh.refs[id].Len(), length)
			}
			continue
		}
		ref, err := NewReference(name, length)
		if err != nil {
			return err
		}
		if err = bh.AddReference(ref); err != nil {
			return err
		}
	}
	return nil
}

func parseRefLine(line []byte) (name string, length int, err error) {
	length = -1
	for _, f := range bytes.Split(line, []byte{'\t'})[1:] {
		switch {
		case bytes.HasPrefix(f, refNameTag):
			name = string(f[len(refNameTag):])
		case bytes.HasPrefix(f, refLengthTag):
			length, err = strconv.Atoi(string(f[len(refLengthTag):]))
			if err != nil {
				return "", 0, errors.Wrapf(err, "sam: invalid @SQ length in %q", line)
			}
		}
	}
	if name == "" || length < 0 {
		return "", 0, errors.Errorf("sam: incomplete @SQ line %q", line)
	}
	if !validLen(length) {
		return "", 0, errBadLen
	}
	return name, length, nil
}

// Text returns the free header text.
func (bh *Header) Text() []byte { return bh.text }

// MarshalText implements the encoding.TextMarshaler interface. It
// returns the header text, or @SQ lines for each reference when the
// header has no text.
func (bh *Header) MarshalText() ([]byte, error) {
	if len(bh.text) != 0 || len(bh.refs) == 0 {
		return append([]byte(nil), bh.text...), nil
	}
	var sb strings.Builder
	for _, r := range bh.refs {
		sb.WriteString(r.String())
		sb.WriteByte('\n')
	}
	return []byte(sb.String()), nil
}

// Refs returns the Header's list of References. The returned slice
// should not be altered.
func (bh *Header) Refs() []*Reference {
	if bh == nil {
		return nil
	}
	return bh.refs
}

// AddReference adds r to the Header.
func (bh *Header) AddReference(r *Reference) error {
	if bh.seenRefs == nil {
		bh.seenRefs = set{}
	}
	if r.id >= 0 {
		return errUsedReference
	}
	if _, ok := bh.seenRefs[r.name]; ok {
		return errors.Wrapf(errDupReference, "%q", r.name)
	}
	r.id = int32(len(bh.refs))
	bh.seenRefs[r.name] = r.id
	bh.refs = append(bh.refs, r)
	return nil
}

// RefID returns the ID of the named reference, or -1 if the name is
// "*" or is not in the dictionary.
func (bh *Header) RefID(name string) int {
	if bh == nil {
		return -1
	}
	id, ok := bh.seenRefs[name]
	if !ok {
		return -1
	}
	return int(id)
}

// Ref returns the reference with the given ID. An ID of -1 returns
// a nil Reference. Other IDs outside the dictionary return
// ErrRefOutOfRange.
func (bh *Header) Ref(id int) (*Reference, error) {
	if id == -1 {
		return nil, nil
	}
	if id < -1 || id >= len(bh.Refs()) {
		return nil, errors.Wrapf(ErrRefOutOfRange, "id %d with %d references", id, len(bh.Refs()))
	}
	return bh.refs[id], nil
}
