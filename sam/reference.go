// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"strconv"

	"github.com/pkg/errors"
)

// Reference is a mapping reference.
type Reference struct {
	id   int32
	name string
	lRef int32
}

// NewReference returns a new Reference based on the given parameters.
// The length must be a valid reference length according to the SAM
// specification, [0, 1<<31).
func NewReference(name string, length int) (*Reference, error) {
	if !validLen(length) {
		return nil, errBadLen
	}
	if name == "" || name == "*" || name == "=" {
		return nil, errors.Errorf("sam: invalid reference name %q", name)
	}
	return &Reference{
		id:   -1, // This is altered by a Header when added.
		name: name,
		lRef: int32(length),
	}, nil
}

func validLen(l int) bool { return 0 <= l && l < 1<<31 }

// ID returns the header ID of the Reference, -1 for a nil Reference.
func (r *Reference) ID() int {
	if r == nil {
		return -1
	}
	return int(r.id)
}

// Name returns the reference name, "*" for a nil Reference.
func (r *Reference) Name() string {
	if r == nil {
		return "*"
	}
	return r.name
}

// Len returns the length of the reference sequence.
func (r *Reference) Len() int {
	if r == nil {
		return -1
	}
	return int(r.lRef)
}

// String returns the @SQ header line for the Reference.
func (r *Reference) String() string {
	return "@SQ\tSN:" + r.name + "\tLN:" + strconv.Itoa(int(r.lRef))
}

// Clone returns a copy of the Reference not owned by any Header.
func (r *Reference) Clone() *Reference {
	if r == nil {
		return nil
	}
	cr := *r
	cr.id = -1
	return &cr
}
