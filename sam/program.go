// Copyright ©2012 The bíogo.bam Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"bytes"
	"strings"

	"github.com/pkg/errors"
)

// Program describes a program that processed the alignments, an @PG
// header line.
type Program struct {
	UID      string
	Name     string
	Command  string
	Previous string
	Version  string
}

// String returns the @PG line for p.
func (p Program) String() string {
	var sb strings.Builder
	sb.WriteString("@PG\tID:" + p.UID)
	for _, f := range []struct{ tag, val string }{
		{"PN", p.Name},
		{"CL", p.Command},
		{"PP", p.Previous},
		{"VN", p.Version},
	} {
		if f.val != "" {
			sb.WriteString("\t" + f.tag + ":" + f.val)
		}
	}
	return sb.String()
}

var progTag = []byte("@PG")

// ErrDuplicateProgram is returned by AddProgram when the header already
// holds a @PG line with the same ID.
var ErrDuplicateProgram = errors.New("sam: duplicate program ID")

// AddProgram appends the @PG line for p to the header text. If
// p.Previous is empty it is set to the ID of the last @PG line already
// present, so that the programs form a chain.
func (bh *Header) AddProgram(p Program) error {
	if p.UID == "" {
		return errors.New("sam: program has no ID")
	}
	var last string
	for _, line := range bytes.Split(bh.text, []byte{'\n'}) {
		if !bytes.HasPrefix(line, progTag) {
			continue
		}
		for _, f := range bytes.Split(line, []byte{'\t'})[1:] {
			if bytes.HasPrefix(f, []byte("ID:")) {
				id := string(f[3:])
				if id == p.UID {
					return errors.Wrapf(ErrDuplicateProgram, "%q", id)
				}
				last = id
			}
		}
	}
	if p.Previous == "" {
		p.Previous = last
	}
	if len(bh.text) == 0 && len(bh.refs) != 0 {
		// Materialise the synthesised @SQ lines before adding text.
		text, err := bh.MarshalText()
		if err != nil {
			return err
		}
		bh.text = text
	}
	if len(bh.text) != 0 && bh.text[len(bh.text)-1] != '\n' {
		bh.text = append(bh.text, '\n')
	}
	bh.text = append(bh.text, p.String()...)
	bh.text = append(bh.text, '\n')
	return nil
}
