// Copyright ©2012 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sam

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Flags is the alignment FLAG field of a record.
type Flags uint16

const (
	Paired        Flags = 1 << iota // The read is paired in sequencing, no matter whether it is mapped in a pair.
	ProperPair                      // The read is mapped in a proper pair.
	Unmapped                        // The read itself is unmapped; conflictive with ProperPair.
	MateUnmapped                    // The mate is unmapped.
	Reverse                         // The read is mapped to the reverse strand.
	MateReverse                     // The mate is mapped to the reverse strand.
	Read1                           // This is read1.
	Read2                           // This is read2.
	Secondary                       // Not primary alignment.
	QCFail                          // QC failure.
	Duplicate                       // Optical or PCR duplicate.
	Supplementary                   // Supplementary alignment, indicates alignment is part of a chimeric alignment.
)

// flagLetters holds one letter per flag bit, low order first.
const flagLetters = "pPuUrR12sfdS"

// String returns the letter form of f, with unset bits as '-':
//
//	0x001 - p - Paired
//	0x002 - P - ProperPair
//	0x004 - u - Unmapped
//	0x008 - U - MateUnmapped
//	0x010 - r - Reverse
//	0x020 - R - MateReverse
//	0x040 - 1 - Read1
//	0x080 - 2 - Read2
//	0x100 - s - Secondary
//	0x200 - f - QCFail
//	0x400 - d - Duplicate
//	0x800 - S - Supplementary
//
// Note that flag bits are represented high order to the right. Mate
// related bits are not shown when Paired is unset.
func (f Flags) String() string {
	const pairedMask = ProperPair | MateUnmapped | MateReverse | Read1 | Read2
	if f&Paired == 0 {
		f &^= pairedMask
	}
	b := []byte(flagLetters)
	for i := range b {
		if f&(1<<uint(i)) == 0 {
			b[i] = '-'
		}
	}
	return string(b)
}

// ParseFlags parses a FLAG value given in decimal, in hexadecimal with
// a 0x prefix, or as a set of the letters used by Flags.String.
func ParseFlags(s string) (Flags, error) {
	if s == "" {
		return 0, errors.New("sam: empty flags")
	}
	if v, err := strconv.ParseUint(s, 0, 16); err == nil {
		return Flags(v), nil
	}
	var f Flags
	for _, c := range s {
		if c == '-' {
			continue
		}
		i := strings.IndexRune(flagLetters, c)
		if i < 0 {
			return 0, errors.Errorf("sam: invalid flags %q", s)
		}
		f |= 1 << uint(i)
	}
	return f, nil
}
