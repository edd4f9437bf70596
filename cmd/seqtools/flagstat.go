// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"math/bits"

	"v.io/x/lib/cmdline"

	"github.com/biogo/seqtools/internal/fileio"
	"github.com/biogo/seqtools/sam"
)

func newCmdFlagstat() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "flagstat",
		Short:    "Count records by flag in the manner of samtools flagstat",
		ArgsName: "input",
		ArgsLong: "input is a BAM file name, or SAM with -S, or - for standard input.",
	}
	samInput := cmd.Flags.Bool("S", false, "Input is SAM")
	cmd.Runner = runner(cmd.Name, func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("flagstat takes one input argument, but got %v", argv)
		}
		return flagstat(env, argv[0], *samInput)
	})
	return cmd
}

// flagCounts holds counts indexed by QC pass (0) or fail (1).
type flagCounts struct {
	// total and the per flag bit counts.
	total [2]uint64
	bit   [2][12]uint64

	// mates mapped to a different reference, and those with MAPQ
	// of at least 5.
	diffRef, diffRefQ5 [2]uint64
}

func bitOf(f sam.Flags) int { return bits.TrailingZeros16(uint16(f)) }

func (c *flagCounts) add(r *sam.Record) {
	fail := 0
	if r.Flags&sam.QCFail != 0 {
		fail = 1
	}
	c.total[fail]++
	switch {
	case r.Flags&sam.Supplementary != 0:
		c.bit[fail][bitOf(sam.Supplementary)]++
	case r.Flags&sam.Secondary != 0:
		c.bit[fail][bitOf(sam.Secondary)]++
	default:
		for i := range c.bit[fail] {
			if r.Flags&(1<<uint(i)) != 0 {
				c.bit[fail][i]++
			}
		}
	}
	if r.Flags&(sam.Secondary|sam.ProperPair|sam.Supplementary|sam.Unmapped) == 0 && differentRef(r) {
		c.diffRef[fail]++
		if r.MapQ >= 5 {
			c.diffRefQ5[fail]++
		}
	}
}

// differentRef returns whether r and its mate are placed on different
// references.
func differentRef(r *sam.Record) bool {
	placed := func(s string) bool { return s != "" && s != "*" }
	return placed(r.Ref) && placed(r.MateRef) && r.MateRef != "=" && r.MateRef != r.Ref
}

func (c *flagCounts) write(w io.Writer) error {
	pair := func(f sam.Flags) [2]uint64 {
		i := bitOf(f)
		return [2]uint64{c.bit[0][i], c.bit[1][i]}
	}
	mapped := [2]uint64{c.total[0] - c.bit[0][bitOf(sam.Unmapped)], c.total[1] - c.bit[1][bitOf(sam.Unmapped)]}
	for _, l := range []struct {
		n    [2]uint64
		text string
	}{
		{c.total, "in total (QC-passed reads + QC-failed reads)"},
		{pair(sam.Secondary), "secondary"},
		{pair(sam.Supplementary), "supplementary"},
		{pair(sam.Duplicate), "duplicates"},
		{mapped, "mapped"},
		{pair(sam.Paired), "paired in sequencing"},
		{pair(sam.Read1), "read1"},
		{pair(sam.Read2), "read2"},
		{pair(sam.ProperPair), "properly paired"},
		{pair(sam.MateUnmapped), "singletons"},
		{c.diffRef, "with mate mapped to a different chr"},
		{c.diffRefQ5, "with mate mapped to a different chr (mapQ>=5)"},
	} {
		if _, err := fmt.Fprintf(w, "%d + %d %s\n", l.n[0], l.n[1], l.text); err != nil {
			return err
		}
	}
	return nil
}

func flagstat(env *cmdline.Env, input string, isSAM bool) error {
	in, err := fileio.Open(input, env.Stdin)
	if err != nil {
		return err
	}
	defer in.Close()
	src, err := openSource(in, isSAM)
	if err != nil {
		return err
	}
	var c flagCounts
	it := sam.NewIterator(src)
	for it.Next() {
		c.add(it.Record())
	}
	if err = it.Error(); err != nil {
		return err
	}
	return c.write(env.Stdout)
}
