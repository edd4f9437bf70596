// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"

	"github.com/biogo/seqtools/align"
	"github.com/biogo/seqtools/alignment"
	"github.com/biogo/seqtools/fai"
	"github.com/biogo/seqtools/internal/fileio"
	"github.com/biogo/seqtools/sam"
	"github.com/biogo/seqtools/seq"
)

type alignFlags struct {
	output    string
	format    string
	entries   int
	width     int
	minIntron int
	header    bool
	refName   string
	queryName string
	opts      align.Options
}

func newCmdAlign() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "align",
		Short:    "Locally align a query sequence against a reference on both strands",
		ArgsName: "reference.fa query.fa",
		ArgsLong: `reference.fa and query.fa are FASTA files. A FASTA index (.fai) next
to a file is used when present. The first sequence of each file is used
unless -r or -q name another.`,
	}
	var f alignFlags
	cmd.Flags.StringVar(&f.output, "o", "", "Output file, standard output if empty")
	cmd.Flags.StringVar(&f.format, "f", "sam", "Output format: sam, psl or pretty")
	cmd.Flags.IntVar(&f.entries, "n", 1, "Number of ranked alignments to write")
	cmd.Flags.IntVar(&f.width, "w", alignment.DefaultWidth, "Line width of pretty output")
	cmd.Flags.IntVar(&f.minIntron, "min-intron", alignment.DefaultMinIntron, "Shortest reference gap written as N in CIGARs")
	cmd.Flags.BoolVar(&f.header, "t", false, "Write a SAM header holding the reference")
	cmd.Flags.StringVar(&f.refName, "r", "", "Reference sequence name")
	cmd.Flags.StringVar(&f.queryName, "q", "", "Query sequence name")
	cmd.Flags.IntVar(&f.opts.Match, "match", align.DefaultOptions.Match, "Match score")
	cmd.Flags.IntVar(&f.opts.Mismatch, "mismatch", align.DefaultOptions.Mismatch, "Mismatch score")
	cmd.Flags.IntVar(&f.opts.GapOpen, "gap-open", align.DefaultOptions.GapOpen, "Gap open score")
	cmd.Flags.IntVar(&f.opts.GapExtend, "gap-extend", align.DefaultOptions.GapExtend, "Gap extension score")
	cmd.Flags.IntVar(&f.opts.MaxGap, "max-gap", align.DefaultOptions.MaxGap, "Longest gap considered")
	cmd.Runner = runner(cmd.Name, func(env *cmdline.Env, argv []string) error {
		if len(argv) != 2 {
			return env.UsageErrorf("align takes reference and query arguments, but got %v", argv)
		}
		switch f.format {
		case "sam", "psl", "pretty":
		default:
			return env.UsageErrorf("unknown output format %q", f.format)
		}
		if f.entries < 1 {
			return env.UsageErrorf("-n must be positive, got %d", f.entries)
		}
		return alignFiles(env, argv[0], argv[1], f)
	})
	return cmd
}

// loadSequence returns the named sequence of the FASTA file at path,
// or its first sequence if name is empty.
func loadSequence(path, name string) (*seq.Sequence, error) {
	f, err := fai.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if name == "" {
		names := f.Index().Names()
		if len(names) == 0 {
			return nil, errors.Wrapf(fai.ErrNoSequence, "%s", path)
		}
		name = names[0]
	}
	s, err := f.Sequence(name)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", path)
	}
	return s, nil
}

func alignFiles(env *cmdline.Env, refPath, queryPath string, f alignFlags) (err error) {
	ref, err := loadSequence(refPath, f.refName)
	if err != nil {
		return err
	}
	query, err := loadSequence(queryPath, f.queryName)
	if err != nil {
		return err
	}
	vlog.VI(1).Infof("aligning %s (%d) against %s (%d)", query.Name(), query.Len(), ref.Name(), ref.Len())

	out, err := fileio.Create(f.output, env.Stdout)
	if err != nil {
		return err
	}
	defer closeOutput(out, &err)

	res := align.New(f.opts).Align(query, ref)
	n := f.entries
	if n > res.Len() {
		n = res.Len()
	}
	if n == 0 {
		vlog.Infof("no alignment of %s against %s", query.Name(), ref.Name())
		return nil
	}

	var sw *sam.Writer
	if f.format == "sam" {
		var h *sam.Header
		if f.header {
			r, err := sam.NewReference(ref.Name(), ref.Len())
			if err != nil {
				return err
			}
			h, err = sam.NewHeader(nil, []*sam.Reference{r})
			if err != nil {
				return err
			}
		}
		sw, err = sam.NewWriter(out, h)
		if err != nil {
			return err
		}
	}
	for k := 0; k < n; k++ {
		a := res.Entry(k)
		vlog.VI(2).Infof("entry %d score %d", k, a.Score())
		switch f.format {
		case "sam":
			rec, err := sam.FromAlignment(a, f.minIntron)
			if err != nil {
				return err
			}
			err = sw.Write(rec)
			if err != nil {
				return err
			}
		case "psl":
			line, err := alignment.PSLLine(a)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, line)
			if err != nil {
				return err
			}
		case "pretty":
			if k > 0 {
				_, err = io.WriteString(out, "\n")
				if err != nil {
					return err
				}
			}
			text, err := alignment.PrettyPrint(a, f.width)
			if err != nil {
				return err
			}
			_, err = io.WriteString(out, text)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
