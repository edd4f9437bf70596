// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"

	"github.com/biogo/seqtools/bgzf"
	"github.com/biogo/seqtools/internal/fileio"
	"github.com/biogo/seqtools/sam"
)

// viewBatch is the number of records passed between pipeline stages.
const viewBatch = 1024

type viewFlags struct {
	output     string
	samInput   bool
	bamOutput  bool
	header     bool
	headerOnly bool
	retain     string
	remove     string
	level      int
}

func newCmdView() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "view",
		Short:    "Read SAM or BAM and write SAM or BAM, optionally filtering by flag",
		ArgsName: "input",
		ArgsLong: `input is a file name or - for standard input. Input is BAM unless -S is
given and output is SAM unless -b is given.

Flags given to -f and -F are decimal, 0x prefixed hexadecimal or the
letters pPuUrR12sfdS, one for each flag bit from 0x1 to 0x800.`,
	}
	var flags viewFlags
	cmd.Flags.StringVar(&flags.output, "o", "", "Output file, standard output if empty")
	cmd.Flags.BoolVar(&flags.samInput, "S", false, "Input is SAM")
	cmd.Flags.BoolVar(&flags.bamOutput, "b", false, "Output BAM")
	cmd.Flags.BoolVar(&flags.header, "t", false, "Include the header in SAM output")
	cmd.Flags.BoolVar(&flags.headerOnly, "T", false, "Output only the header")
	cmd.Flags.StringVar(&flags.retain, "f", "", "Keep only records with at least one of these flags set")
	cmd.Flags.StringVar(&flags.remove, "F", "", "Drop records with any of these flags set")
	cmd.Flags.IntVar(&flags.level, "l", bgzf.DefaultLevel, "BGZF compression level for BAM output")
	cmd.Runner = runner(cmd.Name, func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("view takes one input argument, but got %v", argv)
		}
		return view(env, flags, argv[0])
	})
	return cmd
}

// commandLine returns the invocation recorded in the @PG header line.
func (f viewFlags) commandLine(input string) string {
	args := []string{programName, "view"}
	for _, b := range []struct {
		set  bool
		flag string
	}{
		{f.samInput, "-S"},
		{f.bamOutput, "-b"},
		{f.header, "-t"},
		{f.headerOnly, "-T"},
	} {
		if b.set {
			args = append(args, b.flag)
		}
	}
	if f.retain != "" {
		args = append(args, "-f", f.retain)
	}
	if f.remove != "" {
		args = append(args, "-F", f.remove)
	}
	if f.output != "" {
		args = append(args, "-o", f.output)
	}
	if f.bamOutput && f.level != bgzf.DefaultLevel {
		args = append(args, "-l", strconv.Itoa(f.level))
	}
	return strings.Join(append(args, input), " ")
}

// parseFilter parses a -f or -F value. An empty value is no flags.
func parseFilter(s string) (sam.Flags, error) {
	if s == "" {
		return 0, nil
	}
	return sam.ParseFlags(s)
}

// keep returns whether a record with flags f passes the filters. When
// retain is non-zero at least one of its bits must be set in f. No bit
// of remove may be set in f.
func keep(f, retain, remove sam.Flags) bool {
	if retain != 0 && f&retain == 0 {
		return false
	}
	return f&remove == 0
}

func view(env *cmdline.Env, flags viewFlags, input string) (err error) {
	retain, err := parseFilter(flags.retain)
	if err != nil {
		return errors.Wrap(err, "view: -f")
	}
	remove, err := parseFilter(flags.remove)
	if err != nil {
		return errors.Wrap(err, "view: -F")
	}

	in, err := fileio.Open(input, env.Stdin)
	if err != nil {
		return err
	}
	defer in.Close()
	src, err := openSource(in, flags.samInput)
	if err != nil {
		return err
	}
	out, err := fileio.Create(flags.output, env.Stdout)
	if err != nil {
		return err
	}
	defer closeOutput(out, &err)

	h := src.Header()
	if flags.header || flags.headerOnly || flags.bamOutput {
		if err = addProgram(h, flags.commandLine(input)); err != nil {
			return err
		}
	}
	if flags.headerOnly && !flags.bamOutput {
		text, err := h.MarshalText()
		if err != nil {
			return err
		}
		_, err = out.Write(text)
		return err
	}
	w, err := newRecordWriter(out, h, flags.bamOutput, flags.header, flags.level)
	if err != nil {
		return err
	}
	if flags.headerOnly {
		return w.Close()
	}

	// Decoding and filtering run concurrently with encoding.
	g, ctx := errgroup.WithContext(context.Background())
	batches := make(chan []*sam.Record, 4)
	var read, kept int
	g.Go(func() error {
		defer close(batches)
		batch := make([]*sam.Record, 0, viewBatch)
		send := func() error {
			select {
			case batches <- batch:
				batch = make([]*sam.Record, 0, viewBatch)
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		for {
			r, err := src.Read()
			if err == io.EOF {
				break
			}
			if err != nil {
				return errors.Wrapf(err, "view: reading %s", in.Name())
			}
			read++
			if !keep(r.Flags, retain, remove) {
				continue
			}
			kept++
			batch = append(batch, r)
			if len(batch) == viewBatch {
				if err := send(); err != nil {
					return err
				}
			}
		}
		if len(batch) == 0 {
			return nil
		}
		return send()
	})
	g.Go(func() error {
		for batch := range batches {
			for _, r := range batch {
				if err := w.Write(r); err != nil {
					return errors.Wrapf(err, "view: writing %q", r.Name)
				}
			}
		}
		return w.Close()
	})
	if err = g.Wait(); err != nil {
		return err
	}
	vlog.VI(1).Infof("%s: kept %d of %d records", in.Name(), kept, read)
	return nil
}
