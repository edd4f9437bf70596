// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"

	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"

	"github.com/biogo/seqtools/bgzf"
	"github.com/biogo/seqtools/internal/fileio"
)

func newCmdBAM2SAM() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "bam2sam",
		Short:    "Convert BAM to SAM, header included",
		ArgsName: "input",
		ArgsLong: "input is a BAM file name or - for standard input.",
	}
	output := cmd.Flags.String("o", "", "Output file, standard output if empty")
	cmd.Runner = runner(cmd.Name, func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("bam2sam takes one input argument, but got %v", argv)
		}
		return convert(env, argv[0], *output, false, 0)
	})
	return cmd
}

func newCmdSAM2BAM() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "sam2bam",
		Short:    "Convert SAM to BAM",
		ArgsName: "input",
		ArgsLong: "input is a SAM file name or - for standard input.",
	}
	output := cmd.Flags.String("o", "", "Output file, - for standard output")
	level := cmd.Flags.Int("l", bgzf.DefaultLevel, "BGZF compression level, -2 to 9")
	cmd.Runner = runner(cmd.Name, func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("sam2bam takes one input argument, but got %v", argv)
		}
		if *output == "" {
			return env.UsageErrorf("sam2bam requires -o; use -o - for standard output")
		}
		return convert(env, argv[0], *output, true, *level)
	})
	return cmd
}

// convert copies records from a BAM input to SAM output, or from a SAM
// input to BAM output compressed at level when toBAM is set.
func convert(env *cmdline.Env, input, output string, toBAM bool, level int) (err error) {
	in, err := fileio.Open(input, env.Stdin)
	if err != nil {
		return err
	}
	defer in.Close()
	src, err := openSource(in, toBAM)
	if err != nil {
		return err
	}
	out, err := fileio.Create(output, env.Stdout)
	if err != nil {
		return err
	}
	defer closeOutput(out, &err)
	w, err := newRecordWriter(out, src.Header(), toBAM, true, level)
	if err != nil {
		return err
	}
	var n int
	for {
		r, err := src.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err = w.Write(r); err != nil {
			return err
		}
		n++
	}
	vlog.VI(1).Infof("%s: converted %d records", in.Name(), n)
	return w.Close()
}
