// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"io"

	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"

	"github.com/biogo/seqtools/bgzf"
	"github.com/biogo/seqtools/internal/fileio"
)

func newCmdBgzip() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "bgzip",
		Short:    "BGZF compress or decompress a file",
		ArgsName: "input",
		ArgsLong: "input is a file name or - for standard input.",
	}
	level := cmd.Flags.Int("l", bgzf.DefaultLevel, "Compression level, -2 to 9")
	decompress := cmd.Flags.Bool("d", false, "Decompress the input")
	output := cmd.Flags.String("o", "", "Output file, standard output if empty")
	cmd.Runner = runner(cmd.Name, func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return env.UsageErrorf("bgzip takes one input argument, but got %v", argv)
		}
		return bgzip(env, argv[0], *output, *level, *decompress)
	})
	return cmd
}

func bgzip(env *cmdline.Env, input, output string, level int, decompress bool) (err error) {
	in, err := fileio.Open(input, env.Stdin)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := fileio.Create(output, env.Stdout)
	if err != nil {
		return err
	}
	defer closeOutput(out, &err)

	if decompress {
		warnEOF(in)
		_, err = io.Copy(out, bgzf.NewReader(in))
		return errors.Wrapf(err, "bgzip: decompressing %s", in.Name())
	}
	w, err := bgzf.NewWriterLevel(out, level)
	if err != nil {
		return err
	}
	if _, err = io.Copy(w, in); err != nil {
		return errors.Wrapf(err, "bgzip: compressing %s", in.Name())
	}
	return w.Close()
}
