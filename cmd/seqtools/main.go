// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command seqtools compresses and converts BGZF, SAM and BAM data and
// aligns nucleotide sequences.
package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
	"v.io/x/lib/cmdline"
	"v.io/x/lib/vlog"

	"github.com/biogo/seqtools/bam"
	"github.com/biogo/seqtools/internal/fileio"
	"github.com/biogo/seqtools/sam"
)

const (
	programName = "seqtools"
	version     = "0.1.0"
)

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     programName,
		Short:    "Tools for BGZF, SAM and BAM data and pairwise sequence alignment",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdBgzip(),
			newCmdBAM2SAM(),
			newCmdSAM2BAM(),
			newCmdView(),
			newCmdFlagstat(),
			newCmdAlign(),
		},
	}
}

var configureLog sync.Once

// runner wraps a command implementation, configuring logging from the
// command line flags before the first command runs.
func runner(name string, fn func(env *cmdline.Env, argv []string) error) cmdline.Runner {
	return cmdline.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		configureLog.Do(func() {
			if err := vlog.ConfigureLibraryLoggerFromFlags(); err != nil {
				fmt.Fprintf(env.Stderr, "%s: configuring logging: %v\n", programName, err)
			}
		})
		vlog.VI(1).Infof("%s %s %v", programName, name, argv)
		return fn(env, argv)
	})
}

// recordSource is a stream of alignment records with a header.
type recordSource interface {
	sam.RecordReader
	Header() *sam.Header
}

// openSource returns a record stream reading SAM or BAM data from in.
func openSource(in *fileio.Input, isSAM bool) (recordSource, error) {
	if isSAM {
		r, err := sam.NewReader(in)
		if err != nil {
			return nil, errors.Wrapf(err, "reading SAM header from %s", in.Name())
		}
		return r, nil
	}
	warnEOF(in)
	r, err := bam.NewReader(in)
	if err != nil {
		return nil, errors.Wrapf(err, "reading BAM header from %s", in.Name())
	}
	return r, nil
}

// warnEOF logs when a mapped BGZF input lacks the EOF marker.
func warnEOF(in *fileio.Input) {
	ok, err := in.HasBGZFEOF()
	switch {
	case err != nil:
		vlog.Errorf("%s: checking BGZF EOF marker: %v", in.Name(), err)
	case !ok:
		vlog.Infof("%s: no BGZF EOF marker, the file may be truncated", in.Name())
	}
}

// recordWriter is a SAM or BAM record sink.
type recordWriter interface {
	Write(*sam.Record) error
	Close() error
}

type samWriter struct{ *sam.Writer }

func (samWriter) Close() error { return nil }

// newRecordWriter returns a BAM writer compressing at level when asBAM
// is set and a SAM writer otherwise. SAM output carries the header only
// if withHeader is set; BAM output always does.
func newRecordWriter(w io.Writer, h *sam.Header, asBAM, withHeader bool, level int) (recordWriter, error) {
	if asBAM {
		bw, err := bam.NewWriterLevel(w, h, level)
		if err != nil {
			return nil, err
		}
		return bw, nil
	}
	if !withHeader {
		h = nil
	}
	sw, err := sam.NewWriter(w, h)
	if err != nil {
		return nil, err
	}
	return samWriter{sw}, nil
}

// addProgram records a seqtools @PG line in h. IDs already used by an
// earlier run get a numeric suffix.
func addProgram(h *sam.Header, commandLine string) error {
	id := programName
	for i := 1; ; i++ {
		err := h.AddProgram(sam.Program{
			UID:     id,
			Name:    programName,
			Command: commandLine,
			Version: version,
		})
		if errors.Cause(err) != sam.ErrDuplicateProgram {
			return err
		}
		id = fmt.Sprintf("%s.%d", programName, i)
	}
}

// closeOutput closes c, keeping the first error.
func closeOutput(c io.Closer, err *error) {
	if e := c.Close(); *err == nil {
		*err = e
	}
}
