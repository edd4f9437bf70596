// Copyright ©2021 The bíogo Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"v.io/x/lib/cmdline"

	"github.com/biogo/seqtools/bgzf"
)

// run executes a fresh seqtools command tree with the given arguments
// and standard input, returning standard output.
func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	env := &cmdline.Env{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
		Vars:   map[string]string{},
	}
	err := cmdline.ParseAndRun(newCmdRoot(), env, args)
	if stderr.Len() != 0 {
		t.Logf("stderr: %s", stderr.String())
	}
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const (
	samHeader = "@HD\tVN:1.6\tSO:coordinate\n" +
		"@SQ\tSN:ref\tLN:45\n" +
		"@SQ\tSN:alt\tLN:100\n"

	r001 = "r001\t99\tref\t7\t30\t8M\t=\t37\t39\tTTAGATAA\t*\n"
	r002 = "r002\t0\tref\t9\t30\t3S6M\t*\t0\t0\tAAAAGATAA\t*\tNM:i:1\n"
	r003 = "r003\t4\t*\t0\t0\t*\t*\t0\t0\tGCCTAAGCTAA\t*\n"
	r004 = "r004\t1024\tref\t16\t30\t6M\t*\t0\t0\tATAGCT\t*\n"
	r005 = "r005\t512\tref\t20\t30\t4M\t*\t0\t0\tTAGC\t*\n"
	r006 = "r006\t65\tref\t30\t30\t5M\talt\t12\t0\tGGCAT\t*\n"
	r007 = "r007\t256\tref\t31\t3\t4M\t*\t0\t0\tGCAT\t*\n"

	samRecords = r001 + r002 + r003 + r004 + r005 + r006 + r007
	samText    = samHeader + samRecords
)

func TestBgzipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := strings.Repeat("a line of text to compress\n", 5000)
	in := writeFile(t, dir, "in.txt", want)
	gz := filepath.Join(dir, "in.txt.gz")
	back := filepath.Join(dir, "back.txt")

	_, err := run(t, "", "bgzip", "-l", "6", "-o", gz, in)
	require.NoError(t, err)
	b, err := os.ReadFile(gz)
	require.NoError(t, err)
	assert.True(t, bytes.HasSuffix(b, bgzf.MagicBlock), "missing EOF marker")
	assert.Less(t, len(b), len(want))

	_, err = run(t, "", "bgzip", "-d", "-o", back, gz)
	require.NoError(t, err)
	got, err := os.ReadFile(back)
	require.NoError(t, err)
	assert.Equal(t, want, string(got))

	out, err := run(t, string(b), "bgzip", "-d", "-")
	require.NoError(t, err)
	assert.Equal(t, want, out)
}

func TestBgzipBadLevel(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.txt", "text")
	_, err := run(t, "", "bgzip", "-l", "12", in)
	assert.Error(t, err)
}

func TestConvertRoundTrip(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.sam", samText)
	bam := filepath.Join(dir, "out.bam")

	_, err := run(t, "", "sam2bam", "-o", bam, in)
	require.NoError(t, err)

	out, err := run(t, "", "bam2sam", bam)
	require.NoError(t, err)
	assert.Equal(t, samText, out)

	b, err := os.ReadFile(bam)
	require.NoError(t, err)
	out, err = run(t, string(b), "bam2sam", "-")
	require.NoError(t, err)
	assert.Equal(t, samText, out)
}

func TestSAM2BAMRequiresOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.sam", samText)
	_, err := run(t, "", "sam2bam", in)
	assert.Error(t, err)
}

func TestViewFilters(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.sam", samText)

	for _, test := range []struct {
		args []string
		want string
	}{
		{args: nil, want: samRecords},
		{args: []string{"-F", "0x404"}, want: r001 + r002 + r005 + r006 + r007},
		{args: []string{"-f", "0x1"}, want: r001 + r006},
		{args: []string{"-f", "u"}, want: r003},
		{args: []string{"-f", "pd", "-F", "2"}, want: r004 + r006},
		{args: []string{"-f", "0x800"}, want: ""},
	} {
		args := append(append([]string{"view", "-S"}, test.args...), in)
		got, err := run(t, "", args...)
		require.NoError(t, err, "args %v", test.args)
		assert.Equal(t, test.want, got, "args %v", test.args)
	}

	_, err := run(t, "", "view", "-S", "-f", "x", in)
	assert.Error(t, err)
}

func TestViewStdin(t *testing.T) {
	got, err := run(t, samText, "view", "-S", "-F", "u", "-")
	require.NoError(t, err)
	assert.Equal(t, r001+r002+r004+r005+r006+r007, got)
}

func TestViewHeader(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.sam", samText)
	pg := "@PG\tID:seqtools\tPN:seqtools\tCL:seqtools view -S -t " + in + "\tVN:" + version + "\n"

	got, err := run(t, "", "view", "-S", "-t", in)
	require.NoError(t, err)
	assert.Equal(t, samHeader+pg+samRecords, got)

	got, err = run(t, "", "view", "-S", "-T", in)
	require.NoError(t, err)
	assert.Equal(t, samHeader+"@PG\tID:seqtools\tPN:seqtools\tCL:seqtools view -S -T "+in+"\tVN:"+version+"\n", got)
}

func TestViewBAMOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.sam", samText)
	bam := filepath.Join(dir, "out.bam")

	_, err := run(t, "", "view", "-S", "-b", "-F", "0x400", "-o", bam, in)
	require.NoError(t, err)

	got, err := run(t, "", "bam2sam", bam)
	require.NoError(t, err)
	pg := "@PG\tID:seqtools\tPN:seqtools\tCL:seqtools view -S -b -F 0x400 -o " + bam + " " + in + "\tVN:" + version + "\n"
	assert.Equal(t, samHeader+pg+r001+r002+r003+r005+r006+r007, got)

	// A second pass through view chains a new @PG line.
	got, err = run(t, "", "view", "-T", bam)
	require.NoError(t, err)
	assert.Contains(t, got, "@PG\tID:seqtools.1\tPN:seqtools\tCL:seqtools view -T "+bam+"\tPP:seqtools\tVN:"+version+"\n")
}

func TestFlagstat(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "in.sam", samText)
	want := `6 + 1 in total (QC-passed reads + QC-failed reads)
1 + 0 secondary
0 + 0 supplementary
1 + 0 duplicates
5 + 1 mapped
2 + 0 paired in sequencing
2 + 0 read1
0 + 0 read2
1 + 0 properly paired
0 + 0 singletons
1 + 0 with mate mapped to a different chr
1 + 0 with mate mapped to a different chr (mapQ>=5)
`
	got, err := run(t, "", "flagstat", "-S", in)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	bam := filepath.Join(dir, "in.bam")
	_, err = run(t, "", "sam2bam", "-o", bam, in)
	require.NoError(t, err)
	got, err = run(t, "", "flagstat", bam)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

const (
	refSeq   = "ATTTCTTTCTCGCCCGAAGGGTGTAGTTGTTAATATTGTCATCGGGTCTATTTGCCGTCGTAACTATGCAGCGCGACGCTACCGGACACTTCTTGACGTT"
	querySeq = "AACGTCAAAAAGTGTCCGGTACCGTCGCGCTGCATAGTTACGACGTGCTAATAGAGCCGATGAGAATATTGACAACTCCCCTCGGACGAGAAAGAAAT"
)

func TestAlign(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.fa", ">Rseq reference\n"+refSeq+"\n")
	query := writeFile(t, dir, "query.fa", ">Qseq\n"+querySeq+"\n")

	const want = "Qseq\t16\tRseq\t1\t255\t21M2D1M1D31M1I42M2S\t*\t0\t100\t" +
		"ATTTCTTTCTCGTCCGAGGGGAGTTGTCAATATTCTCATCGGCTCTATTAGCACGTCGTAACTATGCAGCGCGACGGTACCGGACACTTTTTGACGTT\t*\n"

	got, err := run(t, "", "align", ref, query)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	got, err = run(t, "", "align", "-t", "-r", "Rseq", "-q", "Qseq", ref, query)
	require.NoError(t, err)
	assert.Equal(t, "@SQ\tSN:Rseq\tLN:100\n"+want, got)

	got, err = run(t, "", "align", "-f", "pretty", ref, query)
	require.NoError(t, err)
	assert.Contains(t, got, "Q - 1: ATTTCTTTCTCGTCCGAGGGG--A-GTTGTCAATATTCTCATCGGCTCTA\n")

	got, err = run(t, "", "align", "-f", "psl", "-n", "2", ref, query)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Len(t, strings.Split(l, "\t"), 21)
	}
	f := strings.Split(lines[0], "\t")
	assert.Equal(t, "-", f[8])
	assert.Equal(t, "Qseq", f[9])
	assert.Equal(t, "Rseq", f[13])
}

func TestAlignErrors(t *testing.T) {
	dir := t.TempDir()
	ref := writeFile(t, dir, "ref.fa", ">Rseq\n"+refSeq+"\n")
	query := writeFile(t, dir, "query.fa", ">Qseq\n"+querySeq+"\n")

	for _, args := range [][]string{
		{"align", ref},
		{"align", "-f", "bed", ref, query},
		{"align", "-n", "0", ref, query},
		{"align", "-r", "missing", ref, query},
		{"align", ref, filepath.Join(dir, "absent.fa")},
	} {
		_, err := run(t, "", args...)
		assert.Error(t, err, "args %v", args)
	}
}
