package main

import (
	"io"
	"os"
	"testing"
)

// captureStream redirects *target (os.Stdout or os.Stderr) through a pipe
// for the duration of fn and returns everything written to it.
func captureStream(t *testing.T, target **os.File, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	saved := *target
	*target = w
	defer func() { *target = saved }()

	fn()

	w.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(out)
}

// printSummary's numeric "Lines Read / Errors / Warnings" line belongs on
// standard output (spec §6.4); only the separating blank line printed
// ahead of it belongs on standard error, matching the reference
// implementation's cout/cerr split in compiler.cpp.
func TestPrintSummaryRoutesCountsToStdout(t *testing.T) {
	var stdout, stderr string
	stdout = captureStream(t, &os.Stdout, func() {
		stderr = captureStream(t, &os.Stderr, func() {
			printSummary(3, 1, 2)
		})
	})

	if stdout != "Lines Read: 3 / Errors: 1 / Warnings: 2\n" {
		t.Fatalf("stdout = %q, want the summary line", stdout)
	}
	if stderr != "\n" {
		t.Fatalf("stderr = %q, want just the separating blank line", stderr)
	}
}

// With no errors or warnings, there is nothing to separate, so nothing is
// printed to standard error at all.
func TestPrintSummaryCleanRunHasNoStderr(t *testing.T) {
	var stdout, stderr string
	stdout = captureStream(t, &os.Stdout, func() {
		stderr = captureStream(t, &os.Stderr, func() {
			printSummary(1, 0, 0)
		})
	})

	if stdout != "Lines Read: 1 / Errors: 0 / Warnings: 0\n" {
		t.Fatalf("stdout = %q, want the summary line", stdout)
	}
	if stderr != "" {
		t.Fatalf("stderr = %q, want no output on a clean run", stderr)
	}
}
