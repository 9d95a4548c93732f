package util

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"syscall"
	"testing"
)

func TestNewInfoExecName(t *testing.T) {
	tests := []struct {
		argv0    string
		expected string
		desc     string
	}{
		{"/usr/bin/prog", "prog", "absolute path"},
		{"prog", "prog", "bare name"},
		{"./bin/keymap", "keymap", "relative path"},
		{"./bin/keymap/", "keymap", "trailing separator"},
		{"a/b/c/d", "d", "nested path"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			info := NewInfo(tt.argv0)
			if got := info.ExecName(); got != tt.expected {
				t.Errorf("NewInfo(%q).ExecName() = %q, expected %q", tt.argv0, got, tt.expected)
			}
		})
	}
}

func TestNewInfoFallsBackToProcessName(t *testing.T) {
	for _, argv0 := range []string{"", "/", "."} {
		info := NewInfo(argv0)
		if info.ExecName() == "" {
			t.Errorf("NewInfo(%q).ExecName() is empty", argv0)
		}
	}
}

func TestNewInfoRunID(t *testing.T) {
	a := NewInfo("prog")
	b := NewInfo("prog")
	if a.RunID() == "" {
		t.Fatal("RunID should not be empty")
	}
	if a.RunID() == b.RunID() {
		t.Errorf("RunID should differ between executions, both were %q", a.RunID())
	}
}

func TestExitStatusLastWriteWins(t *testing.T) {
	info := NewInfo("prog")
	if got := info.ExitStatus(); got != ExitSuccess {
		t.Fatalf("initial ExitStatus() = %d, expected %d", got, ExitSuccess)
	}

	info.SetExitStatus(2)
	info.SetExitStatus(5)
	if got := info.ExitStatus(); got != 5 {
		t.Errorf("ExitStatus() = %d, expected 5", got)
	}

	info.SetExitStatus(-300)
	if got := info.ExitStatus(); got != -300 {
		t.Errorf("ExitStatus() = %d, expected -300", got)
	}
}

func TestComplain(t *testing.T) {
	var stderr bytes.Buffer
	complaints := 0
	info := NewInfo("/usr/local/bin/keymap", WithStderr(&stderr))
	info.OnComplaint(func() { complaints++ })

	fmt.Fprintln(info.Complain(), "input.txt: something went wrong")

	if got := info.ExitStatus(); got != ExitFailure {
		t.Errorf("ExitStatus() = %d, expected %d", got, ExitFailure)
	}
	if got, want := stderr.String(), "keymap: input.txt: something went wrong\n"; got != want {
		t.Errorf("stderr = %q, expected %q", got, want)
	}
	if complaints != 1 {
		t.Errorf("complaint hook ran %d times, expected 1", complaints)
	}
}

func TestComplainf(t *testing.T) {
	var stderr bytes.Buffer
	info := NewInfo("keymap", WithStderr(&stderr))

	info.Complainf("%s: line %d", "file", 3)
	info.Complainf("second")

	want := "keymap: file: line 3\nkeymap: second\n"
	if got := stderr.String(); got != want {
		t.Errorf("stderr = %q, expected %q", got, want)
	}
}

func TestSyscallError(t *testing.T) {
	var stderr bytes.Buffer
	info := NewInfo("keymap", WithStderr(&stderr))

	_, err := os.Open("/definitely/not/here")
	if err == nil {
		t.Fatal("expected open to fail")
	}
	info.SyscallError("/definitely/not/here", err)

	want := "keymap: /definitely/not/here: " + syscall.ENOENT.Error() + "\n"
	if got := stderr.String(); got != want {
		t.Errorf("stderr = %q, expected %q", got, want)
	}
	if info.ExitStatus() != ExitFailure {
		t.Errorf("ExitStatus() = %d, expected %d", info.ExitStatus(), ExitFailure)
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		err      error
		expected string
		desc     string
	}{
		{nil, "unknown error", "nil error"},
		{syscall.EACCES, syscall.EACCES.Error(), "bare errno"},
		{&fs.PathError{Op: "open", Path: "x", Err: syscall.ENOENT}, syscall.ENOENT.Error(), "wrapped errno"},
		{fmt.Errorf("plain failure"), "plain failure", "no errno"},
	}

	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			if got := describeError(tt.err); got != tt.expected {
				t.Errorf("describeError(%v) = %q, expected %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestInfoContext(t *testing.T) {
	info := NewInfo("keymap")
	ctx := WithInfo(context.Background(), info)
	if got := InfoFrom(ctx); got != info {
		t.Errorf("InfoFrom returned %p, expected %p", got, info)
	}

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("InfoFrom without Info should panic")
		}
		if !strings.Contains(fmt.Sprint(r), "execution info missing") {
			t.Errorf("unexpected panic value: %v", r)
		}
	}()
	InfoFrom(context.Background())
}
