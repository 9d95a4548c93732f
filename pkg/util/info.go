// Package util provides the process-level services shared by the keymap
// program: execution metadata, diagnostics, string splitting, date
// formatting and generic textual conversion.
package util

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/process"
)

// Exit codes reported to the operating system.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Info holds the execution name and exit status of the running program.
// It is created once by main via NewInfo and handed to everything that
// reports errors. The name cannot change after construction.
type Info struct {
	execname   string
	runID      string
	exitStatus atomic.Int64
	stderr     io.Writer
	hooks      []func()
}

// Option configures an Info at construction time.
type Option func(*Info)

// WithStderr redirects diagnostics away from os.Stderr.
func WithStderr(w io.Writer) Option {
	return func(i *Info) {
		i.stderr = w
	}
}

// NewInfo records the base name of argv0 as the execution name.
// When argv0 carries no usable name the name of the running process is
// looked up instead.
func NewInfo(argv0 string, opts ...Option) *Info {
	info := &Info{
		execname: baseName(argv0),
		runID:    uuid.NewString(),
		stderr:   os.Stderr,
	}
	for _, opt := range opts {
		opt(info)
	}
	if info.execname == "" {
		info.execname = processName()
	}
	return info
}

// ExecName returns the program name used to prefix diagnostics.
func (i *Info) ExecName() string {
	return i.execname
}

// RunID returns the identifier generated for this execution.
func (i *Info) RunID() string {
	return i.runID
}

// OnComplaint registers fn to run every time a failure is reported.
// Hooks are registered during startup, before any command runs. Each
// call adds a hook, so register a given hook once per Info.
func (i *Info) OnComplaint(fn func()) {
	i.hooks = append(i.hooks, fn)
}

// SetExitStatus records the status the process will exit with.
func (i *Info) SetExitStatus(status int) {
	i.exitStatus.Store(int64(status))
}

// ExitStatus returns the last recorded exit status.
func (i *Info) ExitStatus() int {
	return int(i.exitStatus.Load())
}

// Complain marks the run as failed, writes "<execname>: " to the
// diagnostic stream and returns that stream. The caller finishes the
// line:
//
//	fmt.Fprintf(info.Complain(), "%s: some problem\n", filename)
func (i *Info) Complain() io.Writer {
	i.SetExitStatus(ExitFailure)
	for _, hook := range i.hooks {
		hook()
	}
	fmt.Fprintf(i.stderr, "%s: ", i.execname)
	return i.stderr
}

// Complainf is Complain followed by a formatted message and a newline.
func (i *Info) Complainf(format string, args ...any) {
	w := i.Complain()
	fmt.Fprintf(w, format, args...)
	fmt.Fprintln(w)
}

// SyscallError reports that an operation on name failed with err.
// The system error text is used when err wraps a syscall.Errno.
func (i *Info) SyscallError(name string, err error) {
	fmt.Fprintf(i.Complain(), "%s: %s\n", name, describeError(err))
}

func describeError(err error) string {
	if err == nil {
		return "unknown error"
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno.Error()
	}
	return err.Error()
}

func baseName(argv0 string) string {
	trimmed := strings.TrimRight(argv0, string(filepath.Separator))
	if trimmed == "" {
		return ""
	}
	base := filepath.Base(trimmed)
	if base == "." {
		return ""
	}
	return base
}

func processName() string {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return "unknown"
	}
	name, err := proc.Name()
	if err != nil || name == "" {
		return "unknown"
	}
	return name
}

type infoKey struct{}

// WithInfo returns a copy of ctx carrying info.
func WithInfo(ctx context.Context, info *Info) context.Context {
	return context.WithValue(ctx, infoKey{}, info)
}

// InfoFrom extracts the Info stored by WithInfo. main installs it before
// any command runs, so a missing Info is a programming error.
func InfoFrom(ctx context.Context) *Info {
	if info, ok := ctx.Value(infoKey{}).(*Info); ok {
		return info
	}
	panic("util: execution info missing from context")
}
