package keymap

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/psantana5/keymap/internal/metrics"
	"github.com/psantana5/keymap/pkg/logging"
	"github.com/psantana5/keymap/pkg/util"
)

// StdinName is the file argument that selects standard input.
const StdinName = "-"

const maxLineBytes = 1024 * 1024

// Interpreter executes keymap input against a Store.
// Logger and Metrics are optional.
type Interpreter struct {
	Store   Store
	In      io.Reader
	Out     io.Writer
	Info    *util.Info
	Logger  *logging.Logger
	Metrics *metrics.Metrics
}

// Run processes each file in order; no files means standard input.
// A file that cannot be opened or read is reported through Info and the
// run moves on. Only cancellation of ctx stops the run early.
func (it *Interpreter) Run(ctx context.Context, files []string) error {
	if len(files) == 0 {
		files = []string{StdinName}
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		var err error
		if file == StdinName {
			err = it.Process(ctx, file, it.input())
		} else {
			err = it.processFile(ctx, file)
		}
		if err == nil {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		it.Info.Complainf("%v", err)
	}
	return nil
}

func (it *Interpreter) processFile(ctx context.Context, file string) error {
	f, err := os.Open(file)
	if err != nil {
		it.Info.SyscallError(file, err)
		return nil
	}
	defer f.Close()
	return it.Process(ctx, file, f)
}

// Process echoes every line of r as "<name>: <lineno>: <line>" and then
// executes it.
func (it *Interpreter) Process(ctx context.Context, name string, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineno := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		lineno++
		line := scanner.Text()
		fmt.Fprintf(it.Out, "%s: %s: %s\n", name, util.ToString(lineno), line)

		cmd := ParseLine(line)
		if it.Metrics != nil {
			it.Metrics.ObserveLine(cmd.Kind.String())
		}
		if err := it.Execute(cmd); err != nil {
			return fmt.Errorf("%s: %d: %w", name, lineno, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}

	if it.Logger != nil {
		it.Logger.Debug("processed input", map[string]interface{}{"file": name, "lines": lineno})
	}
	return nil
}

// Execute applies one command to the store and writes its output.
func (it *Interpreter) Execute(cmd Command) error {
	switch cmd.Kind {
	case KindNone, KindComment:
		return nil

	case KindLookup:
		value, ok, err := it.Store.Get(cmd.Key)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(it.Out, "%s: key not found\n", cmd.Key)
			return nil
		}
		fmt.Fprintln(it.Out, Pair{Key: cmd.Key, Value: value})

	case KindDelete:
		deleted, err := it.Store.Delete(cmd.Key)
		if err != nil {
			return err
		}
		if it.Logger != nil && !deleted {
			it.Logger.Debug("delete of absent key", map[string]interface{}{"key": cmd.Key})
		}
		return it.recordSize()

	case KindSet:
		if err := it.Store.Set(cmd.Key, cmd.Value); err != nil {
			return err
		}
		fmt.Fprintln(it.Out, Pair{Key: cmd.Key, Value: cmd.Value})
		return it.recordSize()

	case KindList:
		pairs, err := it.Store.All()
		if err != nil {
			return err
		}
		it.printPairs(pairs)

	case KindFind:
		pairs, err := FindByValue(it.Store, cmd.Value)
		if err != nil {
			return err
		}
		it.printPairs(pairs)

	default:
		return fmt.Errorf("unsupported command kind %v", cmd.Kind)
	}
	return nil
}

func (it *Interpreter) printPairs(pairs []Pair) {
	for _, p := range pairs {
		fmt.Fprintln(it.Out, p)
	}
}

func (it *Interpreter) recordSize() error {
	if it.Metrics == nil {
		return nil
	}
	n, err := it.Store.Len()
	if err != nil {
		return err
	}
	it.Metrics.SetStoreKeys(n)
	return nil
}

func (it *Interpreter) input() io.Reader {
	if it.In != nil {
		return it.In
	}
	return os.Stdin
}
