package cli

import (
	"context"
	"log/slog"

	flag "github.com/spf13/pflag"
)

// PreExec is a function that runs right before a [Command] executes, after flags are parsed.
// It's used by global options to populate shared state in the [Input].
type PreExec func(in *Input) error

type globalOption struct {
	define  func(flags *flag.FlagSet)
	resolve PreExec
}

// Namespace groups commands that share a name prefix, like "users" in "users:create".
// Global options added to a Namespace are defined for every command in it, including nested namespaces.
type Namespace struct {
	name    string
	globals []globalOption
}

// Name returns the namespace prefix, which is empty for the root namespace.
func (n *Namespace) Name() string {
	return n.name
}

// AddGlobal registers a global option for this [Namespace].
// The define function adds flags to each command's flag set and may be nil.
// The resolve function runs before the command executes, in registration order, with outer namespaces resolved first.
// If resolve returns an error, then the [Command] will not be executed, and the error will be returned from [Registry.Exec] instead.
//
// Passing a nil resolve function will panic.
func (n *Namespace) AddGlobal(define func(flags *flag.FlagSet), resolve PreExec) *Namespace {
	if resolve == nil {
		panic("nil pre-exec function")
	}
	n.globals = append(n.globals, globalOption{define: define, resolve: resolve})
	return n
}

func (n *Namespace) resolve(in *Input) error {
	for _, opt := range n.globals {
		if err := opt.resolve(in); err != nil {
			return err
		}
	}
	return nil
}

// Input is the invocation context handed to a [Command].
// Flags are already parsed, and Args holds the positional arguments that remain.
type Input struct {
	Context context.Context
	Command string
	Flags   *flag.FlagSet
	Args    []string
	Printer *Printer
	Logger  *slog.Logger

	values map[string]any
}

// Set stores shared state for the rest of the invocation, usually from a global option's [PreExec].
func (in *Input) Set(key string, val any) {
	if in.values == nil {
		in.values = map[string]any{}
	}
	in.values[key] = val
}

// Value retrieves shared state stored with [Input.Set].
func (in *Input) Value(key string) (any, bool) {
	val, ok := in.values[key]
	return val, ok
}
