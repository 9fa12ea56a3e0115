package binder

import (
	"errors"
	"reflect"
	"slices"
	"strings"

	"github.com/saylorsolutions/cmdbind/cli"
	flag "github.com/spf13/pflag"
)

// Descriptor fully specifies one command bound from a method.
// It's immutable once created by a [Binder], and two descriptors are equal if their full names are equal.
type Descriptor struct {
	fullName  string
	name      string
	namespace string
	aliases   []string
	doc       Doc
	bindings  []Binding
	fn        reflect.Value
	variadic  bool
	results   resultShape
}

// FullName is the namespace and name joined with a colon, or just the name without a namespace.
func (d *Descriptor) FullName() string {
	return d.fullName
}

func (d *Descriptor) Name() string {
	return d.name
}

func (d *Descriptor) Namespace() string {
	return d.namespace
}

func (d *Descriptor) Aliases() []string {
	return slices.Clone(d.aliases)
}

func (d *Descriptor) Short() string {
	return d.doc.Short
}

func (d *Descriptor) Long() string {
	return d.doc.Long
}

// Bindings returns the parameter bindings in declaration order.
func (d *Descriptor) Bindings() []Binding {
	return slices.Clone(d.bindings)
}

// Equal reports whether both descriptors have the same full name, regardless of anything else.
func (d *Descriptor) Equal(other *Descriptor) bool {
	if d == nil || other == nil {
		return d == other
	}
	return d.fullName == other.fullName
}

// Usage is the argument synopsis, like "[FLAGS] NAME [TAGS...]".
func (d *Descriptor) Usage() string {
	parts := []string{"[FLAGS]"}
	for _, binding := range d.bindings {
		if pos, ok := binding.(*PositionalArgument); ok {
			parts = append(parts, pos.synopsis())
		}
	}
	return strings.Join(parts, " ")
}

// Define adds the flags of all bindings to the flag set.
func (d *Descriptor) Define(flags *flag.FlagSet) {
	for _, binding := range d.bindings {
		binding.define(flags)
	}
}

// Invoke resolves every binding from the [cli.Input] in declaration order and calls the method.
// The method's int result is returned as the exit code, and a non-nil error result is returned with [cli.ExitError].
//
// Missing, invalid, or extra arguments are reported as a [cli.UsageError] with [cli.ExitUsage].
// Other resolution failures, like a [Resolver] error or an Input without parsed Flags, are returned with [cli.ExitError].
func (d *Descriptor) Invoke(in *cli.Input) (int, error) {
	var (
		args = &argCursor{args: in.Args}
		vals = make([]reflect.Value, len(d.bindings))
	)
	for i, binding := range d.bindings {
		val, err := binding.resolve(in, args)
		if err != nil {
			var usageErr *cli.UsageError
			if errors.As(err, &usageErr) {
				return cli.ExitUsage, err
			}
			return cli.ExitError, err
		}
		vals[i] = val
	}
	if extra := args.remaining(); len(extra) > 0 {
		return cli.ExitUsage, cli.NewUsageError("unexpected arguments: %s", strings.Join(extra, " "))
	}

	var out []reflect.Value
	if d.variadic {
		out = d.fn.CallSlice(vals)
	} else {
		out = d.fn.Call(vals)
	}
	switch d.results {
	case resultsCode:
		return exitCode(out[0]), nil
	case resultsError:
		if err, _ := out[0].Interface().(error); err != nil {
			return cli.ExitError, err
		}
		return cli.ExitOK, nil
	case resultsCodeError:
		code := exitCode(out[0])
		if err, _ := out[1].Interface().(error); err != nil {
			if code == cli.ExitOK {
				code = cli.ExitError
			}
			return code, err
		}
		return code, nil
	default:
		return cli.ExitOK, nil
	}
}

func exitCode(val reflect.Value) int {
	if val.CanInt() {
		return int(val.Int())
	}
	return int(val.Uint())
}

// Spec creates the [cli.CommandSpec] used to register this command with a [cli.Registry].
func (d *Descriptor) Spec() cli.CommandSpec {
	return cli.CommandSpec{
		Name:    d.fullName,
		Aliases: d.Aliases(),
		Short:   d.doc.Short,
		Long:    d.doc.Long,
		Usage:   d.Usage(),
		Define:  d.Define,
		Exec:    d.Invoke,
	}
}
