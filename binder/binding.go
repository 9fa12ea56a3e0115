package binder

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/saylorsolutions/cmdbind/cli"
	flag "github.com/spf13/pflag"
)

// Kind identifies the variant of a [Binding].
type Kind int

const (
	KindRuntimeValue Kind = iota + 1
	KindBooleanFlag
	KindPositional
)

func (k Kind) String() string {
	switch k {
	case KindRuntimeValue:
		return "runtime value"
	case KindBooleanFlag:
		return "boolean flag"
	case KindPositional:
		return "positional argument"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Binding maps one method parameter to the source of its value at invocation time.
// The variants are [RuntimeValue], [BooleanFlag], and [PositionalArgument].
type Binding interface {
	Kind() Kind
	// Name is the name exposed on the command line, which is empty for a [RuntimeValue].
	Name() string
	Param() Param
	Required() bool
	Default() any

	define(flags *flag.FlagSet)
	resolve(in *cli.Input, args *argCursor) (reflect.Value, error)
}

// Resolver provides a runtime value from the invocation [cli.Input].
type Resolver func(in *cli.Input) (reflect.Value, error)

// RuntimeValue is a parameter filled by the engine, like the [cli.Printer], and never exposed to the user.
type RuntimeValue struct {
	param  Param
	source Resolver
}

func (b *RuntimeValue) Kind() Kind     { return KindRuntimeValue }
func (b *RuntimeValue) Name() string   { return "" }
func (b *RuntimeValue) Param() Param   { return b.param }
func (b *RuntimeValue) Required() bool { return false }
func (b *RuntimeValue) Default() any   { return nil }

func (b *RuntimeValue) define(*flag.FlagSet) {}

func (b *RuntimeValue) resolve(in *cli.Input, _ *argCursor) (reflect.Value, error) {
	val, err := b.source(in)
	if err != nil {
		return reflect.Value{}, err
	}
	if !val.IsValid() {
		return reflect.Zero(b.param.Type), nil
	}
	return val, nil
}

// BooleanFlag is a bool parameter exposed as a flag with no value.
type BooleanFlag struct {
	param     Param
	name      string
	shorthand string
	aliases   []string
	def       bool
}

func (b *BooleanFlag) Kind() Kind     { return KindBooleanFlag }
func (b *BooleanFlag) Name() string   { return b.name }
func (b *BooleanFlag) Param() Param   { return b.param }
func (b *BooleanFlag) Required() bool { return false }
func (b *BooleanFlag) Default() any   { return b.def }

// Shorthand returns the one letter form of the flag, if any.
func (b *BooleanFlag) Shorthand() string { return b.shorthand }

func (b *BooleanFlag) define(flags *flag.FlagSet) {
	flags.BoolP(b.name, b.shorthand, b.def, fmt.Sprintf("Sets %s", b.param.Name))
	for _, alias := range b.aliases {
		flags.Bool(alias, b.def, fmt.Sprintf("Alias for --%s", b.name))
		_ = flags.MarkHidden(alias)
	}
}

func (b *BooleanFlag) resolve(in *cli.Input, _ *argCursor) (reflect.Value, error) {
	if in.Flags == nil {
		return reflect.Value{}, fmt.Errorf("%w: no parsed flags to read --%s from", ErrNoFlags, b.name)
	}
	val, err := in.Flags.GetBool(b.name)
	if err != nil {
		return reflect.Value{}, err
	}
	for _, alias := range b.aliases {
		if in.Flags.Changed(alias) {
			val = cli.MustGet(in.Flags.GetBool(alias))
		}
	}
	return reflect.ValueOf(val).Convert(b.param.Type), nil
}

// PositionalArgument is a parameter given as a command line argument, in declaration order.
// It's required if the parameter has no default.
// A variadic parameter collects all remaining arguments.
type PositionalArgument struct {
	param    Param
	name     string
	required bool
	def      reflect.Value
}

func (b *PositionalArgument) Kind() Kind     { return KindPositional }
func (b *PositionalArgument) Name() string   { return b.name }
func (b *PositionalArgument) Param() Param   { return b.param }
func (b *PositionalArgument) Required() bool { return b.required }

func (b *PositionalArgument) Default() any {
	if !b.def.IsValid() {
		return nil
	}
	return b.def.Interface()
}

func (b *PositionalArgument) define(*flag.FlagSet) {}

func (b *PositionalArgument) synopsis() string {
	name := strings.ToUpper(b.name)
	switch {
	case b.param.Variadic:
		return "[" + name + "...]"
	case b.required:
		return name
	default:
		return "[" + name + "]"
	}
}

func (b *PositionalArgument) resolve(_ *cli.Input, args *argCursor) (reflect.Value, error) {
	if b.param.Variadic {
		rest := args.rest()
		slice := reflect.MakeSlice(b.param.Type, 0, len(rest))
		for _, raw := range rest {
			val, err := decodeValue(raw, b.param.Type.Elem())
			if err != nil {
				return reflect.Value{}, cli.NewUsageError("invalid %s '%s': %w", strings.ToUpper(b.name), raw, err)
			}
			slice = reflect.Append(slice, val)
		}
		return slice, nil
	}
	raw, ok := args.next()
	if !ok {
		if b.required {
			return reflect.Value{}, cli.NewUsageError("missing required argument %s", strings.ToUpper(b.name))
		}
		return b.def, nil
	}
	val, err := decodeValue(raw, b.param.Type)
	if err != nil {
		return reflect.Value{}, cli.NewUsageError("invalid %s '%s': %w", strings.ToUpper(b.name), raw, err)
	}
	return val, nil
}

type argCursor struct {
	args []string
	pos  int
}

func (c *argCursor) next() (string, bool) {
	if c.pos >= len(c.args) {
		return "", false
	}
	val := c.args[c.pos]
	c.pos++
	return val, true
}

func (c *argCursor) rest() []string {
	if c.pos >= len(c.args) {
		return nil
	}
	rest := c.args[c.pos:]
	c.pos = len(c.args)
	return rest
}

func (c *argCursor) remaining() []string {
	return c.args[c.pos:]
}

// decodeValue converts an argument string or a declared default to typ, with the same weak typing rules for both.
// Comma separated values are accepted for slices, and Go duration strings for [time.Duration].
func decodeValue(input any, typ reflect.Type) (reflect.Value, error) {
	out := reflect.New(typ)
	if input == nil {
		return out.Elem(), nil
	}
	if str, ok := input.(string); ok && typ.Kind() == reflect.Slice {
		if len(str) == 0 {
			return reflect.MakeSlice(typ, 0, 0), nil
		}
		input = strings.Split(str, ",")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		Result:           out.Interface(),
	})
	if err != nil {
		return reflect.Value{}, err
	}
	if err := dec.Decode(input); err != nil {
		return reflect.Value{}, err
	}
	return out.Elem(), nil
}
