package binder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"

	"github.com/saylorsolutions/cmdbind/cli"
	flag "github.com/spf13/pflag"
)

var (
	inputType   = reflect.TypeOf((*cli.Input)(nil))
	printerType = reflect.TypeOf((*cli.Printer)(nil))
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	loggerType  = reflect.TypeOf((*slog.Logger)(nil))
	flagSetType = reflect.TypeOf((*flag.FlagSet)(nil))
	errorType   = reflect.TypeOf((*error)(nil)).Elem()

	reservedFlags = []string{"help", "h"}
)

// DefaultResolvers returns the runtime-provided types recognized by a [Binder] created with [New].
// These are the [cli.Input] itself, its [cli.Printer], [context.Context], [slog.Logger], and the parsed [flag.FlagSet].
func DefaultResolvers() map[reflect.Type]Resolver {
	return map[reflect.Type]Resolver{
		inputType: func(in *cli.Input) (reflect.Value, error) {
			return reflect.ValueOf(in), nil
		},
		printerType: func(in *cli.Input) (reflect.Value, error) {
			return reflect.ValueOf(in.Printer), nil
		},
		contextType: func(in *cli.Input) (reflect.Value, error) {
			ctx := in.Context
			if ctx == nil {
				ctx = context.Background()
			}
			return reflect.ValueOf(&ctx).Elem(), nil
		},
		loggerType: func(in *cli.Input) (reflect.Value, error) {
			if in.Logger == nil {
				return reflect.ValueOf(slog.Default()), nil
			}
			return reflect.ValueOf(in.Logger), nil
		},
		flagSetType: func(in *cli.Input) (reflect.Value, error) {
			return reflect.ValueOf(in.Flags), nil
		},
	}
}

// Strategy is one predicate and constructor pair in the ordered chain used to bind a parameter.
// The first Strategy that matches a parameter builds its [Binding].
type Strategy struct {
	Kind    Kind
	Matches func(p Param) bool
	Build   func(p Param) (Binding, error)
}

// RuntimeValueStrategy matches parameters with a type in resolvers.
func RuntimeValueStrategy(resolvers map[reflect.Type]Resolver) Strategy {
	return Strategy{
		Kind: KindRuntimeValue,
		Matches: func(p Param) bool {
			_, ok := resolvers[p.Type]
			return ok
		},
		Build: func(p Param) (Binding, error) {
			return &RuntimeValue{param: p, source: resolvers[p.Type]}, nil
		},
	}
}

// BooleanFlagStrategy matches parameters of a bool kind.
func BooleanFlagStrategy() Strategy {
	return Strategy{
		Kind: KindBooleanFlag,
		Matches: func(p Param) bool {
			return p.Type.Kind() == reflect.Bool
		},
		Build: func(p Param) (Binding, error) {
			b := &BooleanFlag{param: p, name: cliName(p)}
			if p.Meta != nil {
				b.shorthand = p.Meta.Shorthand
				b.aliases = slices.Clone(p.Meta.Aliases)
			}
			if len(b.shorthand) > 1 {
				return nil, fmt.Errorf("shorthand '%s' must be a single letter", b.shorthand)
			}
			if p.HasDefault {
				def, err := decodeValue(p.Default, reflect.TypeOf(false))
				if err != nil {
					return nil, fmt.Errorf("invalid default: %w", err)
				}
				b.def = def.Bool()
			}
			return b, nil
		},
	}
}

// PositionalStrategy matches every parameter, so it should be last.
func PositionalStrategy() Strategy {
	return Strategy{
		Kind: KindPositional,
		Matches: func(Param) bool {
			return true
		},
		Build: func(p Param) (Binding, error) {
			b := &PositionalArgument{param: p, name: cliName(p), required: !p.HasDefault && !p.Variadic}
			if p.HasDefault {
				def, err := decodeValue(p.Default, p.Type)
				if err != nil {
					return nil, fmt.Errorf("invalid default: %w", err)
				}
				b.def = def
			}
			return b, nil
		},
	}
}

// Binder converts reflected methods into command [Descriptor] values.
// A Binder holds no state that changes after construction, so it can be reused for many methods.
type Binder struct {
	resolvers  map[reflect.Type]Resolver
	strategies []Strategy
	logger     *slog.Logger
}

type Option func(b *Binder)

// WithRuntimeType recognizes typ as runtime-provided, resolved from the invocation [cli.Input].
func WithRuntimeType(typ reflect.Type, resolve Resolver) Option {
	return func(b *Binder) {
		if typ == nil || resolve == nil {
			panic("nil runtime type or resolver")
		}
		b.resolvers[typ] = resolve
	}
}

// WithStrategies replaces the default chain of RuntimeValue, BooleanFlag, and Positional strategies.
// A chain without [PositionalStrategy] may leave parameters unbound, which is reported as a [ParameterBindingError].
func WithStrategies(strategies ...Strategy) Option {
	return func(b *Binder) {
		b.strategies = slices.Clone(strategies)
	}
}

// WithLogger sets the logger used to report binding decisions at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) {
		b.logger = logger
	}
}

// New creates a [Binder] recognizing [DefaultResolvers] as runtime-provided types.
func New(opts ...Option) *Binder {
	b := &Binder{resolvers: DefaultResolvers(), logger: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.strategies == nil {
		b.strategies = []Strategy{
			RuntimeValueStrategy(b.resolvers),
			BooleanFlagStrategy(),
			PositionalStrategy(),
		}
	}
	return b
}

// Bind uses a default [Binder] to bind a single method.
func Bind(m Method, namespace string) (*Descriptor, error) {
	return New().Bind(m, namespace)
}

// Bind converts m into a [Descriptor] in the given namespace.
// Explicit names and the namespace are normalized with [cli.CleanseKey], so a descriptor's full name is the name it's dispatched by.
//
// A method without metadata is not a command, and a [NotACommandError] is returned.
// Each parameter is bound with the first matching [Strategy], in declaration order.
func (b *Binder) Bind(m Method, namespace string) (*Descriptor, error) {
	if m.Meta == nil {
		return nil, &NotACommandError{Method: m.Name}
	}
	name := cli.CleanseKey(m.Meta.Name)
	if len(name) == 0 {
		name = KebabCase(m.Name)
	}
	namespace = cli.CleanseKey(namespace)
	fullName := name
	if len(namespace) > 0 {
		fullName = namespace + cli.NamespaceSeparator + name
	}
	results, err := checkSignature(&m)
	if err != nil {
		return nil, err
	}

	d := &Descriptor{
		fullName:  fullName,
		name:      name,
		namespace: namespace,
		aliases:   slices.Clone(m.Meta.Aliases),
		doc:       m.Doc,
		bindings:  make([]Binding, 0, len(m.Params)),
		fn:        m.Func,
		variadic:  m.Func.Type().IsVariadic(),
		results:   results,
	}
	for _, p := range m.Params {
		binding, err := b.bindParam(fullName, p)
		if err != nil {
			return nil, err
		}
		d.bindings = append(d.bindings, binding)
	}
	if err := validateBindings(fullName, d.bindings); err != nil {
		return nil, err
	}
	return d, nil
}

func (b *Binder) bindParam(command string, p Param) (Binding, error) {
	for _, strategy := range b.strategies {
		if !strategy.Matches(p) {
			continue
		}
		binding, err := strategy.Build(p)
		if err != nil {
			return nil, &ParameterBindingError{Command: command, Param: p.Name, Reason: "binding as " + strategy.Kind.String(), Err: err}
		}
		return binding, nil
	}
	return nil, &ParameterBindingError{Command: command, Param: p.Name, Reason: "no binding strategy applies to type " + p.Type.String()}
}

func validateBindings(command string, bindings []Binding) error {
	var (
		names        = map[string]bool{}
		seenOptional bool
	)
	claim := func(p Param, name string) error {
		if slices.Contains(reservedFlags, name) {
			return &ParameterBindingError{Command: command, Param: p.Name, Reason: fmt.Sprintf("'%s' is reserved for help", name)}
		}
		if names[name] {
			return &ParameterBindingError{Command: command, Param: p.Name, Reason: fmt.Sprintf("name '%s' is already used", name)}
		}
		names[name] = true
		return nil
	}
	for _, binding := range bindings {
		p := binding.Param()
		switch binding := binding.(type) {
		case *BooleanFlag:
			if err := claim(p, binding.name); err != nil {
				return err
			}
			if len(binding.shorthand) > 0 {
				if err := claim(p, binding.shorthand); err != nil {
					return err
				}
			}
			for _, alias := range binding.aliases {
				if err := claim(p, alias); err != nil {
					return err
				}
			}
		case *PositionalArgument:
			if err := claim(p, binding.name); err != nil {
				return err
			}
			if binding.required && seenOptional {
				return &ParameterBindingError{Command: command, Param: p.Name, Reason: "required argument follows an optional argument"}
			}
			if !binding.required {
				seenOptional = true
			}
		}
	}
	return nil
}

type resultShape int

const (
	resultsNone resultShape = iota
	resultsCode
	resultsError
	resultsCodeError
)

func isIntKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	default:
		return false
	}
}

// checkSignature makes sure the method can be called with its params, filling in missing param types from the function, and classifies its results.
func checkSignature(m *Method) (resultShape, error) {
	if !m.Func.IsValid() || m.Func.Kind() != reflect.Func {
		return 0, &SignatureError{Method: m.Name, Reason: "not a function"}
	}
	ft := m.Func.Type()
	if ft.NumIn() != len(m.Params) {
		return 0, &SignatureError{Method: m.Name, Reason: fmt.Sprintf("function takes %d parameters, but %d are described", ft.NumIn(), len(m.Params))}
	}
	params := slices.Clone(m.Params)
	for i := range params {
		in := ft.In(i)
		if params[i].Type == nil {
			params[i].Type = in
		}
		if params[i].Type != in {
			return 0, &SignatureError{Method: m.Name, Reason: fmt.Sprintf("parameter %d is described as %s, but is %s", i, params[i].Type, in)}
		}
		if len(params[i].Name) == 0 {
			params[i].Name = fmt.Sprintf("arg%d", i)
		}
		params[i].Variadic = ft.IsVariadic() && i == ft.NumIn()-1
	}
	m.Params = params

	switch {
	case ft.NumOut() == 0:
		return resultsNone, nil
	case ft.NumOut() == 1 && ft.Out(0) == errorType:
		return resultsError, nil
	case ft.NumOut() == 1 && isIntKind(ft.Out(0).Kind()):
		return resultsCode, nil
	case ft.NumOut() == 2 && isIntKind(ft.Out(0).Kind()) && ft.Out(1) == errorType:
		return resultsCodeError, nil
	}
	return 0, &SignatureError{Method: m.Name, Reason: "results must be one of (), (int), (error), or (int, error)"}
}

// BindAll binds every method in the namespace.
// Methods that are not commands are skipped, and all other errors are joined.
func (b *Binder) BindAll(namespace string, methods ...Method) ([]*Descriptor, error) {
	var (
		descs []*Descriptor
		errs  []error
	)
	for _, m := range methods {
		d, err := b.Bind(m, namespace)
		if err != nil {
			if errors.Is(err, ErrNotACommand) {
				b.logger.Debug("Skipping method without command metadata", "method", m.Name)
				continue
			}
			errs = append(errs, err)
			continue
		}
		if slices.ContainsFunc(descs, d.Equal) {
			errs = append(errs, fmt.Errorf("%w: %s is bound more than once", cli.ErrDuplicateCommand, d.FullName()))
			continue
		}
		descs = append(descs, d)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return descs, nil
}

// Register binds every method in the namespace and registers the resulting commands in reg.
// Nothing is registered if any method fails to bind.
// Once binding succeeds, each command is registered in turn, and a command rejected by reg doesn't undo the ones registered before it.
// The returned descriptors are those that were registered.
func (b *Binder) Register(reg *cli.Registry, namespace string, methods ...Method) ([]*Descriptor, error) {
	descs, err := b.BindAll(namespace, methods...)
	if err != nil {
		return nil, err
	}
	var (
		registered = make([]*Descriptor, 0, len(descs))
		errs       []error
	)
	for _, d := range descs {
		if _, err := reg.Register(d.Spec()); err != nil {
			errs = append(errs, err)
			continue
		}
		b.logger.Debug("Registered command", "command", d.FullName(), "aliases", d.Aliases(), "params", len(d.bindings))
		registered = append(registered, d)
	}
	return registered, errors.Join(errs...)
}
