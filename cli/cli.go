package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"slices"
	"strings"

	flag "github.com/spf13/pflag"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrDuplicateCommand = errors.New("duplicate command")
	ErrFlagConflict     = errors.New("conflicting flag definition")
	HelpPatterns        = []string{"--help", "-h"} // HelpPatterns is a slice of flags that should trigger the output of usage information with the [Registry].

	keyCleansePattern = regexp.MustCompile(`\s`)
)

const (
	ExitOK    = 0 // ExitOK is returned from [Registry.Run] when a command completes without error.
	ExitError = 1 // ExitError is returned from [Registry.Run] when a command returns an error.
	ExitUsage = 2 // ExitUsage is returned from [Registry.Run] for a [UsageError] or an unknown command.

	NamespaceSeparator = ":"
)

// ExecFunc is the function that executes a [Command].
// The returned int is used as the exit code when the error is nil.
type ExecFunc = func(in *Input) (int, error)

// CommandSpec describes a [Command] to be added with [Registry.Register].
type CommandSpec struct {
	Name    string   // Name is the full name of the command, including any namespace prefix.
	Aliases []string // Aliases are additional names that may be used to invoke the command.
	Short   string   // Short is a one-line description shown in command listings.
	Long    string   // Long is shown in the command's usage output.
	Usage   string   // Usage is an argument synopsis appended to the command name, like "[FLAGS] NAME".
	Define  func(flags *flag.FlagSet)
	Exec    ExecFunc
}

// Command is an executable function in a CLI, registered in a [Registry].
type Command struct {
	name      string
	namespace string
	aliases   []string
	short     string
	long      string
	usage     string
	define    func(flags *flag.FlagSet)
	exec      ExecFunc
}

// CleanseKey normalizes a command name, alias, or namespace the way a [Registry] stores it: lower-cased with all whitespace removed.
func CleanseKey(key string) string {
	return keyCleansePattern.ReplaceAllString(strings.ToLower(key), "")
}

func splitNamespace(name string) string {
	idx := strings.LastIndex(name, NamespaceSeparator)
	if idx < 0 {
		return ""
	}
	return name[:idx]
}

// Name returns the full name of the [Command].
func (c *Command) Name() string {
	return c.name
}

// Namespace returns the namespace prefix of the [Command], which is empty for top level commands.
func (c *Command) Namespace() string {
	return c.namespace
}

// Aliases returns a sorted copy of the [Command]'s aliases.
func (c *Command) Aliases() []string {
	return slices.Clone(c.aliases)
}

// Short returns the one-line description of the [Command].
func (c *Command) Short() string {
	return c.short
}

// Registry is a flat set of [Command] keyed by their full name.
// Commands are grouped by [Namespace], and each namespace may contribute global options that apply to all of its commands.
type Registry struct {
	name       string
	printer    *Printer
	logger     *slog.Logger
	root       *Namespace
	namespaces map[string]*Namespace
	commands   map[string]*Command
	aliases    map[string]*Command
	cmdContext func(ctx context.Context) (context.Context, context.CancelFunc)
}

// NewRegistry is used to set up the root of a CLI's command structure.
// The name should be the name used to invoke the CLI, and is used for usage information.
func NewRegistry(name string) *Registry {
	return &Registry{
		name:       name,
		printer:    NewPrinter(),
		root:       &Namespace{},
		namespaces: map[string]*Namespace{},
		commands:   map[string]*Command{},
		aliases:    map[string]*Command{},
	}
}

// Name returns the name used to invoke the CLI.
func (r *Registry) Name() string {
	return r.name
}

// Printer returns the [Printer] shared by all commands in this [Registry].
func (r *Registry) Printer() *Printer {
	if r.printer == nil {
		r.printer = NewPrinter()
	}
	return r.printer
}

// SetLogger sets the logger passed to commands through [Input].
func (r *Registry) SetLogger(logger *slog.Logger) {
	r.logger = logger
}

func (r *Registry) log() *slog.Logger {
	if r.logger == nil {
		return slog.Default()
	}
	return r.logger
}

// SetCommandContext sets a function deriving the context of each executed command from the context passed to [Registry.Exec].
// The returned cancel function is called when the command returns.
// This lets a long running session, like [Registry.RespondInteractive], cancel one command without affecting the next.
func (r *Registry) SetCommandContext(derive func(ctx context.Context) (context.Context, context.CancelFunc)) {
	r.cmdContext = derive
}

// Globals returns the root [Namespace], which applies its global options to every command.
func (r *Registry) Globals() *Namespace {
	return r.root
}

// Namespace returns the [Namespace] with the given name, creating it if needed.
// An empty name refers to the root namespace.
func (r *Registry) Namespace(name string) *Namespace {
	name = CleanseKey(name)
	if len(name) == 0 {
		return r.root
	}
	ns, ok := r.namespaces[name]
	if !ok {
		ns = &Namespace{name: name}
		r.namespaces[name] = ns
	}
	return ns
}

// namespaceChain returns the root namespace followed by each namespace prefix of ns, outermost first.
func (r *Registry) namespaceChain(ns string) []*Namespace {
	chain := []*Namespace{r.root}
	if len(ns) == 0 {
		return chain
	}
	parts := strings.Split(ns, NamespaceSeparator)
	for i := range parts {
		prefix := strings.Join(parts[:i+1], NamespaceSeparator)
		if found, ok := r.namespaces[prefix]; ok {
			chain = append(chain, found)
		}
	}
	return chain
}

// Register adds a [Command] to this [Registry].
// The name and aliases are cleansed to remove spaces, and normalized to lower-case.
//
// An error wrapping [ErrDuplicateCommand] is returned if the name or any alias is already taken by another command.
// Global options should be added before registering commands, since flag conflicts are checked here.
func (r *Registry) Register(spec CommandSpec) (*Command, error) {
	key := CleanseKey(spec.Name)
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty command name", ErrUnknownCommand)
	}
	if spec.Exec == nil {
		panic("nil exec function")
	}
	if r.taken(key) {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCommand, key)
	}
	cmd := &Command{
		name:      key,
		namespace: splitNamespace(key),
		short:     spec.Short,
		long:      spec.Long,
		usage:     spec.Usage,
		define:    spec.Define,
		exec:      spec.Exec,
	}
	aliases := make([]string, 0, len(spec.Aliases))
	for _, alias := range spec.Aliases {
		alias = CleanseKey(alias)
		if len(alias) == 0 || alias == key || slices.Contains(aliases, alias) {
			continue
		}
		if r.taken(alias) {
			return nil, fmt.Errorf("%w: alias '%s' of %s", ErrDuplicateCommand, alias, key)
		}
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)
	cmd.aliases = aliases
	if _, err := r.flagSet(cmd); err != nil {
		return nil, err
	}

	r.commands[key] = cmd
	for _, alias := range aliases {
		r.aliases[alias] = cmd
	}
	if len(cmd.namespace) > 0 {
		r.Namespace(cmd.namespace)
	}
	return cmd, nil
}

func (r *Registry) taken(key string) bool {
	if _, ok := r.commands[key]; ok {
		return true
	}
	_, ok := r.aliases[key]
	return ok
}

// Lookup finds a [Command] by full name or alias.
func (r *Registry) Lookup(name string) (*Command, bool) {
	key := CleanseKey(name)
	if cmd, ok := r.commands[key]; ok {
		return cmd, true
	}
	cmd, ok := r.aliases[key]
	return cmd, ok
}

// Commands returns all registered commands sorted by full name.
func (r *Registry) Commands() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	slices.SortFunc(cmds, func(a, b *Command) int {
		return strings.Compare(a.name, b.name)
	})
	return cmds
}

// flagSet builds the flags for a command: help, then global options from outermost to innermost namespace, then the command's own flags.
// Conflicting definitions are reported as an error instead of panicking.
func (r *Registry) flagSet(cmd *Command) (fs *flag.FlagSet, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			fs = nil
			err = fmt.Errorf("%w: command %s: %v", ErrFlagConflict, cmd.name, rec)
		}
	}()
	fs = flag.NewFlagSet(cmd.name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	fs.BoolP("help", "h", false, "Prints this usage information")
	fs.SetInterspersed(false)
	for _, ns := range r.namespaceChain(cmd.namespace) {
		for _, opt := range ns.globals {
			if opt.define != nil {
				opt.define(fs)
			}
		}
	}
	if cmd.define != nil {
		cmd.define(fs)
	}
	return fs, nil
}

// Exec resolves the [Command] named by the first argument and executes it with the rest, parsing flags.
// The exit code reported by the command is returned along with any error.
func (r *Registry) Exec(ctx context.Context, args []string) (int, error) {
	if len(args) == 0 {
		return ExitUsage, fmt.Errorf("%w: no arguments", ErrUnknownCommand)
	}
	cmd, ok := r.Lookup(args[0])
	if !ok {
		return ExitUsage, fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	fs, err := r.flagSet(cmd)
	if err != nil {
		return ExitError, err
	}
	if err := fs.Parse(args[1:]); err != nil {
		return ExitUsage, &UsageError{wrapped: err, command: cmd}
	}
	if MustGet(fs.GetBool("help")) {
		r.Printer().Print(r.CommandUsage(cmd, fs))
		return ExitOK, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if r.cmdContext != nil {
		var cancel context.CancelFunc
		ctx, cancel = r.cmdContext(ctx)
		defer cancel()
	}
	in := &Input{
		Context: ctx,
		Command: cmd.name,
		Flags:   fs,
		Args:    fs.Args(),
		Printer: r.Printer(),
		Logger:  r.log().With("command", cmd.name),
	}
	for _, ns := range r.namespaceChain(cmd.namespace) {
		if err := ns.resolve(in); err != nil {
			return ExitError, withCommand(err, cmd)
		}
	}
	code, err := cmd.exec(in)
	if err != nil {
		return code, withCommand(err, cmd)
	}
	return code, nil
}

// withCommand links a [UsageError] to the command that returned it, so usage can be shown.
func withCommand(err error, cmd *Command) error {
	var usageErr *UsageError
	if errors.As(err, &usageErr) && usageErr.command == nil {
		usageErr.command = cmd
	}
	return err
}

// Run executes the command named in args, reporting errors as diagnostic output of the [Printer], and returns a process exit code.
//
// A [UsageError] or unknown command results in [ExitUsage] along with usage information.
// Other errors result in [ExitError], unless the error implements [ExitCoder].
func (r *Registry) Run(ctx context.Context, args []string) int {
	code, err := r.Exec(ctx, args)
	if err == nil {
		return code
	}
	p := r.Printer()
	var usageErr *UsageError
	switch {
	case errors.As(err, &usageErr):
		p.Errorln(err)
		if usageErr.command != nil {
			fs, ferr := r.flagSet(usageErr.command)
			if ferr == nil {
				p.errorPrint(r.CommandUsage(usageErr.command, fs))
			}
		}
		return ExitUsage
	case errors.Is(err, ErrUnknownCommand):
		p.Errorln(err)
		p.errorPrint(r.Usage())
		return ExitUsage
	}
	p.Errorln("Error:", err)
	var coder ExitCoder
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	if code == ExitOK {
		return ExitError
	}
	return code
}

// RespondUsage will print usage information with the [Printer] if there are no arguments, or one of [HelpPatterns] is given as the first argument.
// If usage information was printed, then true will be returned.
func (r *Registry) RespondUsage(args []string) bool {
	if len(args) > 0 && !slices.Contains(HelpPatterns, args[0]) {
		return false
	}
	r.Printer().Print(r.Usage())
	return true
}

// Usage returns the top level usage information listing all commands.
func (r *Registry) Usage() string {
	return fmt.Sprintf(`USAGE:
%s COMMAND [FLAGS...] [ARGS...]

COMMANDS:
%s`, r.name, r.CommandUsages())
}

// CommandUsage renders usage information for a single [Command] with its parsed or freshly built flag set.
func (r *Registry) CommandUsage(cmd *Command, fs *flag.FlagSet) string {
	var buf strings.Builder
	if len(cmd.short) > 0 {
		buf.WriteString(cmd.short + "\n\n")
	}
	buf.WriteString("USAGE:\n")
	buf.WriteString(strings.TrimSpace(strings.Join([]string{r.name, cmd.name, cmd.usage}, " ")) + "\n")
	if len(cmd.aliases) > 0 {
		buf.WriteString("\nALIASES:\n  " + strings.Join(cmd.aliases, ", ") + "\n")
	}
	if len(cmd.long) > 0 {
		buf.WriteString("\n" + strings.TrimSuffix(cmd.long, "\n") + "\n")
	}
	buf.WriteString("\nFLAGS\n")
	buf.WriteString(fs.FlagUsages())
	return buf.String()
}

// CommandUsages returns a string including the usage information for all commands in this [Registry].
//
// The commands are sorted by full name before output, so commands in the same namespace are listed together.
func (r *Registry) CommandUsages() string {
	var (
		buf         strings.Builder
		cmds        = r.Commands()
		withAliases = make([]string, len(cmds))
		maxLen      int
	)
	for i, cmd := range cmds {
		withAliases[i] = cmd.name
		if len(cmd.aliases) > 0 {
			withAliases[i] = strings.Join(append([]string{cmd.name}, cmd.aliases...), ", ")
		}
		if l := len(withAliases[i]); l > maxLen {
			maxLen = l
		}
	}
	fmtStr := fmt.Sprintf("  %%-%ds\t%%s\n", maxLen)
	for i, cmd := range cmds {
		buf.WriteString(fmt.Sprintf(fmtStr, withAliases[i], cmd.short))
	}
	return buf.String()
}
