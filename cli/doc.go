/*
Package cli provides an opinionated command engine for a CLI made of namespaced commands.

There are a few reasonable (IMHO) policies for how this operates.

  - User-visible output should go to STDERR by default. This is supported with a configurable [Printer].
  - This package uses [pflag] for posix style flags.
  - Flags should NOT be interspersed. This makes flag and argument parsing much more consistent and predictable.
  - Commands live in a flat [Registry] keyed by a full name like "users:create-user", where everything before the last colon is the [Namespace].
  - Aliases are often very convenient, so they're supported as part of the [CommandSpec].
  - Global options belong to a [Namespace], and are resolved into the [Input] before the command runs. There is no package level state.

# Invocation

Invoking a CLI built with this package always follows this form:

	CLI_NAME COMMAND [FLAGS...] [ARGS...]

Just calling CLI_NAME will print usage information for the tool with [Registry.RespondUsage].

# Exit codes

[Registry.Run] translates the outcome of a command into a process exit code.
A command reports its own code when it succeeds, errors map to [ExitError], and a [UsageError] or unknown command maps to [ExitUsage] along with usage information.
An error that implements [ExitCoder] picks its own code, see [WithExitCode].

# Prioritizing Dev UX

If your CLI calls [Registry.RespondInteractive], then you're enabling the use of the [InteractiveFlag] (which can be changed) to enter interactive mode.
Commands run in-process, so the same command receivers are used for the whole session.

Use the [UseCommand] with a namespace to avoid typing the prefix for each command, and [BackCommand] to pop it again.
To exit interactive mode, use one of the [InteractiveQuitCommands] at the prompt.

[pflag]: https://github.com/spf13/pflag
*/
package cli
