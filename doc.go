/*
Package cmdbind turns annotated methods into CLI commands.

Metadata that Go reflection can't provide, like parameter names and defaults, is declared with struct tag syntax by a type implementing reflection.Annotated, or in a YAML manifest loaded with the annotation package.
The binder package then maps each parameter to a runtime-provided value, a boolean flag, or a positional argument, and registers the resulting commands with a cli.Registry.

See cmd/usersctl for a complete program.
*/
package cmdbind
