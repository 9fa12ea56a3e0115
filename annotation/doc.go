/*
Package annotation reads declarative command metadata for methods.

Go has no method annotations, so metadata is declared either in struct tag syntax with [Tags], usually returned from an Annotations method on the type, or in a YAML [Manifest].
Both are a [Source] keyed by Go method name.

The presence of metadata is what makes a method a command.
An annotation with an empty command key still marks a command, and the name will be derived from the method name.
*/
package annotation
