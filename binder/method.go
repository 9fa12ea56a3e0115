package binder

import (
	"reflect"
	"strings"
	"unicode"
)

// Metadata is the declarative override attached to a method or parameter.
// A nil *Metadata on a [Method] means the method is not a command, while an empty one means the name is derived.
type Metadata struct {
	Name      string
	Aliases   []string
	Shorthand string // Shorthand is a one letter flag name, only used for parameters bound as a [BooleanFlag].
}

// Doc is the help text of a command, copied as-is into the [Descriptor].
type Doc struct {
	Short string
	Long  string
}

// Param is a reflected method parameter.
type Param struct {
	Name       string
	Type       reflect.Type
	Default    any
	HasDefault bool
	Variadic   bool
	Meta       *Metadata
}

// Method is a reflected method, usually produced by the reflection package.
// Func must be callable without a receiver, like a method value from [reflect.Value.Method].
type Method struct {
	Name   string
	Func   reflect.Value
	Params []Param
	Meta   *Metadata
	Doc    Doc
}

// KebabCase converts a Go or camel-case identifier to dash-separated lower case.
// A dash is placed before an upper case letter following a lower case letter or digit, and before the last letter of an acronym that starts a new word.
//
//	loadFromGitHub -> load-from-git-hub
//	HTTPServer     -> http-server
func KebabCase(ident string) string {
	var (
		buf   strings.Builder
		runes = []rune(ident)
	)
	for i, r := range runes {
		switch {
		case r == '_' || r == ' ':
			if buf.Len() > 0 && i+1 < len(runes) {
				buf.WriteByte('-')
			}
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					buf.WriteByte('-')
				}
			}
			buf.WriteRune(unicode.ToLower(r))
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

func cliName(p Param) string {
	if p.Meta != nil && len(p.Meta.Name) > 0 {
		return p.Meta.Name
	}
	return KebabCase(p.Name)
}
