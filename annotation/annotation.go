package annotation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

var (
	ErrNoCommand = errors.New("annotation has no command key")
	ErrMalformed = errors.New("malformed annotation")
)

const (
	KeyCommand = "command"
	KeyAliases = "aliases"
	KeyShort   = "short"
	KeyLong    = "long"
	KeyParams  = "params"
	ParamKey   = "param." // ParamKey is the prefix of a key holding parameter metadata, like `param.admin:"shorthand=a"`.
)

// Param is declared metadata for a method parameter.
type Param struct {
	Name       string   `yaml:"name"`
	Rename     string   `yaml:"cli"`
	Default    any      `yaml:"default"`
	HasDefault bool     `yaml:"-"`
	Shorthand  string   `yaml:"shorthand"`
	Aliases    []string `yaml:"aliases"`
}

// Method is declared metadata for a method.
// Its presence marks the method as a command, even when every field is empty.
type Method struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Short   string   `yaml:"short"`
	Long    string   `yaml:"long"`
	Params  []Param  `yaml:"params"`
}

// Param finds the declared parameter with the given name.
func (m *Method) Param(name string) (Param, bool) {
	for _, p := range m.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Source provides [Method] metadata by Go method name.
type Source interface {
	Lookup(method string) (*Method, bool, error)
}

// Tags is a [Source] of annotations written in struct tag syntax, keyed by Go method name.
//
//	`command:"" aliases:"cu" short:"Creates a user" params:"name,admin=false" param.admin:"shorthand=a"`
type Tags map[string]string

func (t Tags) Lookup(method string) (*Method, bool, error) {
	tag, ok := t[method]
	if !ok {
		return nil, false, nil
	}
	m, err := Parse(tag)
	if err != nil {
		if errors.Is(err, ErrNoCommand) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("method %s: %w", method, err)
	}
	return m, true, nil
}

// Parse reads a [Method] from struct tag syntax.
// The command key must be present, but may be empty to derive the name from the method.
//
// Recognized keys:
//   - command: the command name.
//   - aliases: comma separated alternative names.
//   - short and long: help text.
//   - params: comma separated parameter names in declaration order, each optionally followed by "=default".
//   - param.NAME: comma separated settings for parameter NAME, any of "cli=", "shorthand=", and "aliases=" with aliases separated by '|'.
func Parse(tag string) (*Method, error) {
	if err := checkSyntax(tag); err != nil {
		return nil, err
	}
	st := reflect.StructTag(tag)
	name, ok := st.Lookup(KeyCommand)
	if !ok {
		return nil, ErrNoCommand
	}
	m := &Method{
		Name:    strings.TrimSpace(name),
		Aliases: splitList(st.Get(KeyAliases), ","),
		Short:   st.Get(KeyShort),
		Long:    st.Get(KeyLong),
	}
	for _, decl := range splitList(st.Get(KeyParams), ",") {
		p := Param{Name: decl}
		if pname, def, found := strings.Cut(decl, "="); found {
			p = Param{Name: strings.TrimSpace(pname), Default: strings.TrimSpace(def), HasDefault: true}
		}
		if len(p.Name) == 0 {
			return nil, fmt.Errorf("%w: empty parameter name in '%s'", ErrMalformed, decl)
		}
		if settings, ok := st.Lookup(ParamKey + p.Name); ok {
			if err := p.apply(settings); err != nil {
				return nil, err
			}
		}
		m.Params = append(m.Params, p)
	}
	return m, nil
}

func (p *Param) apply(settings string) error {
	for _, setting := range splitList(settings, ",") {
		key, val, found := strings.Cut(setting, "=")
		if !found {
			return fmt.Errorf("%w: parameter %s setting '%s' has no value", ErrMalformed, p.Name, setting)
		}
		switch strings.TrimSpace(key) {
		case "cli":
			p.Rename = strings.TrimSpace(val)
		case "shorthand":
			p.Shorthand = strings.TrimSpace(val)
		case "aliases":
			p.Aliases = splitList(val, "|")
		default:
			return fmt.Errorf("%w: parameter %s has unknown setting '%s'", ErrMalformed, p.Name, key)
		}
	}
	return nil
}

func splitList(list, sep string) []string {
	var vals []string
	for _, val := range strings.Split(list, sep) {
		val = strings.TrimSpace(val)
		if len(val) > 0 {
			vals = append(vals, val)
		}
	}
	return vals
}

// checkSyntax follows the same rules as [reflect.StructTag.Lookup], which silently ignores malformed input.
func checkSyntax(tag string) error {
	for tag != "" {
		i := 0
		for i < len(tag) && tag[i] == ' ' {
			i++
		}
		tag = tag[i:]
		if tag == "" {
			break
		}
		i = 0
		for i < len(tag) && tag[i] > ' ' && tag[i] != ':' && tag[i] != '"' && tag[i] != 0x7f {
			i++
		}
		if i == 0 || i+1 >= len(tag) || tag[i] != ':' || tag[i+1] != '"' {
			return fmt.Errorf("%w: expected key:\"value\" at '%s'", ErrMalformed, tag)
		}
		key := tag[:i]
		tag = tag[i+1:]

		i = 1
		for i < len(tag) && tag[i] != '"' {
			if tag[i] == '\\' {
				i++
			}
			i++
		}
		if i >= len(tag) {
			return fmt.Errorf("%w: unterminated value for key '%s'", ErrMalformed, key)
		}
		tag = tag[i+1:]
	}
	return nil
}
