// Package reflection turns the methods of a value into [binder.Method] records, using an [annotation.Source] for what Go reflection can't provide, like parameter names and defaults.
package reflection

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/saylorsolutions/cmdbind/annotation"
	"github.com/saylorsolutions/cmdbind/binder"
)

var (
	ErrNilReceiver = errors.New("nil receiver")
	ErrNoSource    = errors.New("no annotation source")
)

// Annotated may be implemented by a receiver to declare its own annotations in struct tag syntax, keyed by method name.
// The Annotations method itself is never a command.
type Annotated interface {
	Annotations() map[string]string
}

const annotationsMethod = "Annotations"

// Methods reflects every exported method of the receiver's method set, in the order given by [reflect.Type.Method].
//
// Metadata is looked up in source by method name, and methods without metadata are returned with a nil Meta so a binder can skip them.
// If source is nil, then the receiver must implement [Annotated].
//
// Declared parameters are matched by position, including runtime-provided parameters like a *cli.Printer.
// Undeclared parameters are named after their position, like arg0, and declaring more parameters than a method takes is an error.
func Methods(receiver any, source annotation.Source) ([]binder.Method, error) {
	if receiver == nil {
		return nil, ErrNilReceiver
	}
	if source == nil {
		annotated, ok := receiver.(Annotated)
		if !ok {
			return nil, fmt.Errorf("%w: %T does not implement Annotated", ErrNoSource, receiver)
		}
		source = annotation.Tags(annotated.Annotations())
	}
	var (
		val     = reflect.ValueOf(receiver)
		typ     = val.Type()
		methods = make([]binder.Method, 0, typ.NumMethod())
		errs    []error
	)
	for i := 0; i < typ.NumMethod(); i++ {
		rm := typ.Method(i)
		if rm.Name == annotationsMethod {
			continue
		}
		meta, found, err := source.Lookup(rm.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		m, err := method(rm.Name, val.Method(i), meta, found)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		methods = append(methods, m)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return methods, nil
}

func method(name string, fn reflect.Value, meta *annotation.Method, found bool) (binder.Method, error) {
	var (
		ft = fn.Type()
		m  = binder.Method{
			Name:   name,
			Func:   fn,
			Params: make([]binder.Param, ft.NumIn()),
		}
	)
	for i := range m.Params {
		m.Params[i] = binder.Param{
			Name:     fmt.Sprintf("arg%d", i),
			Type:     ft.In(i),
			Variadic: ft.IsVariadic() && i == ft.NumIn()-1,
		}
	}
	if !found {
		return m, nil
	}
	if len(meta.Params) > len(m.Params) {
		return binder.Method{}, fmt.Errorf("method %s: %d parameters are declared, but it only takes %d", name, len(meta.Params), len(m.Params))
	}
	m.Meta = &binder.Metadata{Name: meta.Name, Aliases: meta.Aliases}
	m.Doc = binder.Doc{Short: meta.Short, Long: meta.Long}
	for i, declared := range meta.Params {
		p := &m.Params[i]
		p.Name = declared.Name
		p.Default = declared.Default
		p.HasDefault = declared.HasDefault
		if len(declared.Rename) > 0 || len(declared.Shorthand) > 0 || len(declared.Aliases) > 0 {
			p.Meta = &binder.Metadata{Name: declared.Rename, Shorthand: declared.Shorthand, Aliases: declared.Aliases}
		}
	}
	return m, nil
}
