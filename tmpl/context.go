package tmpl

import (
	"fmt"
	"log/slog"
	"reflect"
)

// exprTag is the struct tag naming a field in template code, matching the
// tag honored by the expression language for nested values.
const exprTag = "expr"

// contextNames returns the top-level names of a data context.
//
// Accepted forms are nil, maps with string keys, and structs or pointers to
// structs. Struct fields are named by their "expr" tag when present; a tag
// of "-" hides the field, as do unexported fields.
func contextNames(data any) (map[string]any, error) {
	switch d := data.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return d, nil
	}

	rv := reflect.ValueOf(data)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, nil
		}

		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}

		names := make(map[string]any, rv.Len())

		iter := rv.MapRange()
		for iter.Next() {
			names[iter.Key().String()] = iter.Value().Interface()
		}

		return names, nil

	case reflect.Struct:
		return structNames(rv), nil
	}

	return nil, ErrContext.With(slog.String("type", fmt.Sprintf("%T", data)))
}

func structNames(rv reflect.Value) map[string]any {
	t := rv.Type()
	names := make(map[string]any, t.NumField())

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name := f.Name

		switch tag := f.Tag.Get(exprTag); tag {
		case "-":
			continue
		case "":
		default:
			name = tag
		}

		names[name] = rv.Field(i).Interface()
	}

	return names
}
