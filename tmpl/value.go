package tmpl

import (
	"cmp"
	"fmt"
	"reflect"
	"slices"
	"strconv"
)

// Stringify returns the text appended to the output for an expression value.
//
// nil renders as the empty string. Numbers use their shortest decimal form,
// so 3.0 renders as "3" and 0.5 as "0.5". Values implementing [fmt.Stringer]
// or error render through those methods; anything else uses [fmt.Sprint].
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(val).Int(), 10)
	case uint, uint8, uint16, uint32, uint64, uintptr:
		return strconv.FormatUint(reflect.ValueOf(val).Uint(), 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case fmt.Stringer:
		return val.String()
	case error:
		return val.Error()
	default:
		return fmt.Sprint(val)
	}
}

// truthy reports whether v counts as true in a condition.
// nil, false, numeric zero, and the empty string are false.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan:
		return !rv.IsNil()
	default:
		return true
	}
}

// iterate calls yield with each key and value of v in order, stopping when
// yield returns false or an error.
//
// Slices and arrays yield index and element, strings yield rune index and
// the rune as a string, maps yield entries ordered by key, and integers n
// yield 0 through n-1 as both key and value. A nil value yields nothing.
func iterate(v any, yield func(key, val any) (bool, error)) error {
	if v == nil {
		return nil
	}

	if s, ok := v.(string); ok {
		i := 0

		for _, r := range s {
			if more, err := yield(i, string(r)); err != nil || !more {
				return err
			}

			i++
		}

		return nil
	}

	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		for i := range rv.Len() {
			if more, err := yield(i, rv.Index(i).Interface()); err != nil || !more {
				return err
			}
		}

	case reflect.Map:
		keys := rv.MapKeys()
		slices.SortFunc(keys, compareKeys)

		for _, k := range keys {
			more, err := yield(k.Interface(), rv.MapIndex(k).Interface())
			if err != nil || !more {
				return err
			}
		}

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		for i := range int(rv.Int()) {
			if more, err := yield(i, i); err != nil || !more {
				return err
			}
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		for i := range int(rv.Uint()) {
			if more, err := yield(i, i); err != nil || !more {
				return err
			}
		}

	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}

		return iterate(rv.Elem().Interface(), yield)

	default:
		return ErrIterate.Wrap(fmt.Errorf("cannot range over %T", v))
	}

	return nil
}

// compareKeys orders map keys numerically when both are numbers and by
// their text otherwise.
func compareKeys(a, b reflect.Value) int {
	if a.CanInt() && b.CanInt() {
		return cmp.Compare(a.Int(), b.Int())
	}

	if a.CanUint() && b.CanUint() {
		return cmp.Compare(a.Uint(), b.Uint())
	}

	if a.CanFloat() && b.CanFloat() {
		return cmp.Compare(a.Float(), b.Float())
	}

	return cmp.Compare(fmt.Sprint(a.Interface()), fmt.Sprint(b.Interface()))
}

// isMap reports whether v is a map of any type.
func isMap(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Map
}
