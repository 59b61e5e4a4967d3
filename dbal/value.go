package dbal

import (
	"iter"
	"reflect"
	"slices"
)

// materialize turns lazy sequences and typed slices or arrays into []any,
// and typed nil pointers into nil. Byte slices are scalar values.
func materialize(value any) any {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		return v
	case []byte:
		return v
	case iter.Seq[any]:
		return slices.Collect(v)
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return nil
		}
	case reflect.Slice, reflect.Array:
		list := make([]any, rv.Len())
		for i := range list {
			list[i] = rv.Index(i).Interface()
		}
		return list
	}
	return value
}
