package hooks

import "reflect"

// Equal reports whether a and b are the same value under shallow, identity
// based comparison. It is the comparison used for state bail-out, dependency
// lists and context values.
//
//   - Values of different dynamic types are never equal.
//   - Comparable values (numbers, strings, pointers, channels, structs and
//     arrays of comparable fields) use ==, so struct fields holding pointers
//     compare by identity.
//   - Slices are equal only when they share a backing array and length.
//   - Maps are equal only when they are the same map.
//   - Functions are never equal unless both are nil.
//
// There is no deep equality. Pass a pointer or a comparable key when a
// composite value should be treated as unchanged.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return comparableEqual(a, b)
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	switch ta.Kind() {
	case reflect.Slice:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map:
		return va.Pointer() == vb.Pointer()
	case reflect.Func:
		return va.IsNil() && vb.IsNil()
	default:
		return false
	}
}

// comparableEqual compares with == and treats the runtime panic raised by
// interface fields holding uncomparable values as inequality.
func comparableEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}

func equalValues[T any](a, b T) bool {
	return Equal(any(a), any(b))
}
