package serializer

import "reflect"

// typeOf names v's type for inclusion in encode/decode error messages.
func typeOf(v any) string {
	t := reflect.TypeOf(v)
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
