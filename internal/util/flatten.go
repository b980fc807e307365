package util

import (
	"fmt"
	"reflect"
	"strings"
)

// FlattenParams converts a struct or map into a flat string map suitable for
// run-parameter logging. Nested structs and maps flatten with a dot-joined
// key path. Unexported fields, nil pointers, and func/chan values are
// skipped. Struct fields honor a `param` tag for naming, falling back to the
// lowercased field name; a tag of "-" omits the field.
func FlattenParams(v any) map[string]string {
	out := make(map[string]string)
	flattenValue(out, "", reflect.ValueOf(v))
	return out
}

func flattenValue(out map[string]string, prefix string, rv reflect.Value) {
	if !rv.IsValid() {
		return
	}
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Struct:
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Tag.Get("param")
			if name == "-" {
				continue
			}
			if name == "" {
				name = strings.ToLower(field.Name)
			}
			flattenValue(out, joinKey(prefix, name), rv.Field(i))
		}
	case reflect.Map:
		for _, key := range rv.MapKeys() {
			flattenValue(out, joinKey(prefix, fmt.Sprintf("%v", key.Interface())), rv.MapIndex(key))
		}
	case reflect.Func, reflect.Chan:
		return
	default:
		if prefix == "" {
			return
		}
		out[prefix] = fmt.Sprintf("%v", rv.Interface())
	}
}

func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
