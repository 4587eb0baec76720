package patchmap

import (
	"reflect"
	"strings"
)

// FromStruct flattens a patch struct (pointer fields, `redis` tags) into a
// field map suitable for a partial HSET. Nil pointers are omitted, so only
// fields the caller actually set end up written.
func FromStruct(patch any) map[string]any {
	v := reflect.ValueOf(patch)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	fields := make(map[string]any)
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		tag := t.Field(i).Tag.Get("redis")
		if tag == "" {
			tag = strings.ToLower(t.Field(i).Name)
		}

		if field.Kind() == reflect.Ptr {
			if field.IsNil() {
				continue
			}
			fields[tag] = field.Elem().Interface()
		} else {
			fields[tag] = field.Interface()
		}
	}

	return fields
}
