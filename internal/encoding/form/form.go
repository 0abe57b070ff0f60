// Copyright (c) 2024 RoseLoverX

// Package form writes Bot API parameters as multipart/form-data fields.
//
// Scalars are written as their decimal/text form, everything else (reply
// markups, entity lists, nested objects) is JSON-serialized into the field,
// which is what the API expects when a request carries a file.
package form

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"reflect"
	"sort"
	"strconv"

	"github.com/fatih/structtag"
	"github.com/pkg/errors"
)

const tagName = "json"

type fieldTag struct {
	name      string
	ignore    bool
	omitEmpty bool
}

func parseTag(field reflect.StructField) (*fieldTag, error) {
	tags, err := structtag.Parse(string(field.Tag))
	if err != nil {
		return nil, errors.Wrapf(err, "parsing tags of field %s", field.Name)
	}

	info := &fieldTag{name: field.Name}
	tag, err := tags.Get(tagName)
	if err != nil {
		// no json tag, use the field name as is
		return info, nil
	}
	if tag.Name == "-" {
		info.ignore = true
		return info, nil
	}
	if tag.Name != "" {
		info.name = tag.Name
	}
	info.omitEmpty = tag.HasOption("omitempty")
	return info, nil
}

// Fields flattens params into ordered form fields. params may be a struct,
// a pointer to one, a map with string keys, or nil.
func Fields(params any) ([][2]string, error) {
	if params == nil {
		return nil, nil
	}
	v := reflect.ValueOf(params)
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return structFields(v)
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, errors.Errorf("form: map key must be string, got %s", v.Type().Key())
		}
		return mapFields(v)
	default:
		return nil, errors.Errorf("form: unsupported params type %s", v.Type())
	}
}

func structFields(v reflect.Value) ([][2]string, error) {
	t := v.Type()
	var out [][2]string
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		tag, err := parseTag(sf)
		if err != nil {
			return nil, err
		}
		if tag.ignore {
			continue
		}
		fv := v.Field(i)
		if sf.Anonymous && tag.name == sf.Name && fv.Kind() == reflect.Struct {
			// embedded option structs are flattened, as encoding/json does
			inner, err := structFields(fv)
			if err != nil {
				return nil, err
			}
			out = append(out, inner...)
			continue
		}
		if tag.omitEmpty && fv.IsZero() {
			continue
		}
		s, ok, err := encodeValue(fv)
		if err != nil {
			return nil, errors.Wrapf(err, "field %s", tag.name)
		}
		if ok {
			out = append(out, [2]string{tag.name, s})
		}
	}
	return out, nil
}

func mapFields(v reflect.Value) ([][2]string, error) {
	keys := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)

	var out [][2]string
	for _, k := range keys {
		s, ok, err := encodeValue(v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key())))
		if err != nil {
			return nil, errors.Wrapf(err, "key %s", k)
		}
		if ok {
			out = append(out, [2]string{k, s})
		}
	}
	return out, nil
}

// encodeValue reports ok=false for nil pointers/interfaces, which are skipped.
func encodeValue(v reflect.Value) (string, bool, error) {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false, nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), true, nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), true, nil
	}

	if m, ok := v.Interface().(fmt.Stringer); ok && v.Kind() != reflect.Struct {
		return m.String(), true, nil
	}
	b, err := json.Marshal(v.Interface())
	if err != nil {
		return "", false, errors.Wrap(err, "marshaling nested value")
	}
	return string(b), true, nil
}

// Write adds every field of params to w.
func Write(w *multipart.Writer, params any) error {
	fields, err := Fields(params)
	if err != nil {
		return err
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return errors.Wrapf(err, "writing field %s", f[0])
		}
	}
	return nil
}
