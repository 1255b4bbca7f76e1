package versioned

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
)

const (
	shapeAny     = "any"
	shapeNull    = "null"
	shapeObject  = "object"
	shapeArray   = "array"
	shapeString  = "string"
	shapeNumber  = "number"
	shapeBool    = "bool"
	shapeUnknown = "unknown"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DeserializeInto decodes the entry's document into T, driven by T's json
// and validate struct tags. The entry is consumed: keep the typed result and
// drop the entry. On failure the zero T and a *DeserializationError are
// returned.
func DeserializeInto[T any](e Entry) (T, error) {
	var out T
	target := reflect.TypeOf((*T)(nil)).Elem()

	fail := func(path, expected, actual string, err error) (T, error) {
		var zero T
		return zero, &DeserializationError{
			Target:   target.String(),
			Path:     path,
			Expected: expected,
			Actual:   actual,
			Err:      err,
		}
	}

	if isNull(e.value) && !nullable(target) {
		return fail("", shapeOfType(target), shapeNull, nil)
	}

	if m := checkShape(e.value, target, ""); m != nil {
		return fail(m.path, m.expected, m.actual, nil)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:   "json",
		Result:    &out,
		MatchName: func(mapKey, fieldName string) bool { return mapKey == fieldName },
	})
	if err != nil {
		return fail("", "", "", err)
	}
	if err := dec.Decode(e.value); err != nil {
		var path string
		var named interface{ Name() string }
		if errors.As(err, &named) {
			path = dottedPath(named.Name())
		}
		return fail(path, "", "", err)
	}

	if err := validateDecoded(reflect.ValueOf(out), ""); err != nil {
		var prefix string
		var pe *pathError
		if errors.As(err, &pe) {
			prefix = pe.path
		}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			path, expected, actual := describeFieldError(verrs[0])
			return fail(joinPath(prefix, path), expected, actual, err)
		}
		return fail(prefix, "", "", err)
	}
	return out, nil
}

type shapeMismatch struct {
	path     string
	expected string
	actual   string
}

// checkShape walks the document against t before decoding. It reports what
// mapstructure would otherwise turn into zero or truncated values: null where
// t cannot hold it, struct fields absent from the object, the wrong JSON kind
// and numbers outside the range of the target type.
func checkShape(v any, t reflect.Type, path string) *shapeMismatch {
	if isNull(v) {
		switch t.Kind() {
		case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice:
			return nil
		}
		return &shapeMismatch{path: path, expected: shapeOfType(t), actual: shapeNull}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	want, got := shapeOfType(t), shapeOf(v)
	if want == shapeAny {
		return nil
	}
	if want != got {
		return &shapeMismatch{path: path, expected: want, actual: got}
	}

	rv := reflect.Indirect(reflect.ValueOf(v))
	switch t.Kind() {
	case reflect.Struct:
		if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil
		}
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			name, optional, ok := fieldName(f)
			if !ok {
				continue
			}
			fieldPath := joinPath(path, name)
			raw := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
			if !raw.IsValid() {
				if optional {
					continue
				}
				return &shapeMismatch{path: fieldPath, expected: "required", actual: "missing"}
			}
			if m := checkShape(raw.Interface(), f.Type, fieldPath); m != nil {
				return m
			}
		}
	case reflect.Map:
		if rv.Kind() != reflect.Map {
			return nil
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface()) })
		for _, k := range keys {
			if m := checkShape(rv.MapIndex(k).Interface(), t.Elem(), joinPath(path, fmt.Sprint(k.Interface()))); m != nil {
				return m
			}
		}
	case reflect.Slice, reflect.Array:
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return nil
		}
		for i := 0; i < rv.Len(); i++ {
			if m := checkShape(rv.Index(i).Interface(), t.Elem(), fmt.Sprintf("%s[%d]", path, i)); m != nil {
				return m
			}
		}
	default:
		if want == shapeNumber && !numberFits(v, t) {
			return &shapeMismatch{path: path, expected: shapeNumber + "(" + t.Kind().String() + ")", actual: shapeNumber}
		}
	}
	return nil
}

// fieldName returns the document key of a struct field and whether the field
// may be absent. Pointer and interface fields and omitempty fields are
// optional.
func fieldName(f reflect.StructField) (name string, optional bool, ok bool) {
	if !f.IsExported() {
		return "", false, false
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	optional = f.Type.Kind() == reflect.Pointer || f.Type.Kind() == reflect.Interface
	for _, o := range strings.Split(opts, ",") {
		if o == "omitempty" {
			optional = true
		}
	}
	return name, optional, true
}

// numberFits reports whether v is representable in t without wrapping,
// truncation or a change of sign.
func numberFits(v any, t reflect.Type) bool {
	r, ok := toRat(v)
	if !ok {
		return true
	}
	zero := reflect.Zero(t)
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return r.IsInt() && r.Num().IsInt64() && !zero.OverflowInt(r.Num().Int64())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return r.IsInt() && r.Sign() >= 0 && r.Num().IsUint64() && !zero.OverflowUint(r.Num().Uint64())
	case reflect.Float32, reflect.Float64:
		f, _ := r.Float64()
		return !math.IsInf(f, 0) && !zero.OverflowFloat(f)
	}
	return true
}

// dottedPath rewrites mapstructure field names such as "[abc].issuance_txin"
// into the "abc.issuance_txin" form used everywhere else. Numeric indexes keep
// their brackets.
func dottedPath(name string) string {
	var b strings.Builder
	for len(name) > 0 {
		open := strings.IndexByte(name, '[')
		if open < 0 {
			b.WriteString(name)
			break
		}
		end := strings.IndexByte(name[open:], ']')
		if end < 0 {
			b.WriteString(name)
			break
		}
		end += open
		b.WriteString(name[:open])
		key := name[open+1 : end]
		if _, err := strconv.Atoi(key); err == nil {
			b.WriteString("[" + key + "]")
		} else {
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(key)
		}
		name = name[end+1:]
	}
	return b.String()
}

// pathError locates a validation failure inside a map or slice of structs.
type pathError struct {
	path string
	err  error
}

func (e *pathError) Error() string { return e.path + ": " + e.err.Error() }
func (e *pathError) Unwrap() error { return e.err }

// validateDecoded runs struct validation on v, descending into maps and
// slices so every struct element is checked.
func validateDecoded(v reflect.Value, path string) error {
	for v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		if err := validate.Struct(v.Interface()); err != nil {
			if path == "" {
				return err
			}
			return &pathError{path: path, err: err}
		}
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := validateDecoded(iter.Value(), joinPath(path, fmt.Sprint(iter.Key().Interface()))); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := validateDecoded(v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
	}
	return nil
}

func describeFieldError(fe validator.FieldError) (path, expected, actual string) {
	// Namespace starts with the struct type name.
	path = fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	expected = fe.Tag()
	if fe.Param() != "" {
		expected += "=" + fe.Param()
	}
	if fe.Tag() == "required" {
		actual = "missing"
	} else {
		actual = fmt.Sprint(fe.Value())
	}
	return path, expected, actual
}

func joinPath(parent, child string) string {
	switch {
	case parent == "":
		return child
	case child == "":
		return parent
	}
	return parent + "." + child
}

func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface:
		return true
	}
	return false
}

func shapeOf(v any) string {
	if isNull(v) {
		return shapeNull
	}
	if _, ok := v.(json.Number); ok {
		return shapeNumber
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	return shapeOfKind(rv.Kind())
}

func shapeOfType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() == reflect.Interface {
		return shapeAny
	}
	return shapeOfKind(t.Kind())
}

func shapeOfKind(k reflect.Kind) string {
	switch k {
	case reflect.Map, reflect.Struct:
		return shapeObject
	case reflect.Slice, reflect.Array:
		return shapeArray
	case reflect.String:
		return shapeString
	case reflect.Bool:
		return shapeBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64:
		return shapeNumber
	case reflect.Interface:
		return shapeAny
	}
	return shapeUnknown
}
