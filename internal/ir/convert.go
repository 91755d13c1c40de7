package ir

import (
	"fmt"
	"reflect"
	"strings"
)

// Referencer is implemented by anything that stands for a registered entity.
// FromGo projects a Referencer to its Ref.
type Referencer interface {
	Ref() Ref
}

var referencerType = reflect.TypeOf((*Referencer)(nil)).Elem()

// FromGo converts a Go value to a Value.
//
// Supported inputs: Value types, Referencer, string, bool, all integer kinds,
// maps with string keys, slices and arrays, structs and pointers to them.
// Struct fields use their `json` tag name when present; fields tagged "-" and
// unexported fields are skipped. A nil pointer, map, slice or interface
// becomes Null. Floats, channels and functions are rejected.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case Referencer:
		if rv := reflect.ValueOf(val); rv.Kind() == reflect.Pointer && rv.IsNil() {
			return Null{}, nil
		}
		return val.Ref(), nil
	case string:
		return String(val), nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int64:
		return Int(val), nil
	}
	return fromReflect(reflect.ValueOf(v))
}

// MustFromGo is like FromGo but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFromGo(v any) Value {
	out, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return out
}

func fromReflect(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Null{}, nil
	}
	if rv.Type().Implements(referencerType) {
		if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) && rv.IsNil() {
			return Null{}, nil
		}
		return rv.Interface().(Referencer).Ref(), nil
	}
	if rv.CanInterface() {
		if val, ok := rv.Interface().(Value); ok {
			return val, nil
		}
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null{}, nil
		}
		return fromReflect(rv.Elem())
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return Int(int64(rv.Uint())), nil
	case reflect.Slice:
		if rv.IsNil() {
			return Null{}, nil
		}
		return fromSequence(rv)
	case reflect.Array:
		return fromSequence(rv)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("map key must be string, got %s", rv.Type().Key())
		}
		if rv.IsNil() {
			return Null{}, nil
		}
		obj := make(Object, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			elem, err := fromReflect(iter.Value())
			if err != nil {
				return nil, fmt.Errorf("[%q]: %w", iter.Key().String(), err)
			}
			obj[iter.Key().String()] = elem
		}
		return obj, nil
	case reflect.Struct:
		return fromStruct(rv)
	case reflect.Float32, reflect.Float64:
		return nil, fmt.Errorf("floats are forbidden: %v", rv.Float())
	default:
		return nil, fmt.Errorf("unsupported type: %s", rv.Type())
	}
}

func fromSequence(rv reflect.Value) (Value, error) {
	arr := make(Array, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem, err := fromReflect(rv.Index(i))
		if err != nil {
			return nil, fmt.Errorf("[%d]: %w", i, err)
		}
		arr[i] = elem
	}
	return arr, nil
}

func fromStruct(rv reflect.Value) (Value, error) {
	rt := rv.Type()
	obj := make(Object, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty := fieldName(field)
		if name == "-" {
			continue
		}
		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		elem, err := fromReflect(fv)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", rt.Name(), field.Name, err)
		}
		obj[name] = elem
	}
	return obj, nil
}

// fieldName returns the projected name of a struct field and whether it is
// tagged omitempty.
func fieldName(field reflect.StructField) (string, bool) {
	tag, ok := field.Tag.Lookup("json")
	if !ok {
		return field.Name, false
	}
	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = field.Name
	}
	return name, strings.Contains(opts, "omitempty")
}

// CollectRefs returns every Ref reachable from v in depth-first order,
// without duplicates.
func CollectRefs(v Value) []Ref {
	var refs []Ref
	seen := make(map[Ref]bool)
	var walk func(Value)
	walk = func(v Value) {
		switch val := v.(type) {
		case Ref:
			if !seen[val] {
				seen[val] = true
				refs = append(refs, val)
			}
		case Array:
			for _, elem := range val {
				walk(elem)
			}
		case Object:
			for _, k := range val.SortedKeys() {
				walk(val[k])
			}
		}
	}
	walk(v)
	return refs
}
