package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/beyond/internal/ir"
)

// marshalObject converts an Object to canonical JSON TEXT for storage.
func marshalObject(obj ir.Object) (string, error) {
	if obj == nil {
		obj = ir.Object{}
	}
	data, err := ir.MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("marshal object: %w", err)
	}
	return string(data), nil
}

// marshalChanges converts a ChangeSet to canonical JSON TEXT.
func marshalChanges(cs ir.ChangeSet) (string, error) {
	if cs == nil {
		cs = ir.ChangeSet{}
	}
	data, err := ir.MarshalCanonical(cs)
	if err != nil {
		return "", fmt.Errorf("marshal changes: %w", err)
	}
	return string(data), nil
}

// marshalStrings stores a string list as a canonical JSON array.
func marshalStrings(list []string) (string, error) {
	arr := make(ir.Array, len(list))
	for i, s := range list {
		arr[i] = ir.String(s)
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal strings: %w", err)
	}
	return string(data), nil
}

// unmarshalObject parses canonical JSON TEXT. "@<digits>" strings come back
// as references.
func unmarshalObject(data string) (ir.Object, error) {
	if data == "" || data == "{}" {
		return ir.Object{}, nil
	}
	var obj ir.Object
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal object: %w", err)
	}
	return obj, nil
}

// unmarshalChanges parses a stored ChangeSet.
func unmarshalChanges(data string) (ir.ChangeSet, error) {
	obj, err := unmarshalObject(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal changes: %w", err)
	}
	cs := make(ir.ChangeSet, len(obj))
	for id, v := range obj {
		patch, ok := v.(ir.Object)
		if !ok {
			return nil, fmt.Errorf("unmarshal changes: entry %s is %T, want object", id, v)
		}
		cs[id] = patch
	}
	return cs, nil
}

// unmarshalStrings parses a stored string list.
func unmarshalStrings(data string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, fmt.Errorf("unmarshal strings: %w", err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}
