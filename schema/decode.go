package schema

import (
	"bytes"
	"fmt"
	"math"
	"path"
	"sort"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// Decode decodes a schema document, JSON or YAML, into plain values where
// objects are Object so that key order is kept. Integers decode as int64
// and other numbers as float64.
func Decode(uri string, data []byte) (any, error) {
	ext := strings.ToLower(path.Ext(strings.SplitN(uri, "?", 2)[0]))
	trimmed := bytes.TrimSpace(data)
	if ext == ".yaml" || ext == ".yml" || (len(trimmed) > 0 && trimmed[0] != '{' && trimmed[0] != '[') {
		return decodeYAML(data)
	}
	return decodeJSON(data)
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch x := t.(type) {
	case json.Delim:
		switch x {
		case '{':
			obj := Object{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				k, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("bad object key %v", kt)
				}
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj = append(obj, ObjectItem{Key: k, Value: v})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected %v", x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		f, err := x.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	return t, nil
}

func decodeYAML(data []byte) (any, error) {
	var v any
	if err := yaml.UnmarshalWithOptions(data, &v, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return fromYAML(v), nil
}

func fromYAML(v any) any {
	switch x := v.(type) {
	case yaml.MapSlice:
		obj := make(Object, 0, len(x))
		for _, it := range x {
			obj = append(obj, ObjectItem{Key: fmt.Sprint(it.Key), Value: fromYAML(it.Value)})
		}
		return obj
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := make(Object, 0, len(x))
		for _, k := range keys {
			obj = append(obj, ObjectItem{Key: k, Value: fromYAML(x[k])})
		}
		return obj
	case []any:
		res := make([]any, len(x))
		for i, e := range x {
			res[i] = fromYAML(e)
		}
		return res
	case int:
		return int64(x)
	case uint64:
		if x <= math.MaxInt64 {
			return int64(x)
		}
		return float64(x)
	case float32:
		return float64(x)
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case int64:
		return int(x), true
	case float64:
		if x == math.Trunc(x) {
			return int(x), true
		}
	}
	return 0, false
}
