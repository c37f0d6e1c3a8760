package schema

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Object is a decoded document mapping which remembers the order keys were authored in.
//
// Values are one of: nil, bool, Number, string, []any, *Object.
type Object struct {
	keys   []string
	values map[string]any
}

// Number is a numeric literal kept exactly as authored.
type Number string

func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

func (o *Object) Set(key string, val any) error {
	if _, ok := o.values[key]; ok {
		return fmt.Errorf("duplicate key %q", key)
	}
	o.keys = append(o.keys, key)
	o.values[key] = val
	return nil
}

// Keys returns keys in authored order.
func (o *Object) Keys() []string {
	return o.keys
}

func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *Object) Has(key string) bool {
	_, ok := o.values[key]
	return ok
}

func (o *Object) Len() int {
	return len(o.keys)
}

// IsYAMLPath reports whether a document path should be decoded as YAML.
func IsYAMLPath(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// IsDocumentPath reports whether p has one of the supported document extensions.
func IsDocumentPath(p string) bool {
	return strings.ToLower(filepath.Ext(p)) == ".json" || IsYAMLPath(p)
}

// DecodeDocument parses raw bytes into an ordered tree. The top-level value must be a mapping.
// The path only selects the syntax (JSON unless it has a YAML extension).
func DecodeDocument(path string, b []byte) (*Object, error) {
	var (
		v   any
		err error
	)
	if IsYAMLPath(path) {
		v, err = decodeYAML(b)
	} else {
		v, err = decodeJSON(b)
	}
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*Object)
	if !ok {
		return nil, fmt.Errorf("top-level value must be an object, got %s", typeName(v))
	}
	return obj, nil
}

func decodeJSON(b []byte) (any, error) {
	if !gojson.Valid(b) {
		var scratch any
		if err := gojson.Unmarshal(b, &scratch); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("invalid JSON syntax")
	}
	dec := gojson.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return jsonValue(dec, tok)
}

func jsonValue(dec *gojson.Decoder, tok gojson.Token) (any, error) {
	switch v := tok.(type) {
	case gojson.Delim:
		switch v {
		case '{':
			obj := NewObject()
			for {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				if d, ok := kt.(gojson.Delim); ok && d == '}' {
					return obj, nil
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("expected object key, found %v", kt)
				}
				vt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				val, err := jsonValue(dec, vt)
				if err != nil {
					return nil, err
				}
				if err := obj.Set(key, val); err != nil {
					return nil, err
				}
			}
		case '[':
			arr := []any{}
			for {
				et, err := dec.Token()
				if err != nil {
					return nil, err
				}
				if d, ok := et.(gojson.Delim); ok && d == ']' {
					return arr, nil
				}
				val, err := jsonValue(dec, et)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(v))
		}
	case gojson.Number:
		return Number(v), nil
	case float64:
		return Number(strconv.FormatFloat(v, 'g', -1, 64)), nil
	case string, bool, nil:
		return v, nil
	default:
		return nil, fmt.Errorf("unexpected JSON token %T", tok)
	}
}

func decodeYAML(b []byte) (any, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	var root yaml.Node
	if err := dec.Decode(&root); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("empty document")
		}
		return nil, err
	}
	return yamlValue(&root)
}

func yamlValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		obj := NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			val, err := yamlValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			if err := obj.Set(k.Value, val); err != nil {
				return nil, fmt.Errorf("line %d: %w", k.Line, err)
			}
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!null":
			return nil, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, err
			}
			return b, nil
		case "!!int", "!!float":
			return Number(n.Value), nil
		default:
			return n.Value, nil
		}
	default:
		return nil, fmt.Errorf("unsupported YAML node at line %d", n.Line)
	}
}

// Plain converts an ordered tree into the generic values produced by encoding/json
// (map[string]any, []any, float64, string, bool, nil).
func Plain(v any) any {
	switch t := v.(type) {
	case *Object:
		m := make(map[string]any, t.Len())
		for _, k := range t.keys {
			m[k] = Plain(t.values[k])
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = Plain(t[i])
		}
		return out
	case Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return string(t)
		}
		return f
	default:
		return v
	}
}

func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case *Object:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
