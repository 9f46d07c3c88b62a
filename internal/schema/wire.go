package schema

import (
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// UnknownTypeError is returned when a wire schema carries a type this layer
// does not model. It fails closed at tool-registration time and never occurs
// during a live turn.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown schema type %q", e.Type)
}

const (
	wireObject = "object"
	wireArray  = "array"
)

// wireParam is the declared-tools JSON-Schema subset: type, description,
// properties, required and items. Unknown keys (additionalProperties,
// $schema, ...) are ignored on input and never emitted.
type wireParam struct {
	Type        string                                     `json:"type"`
	Description string                                     `json:"description,omitempty"`
	Properties  *orderedmap.OrderedMap[string, *wireParam] `json:"properties,omitempty"`
	Required    []string                                   `json:"required,omitempty"`
	Items       *wireParam                                 `json:"items,omitempty"`
}

// ToWire serializes a tree to the form sent to the model in a tool
// declaration. The tree is validated first; FromWire(ToWire(p)) is
// structurally equal to p for any valid finite tree.
func ToWire(p Param) (json.RawMessage, error) {
	if err := Validate(p); err != nil {
		return nil, err
	}
	node := toWireNode(p)
	return json.Marshal(node)
}

func toWireNode(p Param) *wireParam {
	switch x := p.(type) {
	case *Simple:
		return &wireParam{Type: string(x.Type), Description: x.Description}
	case *Array:
		return &wireParam{Type: wireArray, Description: x.Description, Items: toWireNode(x.Items)}
	case *Object:
		w := &wireParam{Type: wireObject, Description: x.Description}
		required := make(map[string]bool, len(x.RequiredNames))
		for _, n := range x.RequiredNames {
			required[n] = true
		}
		if x.Properties != nil && x.Properties.Len() > 0 {
			w.Properties = orderedmap.New[string, *wireParam]()
			for pair := x.Properties.Oldest(); pair != nil; pair = pair.Next() {
				w.Properties.Set(pair.Key, toWireNode(pair.Value))
				if paramRequired(pair.Value) {
					required[pair.Key] = true
				}
			}
			// Emit required names in property order.
			for pair := x.Properties.Oldest(); pair != nil; pair = pair.Next() {
				if required[pair.Key] {
					w.Required = append(w.Required, pair.Key)
				}
			}
		}
		return w
	}
	return nil
}

// FromWire reconstructs a tree from its wire form, switching on the type
// field of every node. An unrecognized type yields *UnknownTypeError.
func FromWire(data json.RawMessage) (Param, error) {
	var w wireParam
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	p, err := fromWireNode("", &w, false)
	if err != nil {
		return nil, err
	}
	if err := Validate(p); err != nil {
		return nil, err
	}
	return p, nil
}

func fromWireNode(name string, w *wireParam, required bool) (Param, error) {
	switch w.Type {
	case wireObject:
		o := &Object{
			Name:        name,
			Description: w.Description,
			Required:    required,
			Properties:  orderedmap.New[string, Param](),
		}
		requiredSet := make(map[string]bool, len(w.Required))
		for _, n := range w.Required {
			requiredSet[n] = true
		}
		if w.Properties != nil {
			for pair := w.Properties.Oldest(); pair != nil; pair = pair.Next() {
				child, err := fromWireNode(pair.Key, pair.Value, requiredSet[pair.Key])
				if err != nil {
					return nil, err
				}
				o.Properties.Set(pair.Key, child)
			}
		}
		for _, n := range w.Required {
			if _, ok := o.Properties.Get(n); !ok {
				return nil, fmt.Errorf("required name %q has no matching property", n)
			}
			o.RequiredNames = append(o.RequiredNames, n)
		}
		return o, nil
	case wireArray:
		if w.Items == nil {
			return nil, fmt.Errorf("array parameter %q missing items", name)
		}
		items, err := fromWireNode("", w.Items, false)
		if err != nil {
			return nil, err
		}
		return &Array{Name: name, Description: w.Description, Required: required, Items: items}, nil
	default:
		t := ValueType(w.Type)
		if !knownValueType(t) {
			return nil, &UnknownTypeError{Type: w.Type}
		}
		return &Simple{Name: name, Type: t, Description: w.Description, Required: required}, nil
	}
}
