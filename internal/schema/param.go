package schema

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ValueType is the JSON-Schema primitive type of a leaf parameter.
type ValueType string

const (
	TypeString  ValueType = "string"
	TypeNumber  ValueType = "number"
	TypeInteger ValueType = "integer"
	TypeBoolean ValueType = "boolean"
	TypeNull    ValueType = "null"
)

func knownValueType(t ValueType) bool {
	switch t {
	case TypeString, TypeNumber, TypeInteger, TypeBoolean, TypeNull:
		return true
	}
	return false
}

// Param is a node in the recursive tree describing a tool's callable
// surface. The three implementations are Simple, Object and Array; the set
// is closed.
type Param interface {
	isParam()
}

// Simple is a leaf parameter of a primitive type.
type Simple struct {
	Name        string
	Type        ValueType
	Description string
	Required    bool
}

// Object is a parameter with named sub-parameters. Properties preserves
// declaration order; RequiredNames must be a subset of the property names.
type Object struct {
	Name          string
	Description   string
	Required      bool
	Properties    *orderedmap.OrderedMap[string, Param]
	RequiredNames []string
}

// Array is a parameter holding a homogeneous list. Items is never nil in a
// valid tree.
type Array struct {
	Name        string
	Description string
	Required    bool
	Items       Param
}

func (*Simple) isParam() {}
func (*Object) isParam() {}
func (*Array) isParam()  {}

// NewObject returns an empty object parameter.
func NewObject(name, description string) *Object {
	return &Object{
		Name:        name,
		Description: description,
		Properties:  orderedmap.New[string, Param](),
	}
}

// Add appends a property, keeping RequiredNames consistent with the child's
// Required flag. It returns the object for chaining.
func (o *Object) Add(p Param) *Object {
	if o.Properties == nil {
		o.Properties = orderedmap.New[string, Param]()
	}
	name := paramName(p)
	o.Properties.Set(name, p)
	if paramRequired(p) {
		o.RequiredNames = append(o.RequiredNames, name)
	}
	return o
}

func paramName(p Param) string {
	switch x := p.(type) {
	case *Simple:
		return x.Name
	case *Object:
		return x.Name
	case *Array:
		return x.Name
	}
	return ""
}

func paramRequired(p Param) bool {
	switch x := p.(type) {
	case *Simple:
		return x.Required
	case *Object:
		return x.Required
	case *Array:
		return x.Required
	}
	return false
}

// Validate walks the tree and reports the first structural violation:
// a nil node, an Array without Items, an Object whose RequiredNames name a
// missing property, or a Simple with an unrecognized type.
func Validate(p Param) error {
	switch x := p.(type) {
	case nil:
		return fmt.Errorf("nil parameter")
	case *Simple:
		if !knownValueType(x.Type) {
			return &UnknownTypeError{Type: string(x.Type)}
		}
		return nil
	case *Array:
		if x.Items == nil {
			return fmt.Errorf("array parameter %q missing items", x.Name)
		}
		return Validate(x.Items)
	case *Object:
		props := x.Properties
		requiredSet := make(map[string]bool, len(x.RequiredNames))
		for _, n := range x.RequiredNames {
			if props == nil {
				return fmt.Errorf("object parameter %q requires %q but has no properties", x.Name, n)
			}
			if _, ok := props.Get(n); !ok {
				return fmt.Errorf("object parameter %q requires %q but declares no such property", x.Name, n)
			}
			requiredSet[n] = true
		}
		if props != nil {
			for pair := props.Oldest(); pair != nil; pair = pair.Next() {
				if paramRequired(pair.Value) != requiredSet[pair.Key] {
					return fmt.Errorf("object parameter %q: property %q required flag disagrees with required names", x.Name, pair.Key)
				}
				if err := Validate(pair.Value); err != nil {
					return err
				}
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported parameter node %T", p)
	}
}

// Equal reports structural equality of two trees. Property order and
// required-name order are not significant. Name and Required carry meaning
// only in property position (the wire serializes them as the property key
// and the enclosing required list); on a root or array-items node they are
// ignored.
func Equal(a, b Param) bool {
	return equalNode(a, b, false)
}

func equalNode(a, b Param, inProperty bool) bool {
	switch x := a.(type) {
	case *Simple:
		y, ok := b.(*Simple)
		if !ok || x.Type != y.Type || x.Description != y.Description {
			return false
		}
		return !inProperty || (x.Name == y.Name && x.Required == y.Required)
	case *Array:
		y, ok := b.(*Array)
		if !ok || x.Description != y.Description {
			return false
		}
		if inProperty && (x.Name != y.Name || x.Required != y.Required) {
			return false
		}
		return equalNode(x.Items, y.Items, false)
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Description != y.Description {
			return false
		}
		if inProperty && (x.Name != y.Name || x.Required != y.Required) {
			return false
		}
		if !sameNameSet(x.RequiredNames, y.RequiredNames) {
			return false
		}
		if propLen(x.Properties) != propLen(y.Properties) {
			return false
		}
		if x.Properties == nil {
			return true
		}
		for pair := x.Properties.Oldest(); pair != nil; pair = pair.Next() {
			other, ok := y.Properties.Get(pair.Key)
			if !ok || !equalNode(pair.Value, other, true) {
				return false
			}
		}
		return true
	case nil:
		return b == nil
	}
	return false
}

func propLen(m *orderedmap.OrderedMap[string, Param]) int {
	if m == nil {
		return 0
	}
	return m.Len()
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]bool, len(a))
	for _, n := range a {
		set[n] = true
	}
	for _, n := range b {
		if !set[n] {
			return false
		}
	}
	return true
}
