package schema

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// FromStruct reflects a Go struct into a parameter tree, so tools can
// declare their surface with ordinary tagged structs instead of hand-built
// trees. Field names come from json tags; `jsonschema:"description=..."`
// tags carry descriptions; non-pointer fields are required.
func FromStruct(v any) (Param, error) {
	if v == nil {
		return nil, fmt.Errorf("nil value")
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("reflect %T: top level is not a struct", v)
	}
	r := jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		ExpandedStruct:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(v)
	if s == nil {
		return nil, fmt.Errorf("reflect %T: no schema produced", v)
	}
	s.Version = ""
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("reflect %T: %w", v, err)
	}
	p, err := FromWire(raw)
	if err != nil {
		return nil, fmt.Errorf("reflect %T: %w", v, err)
	}
	if _, ok := p.(*Object); !ok {
		return nil, fmt.Errorf("reflect %T: top level is not an object", v)
	}
	return p, nil
}
