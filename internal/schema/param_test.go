package schema

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// deepTree mixes all three variants and nests past depth five.
func deepTree() Param {
	leafList := &Array{
		Name:     "tags",
		Required: true,
		Items:    &Simple{Type: TypeString, Description: "one tag"},
	}
	inner := NewObject("filter", "search filter").
		Add(&Simple{Name: "pattern", Type: TypeString, Required: true}).
		Add(&Simple{Name: "case_insensitive", Type: TypeBoolean}).
		Add(leafList)
	matrix := &Array{
		Name: "matrix",
		Items: &Array{
			Items: &Simple{Type: TypeNumber},
		},
	}
	query := NewObject("query", "one query").
		Add(&Simple{Name: "text", Type: TypeString, Required: true}).
		Add(inner).
		Add(matrix)
	return NewObject("", "root").
		Add(&Simple{Name: "limit", Type: TypeInteger, Description: "max results"}).
		Add(&Array{Name: "queries", Required: true, Items: query})
}

func TestRoundTrip_DeepTree(t *testing.T) {
	p := deepTree()
	require.NoError(t, Validate(p))

	raw, err := ToWire(p)
	require.NoError(t, err)
	back, err := FromWire(raw)
	require.NoError(t, err)
	assert.True(t, Equal(p, back), "round-tripped tree differs\nwire: %s", raw)

	// A second trip through the wire is also stable.
	raw2, err := ToWire(back)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(raw2))
}

func TestFromWire_PropertyOrderNotSignificant(t *testing.T) {
	a, err := FromWire(json.RawMessage(`{"type":"object","properties":{"x":{"type":"string"},"y":{"type":"number"}},"required":["x"]}`))
	require.NoError(t, err)
	b, err := FromWire(json.RawMessage(`{"type":"object","properties":{"y":{"type":"number"},"x":{"type":"string"}},"required":["x"]}`))
	require.NoError(t, err)
	assert.True(t, Equal(a, b))
}

func TestFromWire_UnknownTypeFailsClosed(t *testing.T) {
	_, err := FromWire(json.RawMessage(`{"type":"object","properties":{"x":{"type":"decimal"}}}`))
	var ute *UnknownTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "decimal", ute.Type)
}

func TestFromWire_ArrayMissingItems(t *testing.T) {
	_, err := FromWire(json.RawMessage(`{"type":"array"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing items")
}

func TestFromWire_RequiredNameWithoutProperty(t *testing.T) {
	_, err := FromWire(json.RawMessage(`{"type":"object","properties":{"x":{"type":"string"}},"required":["x","ghost"]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestFromWire_IgnoresForeignKeywords(t *testing.T) {
	p, err := FromWire(json.RawMessage(`{"$schema":"x","type":"object","additionalProperties":false,"properties":{"x":{"type":"string"}}}`))
	require.NoError(t, err)
	o, ok := p.(*Object)
	require.True(t, ok)
	assert.Equal(t, 1, o.Properties.Len())
}

func TestValidate_RequiredFlagConsistency(t *testing.T) {
	o := NewObject("", "")
	o.Properties.Set("x", &Simple{Name: "x", Type: TypeString, Required: true})
	err := Validate(o)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disagrees")
}

func TestValidate_ErrAlreadyTyped(t *testing.T) {
	err := Validate(&Simple{Name: "x", Type: ValueType("blob")})
	var ute *UnknownTypeError
	assert.True(t, errors.As(err, &ute))
}

func TestEqual_Mismatches(t *testing.T) {
	s := &Simple{Name: "x", Type: TypeString}
	assert.False(t, Equal(s, &Simple{Name: "x", Type: TypeNumber}))
	assert.False(t, Equal(s, &Array{Name: "x", Items: s}))
	assert.False(t, Equal(NewObject("", "a"), NewObject("", "b")))
	assert.False(t, Equal(
		NewObject("", "").Add(&Simple{Name: "x", Type: TypeString}),
		NewObject("", "").Add(&Simple{Name: "y", Type: TypeString}),
	))
}

func TestEqual_NamesSignificantOnlyInPropertyPosition(t *testing.T) {
	// The wire carries names and required flags only for properties; a name
	// on a root or items node must not break equality.
	named := &Array{Items: &Simple{Name: "item", Type: TypeString, Required: true}}
	bare := &Array{Items: &Simple{Type: TypeString}}
	assert.True(t, Equal(named, bare))
	assert.True(t, Equal(NewObject("a", ""), NewObject("b", "")))

	a := NewObject("", "")
	a.Properties.Set("x", &Simple{Name: "x", Type: TypeString})
	b := NewObject("", "")
	b.Properties.Set("x", &Simple{Name: "y", Type: TypeString})
	assert.False(t, Equal(a, b))
}

func TestRoundTrip_NamedArrayItems(t *testing.T) {
	item := NewObject("query", "one query").
		Add(&Simple{Name: "text", Type: TypeString, Required: true})
	item.Required = true
	p := NewObject("", "").
		Add(&Array{Name: "queries", Required: true, Items: item})
	raw, err := ToWire(p)
	require.NoError(t, err)
	back, err := FromWire(raw)
	require.NoError(t, err)
	assert.True(t, Equal(p, back), "round-tripped tree differs\nwire: %s", raw)
}
