package toolschema

import (
	"encoding/json"
)

// Kind names the active type variant of a Schema node.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
	KindObject  Kind = "object"
	KindNull    Kind = "null"
)

// Valid reports whether k is one of the recognized type tags.
func (k Kind) Valid() bool {
	switch k {
	case KindString, KindNumber, KindInteger, KindBoolean, KindArray, KindObject, KindNull:
		return true
	default:
		return false
	}
}

// Schema is one node of a tool contract. Kind selects the variant; only the
// matching variant pointer is populated (boolean and null carry no
// constraints). Metadata fields are orthogonal to the variant.
type Schema struct {
	Kind Kind

	String  *StringSchema
	Number  *NumberSchema
	Integer *IntegerSchema
	Array   *ArraySchema
	Object  *ObjectSchema

	Title       string
	Description string
	Default     json.RawMessage
	Examples    []json.RawMessage
	Enum        []json.RawMessage
	Const       json.RawMessage

	// Extra keeps keywords this package does not model ($schema, anyOf, ...)
	// so that re-encoding a node does not lose them.
	Extra map[string]json.RawMessage

	// Unparsed holds the original bytes when this schema is a Fallback.
	Unparsed json.RawMessage
}

// StringSchema constrains string values.
type StringSchema struct {
	MinLength *uint64
	MaxLength *uint64
	Pattern   string
	Format    string
}

// NumberSchema constrains floating point values.
type NumberSchema struct {
	Minimum          *float64
	Maximum          *float64
	ExclusiveMinimum *float64
	ExclusiveMaximum *float64
	MultipleOf       *float64
}

// IntegerSchema constrains whole numbers. Bounds must themselves be whole.
type IntegerSchema struct {
	Minimum          *int64
	Maximum          *int64
	ExclusiveMinimum *int64
	ExclusiveMaximum *int64
	MultipleOf       *int64
}

// ArraySchema constrains arrays.
type ArraySchema struct {
	Items       *Schema
	MinItems    *uint64
	MaxItems    *uint64
	UniqueItems *bool
}

// ObjectSchema constrains objects. A nil Properties map means the keyword was
// absent, which differs from an empty map for validation purposes; the same
// holds for Required.
type ObjectSchema struct {
	Properties map[string]*Schema
	Required   []string

	// AdditionalProperties is set when the keyword is a boolean;
	// AdditionalSchema when it is a nested schema.
	AdditionalProperties *bool
	AdditionalSchema     *Schema

	MinProperties *uint64
	MaxProperties *uint64
}

// Default returns the schema used when a tool does not provide a usable one:
// an object with no properties and no required fields.
func Default() Schema {
	return Schema{
		Kind:   KindObject,
		Object: &ObjectSchema{Properties: map[string]*Schema{}},
	}
}

// Fallback returns Default annotated with the bytes that failed to decode.
func Fallback(raw []byte) Schema {
	s := Default()
	s.Unparsed = append(json.RawMessage{}, raw...)
	return s
}

// IsFallback reports whether s was produced by Fallback rather than decoded.
func (s Schema) IsFallback() bool {
	return s.Unparsed != nil
}

// IsObject reports whether the object variant is active.
func (s Schema) IsObject() bool {
	return s.Kind == KindObject && s.Object != nil
}

// PropertyNames returns the declared property names of an object schema.
// The order is unspecified.
func (s Schema) PropertyNames() []string {
	if !s.IsObject() {
		return nil
	}
	names := make([]string, 0, len(s.Object.Properties))
	for name := range s.Object.Properties {
		names = append(names, name)
	}
	return names
}
