package toolschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

// DecodeError describes why a raw schema could not be decoded. Path is a
// JSON-pointer-like location of the failing node ("" for the root).
type DecodeError struct {
	Path    string
	Keyword string
	Err     error
}

func (e *DecodeError) Error() string {
	loc := e.Path
	if loc == "" {
		loc = "/"
	}
	if e.Keyword != "" {
		return fmt.Sprintf("toolschema: %s: %s: %v", loc, e.Keyword, e.Err)
	}
	return fmt.Sprintf("toolschema: %s: %v", loc, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

var (
	errNotObject   = errors.New("schema must be a JSON object")
	errMissingType = errors.New("missing type tag")
	errNotWhole    = errors.New("not a whole number")
)

// Decode strictly converts raw JSON into a Schema. Unknown keywords are kept
// in Extra; an unrecognized type tag or a constraint with the wrong shape is
// an error, as is any failure inside a nested schema.
func Decode(raw []byte) (Schema, error) {
	return decodeNode(raw, "")
}

// Parse is the best-effort form of Decode used for schemas coming from
// remote servers. It never fails: on a decode error it logs a warning and
// returns Fallback(raw).
func Parse(raw []byte, logger *slog.Logger) Schema {
	s, err := Decode(raw)
	if err != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Warn("failed to parse JSON schema, using default", "error", err)
		return Fallback(raw)
	}
	return s
}

// UnmarshalJSON implements json.Unmarshaler using the strict Decode rules.
func (s *Schema) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(data)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}

// MarshalJSON encodes the node using standard JSON Schema keywords. A
// fallback schema encodes as the default empty object.
func (s Schema) MarshalJSON() ([]byte, error) {
	out, err := s.fields()
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

type fieldReader struct {
	fields map[string]json.RawMessage
	path   string
}

// take decodes fields[key] into dst and removes it. Absent keys leave dst
// untouched.
func (r *fieldReader) take(key string, dst any) error {
	raw, ok := r.fields[key]
	if !ok {
		return nil
	}
	delete(r.fields, key)
	if err := json.Unmarshal(raw, dst); err != nil {
		return &DecodeError{Path: r.path, Keyword: key, Err: err}
	}
	return nil
}

// takeWhole decodes fields[key] as an integer. Whole-valued numbers written
// with a fraction or exponent ("0.0", "1e3") are accepted.
func (r *fieldReader) takeWhole(key string, dst **int64) error {
	var n json.Number
	if err := r.take(key, &n); err != nil || n == "" {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*dst = &i
		return nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return &DecodeError{Path: r.path, Keyword: key, Err: fmt.Errorf("%w: %s", errNotWhole, n)}
	}
	i := int64(f)
	*dst = &i
	return nil
}

func (r *fieldReader) raw(key string) json.RawMessage {
	raw, ok := r.fields[key]
	if !ok {
		return nil
	}
	delete(r.fields, key)
	return append(json.RawMessage(nil), raw...)
}

func (r *fieldReader) child(key string, raw []byte) (*Schema, error) {
	s, err := decodeNode(raw, r.path+"/"+key)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func decodeNode(raw []byte, path string) (Schema, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return Schema{}, &DecodeError{Path: path, Err: errNotObject}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Schema{}, &DecodeError{Path: path, Err: err}
	}
	r := &fieldReader{fields: fields, path: path}

	if _, ok := fields["type"]; !ok {
		return Schema{}, &DecodeError{Path: path, Err: errMissingType}
	}
	var tag string
	if err := r.take("type", &tag); err != nil {
		return Schema{}, err
	}
	kind := Kind(tag)
	if !kind.Valid() {
		return Schema{}, &DecodeError{Path: path, Keyword: "type", Err: fmt.Errorf("unknown type %q", tag)}
	}
	s := Schema{Kind: kind}

	if err := r.take("title", &s.Title); err != nil {
		return Schema{}, err
	}
	if err := r.take("description", &s.Description); err != nil {
		return Schema{}, err
	}
	if err := r.take("examples", &s.Examples); err != nil {
		return Schema{}, err
	}
	if err := r.take("enum", &s.Enum); err != nil {
		return Schema{}, err
	}
	s.Default = r.raw("default")
	s.Const = r.raw("const")

	var err error
	switch kind {
	case KindString:
		s.String, err = decodeString(r)
	case KindNumber:
		s.Number, err = decodeNumber(r)
	case KindInteger:
		s.Integer, err = decodeInteger(r)
	case KindArray:
		s.Array, err = decodeArray(r)
	case KindObject:
		s.Object, err = decodeObject(r)
	}
	if err != nil {
		return Schema{}, err
	}
	if len(r.fields) > 0 {
		s.Extra = r.fields
	}
	return s, nil
}

func decodeString(r *fieldReader) (*StringSchema, error) {
	v := &StringSchema{}
	for key, dst := range map[string]any{
		"minLength": &v.MinLength,
		"maxLength": &v.MaxLength,
		"pattern":   &v.Pattern,
		"format":    &v.Format,
	} {
		if err := r.take(key, dst); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func decodeNumber(r *fieldReader) (*NumberSchema, error) {
	v := &NumberSchema{}
	for key, dst := range map[string]any{
		"minimum":          &v.Minimum,
		"maximum":          &v.Maximum,
		"exclusiveMinimum": &v.ExclusiveMinimum,
		"exclusiveMaximum": &v.ExclusiveMaximum,
		"multipleOf":       &v.MultipleOf,
	} {
		if err := r.take(key, dst); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func decodeInteger(r *fieldReader) (*IntegerSchema, error) {
	v := &IntegerSchema{}
	for key, dst := range map[string]**int64{
		"minimum":          &v.Minimum,
		"maximum":          &v.Maximum,
		"exclusiveMinimum": &v.ExclusiveMinimum,
		"exclusiveMaximum": &v.ExclusiveMaximum,
		"multipleOf":       &v.MultipleOf,
	} {
		if err := r.takeWhole(key, dst); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func decodeArray(r *fieldReader) (*ArraySchema, error) {
	v := &ArraySchema{}
	if items := r.raw("items"); items != nil {
		child, err := r.child("items", items)
		if err != nil {
			return nil, err
		}
		v.Items = child
	}
	for key, dst := range map[string]any{
		"minItems":    &v.MinItems,
		"maxItems":    &v.MaxItems,
		"uniqueItems": &v.UniqueItems,
	} {
		if err := r.take(key, dst); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func decodeObject(r *fieldReader) (*ObjectSchema, error) {
	v := &ObjectSchema{}
	var props map[string]json.RawMessage
	if err := r.take("properties", &props); err != nil {
		return nil, err
	}
	if props != nil {
		v.Properties = make(map[string]*Schema, len(props))
		for name, raw := range props {
			child, err := r.child("properties/"+name, raw)
			if err != nil {
				return nil, err
			}
			v.Properties[name] = child
		}
	}
	if err := r.take("required", &v.Required); err != nil {
		return nil, err
	}
	if extra := r.raw("additionalProperties"); extra != nil {
		var flag bool
		if err := json.Unmarshal(extra, &flag); err == nil {
			v.AdditionalProperties = &flag
		} else {
			child, err := r.child("additionalProperties", extra)
			if err != nil {
				return nil, err
			}
			v.AdditionalSchema = child
		}
	}
	if err := r.take("minProperties", &v.MinProperties); err != nil {
		return nil, err
	}
	if err := r.take("maxProperties", &v.MaxProperties); err != nil {
		return nil, err
	}
	return v, nil
}

func (s Schema) fields() (map[string]any, error) {
	if s.IsFallback() {
		s = Default()
	}
	if !s.Kind.Valid() {
		return nil, fmt.Errorf("toolschema: cannot encode schema with type %q", s.Kind)
	}
	out := make(map[string]any, len(s.Extra)+8)
	for k, v := range s.Extra {
		out[k] = v
	}
	out["type"] = string(s.Kind)
	setIf(out, "title", s.Title, s.Title != "")
	setIf(out, "description", s.Description, s.Description != "")
	setIf(out, "default", s.Default, s.Default != nil)
	setIf(out, "examples", s.Examples, s.Examples != nil)
	setIf(out, "enum", s.Enum, s.Enum != nil)
	setIf(out, "const", s.Const, s.Const != nil)

	switch {
	case s.String != nil:
		v := s.String
		setIf(out, "minLength", v.MinLength, v.MinLength != nil)
		setIf(out, "maxLength", v.MaxLength, v.MaxLength != nil)
		setIf(out, "pattern", v.Pattern, v.Pattern != "")
		setIf(out, "format", v.Format, v.Format != "")
	case s.Number != nil:
		v := s.Number
		setIf(out, "minimum", v.Minimum, v.Minimum != nil)
		setIf(out, "maximum", v.Maximum, v.Maximum != nil)
		setIf(out, "exclusiveMinimum", v.ExclusiveMinimum, v.ExclusiveMinimum != nil)
		setIf(out, "exclusiveMaximum", v.ExclusiveMaximum, v.ExclusiveMaximum != nil)
		setIf(out, "multipleOf", v.MultipleOf, v.MultipleOf != nil)
	case s.Integer != nil:
		v := s.Integer
		setIf(out, "minimum", v.Minimum, v.Minimum != nil)
		setIf(out, "maximum", v.Maximum, v.Maximum != nil)
		setIf(out, "exclusiveMinimum", v.ExclusiveMinimum, v.ExclusiveMinimum != nil)
		setIf(out, "exclusiveMaximum", v.ExclusiveMaximum, v.ExclusiveMaximum != nil)
		setIf(out, "multipleOf", v.MultipleOf, v.MultipleOf != nil)
	case s.Array != nil:
		v := s.Array
		setIf(out, "items", v.Items, v.Items != nil)
		setIf(out, "minItems", v.MinItems, v.MinItems != nil)
		setIf(out, "maxItems", v.MaxItems, v.MaxItems != nil)
		setIf(out, "uniqueItems", v.UniqueItems, v.UniqueItems != nil)
	case s.Object != nil:
		v := s.Object
		setIf(out, "properties", v.Properties, v.Properties != nil)
		setIf(out, "required", v.Required, v.Required != nil)
		setIf(out, "additionalProperties", v.AdditionalProperties, v.AdditionalProperties != nil)
		setIf(out, "additionalProperties", v.AdditionalSchema, v.AdditionalProperties == nil && v.AdditionalSchema != nil)
		setIf(out, "minProperties", v.MinProperties, v.MinProperties != nil)
		setIf(out, "maxProperties", v.MaxProperties, v.MaxProperties != nil)
	}
	return out, nil
}

func setIf(out map[string]any, key string, value any, ok bool) {
	if ok {
		out[key] = value
	}
}
