package toolschema

import "fmt"

// ValidationError explains why a tool's input contract was rejected.
type ValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("tool %q: %s", e.Tool, e.Reason)
}

// Validate reports whether tool's input schema is usable by a tool-calling
// model. The root must be an object and every required name must be declared
// in properties. Required without properties is rejected as ambiguous; no
// required list passes regardless of properties.
func Validate(tool Tool) error {
	in := tool.InputSchema
	if !in.IsObject() {
		kind := string(in.Kind)
		if kind == "" {
			kind = "unset"
		}
		return &ValidationError{
			Tool:   tool.Name,
			Reason: fmt.Sprintf("invalid schema type %s, expected object", kind),
		}
	}
	obj := in.Object
	if obj.Required == nil {
		return nil
	}
	if obj.Properties == nil {
		return &ValidationError{
			Tool:   tool.Name,
			Reason: "has required fields but no properties defined",
		}
	}
	for _, field := range obj.Required {
		if _, ok := obj.Properties[field]; !ok {
			return &ValidationError{
				Tool:   tool.Name,
				Field:  field,
				Reason: fmt.Sprintf("requires field %q but it is not defined in properties", field),
			}
		}
	}
	return nil
}

// ValidateTools splits tools into the ones passing Validate and the reasons
// the rest were rejected. Input order is preserved.
func ValidateTools(tools []Tool) (valid []Tool, rejected []error) {
	valid = make([]Tool, 0, len(tools))
	for _, tool := range tools {
		if err := Validate(tool); err != nil {
			rejected = append(rejected, err)
			continue
		}
		valid = append(valid, tool)
	}
	return valid, rejected
}
