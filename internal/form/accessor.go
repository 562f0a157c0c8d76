// ABOUTME: FieldAccessor reads and writes a single form field with type coercion.
// ABOUTME: Integer coercion is strict; malformed values surface as InvalidInputError.

package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/2389/reco/plugins/core"
)

// InvalidInputError reports a form value that cannot be coerced to its
// field's kind. It is raised before any request is dispatched.
type InvalidInputError struct {
	Field  core.FieldSchema
	Value  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	label := e.Field.Display
	if label == "" {
		label = e.Field.Name
	}
	return fmt.Sprintf("Invalid input: %s %s", label, e.Reason)
}

// Accessor binds one schema field to its form selector
type Accessor struct {
	Field core.FieldSchema
}

// FieldAccessor returns the accessor for a schema field
func FieldAccessor(field core.FieldSchema) Accessor {
	return Accessor{Field: field}
}

// Raw returns the field's string value and whether it is present in the form
func (a Accessor) Raw(s State) (string, bool) {
	return s.Get(a.Field.Selector)
}

// Read returns the coerced value. ok is false when the field is absent from
// the form, or is an integer field left empty.
func (a Accessor) Read(s State) (value any, ok bool, err error) {
	raw, present := a.Raw(s)
	if !present {
		return nil, false, nil
	}

	switch a.Field.Kind {
	case core.KindInteger:
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return nil, false, nil
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil {
			return nil, false, &InvalidInputError{Field: a.Field, Value: raw, Reason: "must be an integer"}
		}
		return n, true, nil
	case core.KindBoolean:
		return raw == "true", true, nil
	default:
		return raw, true, nil
	}
}

// Write returns a new state with the value stringified into the field
func (a Accessor) Write(s State, value any) State {
	return s.With(a.Field.Selector, core.FormatValue(value))
}
