// ABOUTME: FormBinder maps whole resource records to and from form state.
// ABOUTME: Builds request payloads and writes API responses back into fields.

package form

import (
	"strings"

	"github.com/2389/reco/plugins/core"
)

// ToPayload reads every editable, non-identifier field and coerces it into a
// request payload. Fields absent from the form are omitted.
func ToPayload(schema core.ResourceSchema, s State) (core.Record, error) {
	payload := core.Record{}
	for _, field := range schema.Fields {
		if field.Identifier || !field.Editable {
			continue
		}
		if err := readInto(payload, field, s); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

// PayloadFields builds a narrow payload from the named fields only
func PayloadFields(schema core.ResourceSchema, s State, names []string) (core.Record, error) {
	payload := core.Record{}
	for _, name := range names {
		field, ok := schema.Field(name)
		if !ok || field.Identifier {
			continue
		}
		if err := readInto(payload, field, s); err != nil {
			return nil, err
		}
	}
	return payload, nil
}

func readInto(payload core.Record, field core.FieldSchema, s State) error {
	value, ok, err := FieldAccessor(field).Read(s)
	if err != nil {
		return err
	}
	if ok {
		payload[field.Name] = value
	}
	return nil
}

// ApplyResponse writes every schema field present in the record into the
// form. Fields missing from the record keep their value; unknown record keys
// are ignored.
func ApplyResponse(schema core.ResourceSchema, record core.Record, s State) State {
	next := NewState(s.values)
	for _, field := range schema.Fields {
		value, ok := record[field.Name]
		if !ok {
			continue
		}
		next.values[field.Selector] = core.FormatValue(value)
	}
	return next
}

// Clear empties every field except the identifier
func Clear(schema core.ResourceSchema, s State) State {
	next := NewState(s.values)
	for _, field := range schema.Fields {
		if field.Identifier {
			continue
		}
		next.values[field.Selector] = ""
	}
	return next
}

// ClearAll empties every field including the identifier
func ClearAll(schema core.ResourceSchema, s State) State {
	next := Clear(schema, s)
	if id, ok := schema.IdentifierField(); ok {
		next.values[id.Selector] = ""
	}
	return next
}

// Identifier reads the identifier field for item endpoints. An empty or,
// for integer identifiers, non-numeric value is an InvalidInputError.
func Identifier(schema core.ResourceSchema, s State) (string, error) {
	field, ok := schema.IdentifierField()
	if !ok {
		return "", &InvalidInputError{Field: core.FieldSchema{Name: "id"}, Reason: "is not defined"}
	}

	raw := strings.TrimSpace(s.Value(field.Selector))
	if raw == "" {
		return "", &InvalidInputError{Field: field, Reason: "is required"}
	}
	if field.Kind == core.KindInteger {
		if _, _, err := FieldAccessor(field).Read(NewState(map[string]string{field.Selector: raw})); err != nil {
			return "", err
		}
	}
	return raw, nil
}

// Restrict drops every value whose selector is not part of the schema
func Restrict(schema core.ResourceSchema, s State) State {
	next := State{values: make(map[string]string)}
	for _, field := range schema.Fields {
		if v, ok := s.Get(field.Selector); ok {
			next.values[field.Selector] = v
		}
	}
	return next
}
