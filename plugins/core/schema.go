// ABOUTME: Schema definitions for console resource kinds.
// ABOUTME: Resources declare fields, filters, columns and actions; the console core is generic over them.

package core

import "strings"

// FieldKind is the coercion applied when a form value is sent to the API
type FieldKind string

const (
	KindString  FieldKind = "string"
	KindInteger FieldKind = "integer"
	KindBoolean FieldKind = "boolean"
	KindEnum    FieldKind = "enum"
)

// ResourceSchema defines a resource kind (Pets, Recommendations)
type ResourceSchema struct {
	Name        string         // "Pet", "Recommendation"
	Slug        string         // "pets", "recommendations" (collection path)
	Fields      []FieldSchema  // Ordered form fields
	Filters     []string       // Field names used by search, in query order
	ListColumns []string       // Which fields in the results table
	Actions     []ActionSchema // Available operations
}

// FieldSchema defines a single form field bound to a record attribute
type FieldSchema struct {
	Name       string    // Record attribute: "user_id"
	Selector   string    // Form field id: "reco_user_id"
	Display    string    // "User ID"
	Kind       FieldKind // Coercion on the way to the API
	Identifier bool      // Primary key, never part of a payload
	Editable   bool      // Sent in create/update payloads
	Options    []string  // Enum choices
	Min, Max   int       // Integer range hint for sample data
}

// ErrorPolicy selects which message a failed action shows
type ErrorPolicy int

const (
	// ServerMessage shows the response body's message, falling back to the generic text
	ServerMessage ErrorPolicy = iota
	// GenericMessage always shows the generic text
	GenericMessage
)

// ActionSchema defines an action on a resource
type ActionSchema struct {
	Name       string      // "create", "rate"
	Display    string      // Button label
	HTTPMethod string      // "POST", "PUT"; empty for local actions
	Endpoint   string      // Template relative to the collection: "/{id}/rating"
	Fields     []string    // Payload fields for narrow sub-actions
	Errors     ErrorPolicy // Failure message policy
}

// Built-in action names
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionRetrieve = "retrieve"
	ActionDelete   = "delete"
	ActionSearch   = "search"
	ActionClear    = "clear"
	ActionSample   = "sample"
)

// StandardActions returns the CRUD, search, clear and sample actions every
// resource supports, followed by any extra sub-actions.
func StandardActions(extra ...ActionSchema) []ActionSchema {
	actions := []ActionSchema{
		{Name: ActionCreate, Display: "Create", HTTPMethod: "POST", Endpoint: ""},
		{Name: ActionUpdate, Display: "Update", HTTPMethod: "PUT", Endpoint: "/{id}"},
		{Name: ActionRetrieve, Display: "Retrieve", HTTPMethod: "GET", Endpoint: "/{id}"},
		{Name: ActionDelete, Display: "Delete", HTTPMethod: "DELETE", Endpoint: "/{id}", Errors: GenericMessage},
		{Name: ActionSearch, Display: "Search", HTTPMethod: "GET", Endpoint: ""},
		{Name: ActionClear, Display: "Clear"},
		{Name: ActionSample, Display: "Sample"},
	}
	return append(actions, extra...)
}

// CollectionPath returns the base endpoint path: "/pets"
func (s ResourceSchema) CollectionPath() string {
	return "/" + s.Slug
}

// ItemPath returns the endpoint path for one record: "/pets/7"
func (s ResourceSchema) ItemPath(id string) string {
	return s.CollectionPath() + "/" + id
}

// ActionPath expands an action endpoint template for the given identifier
func (s ResourceSchema) ActionPath(action ActionSchema, id string) string {
	return s.CollectionPath() + strings.ReplaceAll(action.Endpoint, "{id}", id)
}

// Field looks a field up by record attribute name
func (s ResourceSchema) Field(name string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// FieldBySelector looks a field up by its form selector
func (s ResourceSchema) FieldBySelector(selector string) (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Selector == selector {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// IdentifierField returns the primary key field, if the schema declares one
func (s ResourceSchema) IdentifierField() (FieldSchema, bool) {
	for _, f := range s.Fields {
		if f.Identifier {
			return f, true
		}
	}
	return FieldSchema{}, false
}

// FilterFields returns the search filter fields in declared order
func (s ResourceSchema) FilterFields() []FieldSchema {
	fields := make([]FieldSchema, 0, len(s.Filters))
	for _, name := range s.Filters {
		if f, ok := s.Field(name); ok {
			fields = append(fields, f)
		}
	}
	return fields
}

// Action looks an action up by name
func (s ResourceSchema) Action(name string) (ActionSchema, bool) {
	for _, a := range s.Actions {
		if a.Name == name {
			return a, true
		}
	}
	return ActionSchema{}, false
}
