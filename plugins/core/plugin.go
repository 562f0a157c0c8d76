// ABOUTME: Core plugin interface for console resource kinds.
// ABOUTME: Each resource kind is a plugin that contributes one schema.

package core

// Plugin defines the interface that all resource plugins must implement
type Plugin interface {
	// Name is the registry key and URL segment, normally the schema slug
	Name() string

	// Schema describes the form, filters, columns and actions
	Schema() ResourceSchema
}
