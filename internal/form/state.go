// ABOUTME: FormState value object holding the live form field values.
// ABOUTME: States are copied on write so pure functions can return new states.

package form

import "sort"

// State is the set of form field values keyed by field selector. The zero
// value is an empty, usable state. Methods never mutate the receiver.
type State struct {
	values map[string]string
}

// NewState builds a State from a selector -> value map; the map is copied
func NewState(values map[string]string) State {
	s := State{values: make(map[string]string, len(values))}
	for k, v := range values {
		s.values[k] = v
	}
	return s
}

// Get returns the value of a field and whether the field is present
func (s State) Get(selector string) (string, bool) {
	v, ok := s.values[selector]
	return v, ok
}

// Value returns the value of a field, or "" when absent
func (s State) Value(selector string) string {
	return s.values[selector]
}

// With returns a copy of the state with one field set
func (s State) With(selector, value string) State {
	next := NewState(s.values)
	next.values[selector] = value
	return next
}

// Merge returns a copy of the state with every field of other applied
func (s State) Merge(other State) State {
	next := NewState(s.values)
	for k, v := range other.values {
		next.values[k] = v
	}
	return next
}

// Values returns a copy of the underlying map
func (s State) Values() map[string]string {
	out := make(map[string]string, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// Selectors returns the present field selectors in sorted order
func (s State) Selectors() []string {
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of present fields
func (s State) Len() int {
	return len(s.values)
}
