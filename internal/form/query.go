// ABOUTME: QueryBuilder assembles search query strings from optional filter fields.
// ABOUTME: Values are concatenated raw, without URL encoding.

package form

import (
	"strings"

	"github.com/2389/reco/plugins/core"
)

// BuildQuery joins "name=value" for every present filter, in declared order,
// with "&". A string filter is present when non-empty, a boolean filter when
// its value is "true". The result has no leading "?" or "&" and is empty
// when no filter is present.
//
// Values are not URL-encoded. A value containing "&", "=", "#" or spaces
// produces a query the server will misread; this matches the console's
// historical behavior and is left to the operator.
func BuildQuery(filters []core.FieldSchema, s State) string {
	var sb strings.Builder
	for _, field := range filters {
		value, _ := s.Get(field.Selector)
		if field.Kind == core.KindBoolean {
			if value != "true" {
				continue
			}
		} else if value == "" {
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("&")
		}
		sb.WriteString(field.Name)
		sb.WriteString("=")
		sb.WriteString(value)
	}
	return sb.String()
}
