// ABOUTME: Resource records exchanged with the REST API.
// ABOUTME: Records are transient maps; FormatValue stringifies their values for display.

package core

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is one resource as sent to or received from the API
type Record map[string]any

// FormatValue renders a decoded JSON value the way form fields and table
// cells show it: booleans as "true"/"false", numbers without exponent, null
// as the empty string.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}
