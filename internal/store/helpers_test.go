// ABOUTME: Tests for the LIKE escaping helper.
// ABOUTME: Covers API paths and query strings containing wildcard characters.

package store

import (
	"testing"
)

func TestEscapeSQLLike(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain collection path",
			input:    "/pets",
			expected: "/pets",
		},
		{
			name:     "query with underscore field",
			input:    "/recommendations?user_id=42",
			expected: "/recommendations?user\\_id=42",
		},
		{
			name:     "percent encoded value",
			input:    "/pets?name=Rex%20Jr",
			expected: "/pets?name=Rex\\%20Jr",
		},
		{
			name:     "backslash",
			input:    "/pets\\1",
			expected: "/pets\\\\1",
		},
		{
			name:     "backslash followed by percent",
			input:    "path\\%",
			expected: "path\\\\\\%",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "only special characters",
			input:    "%_%\\",
			expected: "\\%\\_\\%\\\\",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := escapeSQLLike(tt.input)
			if result != tt.expected {
				t.Errorf("escapeSQLLike(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
