// ABOUTME: SQL helpers for building request log queries.
// ABOUTME: Escapes LIKE wildcards so path prefixes match literally.

package store

import "strings"

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeSQLLike escapes %, _ and \ for use in a LIKE pattern with ESCAPE '\'.
func escapeSQLLike(pattern string) string {
	return likeEscaper.Replace(pattern)
}
