// ABOUTME: Resource and action tagging for outbound request logs.
// ABOUTME: Carries the console action in the request context and falls back to the URL path.

package logging

import (
	"context"
	"strings"

	"github.com/2389/reco/plugins/core"
)

type contextKey int

const actionKey contextKey = iota

type actionTag struct {
	resource string
	action   string
}

// WithAction tags ctx so requests made with it are logged under resource and action
func WithAction(ctx context.Context, resource, action string) context.Context {
	return context.WithValue(ctx, actionKey, actionTag{resource: resource, action: action})
}

// ActionFromContext returns the tag set by WithAction
func ActionFromContext(ctx context.Context) (resource, action string, ok bool) {
	tag, ok := ctx.Value(actionKey).(actionTag)
	return tag.resource, tag.action, ok
}

// ResourceFromPath maps an API path to the registered resource whose collection it belongs to
func ResourceFromPath(path string) string {
	segment := strings.TrimPrefix(path, "/")
	if i := strings.IndexAny(segment, "/?"); i >= 0 {
		segment = segment[:i]
	}
	for _, p := range core.All() {
		schema := p.Schema()
		if schema.Slug == segment {
			return p.Name()
		}
	}
	return "unknown"
}
