// ABOUTME: Flash notification channel for console actions.
// ABOUTME: Notifiers receive every flash write; server messages are sanitized before display.

package console

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
)

// Event is one write to a resource page's flash region. An empty Message clears it.
type Event struct {
	Resource   string    `json:"resource"`
	Message    string    `json:"message"`
	Generation uint64    `json:"generation"`
	At         time.Time `json:"at"`
}

// Notifier receives flash events. Notify runs while the session applying the
// write is locked, so it must not block or call back into the session.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(e Event) {
	f(e)
}

// MultiNotifier fans an event out to several notifiers in order
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(e Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(e)
		}
	}
}

var messagePolicy = bluemonday.StrictPolicy()

// SanitizeMessage strips markup from a server-supplied message and returns plain text
func SanitizeMessage(msg string) string {
	return strings.TrimSpace(html.UnescapeString(messagePolicy.Sanitize(msg)))
}
