// ABOUTME: Failure taxonomy for console actions.
// ABOUTME: Classifies client and form errors so actions can log and message them consistently.

package console

import (
	"errors"
	"net/http"

	"github.com/2389/reco/internal/client"
	"github.com/2389/reco/internal/form"
)

var (
	// ErrUnknownAction is returned by Run for an action the schema does not declare
	ErrUnknownAction = errors.New("unknown action")
	// ErrUnknownResource is returned when no controller serves a resource name
	ErrUnknownResource = errors.New("unknown resource")
)

// Kind is the category of a failed action
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindNotFound
	KindServer
	KindTransport
	KindMalformedInput
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindServer:
		return "server"
	case KindTransport:
		return "transport"
	case KindMalformedInput:
		return "malformed_input"
	}
	return "unknown"
}

// Classify maps an action error onto the failure taxonomy
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var invalid *form.InvalidInputError
	if errors.As(err, &invalid) {
		return KindMalformedInput
	}

	httpErr, ok := client.AsHTTPError(err)
	if !ok {
		return KindServer
	}
	switch {
	case httpErr.StatusCode == 0:
		return KindTransport
	case httpErr.StatusCode == http.StatusNotFound:
		return KindNotFound
	case httpErr.StatusCode >= 400 && httpErr.StatusCode < 500 && httpErr.FromBody:
		return KindValidation
	default:
		return KindServer
	}
}
