// ABOUTME: Generic action controller driving one resource page.
// ABOUTME: Runs create, update, retrieve, delete, search, clear, sample and sub-actions over a Session.

package console

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/2389/reco/internal/client"
	apierrors "github.com/2389/reco/internal/errors"
	"github.com/2389/reco/internal/form"
	"github.com/2389/reco/internal/logging"
	"github.com/2389/reco/plugins/core"
)

// Flash texts written by successful actions
const (
	MessageSuccess = "Success"
	MessageSampled = "Sample data loaded"
)

// Doer sends one request to the REST API
type Doer interface {
	Do(ctx context.Context, method, path string, body any) (any, error)
}

// Sampler produces a plausible record for a schema
type Sampler interface {
	Sample(ctx context.Context, schema core.ResourceSchema) (core.Record, error)
}

// ResultRenderer turns search results into markup and reports the first record
type ResultRenderer func(schema core.ResourceSchema, records []core.Record) (html string, first core.Record, ok bool)

// Options configures a Controller
type Options struct {
	Client      Doer
	Session     *Session
	Notifier    Notifier
	Render      ResultRenderer
	Sampler     Sampler
	Logger      *zap.SugaredLogger
	UnifyErrors bool // surface server messages for delete failures too
}

// Controller runs a resource schema's actions against its session
type Controller struct {
	name        string
	schema      core.ResourceSchema
	client      Doer
	session     *Session
	notifier    Notifier
	render      ResultRenderer
	sampler     Sampler
	log         *zap.SugaredLogger
	unifyErrors bool
}

// NewController builds the controller for the resource registered as name
func NewController(name string, schema core.ResourceSchema, opts Options) *Controller {
	c := &Controller{
		name:        name,
		schema:      schema,
		client:      opts.Client,
		session:     opts.Session,
		notifier:    opts.Notifier,
		render:      opts.Render,
		sampler:     opts.Sampler,
		log:         opts.Logger,
		unifyErrors: opts.UnifyErrors,
	}
	if c.session == nil {
		c.session = NewSession(false)
	}
	if c.notifier == nil {
		c.notifier = MultiNotifier(nil)
	}
	if c.render == nil {
		c.render = firstOnly
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}
	c.log = c.log.With("resource", name)
	return c
}

func (c *Controller) Name() string                { return c.name }
func (c *Controller) Schema() core.ResourceSchema { return c.schema }
func (c *Controller) Session() *Session           { return c.session }

// Run performs one action. Every failure ends as a flash message; the only
// returned error is ErrUnknownAction.
func (c *Controller) Run(ctx context.Context, name string) error {
	action, ok := c.schema.Action(name)
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnknownAction, c.name, name)
	}

	state, gen := c.session.begin(c.notify)

	ctx = logging.WithAction(ctx, c.name, action.Name)
	start := time.Now()

	var result completion
	switch action.Name {
	case core.ActionCreate:
		result = c.create(ctx, action, state)
	case core.ActionRetrieve:
		result = c.retrieve(ctx, action, state)
	case core.ActionDelete:
		result = c.delete(ctx, action, state)
	case core.ActionSearch:
		result = c.search(ctx, action, state)
	case core.ActionClear:
		result = completion{update: func(s form.State) form.State { return form.ClearAll(c.schema, s) }}
	case core.ActionSample:
		result = c.sample(ctx, state)
	default:
		// update and schema sub-actions
		result = c.update(ctx, action, state)
	}

	if !c.session.complete(gen, result, c.notify) {
		c.log.Debugw("discarded stale completion", "action", action.Name, "generation", gen)
		return nil
	}
	c.log.Debugw("action complete", "action", action.Name, "generation", gen,
		"flash", result.flash, "duration", time.Since(start))
	return nil
}

func (c *Controller) create(ctx context.Context, action core.ActionSchema, state form.State) completion {
	payload, err := form.ToPayload(c.schema, state)
	if err != nil {
		return c.fail(action, err)
	}
	resp, err := c.client.Do(ctx, action.HTTPMethod, c.schema.ActionPath(action, ""), payload)
	if err != nil {
		return c.fail(action, err)
	}
	return c.applied(resp)
}

// update covers the full update and narrow sub-actions declaring Fields
func (c *Controller) update(ctx context.Context, action core.ActionSchema, state form.State) completion {
	id, err := form.Identifier(c.schema, state)
	if err != nil {
		return c.fail(action, err)
	}

	var payload core.Record
	if len(action.Fields) > 0 {
		payload, err = form.PayloadFields(c.schema, state, action.Fields)
	} else {
		payload, err = form.ToPayload(c.schema, state)
	}
	if err != nil {
		return c.fail(action, err)
	}

	method := action.HTTPMethod
	if method == "" {
		method = http.MethodPut
	}
	resp, err := c.client.Do(ctx, method, c.schema.ActionPath(action, id), payload)
	if err != nil {
		return c.fail(action, err)
	}
	return c.applied(resp)
}

func (c *Controller) retrieve(ctx context.Context, action core.ActionSchema, state form.State) completion {
	id, err := form.Identifier(c.schema, state)
	if err != nil {
		return c.fail(action, err)
	}
	resp, err := c.client.Do(ctx, action.HTTPMethod, c.schema.ActionPath(action, id), nil)
	if err != nil {
		result := c.fail(action, err)
		result.update = func(s form.State) form.State { return form.Clear(c.schema, s) }
		return result
	}
	return c.applied(resp)
}

func (c *Controller) delete(ctx context.Context, action core.ActionSchema, state form.State) completion {
	id, err := form.Identifier(c.schema, state)
	if err != nil {
		return c.fail(action, err)
	}
	if _, err := c.client.Do(ctx, action.HTTPMethod, c.schema.ActionPath(action, id), nil); err != nil {
		return c.fail(action, err)
	}
	return completion{
		update: func(s form.State) form.State { return form.Clear(c.schema, s) },
		flash:  c.schema.Name + " has been Deleted!",
	}
}

func (c *Controller) search(ctx context.Context, action core.ActionSchema, state form.State) completion {
	query := form.BuildQuery(c.schema.FilterFields(), state)
	resp, err := c.client.Do(ctx, action.HTTPMethod, c.schema.ActionPath(action, "")+"?"+query, nil)
	if err != nil {
		return c.fail(action, err)
	}

	records, ok := asRecords(resp)
	if !ok {
		c.log.Warnw("search response is not a list of records", "type", fmt.Sprintf("%T", resp))
		return completion{flash: apierrors.GenericMessage}
	}

	html, first, found := c.render(c.schema, records)
	result := completion{results: &html, flash: MessageSuccess}
	if found {
		result.update = func(s form.State) form.State { return form.ApplyResponse(c.schema, first, s) }
	}
	return result
}

func (c *Controller) sample(ctx context.Context, state form.State) completion {
	if c.sampler == nil {
		return completion{flash: "Sample data is not available"}
	}
	record, err := c.sampler.Sample(ctx, c.schema)
	if err != nil {
		c.log.Warnw("sample generation failed", "error", err)
		return completion{flash: apierrors.GenericMessage}
	}
	return completion{
		update: func(s form.State) form.State { return form.ApplyResponse(c.schema, record, s) },
		flash:  MessageSampled,
	}
}

// applied writes a record response into the form and reports success
func (c *Controller) applied(resp any) completion {
	result := completion{flash: MessageSuccess}
	if record, ok := asRecord(resp); ok {
		result.update = func(s form.State) form.State { return form.ApplyResponse(c.schema, record, s) }
	}
	return result
}

// fail turns an action error into its flash message, leaving the form as is
func (c *Controller) fail(action core.ActionSchema, err error) completion {
	kind := Classify(err)
	c.log.Infow("action failed", "action", action.Name, "kind", kind.String(), "error", err)
	return completion{flash: c.failureMessage(action, kind, err)}
}

func (c *Controller) failureMessage(action core.ActionSchema, kind Kind, err error) string {
	if kind == KindMalformedInput {
		return err.Error()
	}
	if action.Errors == core.GenericMessage && !c.unifyErrors {
		return apierrors.GenericMessage
	}
	httpErr, ok := client.AsHTTPError(err)
	if !ok {
		return apierrors.GenericMessage
	}
	msg := SanitizeMessage(httpErr.Message)
	if msg == "" {
		return apierrors.GenericMessage
	}
	return msg
}

func (c *Controller) notify(msg string, gen uint64) {
	c.notifier.Notify(Event{Resource: c.name, Message: msg, Generation: gen, At: time.Now()})
}

func asRecord(v any) (core.Record, bool) {
	switch r := v.(type) {
	case core.Record:
		return r, true
	case map[string]any:
		return core.Record(r), true
	}
	return nil, false
}

func asRecords(v any) ([]core.Record, bool) {
	if v == nil {
		return nil, true
	}
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	records := make([]core.Record, 0, len(list))
	for _, item := range list {
		record, ok := asRecord(item)
		if !ok {
			return nil, false
		}
		records = append(records, record)
	}
	return records, true
}

func firstOnly(_ core.ResourceSchema, records []core.Record) (string, core.Record, bool) {
	if len(records) == 0 {
		return "", nil, false
	}
	return "", records[0], true
}

// Console holds one controller per registered resource
type Console struct {
	controllers map[string]*Controller
	order       []string
}

// NewConsole builds controllers for every plugin, sharing opts except the session
func NewConsole(plugins []core.Plugin, opts Options, discardStale bool) *Console {
	cons := &Console{controllers: make(map[string]*Controller)}
	for _, p := range plugins {
		o := opts
		o.Session = NewSession(discardStale)
		cons.controllers[p.Name()] = NewController(p.Name(), p.Schema(), o)
		cons.order = append(cons.order, p.Name())
	}
	return cons
}

// Controller returns the controller for a resource name
func (c *Console) Controller(name string) (*Controller, error) {
	ctrl, ok := c.controllers[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownResource, name)
	}
	return ctrl, nil
}

// Names lists resources in registration order
func (c *Console) Names() []string {
	return append([]string(nil), c.order...)
}
