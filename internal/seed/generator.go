// ABOUTME: Sample record generator for the console's sample action.
// ABOUTME: Asks OpenAI for a plausible record and falls back to a static factory.

package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/2389/reco/plugins/core"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gpt-5-mini"

// Config configures a Generator. An empty APIKey disables OpenAI.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string // OpenAI-compatible endpoint; empty for the public API
	Seed    uint64 // static factory seed; 0 seeds from the clock
	Logger  *zap.SugaredLogger
}

// Generator creates sample records using OpenAI or falls back to the static factory.
type Generator struct {
	client  *openai.Client
	useAI   bool
	model   string
	factory *Factory
	log     *zap.SugaredLogger
}

// NewGenerator creates a generator from cfg
func NewGenerator(cfg Config) *Generator {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	g := &Generator{
		model:   cfg.Model,
		factory: NewFactory(seed),
		log:     log.Named("seed"),
	}
	if g.model == "" {
		g.model = DefaultModel
	}

	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		g.client = openai.NewClientWithConfig(clientCfg)
		g.useAI = true
		g.log.Infow("OpenAI API key found, using AI-generated samples", "model", g.model)
	} else {
		g.log.Info("No OPENAI_API_KEY found, using static sample data")
	}

	return g
}

// UsesAI reports whether samples come from OpenAI
func (g *Generator) UsesAI() bool {
	return g.useAI
}

// Sample returns a record for the schema's editable fields. It never fails
// when the static factory can serve the schema.
func (g *Generator) Sample(ctx context.Context, schema core.ResourceSchema) (core.Record, error) {
	if !g.useAI {
		return g.factory.Record(schema), nil
	}

	record, err := g.generate(ctx, schema)
	if err != nil {
		g.log.Warnw("AI sample failed, falling back to static data", "resource", schema.Name, "error", err)
		return g.factory.Record(schema), nil
	}
	return record, nil
}

func (g *Generator) generate(ctx context.Context, schema core.ResourceSchema) (core.Record, error) {
	content, err := g.callOpenAI(ctx, samplePrompt(schema))
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(stripFences(content))))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w", err)
	}

	record := conform(schema, raw)
	if len(record) == 0 {
		return nil, fmt.Errorf("response has no usable %s fields", schema.Name)
	}
	return record, nil
}

func (g *Generator) callOpenAI(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a data generator. Always respond with valid JSON only, no markdown or explanation.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

// samplePrompt describes the editable fields of schema
func samplePrompt(schema core.ResourceSchema) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Generate one realistic %s record as a JSON object with these fields:\n", schema.Name)
	for _, field := range schema.Fields {
		if field.Identifier || !field.Editable {
			continue
		}
		switch field.Kind {
		case core.KindInteger:
			lo, hi := intRange(field)
			fmt.Fprintf(&sb, "- %s: integer between %d and %d\n", field.Name, lo, hi)
		case core.KindBoolean:
			fmt.Fprintf(&sb, "- %s: boolean\n", field.Name)
		case core.KindEnum:
			fmt.Fprintf(&sb, "- %s: one of %s\n", field.Name, strings.Join(field.Options, ", "))
		default:
			fmt.Fprintf(&sb, "- %s: string (%s)\n", field.Name, field.Display)
		}
	}
	sb.WriteString("Do not include an id.")
	return sb.String()
}

// conform keeps the editable fields whose values match their kind
func conform(schema core.ResourceSchema, raw map[string]any) core.Record {
	record := core.Record{}
	for _, field := range schema.Fields {
		if field.Identifier || !field.Editable {
			continue
		}
		value, ok := raw[field.Name]
		if !ok {
			continue
		}
		switch field.Kind {
		case core.KindInteger:
			n, isNum := value.(json.Number)
			if !isNum {
				continue
			}
			i, err := n.Int64()
			lo, hi := intRange(field)
			if err != nil || i < int64(lo) || i > int64(hi) {
				continue
			}
			record[field.Name] = i
		case core.KindBoolean:
			if b, isBool := value.(bool); isBool {
				record[field.Name] = b
			}
		case core.KindEnum:
			if s, isString := value.(string); isString && contains(field.Options, s) {
				record[field.Name] = s
			}
		default:
			if s, isString := value.(string); isString {
				record[field.Name] = s
			}
		}
	}
	return record
}

// stripFences removes a markdown code fence some models add despite instructions
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
