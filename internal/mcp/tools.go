package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
)

// Tool name styles. Hyphenated names are canonical; some clients only accept
// underscores.
const (
	ToolNameHyphen     = "hyphen"
	ToolNameUnderscore = "underscore"
)

// Tool is a tools/list entry.
type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

type toolFunc func(ctx context.Context, in Influx, args map[string]any) (any, error)

type tool struct {
	Tool
	resolved *jsonschema.Resolved
	call     toolFunc
}

func toolDefinitions() []*tool {
	return []*tool{
		{
			Tool: Tool{
				Name:        "write-data",
				Description: "Write time-series data to InfluxDB using line protocol format",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						argOrg:   orgProperty(),
						"bucket": {Type: "string", Description: "The InfluxDB bucket name"},
						"data": {
							Type:        "string",
							Description: "Data in InfluxDB line protocol format (e.g., 'measurement,tag1=value1 field1=10 1609459200000000000')",
						},
						"precision": {
							Type:        "string",
							Enum:        []any{"ns", "us", "ms", "s"},
							Description: "Timestamp precision (ns=nanoseconds, us=microseconds, ms=milliseconds, s=seconds)",
							Default:     json.RawMessage(`"ns"`),
						},
					},
					Required: []string{argOrg, "bucket", "data"},
				},
			},
			call: func(ctx context.Context, in Influx, args map[string]any) (any, error) {
				return in.WriteData(ctx, stringArg(args, argOrg), stringArg(args, "bucket"), stringArg(args, "data"), stringArg(args, "precision"))
			},
		},
		{
			Tool: Tool{
				Name:        "query-data",
				Description: "Execute Flux queries against InfluxDB to retrieve time-series data",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						argOrg: orgProperty(),
						"query": {
							Type:        "string",
							Description: `Flux query string (e.g., 'from(bucket:"mybucket") |> range(start: -1h)')`,
						},
					},
					Required: []string{argOrg, "query"},
				},
			},
			call: func(ctx context.Context, in Influx, args map[string]any) (any, error) {
				return in.QueryData(ctx, stringArg(args, argOrg), stringArg(args, "query"))
			},
		},
		{
			Tool: Tool{
				Name:        "create-bucket",
				Description: "Create a new bucket in InfluxDB for storing time-series data",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":  {Type: "string", Description: "The name for the new bucket"},
						"orgID": {Type: "string", Description: "The organization ID where the bucket will be created"},
						"retentionPeriodSeconds": {
							Type:        "integer",
							Description: "Data retention period in seconds (0 for infinite retention)",
							Minimum:     ptr(0.0),
							Maximum:     ptr(float64(maxRetentionSeconds)),
						},
					},
					Required: []string{"name", "orgID"},
				},
			},
			call: func(ctx context.Context, in Influx, args map[string]any) (any, error) {
				return in.CreateBucket(ctx, stringArg(args, "name"), stringArg(args, "orgID"), int64(numberArg(args, "retentionPeriodSeconds")))
			},
		},
		{
			Tool: Tool{
				Name:        "create-org",
				Description: "Create a new organization in InfluxDB",
				InputSchema: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"name":        {Type: "string", Description: "The name for the new organization"},
						"description": {Type: "string", Description: "Optional description for the organization"},
					},
					Required: []string{"name"},
				},
			},
			call: func(ctx context.Context, in Influx, args map[string]any) (any, error) {
				return in.CreateOrg(ctx, stringArg(args, "name"), stringArg(args, "description"))
			},
		},
	}
}

const argOrg = "org"

// maxRetentionSeconds caps bucket retention at 100 years so the value
// always fits an int64 once validated.
const maxRetentionSeconds = 100 * 365 * 24 * 60 * 60

func orgProperty() *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: "The InfluxDB organization name"}
}

// resolveTools resolves every input schema once so calls only validate.
func resolveTools() ([]*tool, error) {
	tools := toolDefinitions()
	for _, t := range tools {
		resolved, err := t.InputSchema.Resolve(nil)
		if err != nil {
			return nil, fmt.Errorf("resolve schema for %s: %w", t.Name, err)
		}
		t.resolved = resolved
	}
	return tools, nil
}

func (t *tool) takesOrg() bool {
	_, ok := t.InputSchema.Properties[argOrg]
	return ok
}

// withoutRequired returns a shallow copy of s with name dropped from
// Required.
func withoutRequired(s *jsonschema.Schema, name string) *jsonschema.Schema {
	out := *s
	out.Required = slices.DeleteFunc(slices.Clone(s.Required), func(r string) bool { return r == name })
	return &out
}

// prepareArguments decodes tool arguments, fills the default org and schema
// defaults, then validates the result.
func (t *tool) prepareArguments(raw json.RawMessage, defaultOrg string) (map[string]any, error) {
	args := map[string]any{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &args); err != nil {
			return nil, fmt.Errorf("arguments must be an object: %w", err)
		}
	}
	if defaultOrg != "" && t.takesOrg() {
		switch org, ok := args[argOrg].(string); {
		case args[argOrg] == nil, ok && strings.TrimSpace(org) == "":
			args[argOrg] = defaultOrg
		}
	}
	if err := t.resolved.ApplyDefaults(&args); err != nil {
		return nil, err
	}
	if err := t.resolved.Validate(args); err != nil {
		return nil, err
	}
	return args, nil
}

// displayName renders a canonical tool name in the configured style.
func displayName(name, style string) string {
	if style == ToolNameUnderscore {
		return strings.ReplaceAll(name, "-", "_")
	}
	return name
}

// canonicalName accepts either spelling of a tool name.
func canonicalName(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func numberArg(args map[string]any, key string) float64 {
	n, _ := args[key].(float64)
	return n
}

func ptr[T any](v T) *T { return &v }
