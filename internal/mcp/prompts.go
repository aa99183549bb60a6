package mcp

import (
	"cmp"
	"fmt"
)

// Prompt is a prompts/list entry.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument describes one prompt parameter.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// PromptMessage is one message of a prompts/get result.
type PromptMessage struct {
	Role    string      `json:"role"`
	Content TextContent `json:"content"`
}

// PromptResult is the prompts/get result.
type PromptResult struct {
	Description string          `json:"description"`
	Messages    []PromptMessage `json:"messages"`
}

type prompt struct {
	Prompt
	render func(args map[string]string) string
}

var prompts = []prompt{
	{
		Prompt: Prompt{
			Name:        "flux-query-examples",
			Description: "Example Flux queries for exploring and aggregating time-series data",
			Arguments: []PromptArgument{
				{Name: "bucket", Description: "Bucket to use in the examples"},
			},
		},
		render: fluxQueryExamples,
	},
	{
		Prompt: Prompt{
			Name:        "line-protocol-guide",
			Description: "How to format points in InfluxDB line protocol",
			Arguments: []PromptArgument{
				{Name: "measurement", Description: "Measurement name to use in the examples"},
			},
		},
		render: lineProtocolGuide,
	},
}

func findPrompt(name string) (prompt, bool) {
	for _, p := range prompts {
		if p.Name == name {
			return p, true
		}
	}
	return prompt{}, false
}

func fluxQueryExamples(args map[string]string) string {
	b := cmp.Or(args["bucket"], "my-bucket")
	return fmt.Sprintf(`Here are common Flux queries for the bucket %[1]q.

Last hour of raw data:
from(bucket: %[1]q)
  |> range(start: -1h)

One measurement and field:
from(bucket: %[1]q)
  |> range(start: -24h)
  |> filter(fn: (r) => r._measurement == "cpu" and r._field == "usage_user")

Five minute averages:
from(bucket: %[1]q)
  |> range(start: -6h)
  |> filter(fn: (r) => r._measurement == "cpu")
  |> aggregateWindow(every: 5m, fn: mean, createEmpty: false)

Latest value per series:
from(bucket: %[1]q)
  |> range(start: -1d)
  |> last()

Measurements in the bucket:
import "influxdata/influxdb/schema"
schema.measurements(bucket: %[1]q)

Run these with the query-data tool, passing the organization name as org.`, b)
}

func lineProtocolGuide(args map[string]string) string {
	m := cmp.Or(args["measurement"], "cpu")
	return fmt.Sprintf(`InfluxDB line protocol writes one point per line:

<measurement>[,<tag_key>=<tag_value>...] <field_key>=<field_value>[,...] [timestamp]

Example:
%[1]s,host=server01,region=us-west usage_user=12.5,usage_system=3i 1609459200000000000

Rules:
- Tags are optional, always strings, and indexed. Use them for values you filter or group by.
- At least one field is required. Floats are bare numbers, integers end in i, strings are double quoted, booleans are t or f.
- Escape spaces, commas and equals signs in tag keys, tag values and field keys with a backslash.
- The timestamp is optional and defaults to the server time. Its unit follows the precision argument of the write-data tool (ns, us, ms or s).

Several points are written by separating lines with a newline:
%[1]s,host=server01 usage_user=12.5 1609459200000000000
%[1]s,host=server02 usage_user=8.1 1609459200000000000`, m)
}
