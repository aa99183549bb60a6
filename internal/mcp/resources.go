package mcp

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/yosida95/uritemplate/v3"
)

const (
	uriOrgs    = "influxdb://orgs"
	uriBuckets = "influxdb://buckets"

	templateMeasurements = "influxdb://bucket/{bucket}/measurements"
	templateQuery        = "influxdb://query/{org}/{+query}"
	queryPrefix          = "influxdb://query/"

	mimeJSON = "application/json"
)

// Resource is a resources/list entry.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// ResourceTemplate is a resources/templates/list entry.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MimeType    string `json:"mimeType"`
}

// ResourceContents is one element of a resources/read result.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType"`
	Text     string `json:"text"`
}

var staticResources = []Resource{
	{
		URI:         uriOrgs,
		Name:        "Organizations",
		Description: "List all organizations in your InfluxDB instance",
		MimeType:    mimeJSON,
	},
	{
		URI:         uriBuckets,
		Name:        "Buckets",
		Description: "List all buckets across all organizations",
		MimeType:    mimeJSON,
	},
}

var resourceTemplates = []ResourceTemplate{
	{
		URITemplate: templateMeasurements,
		Name:        "Bucket measurements",
		Description: "List the measurements stored in a bucket",
		MimeType:    mimeJSON,
	},
	{
		URITemplate: templateQuery,
		Name:        "Flux query",
		Description: "Run a URL-encoded Flux query against an organization",
		MimeType:    mimeJSON,
	},
}

type resourceRouter struct {
	measurements *uritemplate.Template
	query        *uritemplate.Template
}

func newResourceRouter() (*resourceRouter, error) {
	measurements, err := uritemplate.New(templateMeasurements)
	if err != nil {
		return nil, err
	}
	query, err := uritemplate.New(templateQuery)
	if err != nil {
		return nil, err
	}
	return &resourceRouter{measurements: measurements, query: query}, nil
}

// read resolves uri to a collaborator call. ok is false for unknown URIs.
func (rr *resourceRouter) read(ctx context.Context, in Influx, uri string) (v any, ok bool, err error) {
	switch uri {
	case uriOrgs:
		v, err = in.ListOrgs(ctx)
		return v, true, err
	case uriBuckets:
		v, err = in.ListBuckets(ctx)
		return v, true, err
	}

	if values := rr.measurements.Match(uri); values != nil {
		bucket := values.Get("bucket").String()
		if bucket != "" {
			v, err = in.ListMeasurements(ctx, bucket)
			return v, true, err
		}
	}

	if org, query, matched := rr.matchQuery(uri); matched {
		v, err = in.QueryData(ctx, org, query)
		return v, true, err
	}

	return nil, false, nil
}

// matchQuery extracts org and query from a query resource URI. Clients do not
// always percent-encode the Flux text, so a URI the template rejects is split
// by hand.
func (rr *resourceRouter) matchQuery(uri string) (org, query string, ok bool) {
	if values := rr.query.Match(uri); values != nil {
		org, query = values.Get("org").String(), values.Get("query").String()
		if org != "" && query != "" {
			return org, query, true
		}
	}

	rest, found := strings.CutPrefix(uri, queryPrefix)
	if !found {
		return "", "", false
	}
	rawOrg, rawQuery, found := strings.Cut(rest, "/")
	if !found || rawOrg == "" || rawQuery == "" {
		return "", "", false
	}

	org, err := url.PathUnescape(rawOrg)
	if err != nil {
		return "", "", false
	}
	query, err = url.PathUnescape(rawQuery)
	if err != nil {
		query = rawQuery
	}
	return org, query, true
}

// QueryURI builds a query resource URI for org and a Flux query.
func QueryURI(org, query string) string {
	return fmt.Sprintf("%s%s/%s", queryPrefix, url.PathEscape(org), url.PathEscape(query))
}

// MeasurementsURI builds the measurements resource URI for bucket.
func MeasurementsURI(bucket string) string {
	return fmt.Sprintf("influxdb://bucket/%s/measurements", url.PathEscape(bucket))
}
