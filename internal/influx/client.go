// Package influx adapts influxdb-client-go to the operations exposed by the
// MCP tools and resources.
package influx

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/domain"
)

type Config struct {
	URL     string
	Token   string
	Org     string // used when a call names no organization
	Timeout time.Duration

	ApplicationName string
}

type Organization struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type Bucket struct {
	ID                     string `json:"id"`
	Name                   string `json:"name"`
	OrgID                  string `json:"orgID"`
	RetentionPeriodSeconds int64  `json:"retentionPeriodSeconds"`
}

var precisions = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
}

// Client talks to one InfluxDB instance. Write precision is a client-wide
// option in influxdb-client-go, so one underlying client is kept per
// precision and created on first use.
type Client struct {
	cfg Config

	mu      sync.Mutex
	clients map[time.Duration]influxdb2.Client
}

func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.ApplicationName == "" {
		cfg.ApplicationName = "influxdb-mcp-server"
	}
	return &Client{cfg: cfg, clients: make(map[time.Duration]influxdb2.Client)}
}

// Configured reports whether a token is available.
func (c *Client) Configured() bool {
	return strings.TrimSpace(c.cfg.Token) != ""
}

func (c *Client) api(precision time.Duration) (influxdb2.Client, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cl, ok := c.clients[precision]; ok {
		return cl, nil
	}

	timeout := uint(c.cfg.Timeout / time.Second)
	if timeout == 0 {
		timeout = 1
	}
	opts := influxdb2.DefaultOptions().
		SetPrecision(precision).
		SetHTTPRequestTimeout(timeout).
		SetApplicationName(c.cfg.ApplicationName)

	cl := influxdb2.NewClientWithOptions(c.cfg.URL, c.cfg.Token, opts)
	c.clients[precision] = cl
	return cl, nil
}

func (c *Client) org(org string) (string, error) {
	if org = strings.TrimSpace(org); org != "" {
		return org, nil
	}
	if c.cfg.Org != "" {
		return c.cfg.Org, nil
	}
	return "", invalidArgument("org is required")
}

// WriteData writes line protocol to a bucket.
func (c *Client) WriteData(ctx context.Context, org, bucket, data, precision string) (string, error) {
	org, err := c.org(org)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(bucket) == "" {
		return "", invalidArgument("bucket is required")
	}
	if strings.TrimSpace(data) == "" {
		return "", invalidArgument("data is required")
	}
	if precision == "" {
		precision = "ns"
	}
	p, ok := precisions[precision]
	if !ok {
		return "", invalidArgument("unsupported precision %q", precision)
	}

	cl, err := c.api(p)
	if err != nil {
		return "", err
	}

	lines := strings.Split(strings.ReplaceAll(data, "\r\n", "\n"), "\n")
	records := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			records = append(records, l)
		}
	}

	if err := cl.WriteAPIBlocking(org, bucket).WriteRecord(ctx, records...); err != nil {
		return "", classify(err)
	}
	return fmt.Sprintf("Data written successfully to bucket '%s' in organization '%s'", bucket, org), nil
}

// QueryData runs a Flux query and returns the annotated CSV response.
func (c *Client) QueryData(ctx context.Context, org, query string) (string, error) {
	org, err := c.org(org)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(query) == "" {
		return "", invalidArgument("query is required")
	}

	cl, err := c.api(time.Nanosecond)
	if err != nil {
		return "", err
	}

	out, err := cl.QueryAPI(org).QueryRaw(ctx, query, influxdb2.DefaultDialect())
	if err != nil {
		return "", classify(err)
	}
	return out, nil
}

// CreateBucket creates a bucket. A retention of 0 keeps data forever.
func (c *Client) CreateBucket(ctx context.Context, name, orgID string, retentionSeconds int64) (Bucket, error) {
	if strings.TrimSpace(name) == "" {
		return Bucket{}, invalidArgument("name is required")
	}
	if strings.TrimSpace(orgID) == "" {
		return Bucket{}, invalidArgument("orgID is required")
	}
	if retentionSeconds < 0 {
		return Bucket{}, invalidArgument("retentionPeriodSeconds must be >= 0")
	}

	cl, err := c.api(time.Nanosecond)
	if err != nil {
		return Bucket{}, err
	}

	var rules []domain.RetentionRule
	if retentionSeconds > 0 {
		rules = append(rules, domain.RetentionRule{EverySeconds: retentionSeconds})
	}

	b, err := cl.BucketsAPI().CreateBucketWithNameWithID(ctx, orgID, name, rules...)
	if err != nil {
		return Bucket{}, classify(err)
	}
	return toBucket(*b), nil
}

// CreateOrg creates an organization.
func (c *Client) CreateOrg(ctx context.Context, name, description string) (Organization, error) {
	if strings.TrimSpace(name) == "" {
		return Organization{}, invalidArgument("name is required")
	}

	cl, err := c.api(time.Nanosecond)
	if err != nil {
		return Organization{}, err
	}

	o := &domain.Organization{Name: name}
	if description != "" {
		o.Description = &description
	}

	created, err := cl.OrganizationsAPI().CreateOrganization(ctx, o)
	if err != nil {
		return Organization{}, classify(err)
	}
	return toOrganization(*created), nil
}

func (c *Client) ListOrgs(ctx context.Context) ([]Organization, error) {
	cl, err := c.api(time.Nanosecond)
	if err != nil {
		return nil, err
	}

	orgs, err := cl.OrganizationsAPI().GetOrganizations(ctx)
	if err != nil {
		return nil, classify(err)
	}

	out := make([]Organization, 0)
	if orgs != nil {
		for _, o := range *orgs {
			out = append(out, toOrganization(o))
		}
	}
	return out, nil
}

func (c *Client) ListBuckets(ctx context.Context) ([]Bucket, error) {
	cl, err := c.api(time.Nanosecond)
	if err != nil {
		return nil, err
	}

	buckets, err := cl.BucketsAPI().GetBuckets(ctx)
	if err != nil {
		return nil, classify(err)
	}

	out := make([]Bucket, 0)
	if buckets != nil {
		for _, b := range *buckets {
			out = append(out, toBucket(b))
		}
	}
	return out, nil
}

// ListMeasurements lists the measurements of a bucket in the default org.
func (c *Client) ListMeasurements(ctx context.Context, bucket string) ([]string, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, invalidArgument("bucket is required")
	}
	org, err := c.org("")
	if err != nil {
		return nil, err
	}

	cl, err := c.api(time.Nanosecond)
	if err != nil {
		return nil, err
	}

	res, err := cl.QueryAPI(org).Query(ctx, MeasurementsQuery(bucket))
	if err != nil {
		return nil, classify(err)
	}
	defer res.Close()

	out := make([]string, 0)
	for res.Next() {
		if v, ok := res.Record().Value().(string); ok {
			out = append(out, v)
		}
	}
	if err := res.Err(); err != nil {
		return nil, classify(err)
	}
	return out, nil
}

// MeasurementsQuery is the Flux used by ListMeasurements.
func MeasurementsQuery(bucket string) string {
	return fmt.Sprintf("import \"influxdata/influxdb/schema\"\nschema.measurements(bucket: %s)", fluxString(bucket))
}

// Ping checks that InfluxDB answers.
func (c *Client) Ping(ctx context.Context) error {
	cl, err := c.api(time.Nanosecond)
	if err != nil {
		return err
	}
	ok, err := cl.Ping(ctx)
	if err != nil {
		return classify(err)
	}
	if !ok {
		return ErrUnavailable
	}
	return nil
}

// Close releases every underlying client.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for p, cl := range c.clients {
		cl.Close()
		delete(c.clients, p)
	}
}

func toBucket(b domain.Bucket) Bucket {
	out := Bucket{Name: b.Name, ID: deref(b.Id), OrgID: deref(b.OrgID)}
	if len(b.RetentionRules) > 0 {
		out.RetentionPeriodSeconds = b.RetentionRules[0].EverySeconds
	}
	return out
}

func toOrganization(o domain.Organization) Organization {
	return Organization{ID: deref(o.Id), Name: o.Name, Description: deref(o.Description)}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// fluxString quotes s as a Flux string literal.
func fluxString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "${", `\${`)
	return `"` + r.Replace(s) + `"`
}
