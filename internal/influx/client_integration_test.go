package influx

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	itOrg    = "mcp-it"
	itBucket = "mcp-it-bucket"
	itToken  = "mcp-it-admin-token"
)

// startInfluxDB runs an initialised InfluxDB 2.7 and returns its URL.
func startInfluxDB(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping InfluxDB container test in -short mode")
	}

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "admin",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "admin-password",
			"DOCKER_INFLUXDB_INIT_ORG":         itOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      itBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": itToken,
		},
		WaitingFor: wait.ForHTTP("/health").
			WithPort("8086/tcp").
			WithStartupTimeout(90 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "8086")
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

func TestInfluxDBRoundTrip(t *testing.T) {
	url := startInfluxDB(t)
	ctx := context.Background()

	c := New(Config{URL: url, Token: itToken, Org: itOrg, Timeout: 10 * time.Second})
	defer c.Close()

	// The setup API can lag the health endpoint.
	require.Eventually(t, func() bool { return c.Ping(ctx) == nil }, 30*time.Second, 500*time.Millisecond)

	_, err := c.WriteData(ctx, itOrg, itBucket, "cpu,host=a usage=0.5 1700000000", "s")
	require.NoError(t, err)

	csv, err := c.QueryData(ctx, itOrg, fmt.Sprintf(`from(bucket: %s) |> range(start: 0) |> filter(fn: (r) => r._measurement == "cpu")`, fluxString(itBucket)))
	require.NoError(t, err)
	require.Contains(t, csv, "usage")

	measurements, err := c.ListMeasurements(ctx, itBucket)
	require.NoError(t, err)
	require.Contains(t, measurements, "cpu")

	orgs, err := c.ListOrgs(ctx)
	require.NoError(t, err)
	var orgID string
	for _, o := range orgs {
		if o.Name == itOrg {
			orgID = o.ID
		}
	}
	require.NotEmpty(t, orgID)

	b, err := c.CreateBucket(ctx, "created-by-test", orgID, 3600)
	require.NoError(t, err)
	require.Equal(t, int64(3600), b.RetentionPeriodSeconds)

	_, err = c.CreateBucket(ctx, "created-by-test", orgID, 0)
	require.ErrorIs(t, err, ErrInvalidArgument, "duplicate bucket is a conflict")

	o, err := c.CreateOrg(ctx, "second-org", "made in a test")
	require.NoError(t, err)
	require.Equal(t, "made in a test", o.Description)

	bad := New(Config{URL: url, Token: "wrong", Org: itOrg})
	defer bad.Close()
	_, err = bad.QueryData(ctx, itOrg, "buckets()")
	require.ErrorIs(t, err, ErrUnauthorized)
}
