package influxdb_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/fibaro-bridge/internal/infrastructure/config"
	"github.com/nerrad567/fibaro-bridge/internal/infrastructure/influxdb"
)

// fakeInflux answers /ping and records line protocol bodies posted to /api/v2/write.
type fakeInflux struct {
	mu     sync.Mutex
	writes []string
	query  []string
}

func (f *fakeInflux) handler(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/ping":
		w.WriteHeader(http.StatusNoContent)
	case "/api/v2/write":
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.writes = append(f.writes, string(body))
		f.query = append(f.query, r.URL.RawQuery)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeInflux) bodies() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.writes, "\n")
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "home",
		Bucket:        "fibaro",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	_, err := influxdb.Connect(context.Background(), cfg)
	assert.ErrorIs(t, err, influxdb.ErrDisabled)
}

func TestConnect_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := influxdb.Connect(ctx, testConfig(url))
	assert.ErrorIs(t, err, influxdb.ErrConnectionFailed)
}

func TestRecordControl(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()

	client, err := influxdb.Connect(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	defer client.Close()

	assert.True(t, client.IsConnected())
	require.NoError(t, client.HealthCheck(context.Background()))

	at := time.Unix(1700000000, 0)
	client.RecordControlAt(12, "temperature", 21.5, at)
	client.Flush()

	require.Eventually(t, func() bool { return fake.bodies() != "" }, 2*time.Second, 10*time.Millisecond)
	body := fake.bodies()
	assert.Contains(t, body, influxdb.ControlMeasurement+",")
	assert.Contains(t, body, "control=temperature")
	assert.Contains(t, body, "device_id=12")
	assert.Contains(t, body, "value=21.5")

	fake.mu.Lock()
	require.NotEmpty(t, fake.query)
	assert.Contains(t, fake.query[0], "bucket=fibaro")
	fake.mu.Unlock()
}

func TestRecordControl_AfterClose(t *testing.T) {
	fake := &fakeInflux{}
	srv := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer srv.Close()

	client, err := influxdb.Connect(context.Background(), testConfig(srv.URL))
	require.NoError(t, err)
	require.NoError(t, client.Close())

	client.RecordControl(3, "power", 40)
	client.Flush()

	assert.False(t, client.IsConnected())
	assert.ErrorIs(t, client.HealthCheck(context.Background()), influxdb.ErrNotConnected)
	assert.Empty(t, fake.bodies())
}
