package httptransport

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chimera/internal/flora/models"
	"chimera/internal/notification"
	"chimera/internal/platform/metrics"
	"chimera/pkg/platform/sentinel"
	"chimera/pkg/testutil"
)

type noopAcker struct{}

func (noopAcker) Ack(uint64) error        { return nil }
func (noopAcker) Nack(uint64, bool) error { return nil }

type stubReader struct {
	result  models.Result
	records []models.Record
	err     error
}

func (s stubReader) Get(context.Context, string) models.Result     { return s.result }
func (s stubReader) List(context.Context) ([]models.Record, error) { return s.records, s.err }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func newTestRouter(relay *notification.Relay, reader FloraReader, checks map[string]CheckFunc) http.Handler {
	reg := prometheus.NewRegistry()
	metrics.New(reg)
	logger := discardLogger()
	return NewRouter(logger, reg,
		NewNotificationHandler(relay, logger),
		NewFloraHandler(reader, logger),
		NewHealthHandler(checks),
	)
}

func TestNotificationList_ReturnsBufferedBodies(t *testing.T) {
	relay := notification.New(noopAcker{}, notification.WithLogger(discardLogger()))
	require.NoError(t, relay.Publish(`{"code":201}`))
	require.NoError(t, relay.Publish(`{"code":200}`))
	router := newTestRouter(relay, stubReader{}, nil)

	rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/api/flora-notification", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	got := testutil.UnmarshalResponse[[]string](t, rr)
	assert.Equal(t, []string{`{"code":201}`, `{"code":200}`}, got)
}

func TestNotificationStream_WritesServerSentEvents(t *testing.T) {
	relay := notification.New(noopAcker{}, notification.WithLogger(discardLogger()))
	require.NoError(t, relay.Publish("first"))
	srv := httptest.NewServer(newTestRouter(relay, stubReader{}, nil))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/flora-notification/flora-notifications-stream", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() string {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		blank, err := reader.ReadString('\n')
		require.NoError(t, err)
		require.Equal(t, "\n", blank)
		return strings.TrimSuffix(line, "\n")
	}

	assert.Equal(t, "data: first", readEvent())
	require.NoError(t, relay.Publish("second"))
	assert.Equal(t, "data: second", readEvent())

	cancel()
	require.Eventually(t, func() bool { return relay.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestFloraGet(t *testing.T) {
	tests := []struct {
		name       string
		result     models.Result
		wantStatus int
		wantState  string
	}{
		{
			name:       "complete record",
			result:     models.OK(models.Record{ID: "abc", CommonName: "Rose", Type: models.PostTypePublic, Image: []byte{1}}),
			wantStatus: http.StatusOK,
			wantState:  "success",
		},
		{
			name:       "missing or orphan",
			result:     models.NotFound(sentinel.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantState:  "error",
		},
		{
			name:       "store failure",
			result:     models.Failed(errors.New("mongo down")),
			wantStatus: http.StatusInternalServerError,
			wantState:  "error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newTestRouter(notification.New(noopAcker{}), stubReader{result: tt.result}, nil)
			rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/api/flora/abc", nil))

			testutil.AssertStatus(t, rr, tt.wantStatus)
			body := testutil.AssertEnvelope(t, rr, tt.wantState, tt.wantStatus)
			if tt.wantStatus == http.StatusOK {
				data := body["data"].(map[string]any)
				assert.Equal(t, "abc", data["id"])
				assert.Equal(t, "AQ==", data["image"])
			}
		})
	}
}

func TestFloraList(t *testing.T) {
	reader := stubReader{records: []models.Record{{ID: "a"}, {ID: "b"}}}
	router := newTestRouter(notification.New(noopAcker{}), reader, nil)

	rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/api/flora", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)
	body := testutil.AssertEnvelope(t, rr, "success", http.StatusOK)
	assert.Len(t, body["data"], 2)

	failing := newTestRouter(notification.New(noopAcker{}), stubReader{err: errors.New("pg down")}, nil)
	rr = testutil.DoRequest(failing, httptest.NewRequest(http.MethodGet, "/api/flora", nil))
	testutil.AssertStatus(t, rr, http.StatusInternalServerError)
}

func TestHealth(t *testing.T) {
	checks := map[string]CheckFunc{
		"postgres": func(context.Context) error { return nil },
		"rabbitmq": func(context.Context) error { return sentinel.ErrUnavailable },
	}
	router := newTestRouter(notification.New(noopAcker{}), stubReader{}, checks)

	rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	testutil.AssertStatus(t, rr, http.StatusOK)

	rr = testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	testutil.AssertStatus(t, rr, http.StatusServiceUnavailable)
	got := testutil.UnmarshalResponse[map[string]string](t, rr)
	assert.Equal(t, "ok", got["postgres"])
	assert.Contains(t, got["rabbitmq"], "unavailable")
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(notification.New(noopAcker{}), stubReader{}, nil)
	rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	testutil.AssertStatus(t, rr, http.StatusOK)
	assert.Contains(t, rr.Body.String(), "flora_notifications_buffered")
}

func TestSSESink_FramesMultiLineBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "single line", body: `{"code":201}`, want: "data: {\"code\":201}\n\n"},
		{name: "newlines", body: "{\n  \"code\": 201\n}", want: "data: {\ndata:   \"code\": 201\ndata: }\n\n"},
		{name: "crlf", body: "a\r\nb", want: "data: a\ndata: b\n\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			require.NoError(t, sseSink{w: rr, f: rr}.Send(tt.body))
			assert.Equal(t, tt.want, rr.Body.String())
			assert.True(t, rr.Flushed)
		})
	}
}
