package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njoy/registration-probe/internal/probe"
	"github.com/njoy/registration-probe/internal/stubapi"
	"github.com/njoy/registration-probe/internal/telemetry"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func target(t *testing.T, handler http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	t.Setenv("REGPROBE_TARGET_BASE_URL", srv.URL)
	return srv.URL
}

func respond(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

func runProbe(t *testing.T) (stdout, stderr string, err error) {
	t.Helper()
	var out, logs bytes.Buffer
	err = run(context.Background(), &out, &logs)
	return out.String(), logs.String(), err
}

func TestRun_Created(t *testing.T) {
	url := target(t, respond(http.StatusCreated, `{"id": 1, "email": "testuser@example.com"}`))

	stdout, stderr, err := runProbe(t)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Sending registration data to "+url+"/register:\n")
	assert.Contains(t, stdout, "Status Code: 201\nResponse:\n{\n  \"id\": 1,\n  \"email\": \"testuser@example.com\"\n}\n")
	assert.Contains(t, stderr, "registration probe finished")
	assert.NotContains(t, stdout, "registration probe finished", "logs stay off stdout")
}

func TestRun_ConnectionRefusedExitsCleanly(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Setenv("REGPROBE_TARGET_BASE_URL", srv.URL)
	srv.Close()

	before := testutil.ToFloat64(telemetry.ProbeRequestsTotal.WithLabelValues(probe.OutcomeTransportError))

	stdout, _, err := runProbe(t)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Error: send registration: ")
	assert.Equal(t, before+1, testutil.ToFloat64(telemetry.ProbeRequestsTotal.WithLabelValues(probe.OutcomeTransportError)))
	assert.Zero(t, testutil.ToFloat64(telemetry.ProbeLastStatusCode))
}

func TestRun_BadRequestPrintsBody(t *testing.T) {
	target(t, respond(http.StatusBadRequest, `{"error": "email already exists"}`))

	stdout, _, err := runProbe(t)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Status Code: 400\nResponse:\n{\n  \"error\": \"email already exists\"\n}\n")
	assert.Equal(t, float64(400), testutil.ToFloat64(telemetry.ProbeLastStatusCode))
}

func TestRun_ServerErrorPrintsRawText(t *testing.T) {
	target(t, respond(http.StatusInternalServerError, "internal error"))

	stdout, _, err := runProbe(t)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Status Code: 500\nResponse:\ninternal error\n")
}

func TestRun_StatusNotFailingWhenDisabled(t *testing.T) {
	target(t, respond(http.StatusConflict, `{"detail": "email already registered"}`))
	t.Setenv("REGPROBE_HTTP_FAIL_ON_STATUS", "false")

	stdout, _, err := runProbe(t)
	require.NoError(t, err)

	assert.NotContains(t, stdout, "Error:")
	assert.Contains(t, stdout, "Status Code: 409\nResponse:\n")
}

func TestRun_SuccessBodyNotJSONFails(t *testing.T) {
	target(t, respond(http.StatusOK, "<html></html>"))

	stdout, _, err := runProbe(t)
	require.Error(t, err)

	assert.True(t, errors.Is(err, probe.ErrDecode))
	assert.Contains(t, stdout, "Status Code: 200\nResponse:\nError: decode response:")
}

func TestRun_Idempotent(t *testing.T) {
	target(t, respond(http.StatusCreated, `{"id": 1, "email": "testuser@example.com"}`))

	first, _, err := runProbe(t)
	require.NoError(t, err)
	second, _, err := runProbe(t)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRun_AgainstStubAPI(t *testing.T) {
	stub := stubapi.New()
	target(t, stub.Handler())
	t.Setenv("REGPROBE_PAYLOAD_EMAIL", "fresh@example.com")

	first, _, err := runProbe(t)
	require.NoError(t, err)
	assert.Contains(t, first, "Status Code: 201\n")
	assert.Contains(t, first, `"email": "fresh@example.com"`)

	second, _, err := runProbe(t)
	require.NoError(t, err)
	assert.Contains(t, second, "(email already registered)")
	assert.Contains(t, second, "Status Code: 409\n")
	assert.Equal(t, 1, stub.Accounts())
}

func TestRun_PushesMetrics(t *testing.T) {
	target(t, respond(http.StatusCreated, `{"id": 1}`))

	var pushes atomic.Int32
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics/job/smoke" {
			pushes.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()
	t.Setenv("REGPROBE_METRICS_PUSHGATEWAY_URL", gw.URL)
	t.Setenv("REGPROBE_METRICS_JOB", "smoke")

	_, _, err := runProbe(t)
	require.NoError(t, err)
	assert.Equal(t, int32(1), pushes.Load())
}

func TestRun_PushFailureDoesNotFailRun(t *testing.T) {
	target(t, respond(http.StatusCreated, `{"id": 1}`))

	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer gw.Close()
	t.Setenv("REGPROBE_METRICS_PUSHGATEWAY_URL", gw.URL)

	_, stderr, err := runProbe(t)
	require.NoError(t, err)
	assert.Contains(t, stderr, "metrics push failed")
}

func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("REGPROBE_PAYLOAD_BIRTH_DATE", "tomorrow")

	stdout, _, err := runProbe(t)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "failed to load config")
	assert.Empty(t, stdout, "nothing is sent or printed for an invalid payload")
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 201, statusCode(&probe.Response{StatusCode: 201}, nil))
	assert.Equal(t, 409, statusCode(nil, &probe.Error{Response: &probe.Response{StatusCode: 409}}))
	assert.Equal(t, 0, statusCode(nil, &probe.Error{Err: errors.New("refused")}))
	assert.Equal(t, 0, statusCode(nil, errors.New("other")))
}
