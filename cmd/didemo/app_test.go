package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/sectrean/inject-kit/dijob"
)

func newTestApp(t *testing.T) (*App, *bytes.Buffer, *tracetest.SpanRecorder) {
	t.Helper()

	var buf bytes.Buffer
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))

	app, err := NewApp(zerolog.New(&buf), tp)
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, app.Provider.Close(context.Background()))
	})

	return app, &buf, sr
}

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func Test_App_Hello(t *testing.T) {
	app, buf, sr := newTestApp(t)

	h, err := app.Router()
	require.NoError(t, err)

	code, first := get(t, h, "/hello/bob")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, strings.HasPrefix(first, "hello, bob (request "), first)

	code, second := get(t, h, "/hello")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, strings.HasPrefix(second, "hello, world (request "), second)

	// Each request gets its own scope.
	assert.NotEqual(t, first[strings.Index(first, "("):], second[strings.Index(second, "("):])

	assert.Contains(t, buf.String(), `"message":"greeting"`)
	assert.Contains(t, buf.String(), `"path":"/hello/bob"`)
	assert.Contains(t, buf.String(), `"message":"service constructed"`)

	assert.NotEmpty(t, sr.Ended())
}

func Test_App_Metrics(t *testing.T) {
	app, _, _ := newTestApp(t)

	h, err := app.Router()
	require.NoError(t, err)

	code, _ := get(t, h, "/hello")
	require.Equal(t, http.StatusOK, code)

	code, body := get(t, h, "/metrics")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, `di_constructions_total{lifetime="scoped",result="success"}`)
	// Only *Clock: the zerolog.Logger value is not constructed.
	assert.Contains(t, body, `di_constructions_total{lifetime="singleton",result="success"} 1`)
	assert.Contains(t, body, "di_construction_duration_seconds_bucket")
}

func Test_Report(t *testing.T) {
	app, buf, _ := newTestApp(t)

	runner, err := dijob.NewRunner(app.Provider, dijob.WithLogger(app.Logger))
	require.NoError(t, err)

	require.NoError(t, runner.Run(context.Background(), "report", report))
	require.NoError(t, runner.Run(context.Background(), "report", report))

	assert.Equal(t, 2, strings.Count(buf.String(), `"message":"report"`))
	assert.Equal(t, 2, strings.Count(buf.String(), `"message":"job completed"`))
}
