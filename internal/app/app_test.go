package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/greeter/internal/config"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	t.Setenv("SERVER_ADDRESS", "127.0.0.1:0")
	t.Setenv("LOG_LEVEL", "error")

	app, err := New(
		config.WithDisableFlagsParsing(true),
		config.WithDotEnvFiles(filepath.Join(t.TempDir(), "missing.env")),
	)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	return app
}

func TestAppServesBothEndpointsFromOneRegistry(t *testing.T) {
	app := newTestApp(t)

	srv := httptest.NewServer(app.httpHandler)
	defer srv.Close()

	client := resty.New().SetBaseURL(srv.URL)

	resp, err := client.R().SetBody(`{"name":"Ada"}`).Post("/users")
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode())
	assert.JSONEq(t, `{"id":1,"name":"Ada"}`, resp.String())

	resp, err = client.R().Get("/greet/1")
	require.NoError(t, err)
	assert.Equal(t, "Hello, Ada", resp.String())

	amountOfUsers, err := app.db.Len(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, amountOfUsers)
}

func TestServeStopsWhenContextIsDone(t *testing.T) {
	app := newTestApp(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- app.Serve(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after the context was cancelled")
	}
}

func TestServeReportsBindErrors(t *testing.T) {
	app := newTestApp(t)
	app.cfg.RunAddr = "127.0.0.1:-1"

	err := app.Serve(context.Background())
	assert.Error(t, err)
}
