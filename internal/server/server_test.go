package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stockledger/internal/config"
)

func testServerConfig(port int) config.ServerConfig {
	return config.ServerConfig{
		Port:            port,
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		IdleTimeout:     time.Second,
		ShutdownTimeout: time.Second,
	}
}

func TestServer_New(t *testing.T) {
	srv := New(testServerConfig(9091), http.NotFoundHandler(), zap.NewNop())

	assert.Equal(t, ":9091", srv.Addr())
	assert.Equal(t, time.Second, srv.httpServer.WriteTimeout)
	assert.Equal(t, time.Second, srv.shutdownTimeout)
}

func TestServer_RunStopsWhenContextEnds(t *testing.T) {
	srv := New(testServerConfig(0), http.NotFoundHandler(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunReportsListenFailure(t *testing.T) {
	srv := New(testServerConfig(-1), http.NotFoundHandler(), zap.NewNop())

	err := srv.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "listening on :-1")
}
