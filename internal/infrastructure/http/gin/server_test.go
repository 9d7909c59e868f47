package gin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fulfillment/internal/config"
	"fulfillment/pkg/logger"
)

func TestServer_RunStopsOnCancel(t *testing.T) {
	engine := NewEngine("test")
	srv := NewServer(config.ServerConfig{Host: "127.0.0.1", Port: 0, ShutdownTimeout: time.Second}, engine, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunWithoutEngine(t *testing.T) {
	srv := &Server{logger: logger.NewNop()}

	assert.ErrorContains(t, srv.Run(context.Background()), "engine is nil")
}
