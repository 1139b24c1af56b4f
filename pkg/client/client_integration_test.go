//go:build integration

package client

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/Sternrassler/tmdb-sitemap/internal/testutil"
	"github.com/Sternrassler/tmdb-sitemap/pkg/cache"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer creates a Redis container for integration testing.
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := redisContainer.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := redisContainer.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestIntegration_FullRequestFlow(t *testing.T) {
	redisClient, cleanup := setupRedisContainer(t)
	defer cleanup()

	mock := testutil.NewMockTMDB()
	defer mock.Close()
	mock.EnableETags()
	mock.RequireToken("integration-token")

	manager := cache.NewManager(redisClient)
	cfg := DefaultConfig("integration-token", "TestApp/1.0.0 (integration@test.com)")
	cfg.Cache = manager
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()
	target := mock.URL() + "/3/movie/popular?language=en-US&page=1"

	t.Log("Request 1: Initial request")
	resp1, err := client.Get(ctx, target)
	if err != nil {
		t.Fatalf("Request 1 failed: %v", err)
	}
	body1, _ := io.ReadAll(resp1.Body)
	resp1.Body.Close()

	if resp1.StatusCode != http.StatusOK {
		t.Errorf("Request 1 status = %d, want %d", resp1.StatusCode, http.StatusOK)
	}

	t.Log("Request 2: Conditional request")
	resp2, err := client.Get(ctx, target)
	if err != nil {
		t.Fatalf("Request 2 failed: %v", err)
	}
	body2, _ := io.ReadAll(resp2.Body)
	resp2.Body.Close()

	if got := mock.GetRequestCount(); got != 2 {
		t.Errorf("requestsMade = %d, want 2", got)
	}
	if got := mock.GetConditionalCount(); got != 1 {
		t.Errorf("conditionalRequests = %d, want 1", got)
	}
	if string(body1) != string(body2) {
		t.Errorf("Revalidated body = %q, want %q", body2, body1)
	}

	u, _ := url.Parse(target)
	cachedEntry, err := manager.Get(ctx, cache.KeyFromURL(u))
	if err != nil {
		t.Fatalf("Cache lookup failed: %v", err)
	}
	if cachedEntry.ETag != `W/"3/movie/popular-1"` {
		t.Errorf("Cached ETag = %q, want %q", cachedEntry.ETag, `W/"3/movie/popular-1"`)
	}
}
