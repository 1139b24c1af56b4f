//go:build integration

package cache

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a Redis container and returns a client
func setupRedisContainer(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	t.Cleanup(func() {
		client.Close()
		container.Terminate(ctx)
	})

	return client
}

func TestManager_Integration_RoundTrip(t *testing.T) {
	client := setupRedisContainer(t)
	manager := NewManager(client, WithStaleRetention(time.Hour))
	ctx := context.Background()

	key := Key{Endpoint: "/3/movie/popular"}
	entry := &Entry{
		Data:       []byte(`{"results": [{"id": 1, "title": "One"}]}`),
		ETag:       `W/"page-1"`,
		Expires:    time.Now().Add(time.Minute),
		StatusCode: http.StatusOK,
	}

	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	ttl, err := client.TTL(ctx, key.String()).Result()
	if err != nil {
		t.Fatalf("TTL failed: %v", err)
	}
	if ttl <= time.Hour || ttl > time.Hour+time.Minute {
		t.Errorf("Redis TTL = %v, want freshness plus 1h retention", ttl)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ETag != entry.ETag {
		t.Errorf("ETag = %q, want %q", got.ETag, entry.ETag)
	}

	if err := manager.UpdateTTL(ctx, key, time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("UpdateTTL failed: %v", err)
	}
	ttl, _ = client.TTL(ctx, key.String()).Result()
	if ttl <= time.Hour+time.Minute {
		t.Errorf("Redis TTL after UpdateTTL = %v, want > 1h1m", ttl)
	}

	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Expected ErrCacheMiss after Delete, got %v", err)
	}
}

func TestManager_Integration_RedisExpiry(t *testing.T) {
	client := setupRedisContainer(t)
	manager := NewManager(client)
	ctx := context.Background()

	key := Key{Endpoint: "/3/tv/popular"}
	entry := &Entry{
		Data:    []byte(`{"results": []}`),
		Expires: time.Now().Add(1500 * time.Millisecond),
	}
	// No validators, so nothing is retained past freshness.
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	time.Sleep(2 * time.Second)

	exists, err := client.Exists(ctx, key.String()).Result()
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists != 0 {
		t.Error("Expected Redis to drop the expired entry")
	}
}
