//go:build integration

package selection

import (
	"context"
	"testing"

	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedisContainer starts a Redis container and returns a client
func setupRedisContainer(t *testing.T) (*redis.Client, func()) {
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

	endpoint, err := redisContainer.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get Redis endpoint: %v", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr: endpoint,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to Redis: %v", err)
	}

	cleanup := func() {
		client.Close()
		redisContainer.Terminate(ctx)
	}

	return client, cleanup
}

func TestRedisStore_Integration(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()

	testStoreBehavior(t, NewRedisStore(client, ""))
}

func TestRedisStore_Integration_SharedBetweenInstances(t *testing.T) {
	client, cleanup := setupRedisContainer(t)
	defer cleanup()
	ctx := context.Background()

	first := NewRedisStore(client, "artsel:shared")
	second := NewRedisStore(client, "artsel:shared")
	other := NewRedisStore(client, "artsel:other")

	if err := first.AddMany(ctx, []artwork.ID{1, 2, 3}); err != nil {
		t.Fatalf("AddMany() error = %v", err)
	}

	n, err := second.Len(ctx)
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 3 {
		t.Errorf("second.Len() = %d, want 3", n)
	}

	n, err = other.Len(ctx)
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 0 {
		t.Errorf("other.Len() = %d, want 0 (different key)", n)
	}

	diff, err := Reconcile(ctx, second, []artwork.ID{2, 3, 4}, []artwork.ID{3, 4})
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if len(diff.Removed) != 1 || diff.Removed[0] != 2 {
		t.Errorf("Removed = %v, want [2]", diff.Removed)
	}

	all, err := first.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	for _, id := range []artwork.ID{1, 3, 4} {
		if !all.Has(id) {
			t.Errorf("All() missing %d", id)
		}
	}
	if all.Has(2) {
		t.Error("All() still contains 2")
	}
}
