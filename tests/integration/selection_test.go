//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/Sternrassler/paged-select/internal/testutil"
	"github.com/Sternrassler/paged-select/pkg/client"
	"github.com/Sternrassler/paged-select/pkg/selection"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) *redis.Client {
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

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	t.Cleanup(func() {
		redisClient.Close()
		container.Terminate(ctx)
	})

	return redisClient
}

// setupCoordinator wires a cached page client and a coordinator to src.
func setupCoordinator(t *testing.T, src *testutil.MockSource, redisClient *redis.Client) *selection.Coordinator {
	t.Helper()

	cfg := client.DefaultConfig(src.URL(), "paged-select-integration/1.0")
	cfg.Redis = redisClient
	c, err := client.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })

	coord, err := selection.New(c, selection.Config{PageSize: 12})
	if err != nil {
		t.Fatalf("Failed to create coordinator: %v", err)
	}
	return coord
}

// TestBrowseAndSelectFlow runs the browse flow with the Redis page cache:
// bulk select across pages, then navigation served from cache.
func TestBrowseAndSelectFlow(t *testing.T) {
	redisClient := setupRedis(t)

	src := testutil.NewMockSource(20)
	defer src.Close()

	coord := setupCoordinator(t, src, redisClient)
	ctx := context.Background()

	if err := coord.Navigate(ctx, 1); err != nil {
		t.Fatalf("Navigate(1) failed: %v", err)
	}
	if err := coord.SelectFirst(ctx, 15); err != nil {
		t.Fatalf("SelectFirst(15) failed: %v", err)
	}
	if got := coord.SelectedCount(); got != 15 {
		t.Errorf("SelectedCount = %d, want 15", got)
	}

	// page 2 was fetched by the walk and is cached now
	before := src.RequestCount()
	if err := coord.Navigate(ctx, 2); err != nil {
		t.Fatalf("Navigate(2) failed: %v", err)
	}
	if src.RequestCount() != before {
		t.Errorf("Navigate(2) reached the source, want cache hit")
	}

	visible := coord.Visible()
	if len(visible) != 3 || visible[0] != 13 || visible[2] != 15 {
		t.Errorf("Visible = %v, want [13 14 15]", visible)
	}

	if err := coord.Toggle(2, []int64{14, 15}); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	if got := coord.SelectedCount(); got != 14 {
		t.Errorf("SelectedCount after unchecking 13 = %d, want 14", got)
	}
	if coord.IsSelected(13) {
		t.Error("id 13 should no longer be selected")
	}
}

// TestBulkSelectFailureIsAtomic checks that a failing page in the middle of a
// walk leaves the selection untouched, and that cached pages are reused when
// the caller re-issues the request.
func TestBulkSelectFailureIsAtomic(t *testing.T) {
	redisClient := setupRedis(t)

	src := testutil.NewMockSource(60)
	defer src.Close()
	src.FailPage(3, http.StatusInternalServerError)

	coord := setupCoordinator(t, src, redisClient)
	ctx := context.Background()

	if err := coord.Navigate(ctx, 1); err != nil {
		t.Fatalf("Navigate(1) failed: %v", err)
	}
	if err := coord.Toggle(1, []int64{2, 5}); err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}

	err := coord.SelectFirst(ctx, 50)
	fe, ok := client.AsFetchError(err)
	if !ok {
		t.Fatalf("SelectFirst error = %v, want *FetchError", err)
	}
	if fe.Page != 3 || fe.Class != client.ErrorClassServer {
		t.Errorf("FetchError page/class = %d/%s, want 3/server", fe.Page, fe.Class)
	}

	got := coord.Selection()
	if len(got) != 2 || got[0] != 2 || got[1] != 5 {
		t.Errorf("Selection after failure = %v, want [2 5]", got)
	}

	src.ClearPage(3)
	src.Reset()

	if err := coord.SelectFirst(ctx, 50); err != nil {
		t.Fatalf("re-issued SelectFirst failed: %v", err)
	}
	if got := coord.SelectedCount(); got != 50 {
		t.Errorf("SelectedCount = %d, want 50", got)
	}

	// pages 1 and 2 come from memory and cache, only 3..5 reach the source
	pages := src.PagesRequested()
	if len(pages) != 3 || pages[0] != 3 || pages[2] != 5 {
		t.Errorf("PagesRequested = %v, want [3 4 5]", pages)
	}
}
