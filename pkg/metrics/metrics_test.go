package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	// register package metrics
	_ "github.com/Sternrassler/paged-select/pkg/cache"
	_ "github.com/Sternrassler/paged-select/pkg/client"
	_ "github.com/Sternrassler/paged-select/pkg/ratelimit"
	_ "github.com/Sternrassler/paged-select/pkg/selection"
)

func TestRegistry(t *testing.T) {
	if Registry == nil {
		t.Error("Registry should not be nil")
	}

	if Registry != prometheus.DefaultRegisterer {
		t.Error("Registry should be the default Prometheus registerer")
	}
}

func TestHandler_ExposesPackageMetrics(t *testing.T) {
	server := httptest.NewServer(Handler())
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	// Metrics without labels are exported before their first observation.
	for _, name := range []string{
		"pagesel_request_duration_seconds",
		"pagesel_shared_fetches_total",
		"pagesel_cache_misses_total",
		"pagesel_cache_revalidated_total",
		"pagesel_cooldowns_total",
		"pagesel_cooldown_blocks_total",
		"pagesel_selection_size",
		"pagesel_bulk_select_pages_fetched",
	} {
		if !strings.Contains(string(body), name) {
			t.Errorf("metrics output missing %s", name)
		}
	}
}
