package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sternrassler/paged-select/internal/testutil"
	"github.com/Sternrassler/paged-select/pkg/client"
	"github.com/Sternrassler/paged-select/pkg/pagination"
	"github.com/Sternrassler/paged-select/pkg/selection"
)

func noEnv(string) (string, bool) { return "", false }

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

// runCmd executes the root command with args and stdin, returning stdout.
func runCmd(t *testing.T, lookupEnv func(string) (string, bool), stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmdWithEnv("test", lookupEnv)
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootFlags_Defaults(t *testing.T) {
	root := NewRootCmdWithEnv("1.2.3", noEnv)
	flags := root.PersistentFlags()

	baseURL, err := flags.GetString("base-url")
	require.NoError(t, err)
	assert.Equal(t, client.DefaultBaseURL, baseURL)

	pageSize, err := flags.GetInt("page-size")
	require.NoError(t, err)
	assert.Equal(t, selection.DefaultPageSize, pageSize)

	ua, err := flags.GetString("user-agent")
	require.NoError(t, err)
	assert.Equal(t, "artsel/1.2.3", ua)

	redisURL, err := flags.GetString("redis-url")
	require.NoError(t, err)
	assert.Empty(t, redisURL)
}

func TestRootFlags_Environment(t *testing.T) {
	root := NewRootCmdWithEnv("test", envMap(map[string]string{
		EnvBaseURL:   "http://source.test/items",
		EnvRedisURL:  "redis://cache:6379/2",
		EnvUserAgent: "custom/1.0",
		EnvPageSize:  "25",
	}))
	flags := root.PersistentFlags()

	baseURL, _ := flags.GetString("base-url")
	redisURL, _ := flags.GetString("redis-url")
	ua, _ := flags.GetString("user-agent")
	pageSize, _ := flags.GetInt("page-size")

	assert.Equal(t, "http://source.test/items", baseURL)
	assert.Equal(t, "redis://cache:6379/2", redisURL)
	assert.Equal(t, "custom/1.0", ua)
	assert.Equal(t, 25, pageSize)
}

func TestRoot_InvalidPageSize(t *testing.T) {
	_, err := runCmd(t, noEnv, "", "select-first", "--page-size", "0", "3")
	assert.EqualError(t, err, "page-size must be > 0, got 0")
}

func TestRoot_InvalidLogLevel(t *testing.T) {
	_, err := runCmd(t, noEnv, "", "select-first", "--log-level", "loud", "3")
	assert.ErrorContains(t, err, `unknown log level "loud"`)
}

func TestSelectFirstCmd(t *testing.T) {
	src := testutil.NewMockSource(20)
	defer src.Close()

	out, err := runCmd(t, noEnv, "", "select-first", "--base-url", src.URL(), "15")
	require.NoError(t, err)

	assert.Equal(t, "15 selected: 1,2,3,4,5,6,7,8,9,10,11,12,13,14,15\n", out)
	assert.Equal(t, []int{1, 2}, src.PagesRequested())
}

func TestSelectFirstCmd_PrintsListingOrder(t *testing.T) {
	src := testutil.NewMockSource(3)
	defer src.Close()
	src.SetPageResponse(1, testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"data":[{"id":30},{"id":7},{"id":19}],"pagination":{"total":3,"limit":12,"offset":0,"total_pages":1,"current_page":1}}`,
	})

	out, err := runCmd(t, noEnv, "", "select-first", "--base-url", src.URL(), "3")
	require.NoError(t, err)

	assert.Equal(t, "3 selected: 30,7,19\n", out)
}

func TestSelectFirstCmd_FetchFailure(t *testing.T) {
	src := testutil.NewMockSource(60)
	defer src.Close()
	src.FailPage(3, http.StatusInternalServerError)

	out, err := runCmd(t, noEnv, "", "select-first", "--base-url", src.URL(), "50")

	var fe *client.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, client.ErrorClassServer, fe.Class)
	assert.Empty(t, out)
}

func TestSelectFirstCmd_InvalidCount(t *testing.T) {
	_, err := runCmd(t, noEnv, "", "select-first", "many")
	assert.EqualError(t, err, `invalid count "many"`)
}

func TestBrowseCmd_Session(t *testing.T) {
	src := testutil.NewMockSource(20)
	defer src.Close()

	script := strings.Join([]string{
		"select 15",
		"page 2",
		"check 14 15",
		"show",
		"quit",
	}, "\n")

	out, err := runCmd(t, noEnv, script, "browse", "--base-url", src.URL())
	require.NoError(t, err)

	assert.Contains(t, out, "page 1/2 | 20 records | 0 selected (0 on this page)")
	assert.Contains(t, out, "page 1/2 | 20 records | 15 selected (12 on this page)")
	assert.Contains(t, out, "page 2/2 | 20 records | 15 selected (3 on this page)")
	assert.Contains(t, out, "page 2/2 | 20 records | 14 selected (2 on this page)")
	assert.Contains(t, out, "14 selected: 1,2,3,4,5,6,7,8,9,10,11,12,14,15")
}

func newTestCoordinator(t *testing.T, total int) (*selection.Coordinator, *testutil.MockSource) {
	t.Helper()
	src := testutil.NewMockSource(total)
	t.Cleanup(src.Close)

	c, err := client.New(client.DefaultConfig(src.URL(), "artsel-test"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	coord, err := selection.New(c, selection.Config{PageSize: 12})
	require.NoError(t, err)
	return coord, src
}

func TestRunBrowse_Navigation(t *testing.T) {
	coord, _ := newTestCoordinator(t, 30)
	out := &bytes.Buffer{}

	err := runBrowse(context.Background(), coord, strings.NewReader("prev\nnext\nnext\nnext\nprev\n"), out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "already on the first page")
	assert.Contains(t, out.String(), "page 3/3")
	assert.Contains(t, out.String(), "already on the last page")
	assert.Equal(t, 2, coord.Current().Number)
}

func TestRunBrowse_IgnoresInvalidSelectInput(t *testing.T) {
	coord, src := newTestCoordinator(t, 30)
	out := &bytes.Buffer{}

	err := runBrowse(context.Background(), coord, strings.NewReader("select 0\nselect -4\nselect ten\nselect\nquit\n"), out)
	require.NoError(t, err)

	assert.Equal(t, 4, strings.Count(out.String(), "select needs a positive number, ignored"))
	assert.Empty(t, coord.Selection())
	assert.Equal(t, []int{1}, src.PagesRequested())
}

func TestRunBrowse_FailedNavigationKeepsPage(t *testing.T) {
	coord, src := newTestCoordinator(t, 30)
	src.FailPage(2, http.StatusBadGateway)
	out := &bytes.Buffer{}

	err := runBrowse(context.Background(), coord, strings.NewReader("check 3\npage 2\ncheck 3 4\nquit\n"), out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "fetch failed (server)")
	assert.Equal(t, 1, coord.Current().Number)
	assert.Equal(t, []int64{3, 4}, coord.Selection())
}

func TestRunBrowse_UnknownAndInvalid(t *testing.T) {
	coord, _ := newTestCoordinator(t, 30)
	out := &bytes.Buffer{}

	err := runBrowse(context.Background(), coord, strings.NewReader("dance\npage x\ncheck 1 y\nclear\nshow\n"), out)
	require.NoError(t, err)

	assert.Contains(t, out.String(), `unknown command "dance", type help`)
	assert.Contains(t, out.String(), `invalid page "x"`)
	assert.Contains(t, out.String(), `invalid record id "y"`)
	assert.Contains(t, out.String(), "nothing selected")
}

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"1,2", "3", ",4,"})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3, 4}, ids)

	ids, err = parseIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		args   []string
		want   int
		wantOK bool
	}{
		{[]string{"15"}, 15, true},
		{[]string{"0"}, 0, false},
		{[]string{"-3"}, 0, false},
		{[]string{"abc"}, 0, false},
		{[]string{"1", "2"}, 0, false},
		{nil, 0, false},
	}

	for _, tt := range tests {
		n, ok := parseCount(tt.args)
		assert.Equal(t, tt.want, n, "args %v", tt.args)
		assert.Equal(t, tt.wantOK, ok, "args %v", tt.args)
	}
}

func TestRenderPage(t *testing.T) {
	page := &pagination.Page{
		Number: 2,
		Size:   2,
		Total:  5,
		Records: []pagination.Record{
			{ID: 3, Title: "Nighthawks", PlaceOfOrigin: "United States", ArtistDisplay: "Edward Hopper\nAmerican, 1882-1967", DateStart: 1942, DateEnd: 1942},
			{ID: 4, Title: "The Bedroom", PlaceOfOrigin: "France", DateStart: 1889},
		},
	}
	out := &bytes.Buffer{}

	renderPage(out, selection.Snapshot{
		Page:          page,
		Visible:       []int64{4},
		SelectedCount: 3,
		TotalRecords:  5,
		TotalPages:    3,
	})

	s := out.String()
	assert.Contains(t, s, "Nighthawks")
	assert.Contains(t, s, "Edward Hopper")
	assert.NotContains(t, s, "American, 1882-1967")
	assert.Contains(t, s, "1942")
	assert.Contains(t, s, checkedMark)
	assert.Contains(t, s, uncheckedMark)
	assert.Contains(t, s, "page 2/3 | 5 records | 3 selected (1 on this page)")
}

func TestRenderPage_NoPage(t *testing.T) {
	out := &bytes.Buffer{}
	renderPage(out, selection.Snapshot{})
	assert.Equal(t, "no page loaded\n", out.String())
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "", formatDates(0, 0))
	assert.Equal(t, "1889", formatDates(1889, 1889))
	assert.Equal(t, "1889", formatDates(1889, 0))
	assert.Equal(t, "1885-1890", formatDates(1885, 1890))

	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}

func TestHealthHandler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(nil)(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestMetricsServer_Routes(t *testing.T) {
	srv := newMetricsServer(":0", nil)
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestNewRedisClient(t *testing.T) {
	rc, err := newRedisClient("redis://localhost:6380/3")
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", rc.Options().Addr)
	assert.Equal(t, 3, rc.Options().DB)
	rc.Close()

	rc, err = newRedisClient("cache.internal:6379")
	require.NoError(t, err)
	assert.Equal(t, "cache.internal:6379", rc.Options().Addr)
	rc.Close()

	_, err = newRedisClient("redis://localhost:6379/notadb")
	assert.Error(t, err)
}
