package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"slices"
	"strings"
	"testing"

	"github.com/Sternrassler/artsel/internal/testutil"
	"github.com/Sternrassler/artsel/pkg/artwork"
	"github.com/Sternrassler/artsel/pkg/controller"
	"github.com/Sternrassler/artsel/pkg/pagination"
	"github.com/Sternrassler/artsel/pkg/selection"
	"github.com/rs/zerolog"
)

type testEnv struct {
	ctrl    *controller.Controller
	fetcher *testutil.Fetcher
	handler http.Handler
}

func newTestEnv(t *testing.T, total int) *testEnv {
	t.Helper()
	logger := zerolog.New(os.Stderr).Level(zerolog.Disabled)
	fetcher := testutil.NewFetcher(total)
	ctrl := controller.New(fetcher, selection.NewMemoryStore(), controller.DefaultConfig(), logger)
	t.Cleanup(func() { ctrl.Close() })

	if err := ctrl.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	return &testEnv{
		ctrl:    ctrl,
		fetcher: fetcher,
		handler: New(ctrl, logger).Handler(),
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w.Result()
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t, 30)
	env.do(t, "POST", "/api/bulk-select", `{"count":3}`)

	resp := env.do(t, "GET", "/metrics", "")
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "artsel_bulk_select_total") {
		t.Error("Expected metrics output to contain artsel_bulk_select_total")
	}
}

func TestGetView(t *testing.T) {
	env := newTestEnv(t, 30)

	resp := env.do(t, "GET", "/api/view", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	view := decodeBody[controller.View](t, resp)
	if view.Page != 1 || view.Rows != 12 || len(view.Records) != 12 || view.TotalRecords != 30 {
		t.Errorf("view = page %d rows %d records %d total %d", view.Page, view.Rows, len(view.Records), view.TotalRecords)
	}
}

func TestPostPage(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantPage   int
	}{
		{"next page", `{"first":12,"rows":12}`, http.StatusOK, 2},
		{"unchanged", `{"first":0,"rows":12}`, http.StatusOK, 1},
		{"invalid rows", `{"first":0,"rows":0}`, http.StatusBadRequest, 1},
		{"malformed body", `{"first":`, http.StatusBadRequest, 1},
		{"unknown field", `{"offset":12}`, http.StatusBadRequest, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, 30)

			resp := env.do(t, "POST", "/api/page", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			if resp.StatusCode != http.StatusOK {
				if e := decodeBody[ErrorResponse](t, resp); e.Error == "" {
					t.Error("error body is empty")
				}
			} else if view := decodeBody[controller.View](t, resp); view.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", view.Page, tt.wantPage)
			}
			if got := env.ctrl.State().Page; got != tt.wantPage {
				t.Errorf("controller page = %d, want %d", got, tt.wantPage)
			}
		})
	}
}

func TestPostPage_UpstreamFailure(t *testing.T) {
	env := newTestEnv(t, 30)
	env.fetcher.FailPage(2, errors.New("upstream down"))

	resp := env.do(t, "POST", "/api/page", `{"first":12,"rows":12}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}

func TestSelectionFlow(t *testing.T) {
	env := newTestEnv(t, 30)

	bulk := env.do(t, "POST", "/api/bulk-select", `{"count":15}`)
	if bulk.StatusCode != http.StatusOK {
		t.Fatalf("bulk status = %d", bulk.StatusCode)
	}
	outcome := decodeBody[pagination.Outcome](t, bulk)
	if outcome.Status != pagination.StatusCompleted || outcome.Selected != 15 || outcome.TaskID == "" {
		t.Errorf("outcome = %+v", outcome)
	}

	page := env.do(t, "POST", "/api/page", `{"first":12,"rows":12}`)
	view := decodeBody[controller.View](t, page)
	if len(view.Selected) != 3 || view.SelectedTotal != 15 {
		t.Fatalf("visible %d total %d, want 3 15", len(view.Selected), view.SelectedTotal)
	}

	keep := artwork.IDsOf(view.Selected)[1:]
	body, _ := json.Marshal(SelectionRequest{PageIDs: view.PageIDs(), IDs: keep})
	sel := env.do(t, "POST", "/api/selection", string(body))
	if sel.StatusCode != http.StatusOK {
		t.Fatalf("selection status = %d", sel.StatusCode)
	}
	if view := decodeBody[controller.View](t, sel); view.SelectedTotal != 14 {
		t.Errorf("SelectedTotal = %d, want 14", view.SelectedTotal)
	}

	all := decodeBody[SelectionResponse](t, env.do(t, "GET", "/api/selection", ""))
	want := append(env.fetcher.IDs(0, 12), keep...)
	if all.Count != 14 || !slices.Equal(all.IDs, want) {
		t.Errorf("selection = %v (%d), want %v", all.IDs, all.Count, want)
	}
}

func TestSelection_ReportForPreviousPage(t *testing.T) {
	env := newTestEnv(t, 30)

	env.do(t, "POST", "/api/bulk-select", `{"count":15}`)
	rendered := decodeBody[controller.View](t, env.do(t, "GET", "/api/view", ""))

	// Another client moves the view on before the report arrives.
	env.do(t, "POST", "/api/page", `{"first":12,"rows":12}`)

	body, _ := json.Marshal(SelectionRequest{PageIDs: rendered.PageIDs(), IDs: rendered.SelectedIDs()[1:]})
	resp := env.do(t, "POST", "/api/selection", string(body))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("selection status = %d", resp.StatusCode)
	}
	view := decodeBody[controller.View](t, resp)
	if view.Page != 2 || len(view.Selected) != 3 || view.SelectedTotal != 14 {
		t.Errorf("page %d visible %d total %d, want 2 3 14", view.Page, len(view.Selected), view.SelectedTotal)
	}

	all := decodeBody[SelectionResponse](t, env.do(t, "GET", "/api/selection", ""))
	if all.Count != 14 || slices.Contains(all.IDs, rendered.Records[0].ID) {
		t.Errorf("selection = %v, want 14 ids without %d", all.IDs, rendered.Records[0].ID)
	}
}

func TestSelection_MissingPageIDs(t *testing.T) {
	env := newTestEnv(t, 30)

	resp := env.do(t, "POST", "/api/selection", `{"ids":[1000]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
	if all := decodeBody[SelectionResponse](t, env.do(t, "GET", "/api/selection", "")); all.Count != 0 {
		t.Errorf("selection = %v, want empty", all.IDs)
	}
}

func TestBulkSelect_Noop(t *testing.T) {
	env := newTestEnv(t, 30)
	calls := len(env.fetcher.Calls())

	resp := env.do(t, "POST", "/api/bulk-select", `{"count":0}`)
	outcome := decodeBody[pagination.Outcome](t, resp)
	if outcome.Status != pagination.StatusNoop {
		t.Errorf("Status = %s, want noop", outcome.Status)
	}
	if len(env.fetcher.Calls()) != calls {
		t.Error("noop bulk selection fetched a page")
	}
}

func TestClosedController(t *testing.T) {
	env := newTestEnv(t, 30)
	env.ctrl.Close()

	resp := env.do(t, "POST", "/api/bulk-select", `{"count":3}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t, 30)

	resp := env.do(t, "DELETE", "/api/view", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{pagination.ErrInvalidPosition, http.StatusBadRequest},
		{controller.ErrClosed, http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("upstream"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

