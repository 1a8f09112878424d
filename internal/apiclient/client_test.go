package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/medfin/platform/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := New(Config{BaseURL: baseURL, Log: logger.Nop()})
	c.sleep = func(context.Context, time.Duration) error { return nil }
	return c
}

func TestGetDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"name":"medfin"}`)
	}))
	defer srv.Close()

	var out struct {
		Name string `json:"name"`
	}
	if err := newTestClient(t, srv.URL).Get(context.Background(), "/info", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out.Name != "medfin" {
		t.Errorf("name = %q, want medfin", out.Name)
	}
}

func TestPostSendsJSONBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type = %q", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"amount":125.5}` {
			t.Errorf("body = %s", body)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	payload := map[string]float64{"amount": 125.5}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := newTestClient(t, srv.URL).Post(context.Background(), "/x", payload, &out); err != nil {
		t.Fatalf("Post: %v", err)
	}
	if !out.OK {
		t.Error("ok = false")
	}
}

func TestClientErrorIsTerminal(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":"amount must be positive","code":"validation_error"}`)
	}))
	defer srv.Close()

	err := newTestClient(t, srv.URL).Get(context.Background(), "/x", nil)
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("error %v is not an APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", apiErr.Status)
	}
	if apiErr.Message != "amount must be positive" {
		t.Errorf("message = %q", apiErr.Message)
	}
	if apiErr.Code != "validation_error" {
		t.Errorf("code = %q", apiErr.Code)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1 (4xx must not retry)", got)
	}
}

func TestNegativeRetriesMeansSingleAttempt(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp, err := newTestClient(t, srv.URL).Do(context.Background(), "/x", Options{Retries: -1})
	if resp != nil {
		t.Errorf("resp = %+v, want nil", resp)
	}
	if err == nil {
		t.Fatal("err = nil, want 500 APIError")
	}
	apiErr, ok := AsAPIError(err)
	if !ok || apiErr.Status != http.StatusInternalServerError {
		t.Errorf("err = %v, want 500 APIError", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1", got)
	}
}

func TestServerErrorRetriesWithBackoff(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL, Log: logger.Nop()})
	var delays []time.Duration
	c.sleep = func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	_, err := c.Do(context.Background(), "/x", Options{Retries: 3, RetryDelay: time.Second})
	apiErr, ok := AsAPIError(err)
	if !ok || apiErr.Status != http.StatusInternalServerError {
		t.Fatalf("err = %v, want 500 APIError", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 4 {
		t.Errorf("attempts = %d, want 4 (initial + 3 retries)", got)
	}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay[%d] = %s, want %s", i, delays[i], want[i])
		}
	}
}

func TestNetworkErrorRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening

	c := newTestClient(t, srv.URL)
	_, err := c.Do(context.Background(), "/x", Options{Retries: 2})
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != StatusNetworkError {
		t.Errorf("status = %d, want 0", apiErr.Status)
	}
	if apiErr.Code != "network_error" {
		t.Errorf("code = %q", apiErr.Code)
	}
}

func TestTimeoutMapsTo408AndDoesNotRetry(t *testing.T) {
	var attempts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Do(context.Background(), "/slow", Options{Timeout: 20 * time.Millisecond, Retries: 3})
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("err = %v, want APIError", err)
	}
	if apiErr.Status != StatusTimeout {
		t.Errorf("status = %d, want 408", apiErr.Status)
	}
	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Errorf("attempts = %d, want 1 (timeouts are terminal)", got)
	}
}

func TestCallerCancellationStopsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	c := New(Config{BaseURL: srv.URL, Log: logger.Nop()})
	c.sleep = func(ctx context.Context, _ time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := c.Do(ctx, "/x", Options{Retries: 3})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestHealthCheck(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	if !newTestClient(t, healthy.URL).HealthCheck(context.Background()) {
		t.Error("healthy backend reported unhealthy")
	}

	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer sick.Close()

	if newTestClient(t, sick.URL).HealthCheck(context.Background()) {
		t.Error("sick backend reported healthy")
	}

	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	gone.Close()
	if newTestClient(t, gone.URL).HealthCheck(context.Background()) {
		t.Error("unreachable backend reported healthy")
	}
}

func TestUploadMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		if header.Filename != "bill.pdf" {
			t.Errorf("filename = %q", header.Filename)
		}
		content, _ := io.ReadAll(file)
		if string(content) != "pdf-bytes" {
			t.Errorf("file content = %q", content)
		}
		if v := r.FormValue("insurance_type"); v != "ppo" {
			t.Errorf("insurance_type = %q", v)
		}
		if v := r.FormValue("page_count"); v != "3" {
			t.Errorf("page_count = %q, want JSON-encoded 3", v)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"received":true}`)
	}))
	defer srv.Close()

	var out struct {
		Received bool `json:"received"`
	}
	err := newTestClient(t, srv.URL).Upload(
		context.Background(), "/upload", "file", "bill.pdf",
		strings.NewReader("pdf-bytes"),
		map[string]interface{}{"insurance_type": "ppo", "page_count": 3},
		&out,
	)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !out.Received {
		t.Error("received = false")
	}
}

func TestRecorderObservesAttemptsAndRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	rec := &countingRecorder{}
	c := New(Config{BaseURL: srv.URL, Log: logger.Nop(), Metrics: rec})
	c.sleep = func(context.Context, time.Duration) error { return nil }

	_, _ = c.Do(context.Background(), "/x", Options{Retries: 2})
	if rec.attempts != 3 {
		t.Errorf("recorded attempts = %d, want 3", rec.attempts)
	}
	if rec.retries != 2 {
		t.Errorf("recorded retries = %d, want 2", rec.retries)
	}
}

type countingRecorder struct {
	attempts int
	retries  int
}

func (r *countingRecorder) RecordAttempt(string, int, time.Duration) { r.attempts++ }
func (r *countingRecorder) RecordRetry(string)                       { r.retries++ }
