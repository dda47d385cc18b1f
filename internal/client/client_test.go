package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"promptdeck/internal/config"
	"promptdeck/internal/models"
)

func testTimeouts() config.TimeoutConfig {
	return config.TimeoutConfig{
		APIRequest:  150 * time.Millisecond,
		HealthCheck: 100 * time.Millisecond,
		RetryDelay:  5 * time.Millisecond,
		MaxRetries:  3,
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func okResponse(r *http.Request, status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(body)),
		Request:    r,
	}
}

func healthProfile(url string) models.Profile {
	return models.Profile{ID: models.ProfileGemini, BaseURL: url, HealthEndpoint: url + "/api/health"}
}

func TestProbeHealthSucceedsAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/health" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.Client(), testTimeouts(), nil)
	if !c.ProbeHealth(context.Background(), healthProfile(srv.URL)) {
		t.Fatal("ProbeHealth() = false, want true")
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("health endpoint hit %d times, want 3", got)
	}
}

func TestProbeHealthStopsOnFirstSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(srv.Client(), testTimeouts(), nil)
	if !c.ProbeHealth(context.Background(), healthProfile(srv.URL)) {
		t.Fatal("ProbeHealth() = false, want true")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("health endpoint hit %d times, want 1", got)
	}
}

func TestProbeHealthExhaustsAttempts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.Client(), testTimeouts(), nil)
	if c.ProbeHealth(context.Background(), healthProfile(srv.URL)) {
		t.Fatal("ProbeHealth() = true, want false")
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("health endpoint hit %d times, want 3", got)
	}
}

func TestProbeHealthTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(srv.Client(), testTimeouts(), nil)
	start := time.Now()
	if c.ProbeHealth(context.Background(), healthProfile(srv.URL)) {
		t.Fatal("ProbeHealth() = true for a hanging server")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("ProbeHealth() took %v, timeout not enforced", elapsed)
	}
}

func TestProbeHealthUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(nil, testTimeouts(), nil)
	if c.ProbeHealth(context.Background(), healthProfile(url)) {
		t.Fatal("ProbeHealth() = true for a closed server")
	}
}

func TestSendRequestReturnsHTTPErrorsWithoutRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":"agency exploded"}`)
	}))
	defer srv.Close()

	c := New(srv.Client(), testTimeouts(), nil)
	resp, err := c.SendRequest(context.Background(), srv.URL, RequestOptions{Method: http.MethodPost}, 3)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("server hit %d times, want 1", got)
	}

	httpErr := ReadErrorBody(resp)
	if httpErr.Message != "agency exploded" {
		t.Errorf("ReadErrorBody() message = %q", httpErr.Message)
	}
}

func TestSendRequestRetriesTransportFailures(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	var requestIDs []string
	calls := 0

	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))
		requestIDs = append(requestIDs, r.Header.Get(HeaderRequestID))
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return okResponse(r, http.StatusOK, "ok"), nil
	})

	c := New(&http.Client{Transport: rt}, testTimeouts(), nil)
	resp, err := c.SendRequest(context.Background(), "http://backend.test/api/chat", RequestOptions{
		Method: http.MethodPost,
		Body:   []byte(`{"message":"hi"}`),
	}, 3)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	defer resp.Body.Close()

	if calls != 3 {
		t.Errorf("round trips = %d, want 3", calls)
	}
	for i, b := range bodies {
		if b != `{"message":"hi"}` {
			t.Errorf("attempt %d body = %q, body not replayed", i+1, b)
		}
	}
	if requestIDs[0] == "" || requestIDs[0] != requestIDs[2] {
		t.Errorf("request ids = %v, want one stable id", requestIDs)
	}
}

func TestSendRequestPropagatesAfterExhaustion(t *testing.T) {
	calls := 0
	cause := errors.New("no route to host")
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, cause
	})

	c := New(&http.Client{Transport: rt}, testTimeouts(), nil)
	_, err := c.SendRequest(context.Background(), "http://backend.test/", RequestOptions{}, 2)
	if err == nil {
		t.Fatal("SendRequest() succeeded, want error")
	}
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("error %T is not *TransportError", err)
	}
	if te.Attempts != 2 {
		t.Errorf("Attempts = %d, want 2", te.Attempts)
	}
	if !errors.Is(err, cause) {
		t.Errorf("error %v does not wrap the transport cause", err)
	}
	if calls != 2 {
		t.Errorf("round trips = %d, want 2", calls)
	}
}

func TestSendRequestDefaultRetries(t *testing.T) {
	calls := 0
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		return nil, errors.New("reset")
	})

	c := New(&http.Client{Transport: rt}, testTimeouts(), nil)
	if _, err := c.SendRequest(context.Background(), "http://backend.test/", RequestOptions{}, 0); err == nil {
		t.Fatal("SendRequest() succeeded, want error")
	}
	if calls != 3 {
		t.Errorf("round trips = %d, want MaxRetries (3)", calls)
	}
}

func TestSendRequestTimeoutCoversHeadersOnly(t *testing.T) {
	t.Run("slow headers time out", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}))
		defer srv.Close()

		c := New(srv.Client(), testTimeouts(), nil)
		_, err := c.SendRequest(context.Background(), srv.URL, RequestOptions{}, 1)
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("SendRequest() error = %v, want deadline exceeded", err)
		}
	})

	t.Run("slow body still readable", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "first ")
			w.(http.Flusher).Flush()
			time.Sleep(300 * time.Millisecond)
			_, _ = io.WriteString(w, "second")
		}))
		defer srv.Close()

		c := New(srv.Client(), testTimeouts(), nil)
		resp, err := c.SendRequest(context.Background(), srv.URL, RequestOptions{}, 1)
		if err != nil {
			t.Fatalf("SendRequest() error = %v", err)
		}
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("reading body: %v", err)
		}
		if string(data) != "first second" {
			t.Errorf("body = %q", data)
		}
	})
}

func TestSendRequestStopsOnParentCancel(t *testing.T) {
	calls := 0
	ctx, cancel := context.WithCancel(context.Background())
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		calls++
		cancel()
		return nil, r.Context().Err()
	})

	c := New(&http.Client{Transport: rt}, testTimeouts(), nil)
	_, err := c.SendRequest(ctx, "http://backend.test/", RequestOptions{}, 3)
	if err == nil {
		t.Fatal("SendRequest() succeeded, want error")
	}
	if calls != 1 {
		t.Errorf("round trips = %d, want 1 after cancel", calls)
	}
}

func TestMergeHeadersCallerWins(t *testing.T) {
	var got http.Header
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		got = r.Header.Clone()
		return okResponse(r, http.StatusOK, ""), nil
	})

	c := New(&http.Client{Transport: rt}, testTimeouts(), nil)

	resp, err := c.SendRequest(context.Background(), "http://backend.test/", RequestOptions{}, 1)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	resp.Body.Close()
	if ct := got.Get(HeaderContentType); ct != ContentTypeJSON {
		t.Errorf("default Content-Type = %q", ct)
	}

	resp, err = c.SendRequest(context.Background(), "http://backend.test/", RequestOptions{
		Header: http.Header{"content-type": {"text/plain"}, "X-Trace": {"abc"}},
	}, 1)
	if err != nil {
		t.Fatalf("SendRequest() error = %v", err)
	}
	resp.Body.Close()
	if ct := got.Get(HeaderContentType); ct != "text/plain" {
		t.Errorf("caller Content-Type = %q, want text/plain", ct)
	}
	if got.Get("X-Trace") != "abc" {
		t.Errorf("caller header dropped: %v", got)
	}
}

func TestReadErrorBodyFallback(t *testing.T) {
	resp := &http.Response{
		StatusCode: http.StatusBadGateway,
		Body:       io.NopCloser(strings.NewReader("<html>upstream down</html>")),
	}
	err := ReadErrorBody(resp)
	if err.Message != "HTTP 502: Bad Gateway" {
		t.Errorf("message = %q", err.Message)
	}
	if err.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d", err.StatusCode)
	}
}

func TestReadErrorBodyNilBody(t *testing.T) {
	err := ReadErrorBody(&http.Response{StatusCode: http.StatusServiceUnavailable})
	if err.Message != "HTTP 503: Service Unavailable" {
		t.Errorf("message = %q", err.Message)
	}
}
