package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ipetrov/sourcerer/internal/model"
)

func testConfig(templates []string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.HTTP.RatePerDomain = 1000
	cfg.HTTP.RateBurst = 1000
	cfg.Proxies.Templates = templates
	cfg.Cache.Enabled = false
	return cfg
}

func TestFetch_Direct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Errorf("expected a User-Agent header")
		}
		w.Write([]byte("direct body"))
	}))
	defer server.Close()

	f := New(testConfig(nil), FixedRotation{}, nil)
	res, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if res.Body != "direct body" {
		t.Errorf("expected direct body, got %q", res.Body)
	}
	if res.FinalURL != server.URL {
		t.Errorf("expected final URL %s, got %s", server.URL, res.FinalURL)
	}
}

func TestFetch_DirectRedirectReportsFinalURL(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("landed"))
	})

	f := New(testConfig(nil), FixedRotation{}, nil)
	res, err := f.Fetch(context.Background(), server.URL+"/start")
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if res.FinalURL != server.URL+"/final" {
		t.Errorf("expected redirect target as final URL, got %s", res.FinalURL)
	}
}

func TestFetch_ProxyFallbackOrder(t *testing.T) {
	// The direct target always fails.
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer direct.Close()

	var hits [3]int32
	proxy := func(i int, status int, body string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&hits[i], 1)
			if r.URL.Query().Get("target") == "" {
				t.Errorf("proxy %d called without target parameter", i)
			}
			if status != http.StatusOK {
				http.Error(w, "down", status)
				return
			}
			w.Write([]byte(body))
		}))
	}
	p0 := proxy(0, http.StatusBadGateway, "")
	defer p0.Close()
	p1 := proxy(1, http.StatusBadGateway, "")
	defer p1.Close()
	p2 := proxy(2, http.StatusOK, "via third proxy")
	defer p2.Close()

	cfg := testConfig([]string{
		p0.URL + "/?target=%s",
		p1.URL + "/?target=%s",
		p2.URL + "/?target=%s",
	})
	f := New(cfg, FixedRotation{}, nil)

	res, err := f.Fetch(context.Background(), direct.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if res.Body != "via third proxy" {
		t.Errorf("expected third proxy body, got %q", res.Body)
	}
	// Proxied fetches must not surface a proxy URL as final.
	if res.FinalURL != direct.URL {
		t.Errorf("expected original URL as final, got %s", res.FinalURL)
	}
	for i, want := range []int32{1, 1, 1} {
		if got := atomic.LoadInt32(&hits[i]); got != want {
			t.Errorf("proxy %d: expected %d hit(s), got %d", i, want, got)
		}
	}
}

func TestFetch_AllStrategiesFail(t *testing.T) {
	direct := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer direct.Close()
	proxy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "also nope", http.StatusBadGateway)
	}))
	defer proxy.Close()

	f := New(testConfig([]string{proxy.URL + "/?target=%s"}), FixedRotation{}, nil)
	_, err := f.Fetch(context.Background(), direct.URL)
	if err == nil {
		t.Fatal("expected error when every strategy fails")
	}
	if !strings.Contains(err.Error(), direct.URL) {
		t.Errorf("error should name the original URL, got %v", err)
	}
}

func TestFetch_RateOverride(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig(nil)
	cfg.HTTP.RateBurst = 1
	cfg.HTTP.RateOverrides = map[string]float64{u.Host: 0.001}
	f := New(cfg, FixedRotation{}, nil)

	if _, err := f.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("first fetch failed: %v", err)
	}

	// Token exhausted; the next one is held by the override rate and
	// must fail once the deadline expires.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := f.Fetch(ctx, server.URL); err == nil {
		t.Fatal("expected rate-limited fetch to fail under a short deadline")
	}
}

func TestFetch_CacheHit(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Write([]byte("cached body"))
	}))
	defer server.Close()

	cfg := testConfig(nil)
	cfg.Cache.Enabled = true
	f := New(cfg, FixedRotation{}, nil)

	for i := 0; i < 2; i++ {
		res, err := f.Fetch(context.Background(), server.URL)
		if err != nil {
			t.Fatalf("fetch %d failed: %v", i, err)
		}
		if res.Body != "cached body" {
			t.Errorf("fetch %d: got body %q", i, res.Body)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Errorf("expected 1 server hit, got %d", got)
	}
}

func TestFetch_BodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("x", 1000)))
	}))
	defer server.Close()

	cfg := testConfig(nil)
	cfg.HTTP.MaxBodyBytes = 100
	f := New(cfg, FixedRotation{}, nil)

	res, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if len(res.Body) != 100 {
		t.Errorf("expected body truncated to 100 bytes, got %d", len(res.Body))
	}
}
