package fetch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/ipetrov/sourcerer/internal/model"
	"github.com/ipetrov/sourcerer/internal/util"
	"github.com/ipetrov/sourcerer/internal/worker"
)

// Result contains the fetched body and the URL the server finally
// answered on. FinalURL differs from the request URL after redirects
// and lets callers record the canonical location instead of a
// redirect-via-proxy URL.
type Result struct {
	Body     string
	FinalURL string
}

// Fetcher performs an HTTP GET with an ordered fallback: direct
// request first, then a rotation through CORS-relay proxies, stopping
// at the first 2xx. One pass, no backoff.
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	templates  []string
	rotation   RotationStrategy
	limiter    *worker.Limiter
	robots     *util.RobotsChecker // nil disables robots.txt checks
	cache      *bodyCache          // nil disables caching
	obs        model.Observer
}

// New builds a Fetcher from config. The rotation strategy defaults to
// per-call shuffling when nil.
func New(cfg *model.Config, rotation RotationStrategy, obs model.Observer) *Fetcher {
	if rotation == nil {
		rotation = NewShuffleRotation()
	}
	if obs == nil {
		obs = model.NopObserver()
	}

	transport := &http.Transport{
		Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy),
	}
	if cfg.HTTP.InsecureTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	f := &Fetcher{
		httpClient: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("stopped after 5 redirects")
				}
				return nil
			},
		},
		userAgent: cfg.HTTP.UserAgent,
		maxBytes:  cfg.HTTP.MaxBodyBytes,
		templates: cfg.Proxies.Templates,
		rotation:  rotation,
		limiter:   worker.NewLimiter(cfg.HTTP.RatePerDomain, cfg.HTTP.RateBurst),
		obs:       obs,
	}
	for host, rps := range cfg.HTTP.RateOverrides {
		f.limiter.SetDomainRate(host, rps, cfg.HTTP.RateBurst)
	}
	if cfg.HTTP.RespectRobots {
		f.robots = util.NewRobotsChecker(cfg.HTTP.UserAgent, cfg.HTTP.Timeout)
	}
	if cfg.Cache.Enabled {
		f.cache = newBodyCache(cfg.Cache.Dir, cfg.Cache.TTL)
	}
	return f
}

// Fetch retrieves the body at rawURL, falling back through the proxy
// chain. It fails only when the direct request and every proxy fail.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	if f.cache != nil {
		if entry, ok := f.cache.get(rawURL); ok {
			return &Result{Body: entry.Body, FinalURL: entry.FinalURL}, nil
		}
	}

	if f.robots != nil {
		if !f.robots.IsAllowed(ctx, rawURL) {
			return nil, fmt.Errorf("fetch %s: disallowed by robots.txt", rawURL)
		}
	}

	// Direct attempt. Non-2xx and transport errors are treated the
	// same: log and fall through to the proxies.
	if res, err := f.get(ctx, rawURL, rawURL); err == nil {
		f.store(rawURL, res)
		return res, nil
	} else {
		f.obs.Progress("fetch", "direct fetch failed for %s: %v", rawURL, err)
	}

	for _, idx := range f.rotation.Order(len(f.templates)) {
		proxied := fmt.Sprintf(f.templates[idx], url.QueryEscape(rawURL))
		res, err := f.get(ctx, proxied, rawURL)
		if err != nil {
			f.obs.Progress("fetch", "proxy %d failed for %s: %v", idx, rawURL, err)
			continue
		}
		f.store(rawURL, res)
		return res, nil
	}

	return nil, fmt.Errorf("all fetch strategies failed for %s", rawURL)
}

// get performs one GET. originalURL is reported as FinalURL when the
// request went through a proxy, unless the server redirected.
func (f *Fetcher) get(ctx context.Context, requestURL, originalURL string) (*Result, error) {
	if err := f.limiter.Wait(ctx, requestURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status: %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := originalURL
	if got := resp.Request.URL.String(); got != requestURL && requestURL == originalURL {
		// Direct fetch that was redirected: surface the real location
		finalURL = got
	}

	return &Result{Body: string(body), FinalURL: finalURL}, nil
}

func (f *Fetcher) store(rawURL string, res *Result) {
	if f.cache == nil {
		return
	}
	f.cache.put(rawURL, cachedBody{Body: res.Body, FinalURL: res.FinalURL})
}
