package crawler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
	"sjsage522/partsworker/config"
	"sjsage522/partsworker/helpers"
	"sjsage522/partsworker/logger"
	"sjsage522/partsworker/pkg/errors"
	"sjsage522/partsworker/services/cache"
)

// DefaultCacheKey is the cache key flagging the site as rate limiting us
const DefaultCacheKey = "onderdelenlijn_rate_limited"

// ClientOptions configures a Client
type ClientOptions struct {
	BaseURL         string
	Timeout         time.Duration
	RetryAttempts   int
	RetryBackoff    time.Duration
	RequestInterval time.Duration
	CacheSvc        cache.CacheService
	CacheKey        string
	BlockTime       time.Duration
}

// OptionsFromConfig builds client options from the application configuration
func OptionsFromConfig(cfg config.Config, cacheSvc cache.CacheService) ClientOptions {
	return ClientOptions{
		BaseURL:         cfg.SiteBaseURL,
		Timeout:         cfg.RequestTimeout,
		RetryAttempts:   cfg.RetryAttempts,
		RetryBackoff:    cfg.RetryBackoff,
		RequestInterval: cfg.RequestInterval,
		CacheSvc:        cacheSvc,
		CacheKey:        DefaultCacheKey,
		BlockTime:       cfg.BlockTime,
	}
}

// Page is a fetched and parsed HTML page
type Page struct {
	URL *url.URL
	Doc *goquery.Document
}

// Client fetches site pages for one scrape. It carries its own cookie jar and
// connection pool, so it must not be shared between concurrent scrapes.
// Close releases its idle connections.
type Client struct {
	baseURL  *url.URL
	http     *resty.Client
	limiter  *rate.Limiter
	opts     ClientOptions
	requests atomic.Int64
	log      *logger.Logger
}

// NewClient creates a new site client
func NewClient(opts ClientOptions) (*Client, error) {
	baseURL, err := url.Parse(opts.BaseURL)
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, errors.NewConfiguration(fmt.Sprintf("invalid site base url %q", opts.BaseURL), err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.NewConfiguration("failed to create cookie jar", err)
	}

	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.RetryAttempts < 0 {
		opts.RetryAttempts = 0
	}
	if opts.CacheKey == "" {
		opts.CacheKey = DefaultCacheKey
	}

	client := resty.New()
	client.SetCookieJar(jar)
	client.SetHeaders(helpers.BrowserHeaders())
	client.SetTimeout(opts.Timeout)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	limit := rate.Inf
	if opts.RequestInterval > 0 {
		limit = rate.Every(opts.RequestInterval)
	}

	return &Client{
		baseURL: baseURL,
		http:    client,
		limiter: rate.NewLimiter(limit, 1),
		opts:    opts,
		log:     logger.ForCrawler(Provider),
	}, nil
}

// BaseURL returns the site root the client was configured with
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// Requests returns the number of HTTP requests issued so far, retries included
func (c *Client) Requests() int {
	return int(c.requests.Load())
}

// Close releases idle connections
func (c *Client) Close() {
	c.http.GetClient().CloseIdleConnections()
}

// Fetch gets and parses target, retrying retryable failures with exponential backoff
func (c *Client) Fetch(ctx context.Context, target string) (*Page, error) {
	return c.do(ctx, target, nil)
}

// PostForm posts form to target as application/x-www-form-urlencoded and
// parses the response, with the same retries as Fetch
func (c *Client) PostForm(ctx context.Context, target string, form map[string]string) (*Page, error) {
	if form == nil {
		form = map[string]string{}
	}
	return c.do(ctx, target, form)
}

// do sends a GET, or a form POST when form is not nil
func (c *Client) do(ctx context.Context, target string, form map[string]string) (*Page, error) {
	wait := c.opts.RetryBackoff
	var lastErr error

	for attempt := 0; attempt <= c.opts.RetryAttempts; attempt++ {
		if attempt > 0 {
			c.log.Warn().
				Err(lastErr).
				Str("url", target).
				Int("attempt", attempt+1).
				Dur("backoff", wait).
				Msg("Retrying request")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
			wait *= 2
		}

		page, err := c.fetchWithCache(ctx, target, form)
		if err == nil {
			return page, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !errors.IsRetryable(err) {
			return nil, err
		}
		lastErr = err
	}

	return nil, lastErr
}

// fetchWithCache performs a single request unless the site has flagged us as rate limited
func (c *Client) fetchWithCache(ctx context.Context, target string, form map[string]string) (*Page, error) {
	if c.isBlocked() {
		return nil, errors.NewRateLimit(Provider, c.opts.BlockTime)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	c.requests.Add(1)
	req := c.http.R().SetContext(ctx)
	method := http.MethodGet
	if form != nil {
		method = http.MethodPost
		req.SetFormData(form)
	}
	resp, err := req.Execute(method, target)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.NewNetwork(Provider, "request "+target+" failed", err)
	}

	c.log.Debug().
		Str("method", method).
		Str("url", target).
		Int("status", resp.StatusCode()).
		Dur("took", resp.Time()).
		Msg("Fetched page")

	switch code := resp.StatusCode(); {
	case code == http.StatusTooManyRequests || code == 430:
		c.block(resp.Header().Get("Retry-After"))
		return nil, errors.NewRateLimit(Provider, c.opts.BlockTime)
	case code == http.StatusNotFound:
		return nil, errors.NewNotFound(Provider, "no page at "+target)
	case code >= http.StatusInternalServerError:
		return nil, errors.NewNetwork(Provider, fmt.Sprintf("server error %d for %s", code, target), nil)
	case code != http.StatusOK:
		return nil, errors.NewStatus(Provider, code, target)
	}

	body, err := helpers.DecodeUTF8(resp.Body(), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, errors.NewUnexpectedFormat(Provider, "failed to decode "+target, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, errors.NewUnexpectedFormat(Provider, "failed to parse "+target, err)
	}

	// Relative links resolve against the URL after redirects
	finalURL, err := url.Parse(target)
	if err != nil {
		return nil, errors.NewValidation(Provider, "invalid url "+target)
	}
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		finalURL = resp.RawResponse.Request.URL
	}

	return &Page{URL: finalURL, Doc: doc}, nil
}

func (c *Client) isBlocked() bool {
	if c.opts.CacheSvc == nil {
		return false
	}
	_, err := c.opts.CacheSvc.Get(c.opts.CacheKey)
	return err == nil
}

// block flags the site as rate limiting for BlockTime, or for Retry-After when it is longer
func (c *Client) block(retryAfter string) {
	if c.opts.CacheSvc == nil || c.opts.BlockTime <= 0 {
		return
	}

	blockTime := c.opts.BlockTime
	if seconds, err := strconv.Atoi(retryAfter); err == nil && time.Duration(seconds)*time.Second > blockTime {
		blockTime = time.Duration(seconds) * time.Second
	}

	if err := c.opts.CacheSvc.Set(c.opts.CacheKey, []byte(strconv.Itoa(int(blockTime/time.Second))), blockTime); err != nil {
		logger.ForCache().Warn().Err(err).Str("key", c.opts.CacheKey).Msg("Failed to set rate limit flag")
		return
	}

	c.log.Warn().Dur("block", blockTime).Msg("Site is rate limiting, requests blocked")
}
