package seo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	maxPageBytes = 2 << 20
	userAgent    = "promptdesk-seo/1.0"
)

var (
	ErrInvalidURL  = errors.New("url must be an absolute http or https URL")
	ErrFetchFailed = errors.New("failed to fetch page")
)

// Fetcher downloads pages and probes the site for robots.txt and sitemap.xml.
type Fetcher struct {
	client *http.Client
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Fetcher{client: client}
}

// ValidateURL parses raw and accepts only absolute http(s) URLs.
func ValidateURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	return u, nil
}

// Fetch downloads raw and parses it. The robots.txt and sitemap.xml probes
// run alongside the page download and never fail the fetch.
func (f *Fetcher) Fetch(ctx context.Context, raw string) (*Page, error) {
	u, err := ValidateURL(raw)
	if err != nil {
		return nil, err
	}
	root := u.Scheme + "://" + u.Host

	var (
		body       []byte
		hasRobots  bool
		hasSitemap bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := f.get(gctx, u.String())
		body = b
		return err
	})
	g.Go(func() error {
		hasRobots = f.exists(gctx, root+"/robots.txt")
		return nil
	})
	g.Go(func() error {
		hasSitemap = f.exists(gctx, root+"/sitemap.xml")
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	page, err := Parse(string(body), u.String())
	if err != nil {
		return nil, err
	}
	page.Facts.HasRobotsTxt = hasRobots
	page.Facts.HasSitemap = hasSitemap
	return page, nil
}

func (f *Fetcher) get(ctx context.Context, target string) ([]byte, error) {
	resp, err := f.do(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrFetchFailed, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	return body, nil
}

func (f *Fetcher) exists(ctx context.Context, target string) bool {
	resp, err := f.do(ctx, target)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode == http.StatusOK
}

func (f *Fetcher) do(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	return f.client.Do(req)
}
