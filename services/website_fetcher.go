package services

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DealSproutAdmin/deals-api/config"
)

// ============================================================================
// WEBSITE FETCHER
// Récupère la page d'un site vendeur en tolérant les serveurs mal configurés
// (certificats expirés, redirections relatives, réponses lentes).
// ============================================================================

// FetchResult est l'instantané immuable d'une page récupérée
type FetchResult struct {
	FinalURL   string
	Body       []byte
	StatusCode int
}

type WebsiteFetcher struct {
	client       *http.Client
	timeout      time.Duration
	maxRedirects int
	maxBodyBytes int64
}

// Small-business sites frequently reject clients without a browser identity.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

func NewWebsiteFetcher(cfg config.PipelineConfig) *WebsiteFetcher {
	// TLS verification is disabled unless FETCH_TLS_VERIFICATION=enabled:
	// many target sites run on expired or self-signed certificates, and
	// failing closed would make the feature unusable for exactly the
	// businesses it exists for.
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.TLSVerification},
	}
	if !cfg.TLSVerification {
		log.Printf("[Fetcher] ⚠️  TLS certificate verification is DISABLED")
	}

	return &WebsiteFetcher{
		client: &http.Client{
			Transport: transport,
			// Redirects are followed manually so the hop count stays capped
			// and malformed Location headers can be resolved ourselves.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		timeout:      cfg.FetchTimeout,
		maxRedirects: cfg.MaxRedirects,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// NormalizeURL prepends https:// when the caller omitted a scheme and
// validates the result before any network I/O happens.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("URL has no host")
	}
	return u.String(), nil
}

// Fetch retrieves the page at rawURL, following up to maxRedirects hops
// under a single wall-clock timeout. One request is in flight at a time;
// each hop depends on the previous response's Location header.
func (f *WebsiteFetcher) Fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, NewPipelineError(ErrKindInvalidInput, err)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	current := normalized
	hopsRemaining := f.maxRedirects

	for {
		resp, err := f.doRequest(ctx, current)
		if err != nil {
			return nil, classifyFetchError(err)
		}

		if resp.StatusCode >= 300 && resp.StatusCode < 400 {
			loc := resp.Header.Get("Location")
			discardBody(resp)
			if loc == "" {
				return nil, NewRemoteHTTPError(resp.StatusCode, fmt.Errorf("redirect without Location header"))
			}
			if hopsRemaining == 0 {
				return nil, NewPipelineError(ErrKindTooManyRedirects,
					fmt.Errorf("more than %d redirects from %s", f.maxRedirects, normalized))
			}
			next, err := resolveRedirect(current, loc)
			if err != nil {
				return nil, NewRemoteHTTPError(resp.StatusCode, fmt.Errorf("unresolvable Location %q: %w", loc, err))
			}
			hopsRemaining--
			current = next
			continue
		}

		if resp.StatusCode >= 400 {
			discardBody(resp)
			return nil, NewRemoteHTTPError(resp.StatusCode, fmt.Errorf("remote site returned status %d", resp.StatusCode))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodyBytes))
		resp.Body.Close()
		if err != nil {
			return nil, classifyFetchError(err)
		}

		log.Printf("[Fetcher] Fetched %s (%d bytes, %d hops)", current, len(body), f.maxRedirects-hopsRemaining)

		return &FetchResult{
			FinalURL:   current,
			Body:       body,
			StatusCode: resp.StatusCode,
		}, nil
	}
}

func (f *WebsiteFetcher) doRequest(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	return f.client.Do(req)
}

// resolveRedirect resolves loc (possibly a relative path, which some sites
// emit despite the RFC) against the URL the redirect came from.
func resolveRedirect(from, loc string) (string, error) {
	base, err := url.Parse(from)
	if err != nil {
		return "", err
	}
	next, err := url.Parse(loc)
	if err != nil {
		return "", err
	}
	resolved := base.ResolveReference(next)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("redirect to unsupported scheme %q", resolved.Scheme)
	}
	return resolved.String(), nil
}

// discardBody drains a bounded amount and closes, so keep-alive connections
// can be reused without blocking on a hostile body.
func discardBody(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4*1024))
	resp.Body.Close()
}

func classifyFetchError(err error) *PipelineError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewPipelineError(ErrKindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewPipelineError(ErrKindTimeout, err)
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return NewPipelineError(ErrKindDNSOrConnect, err)
	}
	// Everything else that can come out of client.Do here is a transport
	// level failure: refused connections, resets, TLS handshake problems.
	return NewPipelineError(ErrKindDNSOrConnect, err)
}
