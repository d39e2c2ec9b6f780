// Package remote implements the one-shot "init from remote" fetch path
// (§4.10), hardened against SSRF: scheme restriction, private-range
// blocking, bounded redirects and bounded response size.
package remote

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	insecureHTTPEnvVar = "DECLARCH_ALLOW_INSECURE_HTTP"
	maxRedirects       = 5
	maxResponseBytes   = 4 << 20 // 4 MiB
	fetchTimeout       = 30 * time.Second
)

// FetchError carries the final attempted URL for diagnostics (§4.10).
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher performs validated HTTPS (or opt-in HTTP) GET requests.
type Fetcher struct {
	Client        *http.Client
	AllowInsecure bool
}

// NewFetcher builds a Fetcher honoring DECLARCH_ALLOW_INSECURE_HTTP.
func NewFetcher() *Fetcher {
	f := &Fetcher{AllowInsecure: os.Getenv(insecureHTTPEnvVar) == "1"}
	f.Client = &http.Client{
		Timeout: fetchTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects (max %d)", maxRedirects)
			}
			return f.validate(req.URL)
		},
	}
	return f
}

// Fetch retrieves rawURL's body, retrying transient failures once, and
// returns it bounded to maxResponseBytes.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: fmt.Errorf("invalid URL: %w", err)}
	}
	if err := f.validate(u); err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	body, err := backoff.Retry(ctx, func() ([]byte, error) {
		return f.doOnce(ctx, u)
	}, backoff.WithBackOff(backoff.NewExponentialBackOff()), backoff.WithMaxTries(2))
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}
	return body, nil
}

func (f *Fetcher) doOnce(ctx context.Context, u *url.URL) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxResponseBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if len(body) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeded %d bytes", maxResponseBytes)
	}
	return body, nil
}

// validate enforces the scheme and private-range rules of §4.10.
func (f *Fetcher) validate(u *url.URL) error {
	switch u.Scheme {
	case "https":
	case "http":
		if !f.AllowInsecure {
			return fmt.Errorf("plain http is blocked; set %s=1 to allow it", insecureHTTPEnvVar)
		}
	default:
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	ips, err := net.LookupIP(host)
	if err != nil {
		// A literal IP fails LookupIP with some resolvers; fall back to
		// parsing the host directly before giving up.
		if ip := net.ParseIP(host); ip != nil {
			ips = []net.IP{ip}
		} else {
			return fmt.Errorf("resolve host %q: %w", host, err)
		}
	}

	for _, ip := range ips {
		if isPrivate(ip) && !f.AllowInsecure {
			return fmt.Errorf("host %q resolves to a private address %s; set %s=1 to allow it", host, ip, insecureHTTPEnvVar)
		}
	}
	return nil
}

// isPrivate reports whether ip falls in a private, loopback, link-local
// or unique-local range (§4.10's blocklist).
func isPrivate(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}
	privateBlocks := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"fc00::/7", // ULA
	}
	for _, cidr := range privateBlocks {
		_, block, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if block.Contains(ip) {
			return true
		}
	}
	return false
}
