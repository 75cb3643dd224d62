package providers

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// NewHTTPClient builds the shared retryable client every HTTP-backed
// provider fetches through: up to 3 retries after the first attempt, a
// 2^attempt-second backoff, and a
// 60-second per-request timeout, as the refresh controller's suspension
// points require.
func NewHTTPClient() *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.HTTPClient.Timeout = 60 * time.Second
	client.Logger = nil
	client.Backoff = func(_, _ time.Duration, attemptNum int, _ *http.Response) time.Duration {
		return time.Duration(math.Pow(2, float64(attemptNum))) * time.Second
	}
	return client
}

// FetchSource retrieves url in full and returns its body. Permanent errors
// (4xx after the retry budget is exhausted, DNS failure) surface as a plain
// wrapped error; the caller treats that as fatal for this provider's sync
// only.
func FetchSource(ctx context.Context, client *retryablehttp.Client, url string) ([]byte, error) {
	resp, err := doGet(ctx, client, url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}

// FetchSourceStream retrieves url and returns its body unread, for
// providers that must stream a large payload instead of buffering it. The
// caller owns closing the returned reader.
func FetchSourceStream(ctx context.Context, client *retryablehttp.Client, url string) (io.ReadCloser, error) {
	resp, err := doGet(ctx, client, url)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// FetchSourceOrFile retrieves source in full, treating it as a filesystem
// path when it carries no "scheme://" prefix and as an HTTP(S) URL
// otherwise. Meta-provider templates accept either in their "source" field.
func FetchSourceOrFile(ctx context.Context, client *retryablehttp.Client, source string) ([]byte, error) {
	if !looksLikeURL(source) {
		body, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", source, err)
		}
		return body, nil
	}
	return FetchSource(ctx, client, source)
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func doGet(ctx context.Context, client *retryablehttp.Client, url string) (*http.Response, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", "ngl/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: unexpected status %d", url, resp.StatusCode)
	}
	return resp, nil
}
