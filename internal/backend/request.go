package backend

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/shiftmatch/internal/utils"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
)

type ItemResponse struct {
	Items   []Item `json:"items"`
	Found   int    `json:"found"`
	Pages   int    `json:"pages"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
}

type Item interface{}

// GetItems fetches every page of a paginated listing.
func (c *Client) GetItems(ctx context.Context, path string, q url.Values) ([]Item, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("per_page", perPage)

	var items []Item
	for page := 0; ; page++ {
		q.Set("page", strconv.Itoa(page))

		var response ItemResponse
		if err := c.getJSON(ctx, path, q, &response); err != nil {
			return nil, err
		}

		if page == 0 {
			c.log().Debug("got response from backend",
				zap.String("path", path),
				zap.Int("pages", response.Pages),
				zap.Int("found", response.Found),
			)
		}

		items = append(items, response.Items...)

		// The page counter is ours; the page echoed by the server is not trusted.
		if page+1 >= response.Pages {
			break
		}

		c.log().Debug("additional request needed", zap.String("reason", fmt.Sprintf(
			"current page (%d) < all page count (%d)", page+1, response.Pages),
		))
	}

	return items, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, target any) error {
	u := c.url(path)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	resp, err := c.do(ctx, http.MethodGet, u, nil, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp, http.StatusOK); err != nil {
		return err
	}

	body, err := decodedBody(resp)
	if err != nil {
		return err
	}
	defer body.Close()

	if target == nil {
		return nil
	}

	return json.NewDecoder(body).Decode(target)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, headers map[string]string) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return c.do(ctx, http.MethodPost, c.url(path), data, headers)
}

// do sends the request, retrying throttled, failing or unreachable backends.
func (c *Client) do(ctx context.Context, method, u string, body []byte, headers map[string]string) (*http.Response, error) {
	// At least one attempt is always made.
	retries := max(c.MaxRetries, 0)

	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			c.log().Debug("retrying request",
				zap.String("url", u),
				zap.Int("attempt", attempt),
				zap.Error(lastErr),
			)
			if err := utils.WaitFor(ctx, time.Duration(attempt)*c.RetryDelay); err != nil {
				return nil, err
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, u, reader)
		if err != nil {
			return nil, err
		}
		c.setHeaders(req)
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		c.log().Debug("make request", zap.String("method", method), zap.String("url", u))
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			lastErr = err
			continue
		}

		if !retryable(resp.StatusCode) || attempt == retries {
			return resp, nil
		}

		lastErr = fmt.Errorf("bad status: %s", resp.Status)
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	return nil, fmt.Errorf("%s %s: %w", method, u, lastErr)
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Content-Type", contentType)
}

func retryable(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func checkStatus(resp *http.Response, want int) error {
	switch resp.StatusCode {
	case want:
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("bad status: %s", resp.Status)
	}
}

func decodedBody(resp *http.Response) (io.ReadCloser, error) {
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return io.NopCloser(resp.Body), nil
	}
	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading gzip body: %w", err)
	}
	return gz, nil
}
