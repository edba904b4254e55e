package localbackend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"regexp"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/notionmux/notionmux/internal/logging"
	"github.com/notionmux/notionmux/internal/mcptypes"
)

// pathParamRe matches an OpenAPI-style {param} path segment.
var pathParamRe = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// RetryableForwarder is the concrete HTTPClient this module ships: it
// substitutes path parameters, forwards the remaining params as a query
// string (GET, DELETE) or JSON body (otherwise), and retries transient failures
// with hashicorp/go-retryablehttp's exponential backoff.
type RetryableForwarder struct {
	client *retryablehttp.Client
	log    *logging.Logger
}

// NewRetryableForwarder builds a forwarder with go-retryablehttp's default
// backoff policy, its logger silenced in favor of our own.
func NewRetryableForwarder() *RetryableForwarder {
	client := retryablehttp.NewClient()
	client.Logger = nil
	return &RetryableForwarder{client: client, log: logging.For("localbackend-http")}
}

func (f *RetryableForwarder) Do(ctx context.Context, op mcptypes.Operation, params map[string]any, cctx CallContext) (*HTTPResponse, error) {
	remaining := make(map[string]any, len(params))
	for k, v := range params {
		remaining[k] = v
	}

	path := pathParamRe.ReplaceAllStringFunc(op.Path, func(match string) string {
		name := match[1 : len(match)-1]
		if v, ok := remaining[name]; ok {
			delete(remaining, name)
			return fmt.Sprintf("%v", v)
		}
		return match
	})

	url := strings.TrimRight(cctx.BaseURL, "/") + path

	var body io.Reader
	if op.Method == http.MethodGet || op.Method == http.MethodDelete {
		if len(remaining) > 0 {
			query := neturl.Values{}
			for k, v := range remaining {
				query.Set(k, fmt.Sprintf("%v", v))
			}
			url += "?" + query.Encode()
		}
	} else if len(remaining) > 0 {
		encoded, err := json.Marshal(remaining)
		if err != nil {
			return nil, &HttpClientError{Message: "failed to encode request body: " + err.Error()}
		}
		body = bytes.NewReader(encoded)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, op.Method, url, body)
	if err != nil {
		return nil, &HttpClientError{Message: "failed to build request: " + err.Error()}
	}
	req.Header.Set("Authorization", cctx.Authorization)
	req.Header.Set("Notion-Version", cctx.APIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &HttpClientError{Message: "request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &HttpClientError{Message: "failed to read response body: " + err.Error(), Status: resp.StatusCode}
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	var decoded any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &decoded); err != nil {
			decoded = string(data)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HttpClientError{Message: fmt.Sprintf("upstream returned %d", resp.StatusCode), Status: resp.StatusCode, Data: decoded, Headers: headers}
	}

	return &HTTPResponse{Data: decoded, Status: resp.StatusCode, Headers: headers}, nil
}
