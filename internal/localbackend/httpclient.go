package localbackend

import (
	"context"

	"github.com/notionmux/notionmux/internal/mcptypes"
)

// CallContext carries the per-call values the cache key must fold in
// (§4.1's auth_fingerprint/base_url context) without ever putting the raw
// credential into the key itself.
type CallContext struct {
	Authorization string
	APIVersion    string
	BaseURL       string
}

// HTTPResponse is a successful forward-to-backend response.
type HTTPResponse struct {
	Data    any
	Status  int
	Headers map[string]string
}

// HttpClientError is returned by HTTPClient.Do on any non-2xx response or
// transport failure; the local backend never inspects the underlying
// transport error type directly.
type HttpClientError struct {
	Message string
	Status  int
	Data    any
	Headers map[string]string
}

func (e *HttpClientError) Error() string { return e.Message }

// HTTPClient forwards one operation call to the remote API. Its
// construction (base URL resolution, header assembly, retries) is a
// collaborator this package only consumes, per the scope boundary that
// keeps this backend blind to how the HTTP transport itself is built.
type HTTPClient interface {
	Do(ctx context.Context, op mcptypes.Operation, params map[string]any, cctx CallContext) (*HTTPResponse, error)
}
