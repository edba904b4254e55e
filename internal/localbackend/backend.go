package localbackend

import (
	"context"
	"encoding/json"
	"os"

	"github.com/notionmux/notionmux/internal/cachekey"
	"github.com/notionmux/notionmux/internal/fastpath"
	"github.com/notionmux/notionmux/internal/logging"
	"github.com/notionmux/notionmux/internal/mcptypes"
	"github.com/notionmux/notionmux/internal/respcache"
)

// Backend is C4: the local, fast, read-only route into the same API the
// remote subprocess backend also serves, built once from a Catalog and
// wired to a response cache, an optional fast-path store, and an HTTP
// client collaborator.
type Backend struct {
	catalog    *Catalog
	cache      *respcache.Cache[CachedResult]
	fastStore  *fastpath.Store
	httpClient HTTPClient
	log        *logging.Logger
}

// CachedResult is what the response cache actually stores: the projected
// data plus enough shape to rebuild a CallResult without re-deriving it.
type CachedResult struct {
	Data any `json:"data"`
}

// NewCache constructs the response cache with the value type this backend
// stores.
func NewCache(opts respcache.Options) (*respcache.Cache[CachedResult], error) {
	return respcache.New[CachedResult](opts)
}

// New wires a Backend from its already-built collaborators. cache,
// fastStore and httpClient may each be nil: a nil cache disables caching, a
// nil (or inactive) store never hits, and a nil HTTP client turns every call
// the cache and fast path cannot answer into an error result.
func New(catalog *Catalog, cache *respcache.Cache[CachedResult], fastStore *fastpath.Store, httpClient HTTPClient) *Backend {
	return &Backend{
		catalog:    catalog,
		cache:      cache,
		fastStore:  fastStore,
		httpClient: httpClient,
		log:        logging.For("localbackend"),
	}
}

// ListTools returns descriptors for every allowlisted operation.
func (b *Backend) ListTools() []mcptypes.ToolDescriptor {
	return b.catalog.Descriptors()
}

// HasTool reports whether name is one this backend can dispatch.
func (b *Backend) HasTool(name string) bool {
	return b.catalog.HasTool(name)
}

// Close persists the response cache under the running process's pid,
// satisfying serveradapter.Closer so shutdown flushes it automatically.
func (b *Backend) Close() error {
	if b.cache == nil {
		return nil
	}
	return b.cache.Save(os.Getpid())
}

const readOnlyBlockedText = "READ_ONLY_OPERATION_BLOCKED: this operation is not on the read-only allowlist and cannot be served by the local backend."

// CallTool runs the full §4.4 dispatch pipeline for one call_tool
// invocation. It never returns a non-nil error for a user-facing failure;
// errors are folded into an IsError CallResult so the router can forward
// it verbatim.
func (b *Backend) CallTool(ctx context.Context, name string, argsRaw json.RawMessage, cctx CallContext) (*mcptypes.CallResult, error) {
	entry, res := b.catalog.resolve(name)
	switch res {
	case resolveBlocked:
		return mcptypes.ErrorResult(readOnlyBlockedText), nil
	case resolveAmbiguous:
		return mcptypes.ErrorResult("unknown tool: \"" + name + "\" (ambiguous truncated alias)"), nil
	case resolveUnknown:
		return mcptypes.ErrorResult("unknown tool: \"" + name + "\""), nil
	}

	var rawArgs map[string]any
	if len(argsRaw) > 0 {
		if err := json.Unmarshal(argsRaw, &rawArgs); err != nil {
			return mcptypes.ErrorResult("invalid arguments: " + err.Error()), nil
		}
	}
	if rawArgs == nil {
		rawArgs = map[string]any{}
	}

	sanitized, forceRefresh := splitControlFields(rawArgs)
	params, ok := rehydrateParams(sanitized).(map[string]any)
	if !ok {
		params = sanitized
	}

	op := mcptypes.Operation{Method: entry.Method, Path: entry.Path, OperationID: entry.OperationID}

	keyParams := map[string]any{
		"params": params,
		"__ctx": map[string]any{
			"auth_fingerprint": authFingerprint(cctx),
			"base_url":         cctx.BaseURL,
		},
	}
	key, err := cachekey.Build(op, keyParams)
	if err != nil {
		return mcptypes.ErrorResult("failed to build cache key: " + err.Error()), nil
	}

	if !forceRefresh && b.cache != nil {
		if cached, hit := b.cache.Get(key); hit {
			return toCallResult(cached.Data)
		}
	}

	if !forceRefresh {
		if data, hit := tryFastPath(ctx, b.fastStore, entry.OperationID, params); hit {
			if b.cache != nil {
				b.cache.Set(key, CachedResult{Data: data})
			}
			return toCallResult(data)
		}
	}

	if b.httpClient == nil {
		return mcptypes.ErrorResult("no HTTP client configured for local backend"), nil
	}

	resp, err := b.httpClient.Do(ctx, op, params, cctx)
	if err != nil {
		if hcErr, ok := err.(*HttpClientError); ok {
			return buildHTTPErrorResult(hcErr), nil
		}
		return mcptypes.ErrorResult("local backend request failed: " + err.Error()), nil
	}

	if b.cache != nil {
		b.cache.Set(key, CachedResult{Data: resp.Data})
		go b.persistCacheAsync()
	}
	return toCallResult(resp.Data)
}

// persistCacheAsync flushes the response cache to disk in the background
// after every write, per §4.4's fire-and-forget persistence requirement.
// Failures are logged, never surfaced to the caller that triggered them.
func (b *Backend) persistCacheAsync() {
	if err := b.cache.Save(os.Getpid()); err != nil {
		b.log.Warn("failed to persist response cache", "err", err)
	}
}

func buildHTTPErrorResult(e *HttpClientError) *mcptypes.CallResult {
	return mcptypes.ErrorResultPayload(e.Message, e.Status, e.Data, e.Headers)
}

func toCallResult(data any) (*mcptypes.CallResult, error) {
	text, err := json.Marshal(data)
	if err != nil {
		return mcptypes.ErrorResult("failed to encode result: " + err.Error()), nil
	}
	return mcptypes.TextResult(string(text)), nil
}
