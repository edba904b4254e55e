package localbackend

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notionmux/notionmux/internal/mcptypes"
	"github.com/notionmux/notionmux/internal/respcache"
)

func testCatalog() *Catalog {
	ops := []OperationEntry{
		{OperationID: "retrieve-a-page", Method: "GET", Path: "/v1/pages/{page_id}", ToolName: "retrieve-a-page"},
		{OperationID: "update-a-page", Method: "PATCH", Path: "/v1/pages/{page_id}", ToolName: "update-a-page"},
	}
	allowlist := map[string]string{"retrieve-a-page": "GET"}
	allOps := map[string]bool{"retrieve-a-page": true, "update-a-page": true}
	return BuildCatalog(ops, allowlist, allOps)
}

type fakeHTTPClient struct {
	calls int
	resp  *HTTPResponse
	err   error
}

func (f *fakeHTTPClient) Do(ctx context.Context, op mcptypes.Operation, params map[string]any, cctx CallContext) (*HTTPResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func newTestBackend(t *testing.T, client HTTPClient) (*Backend, *respcache.Cache[CachedResult]) {
	t.Helper()
	cache, err := respcache.New[CachedResult](respcache.Options{TTLMillis: 60_000, MaxEntries: 10})
	require.NoError(t, err)
	return New(testCatalog(), cache, nil, client), cache
}

func TestCallTool_BlockedOperationReturnsStructuredError(t *testing.T) {
	b, _ := newTestBackend(t, nil)
	result, err := b.CallTool(context.Background(), "update-a-page", json.RawMessage(`{}`), CallContext{})
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "READ_ONLY_OPERATION_BLOCKED")
}

func TestCallTool_UnknownToolReturnsStructuredError(t *testing.T) {
	b, _ := newTestBackend(t, nil)
	result, err := b.CallTool(context.Background(), "nonexistent-tool", json.RawMessage(`{}`), CallContext{})
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "unknown tool")
}

func TestCallTool_ForwardsToHTTPClientAndCaches(t *testing.T) {
	client := &fakeHTTPClient{resp: &HTTPResponse{Data: map[string]any{"object": "page"}, Status: 200}}
	b, _ := newTestBackend(t, client)

	args := json.RawMessage(`{"page_id": "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"}`)
	r1, err := b.CallTool(context.Background(), "retrieve-a-page", args, CallContext{Authorization: "Bearer x"})
	require.NoError(t, err)
	require.False(t, r1.IsError)
	assert.Equal(t, 1, client.calls)

	r2, err := b.CallTool(context.Background(), "retrieve-a-page", args, CallContext{Authorization: "Bearer x"})
	require.NoError(t, err)
	require.False(t, r2.IsError)
	assert.Equal(t, 1, client.calls, "second identical call should be served from cache")
	assert.Equal(t, r1.Content[0].Text, r2.Content[0].Text)
}

func TestCallTool_ForceRefreshBypassesCache(t *testing.T) {
	client := &fakeHTTPClient{resp: &HTTPResponse{Data: map[string]any{"object": "page"}, Status: 200}}
	b, _ := newTestBackend(t, client)

	args := json.RawMessage(`{"page_id": "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"}`)
	_, err := b.CallTool(context.Background(), "retrieve-a-page", args, CallContext{})
	require.NoError(t, err)

	forcedArgs := json.RawMessage(`{"page_id": "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", "__mcpFastForceRefresh": true}`)
	_, err = b.CallTool(context.Background(), "retrieve-a-page", forcedArgs, CallContext{})
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
}

func TestCallTool_DifferentAuthFingerprintMissesCache(t *testing.T) {
	client := &fakeHTTPClient{resp: &HTTPResponse{Data: map[string]any{"object": "page"}, Status: 200}}
	b, _ := newTestBackend(t, client)

	args := json.RawMessage(`{"page_id": "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"}`)
	_, err := b.CallTool(context.Background(), "retrieve-a-page", args, CallContext{Authorization: "Bearer a"})
	require.NoError(t, err)
	_, err = b.CallTool(context.Background(), "retrieve-a-page", args, CallContext{Authorization: "Bearer b"})
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
}

func TestCallTool_HTTPClientErrorSurfacesAsErrorResult(t *testing.T) {
	client := &fakeHTTPClient{err: &HttpClientError{Message: "upstream 500", Status: 500}}
	b, _ := newTestBackend(t, client)

	args := json.RawMessage(`{"page_id": "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"}`)
	result, err := b.CallTool(context.Background(), "retrieve-a-page", args, CallContext{})
	require.NoError(t, err)
	require.True(t, result.IsError)
	assert.Contains(t, result.Content[0].Text, "upstream 500")
}

func TestCallTool_HTTPClientErrorCarriesStructuredPayload(t *testing.T) {
	client := &fakeHTTPClient{err: &HttpClientError{
		Message: "upstream 500",
		Status:  500,
		Data:    map[string]any{"code": "internal_server_error"},
		Headers: map[string]string{"Retry-After": "5"},
	}}
	b, _ := newTestBackend(t, client)

	args := json.RawMessage(`{"page_id": "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"}`)
	result, err := b.CallTool(context.Background(), "retrieve-a-page", args, CallContext{})
	require.NoError(t, err)
	require.True(t, result.IsError)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Content[0].Text), &payload))
	assert.Equal(t, "error", payload["status"])
	assert.Equal(t, float64(500), payload["http_status"])
	assert.Equal(t, "internal_server_error", payload["data"].(map[string]any)["code"])
	assert.Equal(t, "5", payload["headers"].(map[string]any)["Retry-After"])
}

func TestSplitControlFields_ExtractsForceRefreshWithoutMutatingInput(t *testing.T) {
	original := map[string]any{"a": 1, "__mcpFastForceRefresh": true}
	sanitized, force := splitControlFields(original)
	assert.True(t, force)
	assert.NotContains(t, sanitized, "__mcpFastForceRefresh")
	assert.Contains(t, original, "__mcpFastForceRefresh", "input must not be mutated")
}

func TestRehydrateParams_ParsesStringifiedJSONObjectsAndArrays(t *testing.T) {
	in := map[string]any{
		"filter": `{"property": "Status", "value": "Done"}`,
		"tags":   `["a", "b"]`,
		"plain":  "not json",
		"number": "42",
	}
	out := rehydrateParams(in).(map[string]any)
	assert.Equal(t, "Status", out["filter"].(map[string]any)["property"])
	assert.Equal(t, []any{"a", "b"}, out["tags"])
	assert.Equal(t, "not json", out["plain"])
	assert.Equal(t, "42", out["number"], "scalar-looking strings are left as strings")
}

func TestCatalog_AliasResolvesTruncatedName(t *testing.T) {
	longID := "an-operation-id-that-is-deliberately-longer-than-sixty-four-bytes-total"
	ops := []OperationEntry{{OperationID: longID, Method: "GET", Path: "/x", ToolName: longID}}
	cat := BuildCatalog(ops, map[string]string{longID: "GET"}, map[string]bool{longID: true})

	truncated := truncateBytes(longID, maxToolNameBytes)
	entry, res := cat.resolve(truncated)
	require.Equal(t, resolveFound, res)
	assert.Equal(t, longID, entry.ToolName)
}

func TestCatalog_AmbiguousAliasFailsResolution(t *testing.T) {
	base := "an-operation-id-that-is-deliberately-longer-than-sixty-four-bytes"
	nameA := base + "-aaaaaaaa"
	nameB := base + "-bbbbbbbb"
	ops := []OperationEntry{
		{OperationID: nameA, Method: "GET", Path: "/x", ToolName: nameA},
		{OperationID: nameB, Method: "GET", Path: "/y", ToolName: nameB},
	}
	allowlist := map[string]string{nameA: "GET", nameB: "GET"}
	cat := BuildCatalog(ops, allowlist, map[string]bool{nameA: true, nameB: true})

	truncated := truncateBytes(nameA, maxToolNameBytes)
	require.Equal(t, truncateBytes(nameB, maxToolNameBytes), truncated, "fixture must actually collide")
	_, res := cat.resolve(truncated)
	assert.Equal(t, resolveAmbiguous, res)
}
