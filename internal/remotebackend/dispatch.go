package remotebackend

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/notionmux/notionmux/internal/mcptypes"
)

// ListTools returns the subprocess's own tool set, verbatim.
func (b *Backend) ListTools(ctx context.Context) ([]mcptypes.ToolDescriptor, error) {
	if b.client == nil {
		return nil, mcptypes.NewError(mcptypes.KindPermanentUnavailable, "remote backend not connected")
	}
	resp, err := b.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, mcptypes.NewError(mcptypes.KindTransientBackend, "remote list_tools failed: "+err.Error())
	}

	out := make([]mcptypes.ToolDescriptor, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		schema, _ := json.Marshal(t.InputSchema)
		out = append(out, mcptypes.ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return out, nil
}

// CallTool forwards one call_tool invocation verbatim. Any transport-level
// failure is wrapped as KindTransientBackend and handed back to the
// router, which owns both the single reconnect-and-retry policy (§4.5) and
// the auth-error-hint text appended to a final OFFICIAL-route failure
// (§4.6) — this layer does not inspect the error message itself.
func (b *Backend) CallTool(ctx context.Context, name string, args json.RawMessage) (*mcptypes.CallResult, error) {
	if b.client == nil {
		return nil, mcptypes.NewError(mcptypes.KindPermanentUnavailable, "remote backend not connected")
	}

	var argsMap map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &argsMap); err != nil {
			return mcptypes.ErrorResult("invalid arguments: " + err.Error()), nil
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = argsMap

	resp, err := b.client.CallTool(ctx, req)
	if err != nil {
		// Returned as an error, not an IsError CallResult: the caller (the
		// router) needs to distinguish "the subprocess call transport
		// failed" from "the tool ran and reported its own failure" so it
		// can decide whether a single reconnect-and-retry applies.
		return nil, mcptypes.NewError(mcptypes.KindTransientBackend, err.Error())
	}

	result := &mcptypes.CallResult{IsError: resp.IsError}
	for _, c := range resp.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			result.Content = append(result.Content, mcptypes.ContentItem{Type: "text", Text: tc.Text})
		}
	}
	return result, nil
}
