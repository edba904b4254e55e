package serveradapter

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notionmux/notionmux/internal/mcptypes"
)

type fakeRouter struct {
	tools []mcptypes.ToolDescriptor
	calls []string
}

func (f *fakeRouter) ListTools() []mcptypes.ToolDescriptor { return f.tools }
func (f *fakeRouter) CallTool(ctx context.Context, name string, args json.RawMessage) (*mcptypes.CallResult, error) {
	f.calls = append(f.calls, name)
	if name == "boom" {
		return mcptypes.ErrorResult("boom failed"), nil
	}
	return mcptypes.TextResult("ok:" + name), nil
}

func TestBuildMCPTool_ParsesSchemaProperties(t *testing.T) {
	desc := mcptypes.ToolDescriptor{
		Name:        "retrieve-a-page",
		Description: "fetch a page",
		InputSchema: json.RawMessage(`{"properties": {"page_id": {"type": "string"}}, "required": ["page_id"]}`),
	}
	tool := buildMCPTool(desc)
	assert.Equal(t, "retrieve-a-page", tool.Name)
	assert.Equal(t, []string{"page_id"}, tool.InputSchema.Required)
	assert.Contains(t, tool.InputSchema.Properties, "page_id")
}

func TestAdapter_RefreshToolsRegistersAndDeregisters(t *testing.T) {
	router := &fakeRouter{tools: []mcptypes.ToolDescriptor{{Name: "a"}, {Name: "b"}}}
	a := New(router)
	assert.True(t, a.registered["a"])
	assert.True(t, a.registered["b"])

	router.tools = []mcptypes.ToolDescriptor{{Name: "a"}}
	a.RefreshTools()
	assert.True(t, a.registered["a"])
	assert.False(t, a.registered["b"])
}

func TestHandlerFor_SuccessAndErrorPaths(t *testing.T) {
	router := &fakeRouter{tools: []mcptypes.ToolDescriptor{{Name: "ok-tool"}, {Name: "boom"}}}
	a := New(router)

	h := a.handlerFor("ok-tool")
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{}
	result, err := h(context.Background(), req)
	require.NoError(t, err)
	require.False(t, result.IsError)

	h2 := a.handlerFor("boom")
	result2, err := h2(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, result2.IsError)
}
