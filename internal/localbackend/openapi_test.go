package localbackend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDoc = `{
  "openapi": "3.0.0",
  "info": {"title": "test", "version": "1.0"},
  "paths": {
    "/v1/pages/{page_id}": {
      "get": {
        "operationId": "retrieve-a-page",
        "summary": "Retrieve a page",
        "parameters": [
          {"name": "page_id", "in": "path", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "ok"}}
      },
      "patch": {
        "operationId": "update-a-page",
        "summary": "Update a page",
        "responses": {"200": {"description": "ok"}}
      }
    }
  }
}`

func TestLoadOperations_ParsesOperationsAndParameters(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openapi.json")
	require.NoError(t, os.WriteFile(path, []byte(testDoc), 0o600))

	ops, allIDs, err := LoadOperations(path)
	require.NoError(t, err)
	assert.Len(t, ops, 2)
	assert.True(t, allIDs["retrieve-a-page"])
	assert.True(t, allIDs["update-a-page"])

	var page *OperationEntry
	for i := range ops {
		if ops[i].OperationID == "retrieve-a-page" {
			page = &ops[i]
		}
	}
	require.NotNil(t, page)
	assert.Equal(t, "GET", page.Method)
	assert.Contains(t, page.InputSchema["properties"], "page_id")
}
