package tokencache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvictForURL_DeletesBareHashDirLeavesOthers(t *testing.T) {
	dir := t.TempDir()
	url := "https://mcp.notion.com/mcp"
	hash := urlHash(url)

	matchDir := filepath.Join(dir, hash)
	require.NoError(t, os.MkdirAll(matchDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(matchDir, "tokens.json"), []byte("{}"), 0o600))

	otherDir := filepath.Join(dir, "deadbeef")
	require.NoError(t, os.MkdirAll(otherDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(otherDir, "tokens.json"), []byte("{}"), 0o600))

	summary, err := EvictForURL(context.Background(), dir, url)
	require.NoError(t, err)
	assert.Equal(t, "ok", summary.Status)
	assert.Len(t, summary.DeletedFiles, 1)

	_, err = os.Stat(matchDir)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(otherDir)
	assert.NoError(t, err, "non-matching directory must survive")
}

// TestEvictForURL_VersionDirLeavesUnrelatedSiblings reproduces E2E scenario
// 5: a mcp-remote-1.0 version directory holding this server's tokens and
// client info file plus another server's tokens.json. Only the two matching
// files are deleted.
func TestEvictForURL_VersionDirLeavesUnrelatedSiblings(t *testing.T) {
	dir := t.TempDir()
	url := "https://mcp.notion.com/mcp"
	hash := urlHash(url)

	versionDir := filepath.Join(dir, "mcp-remote-1.0")
	require.NoError(t, os.MkdirAll(versionDir, 0o700))

	tokensFile := filepath.Join(versionDir, hash+"_tokens.json")
	clientInfoFile := filepath.Join(versionDir, hash+"_client_info.json")
	otherFile := filepath.Join(versionDir, "other_tokens.json")
	require.NoError(t, os.WriteFile(tokensFile, []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(clientInfoFile, []byte("{}"), 0o600))
	require.NoError(t, os.WriteFile(otherFile, []byte("{}"), 0o600))

	summary, err := EvictForURL(context.Background(), dir, url)
	require.NoError(t, err)
	assert.Equal(t, "ok", summary.Status)
	assert.ElementsMatch(t, []string{tokensFile, clientInfoFile}, summary.DeletedFiles)

	_, err = os.Stat(otherFile)
	assert.NoError(t, err, "a different server's cached tokens must survive")
}

// TestEvictForURL_NestedHashDirInsideVersionDir covers the nested
// "mcp-remote-<version>/<hash>/tokens.json" shape.
func TestEvictForURL_NestedHashDirInsideVersionDir(t *testing.T) {
	dir := t.TempDir()
	url := "https://mcp.notion.com/mcp"
	hash := urlHash(url)

	nestedDir := filepath.Join(dir, "mcp-remote-1.0", hash)
	require.NoError(t, os.MkdirAll(nestedDir, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(nestedDir, "tokens.json"), []byte("{}"), 0o600))

	summary, err := EvictForURL(context.Background(), dir, url)
	require.NoError(t, err)
	assert.Equal(t, "ok", summary.Status)
	assert.Len(t, summary.DeletedFiles, 1)

	_, err = os.Stat(nestedDir)
	assert.True(t, os.IsNotExist(err))
}

func TestEvictForURL_NoMatchesIsNotFoundNotError(t *testing.T) {
	dir := t.TempDir()
	summary, err := EvictForURL(context.Background(), dir, "https://mcp.notion.com/mcp")
	require.NoError(t, err)
	assert.Equal(t, "not_found", summary.Status)
	assert.Empty(t, summary.DeletedFiles)
}

func TestEvictForURL_AbsentCacheDirIsNotError(t *testing.T) {
	summary, err := EvictForURL(context.Background(), filepath.Join(t.TempDir(), "missing"), "https://mcp.notion.com/mcp")
	require.NoError(t, err)
	assert.Equal(t, "no_cache_dir", summary.Status)
}
