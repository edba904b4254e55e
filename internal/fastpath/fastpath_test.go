package fastpath

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notionmux/notionmux/internal/logging"
)

const schema = `
CREATE TABLE notion_block (
	id TEXT PRIMARY KEY,
	type TEXT,
	parent_table TEXT,
	parent_id TEXT,
	space_id TEXT,
	created_time INTEGER,
	last_edited_time INTEGER,
	alive INTEGER,
	properties TEXT,
	content TEXT,
	meta_last_access_timestamp INTEGER
);`

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	_, err = db.Exec(schema)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return &Store{cfg: Config{MaxPageSize: 100}, db: db, active: true, log: logging.For("fastpath-test")}
}

const pageID = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"

func insertPage(t *testing.T, s *Store, id, propsJSON string, alive int) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO notion_block (id, type, parent_table, parent_id, created_time, last_edited_time, alive, properties, content, meta_last_access_timestamp)
		 VALUES (?, 'page', 'space', 'sp1', 1000, 2000, ?, ?, '[]', 1)`,
		id, alive, propsJSON,
	)
	require.NoError(t, err)
}

func TestGetPage_Hit(t *testing.T) {
	s := newTestStore(t)
	insertPage(t, s, pageID, `{"title": [["Hello world"]]}`, 1)

	page, ok := s.GetPage(context.Background(), pageID)
	require.True(t, ok)
	assert.Equal(t, "page", page["object"])
	assert.Equal(t, pageID, page["id"])
	assert.Equal(t, false, page["archived"])
	assert.Equal(t, "https://www.notion.so/"+stripDashes(pageID), page["url"])

	props := page["properties"].(map[string]any)
	title := props["title"].(map[string]any)
	assert.Equal(t, "title", title["type"])
}

func TestGetPage_MissingTitleArrayIsMiss(t *testing.T) {
	s := newTestStore(t)
	insertPage(t, s, pageID, `{"title": "not-an-array"}`, 1)

	_, ok := s.GetPage(context.Background(), pageID)
	assert.False(t, ok)
}

func TestGetPage_InvalidIDIsMiss(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.GetPage(context.Background(), "not-a-uuid")
	assert.False(t, ok)
}

func TestGetPage_NotFoundIsMiss(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.GetPage(context.Background(), pageID)
	assert.False(t, ok)
}

func TestGetPage_ArchivedWhenNotAlive(t *testing.T) {
	s := newTestStore(t)
	insertPage(t, s, pageID, `{"title": [["x"]]}`, 0)

	page, ok := s.GetPage(context.Background(), pageID)
	require.True(t, ok)
	assert.Equal(t, true, page["archived"])
	assert.Equal(t, true, page["in_trash"])
}

const blockID = "bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb"

func insertBlock(t *testing.T, s *Store, id, blockType, propsJSON, contentJSON string, alive int) {
	t.Helper()
	_, err := s.db.Exec(
		`INSERT INTO notion_block (id, type, created_time, last_edited_time, alive, properties, content, meta_last_access_timestamp)
		 VALUES (?, ?, 1000, 2000, ?, ?, ?, 1)`,
		id, blockType, alive, propsJSON, contentJSON,
	)
	require.NoError(t, err)
}

func TestGetBlock_TextMapsToParagraph(t *testing.T) {
	s := newTestStore(t)
	insertBlock(t, s, blockID, "text", `{"title": [["hi"]]}`, `[]`, 1)

	block, ok := s.GetBlock(context.Background(), blockID)
	require.True(t, ok)
	assert.Equal(t, "paragraph", block["type"])
	para := block["paragraph"].(map[string]any)
	assert.Equal(t, "default", para["color"])
	assert.Equal(t, false, block["has_children"])
}

func TestGetBlock_HeaderMapsToHeading1(t *testing.T) {
	s := newTestStore(t)
	insertBlock(t, s, blockID, "header", `{"title": [["H"]]}`, `[]`, 1)

	block, ok := s.GetBlock(context.Background(), blockID)
	require.True(t, ok)
	assert.Equal(t, "heading_1", block["type"])
}

func TestGetBlock_HasChildrenWhenContentNonEmpty(t *testing.T) {
	s := newTestStore(t)
	insertBlock(t, s, blockID, "text", `{"title": [["x"]]}`, `["cccccccc-cccc-cccc-cccc-cccccccccccc"]`, 1)

	block, ok := s.GetBlock(context.Background(), blockID)
	require.True(t, ok)
	assert.Equal(t, true, block["has_children"])
}

func TestGetBlock_InvalidShapeIsMiss(t *testing.T) {
	s := newTestStore(t)
	insertBlock(t, s, blockID, "", `{}`, `[]`, 1)
	_, ok := s.GetBlock(context.Background(), blockID)
	assert.False(t, ok)
}

func TestGetBlockChildren_PaginatesAndOrders(t *testing.T) {
	s := newTestStore(t)
	c1 := "c0000000-0000-0000-0000-000000000001"
	c2 := "c0000000-0000-0000-0000-000000000002"
	c3 := "c0000000-0000-0000-0000-000000000003"
	insertBlock(t, s, blockID, "page", `{"title":[["parent"]]}`, `["`+c1+`","`+c2+`","`+c3+`"]`, 1)
	insertBlock(t, s, c1, "text", `{"title":[["one"]]}`, `[]`, 1)
	insertBlock(t, s, c2, "text", `{"title":[["two"]]}`, `[]`, 1)
	insertBlock(t, s, c3, "text", `{"title":[["three"]]}`, `[]`, 1)

	page1, ok := s.GetBlockChildren(context.Background(), blockID, 2, "")
	require.True(t, ok)
	results := page1["results"].([]map[string]any)
	require.Len(t, results, 2)
	assert.Equal(t, c1, results[0]["id"])
	assert.Equal(t, c2, results[1]["id"])
	assert.Equal(t, true, page1["has_more"])
	assert.Equal(t, c2, page1["next_cursor"])

	page2, ok := s.GetBlockChildren(context.Background(), blockID, 2, c2)
	require.True(t, ok)
	results2 := page2["results"].([]map[string]any)
	require.Len(t, results2, 1)
	assert.Equal(t, c3, results2[0]["id"])
	assert.Equal(t, false, page2["has_more"])
	assert.Nil(t, page2["next_cursor"])
}

func TestGetBlockChildren_UnknownCursorIsMiss(t *testing.T) {
	s := newTestStore(t)
	c1 := "c0000000-0000-0000-0000-000000000001"
	insertBlock(t, s, blockID, "page", `{"title":[["parent"]]}`, `["`+c1+`"]`, 1)
	insertBlock(t, s, c1, "text", `{"title":[["one"]]}`, `[]`, 1)

	_, ok := s.GetBlockChildren(context.Background(), blockID, 10, "d0000000-0000-0000-0000-000000000099")
	assert.False(t, ok)
}

func TestGetBlockChildren_MissingChildRowIsMiss(t *testing.T) {
	s := newTestStore(t)
	c1 := "c0000000-0000-0000-0000-000000000001"
	insertBlock(t, s, blockID, "page", `{"title":[["parent"]]}`, `["`+c1+`"]`, 1)
	// c1 row intentionally absent

	_, ok := s.GetBlockChildren(context.Background(), blockID, 10, "")
	assert.False(t, ok)
}

func TestStore_InactiveAlwaysMisses(t *testing.T) {
	var s *Store
	_, ok := s.GetPage(context.Background(), pageID)
	assert.False(t, ok)

	inactive := &Store{}
	_, ok = inactive.GetPage(context.Background(), pageID)
	assert.False(t, ok)
}
