package localbackend

import (
	"context"
	"encoding/json"

	"github.com/notionmux/notionmux/internal/fastpath"
)

// Operation ids the fast-path (§4.3) can answer. Any operation outside
// this set always falls straight through to the HTTP client.
const (
	opRetrievePage      = "retrieve-a-page"
	opRetrieveBlock     = "retrieve-a-block"
	opGetBlockChildren  = "get-block-children"
)

// tryFastPath dispatches to the SQLite fast-path for the three whitelisted
// operations, returning (nil, false) for anything else or on any miss.
func tryFastPath(ctx context.Context, store *fastpath.Store, operationID string, params map[string]any) (map[string]any, bool) {
	if store == nil || !store.Active() {
		return nil, false
	}
	switch operationID {
	case opRetrievePage:
		id, ok := params["page_id"].(string)
		if !ok {
			return nil, false
		}
		return store.GetPage(ctx, id)
	case opRetrieveBlock:
		id, ok := params["block_id"].(string)
		if !ok {
			return nil, false
		}
		return store.GetBlock(ctx, id)
	case opGetBlockChildren:
		id, ok := params["block_id"].(string)
		if !ok {
			return nil, false
		}
		pageSize := 0
		if raw, ok := params["page_size"]; ok {
			pageSize = asInt(raw)
		}
		cursor, _ := params["start_cursor"].(string)
		return store.GetBlockChildren(ctx, id, pageSize, cursor)
	default:
		return nil, false
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case int:
		return t
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0
		}
		return int(n)
	default:
		return 0
	}
}
