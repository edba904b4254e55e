package fastpath

import (
	"context"
	"encoding/json"
)

// GetBlockChildren implements get-block-children (§4.3): paginate the
// parent's content array and fetch every child row in one IN(...) query.
func (s *Store) GetBlockChildren(ctx context.Context, blockID string, pageSize int, startCursor string) (map[string]any, bool) {
	if !s.Active() {
		return nil, false
	}
	id, ok := normalizeID(blockID)
	if !ok {
		return nil, false
	}

	const q = "SELECT " + rowColumns + " FROM notion_block WHERE id = ?"
	parent, err := s.queryOne(ctx, q, id)
	if err != nil {
		s.log.Warn("fastpath children parent query failed, treating as miss", "err", err)
		return nil, false
	}
	if parent == nil || !parent.Content.Valid {
		return nil, false
	}
	var childIDsRaw []any
	if err := json.Unmarshal([]byte(parent.Content.String), &childIDsRaw); err != nil {
		return nil, false
	}
	childIDs := make([]string, 0, len(childIDsRaw))
	for _, v := range childIDsRaw {
		str, ok := v.(string)
		if !ok {
			return nil, false
		}
		childIDs = append(childIDs, str)
	}

	max := s.cfg.MaxPageSize
	if max <= 0 {
		max = 100
	}
	if pageSize <= 0 {
		pageSize = max
	}
	if pageSize > max {
		pageSize = max
	}
	if pageSize < 1 {
		pageSize = 1
	}

	startIndex := 0
	if startCursor != "" {
		normalizedCursor, ok := normalizeID(startCursor)
		if !ok {
			return nil, false
		}
		found := -1
		for i, cid := range childIDs {
			if norm, ok := normalizeID(cid); ok && norm == normalizedCursor {
				found = i
				break
			}
		}
		if found == -1 {
			return nil, false
		}
		startIndex = found + 1
	}

	end := startIndex + pageSize
	if end > len(childIDs) {
		end = len(childIDs)
	}
	if startIndex > len(childIDs) {
		startIndex = len(childIDs)
	}
	pageIDs := childIDs[startIndex:end]

	normalizedPageIDs := make([]string, 0, len(pageIDs))
	for _, cid := range pageIDs {
		norm, ok := normalizeID(cid)
		if !ok {
			return nil, false
		}
		normalizedPageIDs = append(normalizedPageIDs, norm)
	}

	var rowsByID map[string]*row
	if len(normalizedPageIDs) > 0 {
		placeholders, args := inPlaceholders(normalizedPageIDs)
		query := "SELECT " + rowColumns + " FROM notion_block WHERE id IN (" + placeholders + ")"
		rowsByID, err = s.queryMany(ctx, query, args...)
		if err != nil {
			s.log.Warn("fastpath children fetch failed, treating as miss", "err", err)
			return nil, false
		}
	}

	results := make([]map[string]any, 0, len(normalizedPageIDs))
	for _, cid := range normalizedPageIDs {
		r, ok := rowsByID[cid]
		if !ok {
			return nil, false
		}
		block, ok := projectBlockRow(r, cid)
		if !ok {
			return nil, false
		}
		results = append(results, block)
	}

	hasMore := end < len(childIDs)
	var nextCursor any
	if hasMore && len(results) > 0 {
		nextCursor = normalizedPageIDs[len(normalizedPageIDs)-1]
	}

	return map[string]any{
		"object":      "list",
		"results":     results,
		"next_cursor": nextCursor,
		"has_more":    hasMore,
		"type":        "block",
		"block":       map[string]any{},
	}, true
}
