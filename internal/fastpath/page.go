package fastpath

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// GetPage implements retrieve-a-page (§4.3). Returns (nil, false) on any
// validation miss so the caller falls through to the network path; it never
// returns an error.
func (s *Store) GetPage(ctx context.Context, pageID string) (map[string]any, bool) {
	if !s.Active() {
		return nil, false
	}
	id, ok := normalizeID(pageID)
	if !ok {
		return nil, false
	}

	const q = "SELECT " + rowColumns + " FROM notion_block WHERE id = ? AND type = 'page' ORDER BY meta_last_access_timestamp DESC LIMIT 1"
	r, err := s.queryOne(ctx, q, id)
	if err != nil {
		s.log.Warn("fastpath page query failed, treating as miss", "err", err)
		return nil, false
	}
	if r == nil {
		return nil, false
	}

	if !r.Properties.Valid {
		return nil, false
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(r.Properties.String), &props); err != nil {
		return nil, false
	}
	titleRaw, hasTitle := props["title"]
	if !hasTitle {
		return nil, false
	}
	if _, isArray := titleRaw.([]any); !isArray {
		return nil, false
	}

	alive := r.Alive.Valid && r.Alive.Int64 == 1
	page := map[string]any{
		"object":           "page",
		"id":               id,
		"created_time":     isoTime(r.CreatedTime),
		"last_edited_time": isoTime(r.LastEditedTime),
		"archived":         !alive,
		"in_trash":         !alive,
		"url":              "https://www.notion.so/" + stripDashes(id),
		"properties":       projectPageProperties(props),
	}
	if r.ParentTable.Valid && r.ParentTable.String != "" && r.ParentID.Valid && r.ParentID.String != "" {
		key := r.ParentTable.String + "_id"
		page["parent"] = map[string]any{
			"type": key,
			key:    r.ParentID.String,
		}
	}
	return page, true
}

func projectPageProperties(props map[string]any) map[string]any {
	out := make(map[string]any, len(props)+1)
	sawTitle := false
	for name, val := range props {
		if name == "title" {
			sawTitle = true
			out["title"] = map[string]any{
				"id":    "title",
				"type":  "title",
				"title": richTextNode(extractPlainText(val)),
			}
			continue
		}
		out[name] = map[string]any{
			"id":        name,
			"type":      "rich_text",
			"rich_text": richTextNode(extractPlainText(val)),
		}
	}
	if !sawTitle {
		out["title"] = map[string]any{
			"id":    "title",
			"type":  "title",
			"title": richTextNode(""),
		}
	}
	return out
}

// isoTime renders a nullable epoch-millis column in the ISO-8601 form the
// external API uses for created_time/last_edited_time.
func isoTime(n sql.NullInt64) string {
	if !n.Valid {
		return ""
	}
	return time.UnixMilli(n.Int64).UTC().Format("2006-01-02T15:04:05.000Z")
}
