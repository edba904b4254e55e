package fastpath

import (
	"context"
	"encoding/json"
)

var localToAPIType = map[string]string{
	"text":           "paragraph",
	"header":         "heading_1",
	"sub_header":     "heading_2",
	"sub_sub_header": "heading_3",
	"bulleted_list":  "bulleted_list_item",
	"numbered_list":  "numbered_list_item",
	"page":           "child_page",
}

// richTextBlockTypes carries {rich_text, color:"default"}.
var richTextBlockTypes = map[string]bool{
	"paragraph":           true,
	"heading_1":           true,
	"heading_2":           true,
	"heading_3":           true,
	"bulleted_list_item":  true,
	"numbered_list_item":  true,
	"to_do":               true,
}

func apiBlockType(localType string) string {
	if mapped, ok := localToAPIType[localType]; ok {
		return mapped
	}
	return localType
}

// GetBlock implements retrieve-a-block (§4.3).
func (s *Store) GetBlock(ctx context.Context, blockID string) (map[string]any, bool) {
	if !s.Active() {
		return nil, false
	}
	id, ok := normalizeID(blockID)
	if !ok {
		return nil, false
	}

	const q = "SELECT " + rowColumns + " FROM notion_block WHERE id = ?"
	r, err := s.queryOne(ctx, q, id)
	if err != nil {
		s.log.Warn("fastpath block query failed, treating as miss", "err", err)
		return nil, false
	}
	if r == nil {
		return nil, false
	}
	block, ok := projectBlockRow(r, id)
	if !ok {
		return nil, false
	}
	return block, true
}

// projectBlockRow validates and projects a single row into the external
// block shape. It is shared by GetBlock and the children projection so a
// row failing validation there also yields a null page (§4.3 children rule).
func projectBlockRow(r *row, id string) (map[string]any, bool) {
	if !r.Type.Valid || r.Type.String == "" {
		return nil, false
	}
	if !r.Properties.Valid {
		return nil, false
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(r.Properties.String), &props); err != nil {
		return nil, false
	}
	var content []any
	if r.Content.Valid {
		if err := json.Unmarshal([]byte(r.Content.String), &content); err != nil {
			return nil, false
		}
	}

	apiType := apiBlockType(r.Type.String)
	alive := r.Alive.Valid && r.Alive.Int64 == 1

	block := map[string]any{
		"object":           "block",
		"id":               id,
		"type":             apiType,
		"created_time":     isoTime(r.CreatedTime),
		"last_edited_time": isoTime(r.LastEditedTime),
		"has_children":     len(content) > 0,
		"archived":         !alive,
	}

	plainText := extractPlainText(props["title"])
	switch {
	case richTextBlockTypes[apiType]:
		payload := map[string]any{
			"rich_text": richTextNode(plainText),
			"color":     "default",
		}
		if apiType == "to_do" {
			payload["checked"] = false
		}
		block[apiType] = payload
	case apiType == "child_page":
		block[apiType] = map[string]any{"title": plainText}
	case apiType == "divider":
		block[apiType] = map[string]any{}
	default:
		block[apiType] = map[string]any{}
	}

	return block, true
}
