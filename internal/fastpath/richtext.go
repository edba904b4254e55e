package fastpath

// richTextNode returns the projected rich-text array for a plain-text
// string, per §4.3's richtext(t) rule: [] when empty, else a single text
// node with all annotations false, color "default", link nil.
func richTextNode(text string) []map[string]any {
	if text == "" {
		return []map[string]any{}
	}
	return []map[string]any{
		{
			"type": "text",
			"text": map[string]any{
				"content": text,
				"link":    nil,
			},
			"annotations": map[string]any{
				"bold":          false,
				"italic":        false,
				"strikethrough": false,
				"underline":     false,
				"code":          false,
				"color":         "default",
			},
			"plain_text": text,
			"href":       nil,
		},
	}
}

// extractPlainText pulls a flat string out of the third-party app's
// property-chunk encoding: an array of chunks, each chunk either a bare
// string or an array whose first element is the text run (optionally
// followed by formatting marks). Chunks of any other shape are skipped, and
// a non-array value yields "".
func extractPlainText(v any) string {
	arr, ok := v.([]any)
	if !ok {
		return ""
	}
	out := ""
	for _, chunk := range arr {
		switch c := chunk.(type) {
		case []any:
			if len(c) > 0 {
				if s, ok := c[0].(string); ok {
					out += s
				}
			}
		case string:
			out += c
		}
	}
	return out
}
