package localbackend

import (
	"context"

	"github.com/getkin/kin-openapi/openapi3"
)

// LoadOperations parses an OpenAPI 3 document and flattens every path
// item's operations into OperationEntry values plus the full set of
// operation ids it saw. It is a thin conversion step, not a validator: a
// document that fails openapi3's own validation still yields whatever
// operations were structurally parseable.
func LoadOperations(docPath string) ([]OperationEntry, map[string]bool, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(docPath)
	if err != nil {
		return nil, nil, err
	}
	_ = doc.Validate(context.Background()) // best-effort; a strict failure here shouldn't block startup

	var ops []OperationEntry
	allIDs := make(map[string]bool)

	for path, item := range doc.Paths.Map() {
		for method, op := range item.Operations() {
			if op.OperationID == "" {
				continue
			}
			allIDs[op.OperationID] = true
			ops = append(ops, OperationEntry{
				OperationID: op.OperationID,
				Method:      method,
				Path:        path,
				ToolName:    op.OperationID,
				Description: op.Summary,
				InputSchema: schemaFromParameters(op),
			})
		}
	}
	return ops, allIDs, nil
}

// DefaultReadOnlyAllowlist derives the read-only allowlist straight from
// the parsed operations: every GET operation is safe to serve from the
// local fast path and the response cache; anything else must go through
// the official backend.
func DefaultReadOnlyAllowlist(ops []OperationEntry) map[string]string {
	allowlist := make(map[string]string)
	for _, op := range ops {
		if op.Method == "GET" {
			allowlist[op.OperationID] = op.Method
		}
	}
	return allowlist
}

// schemaFromParameters builds a minimal JSON-schema-shaped input schema
// from an operation's declared parameters, enough for tool discovery to
// advertise argument names without needing the full request-body schema.
func schemaFromParameters(op *openapi3.Operation) map[string]any {
	properties := map[string]any{}
	var required []string
	for _, paramRef := range op.Parameters {
		if paramRef.Value == nil {
			continue
		}
		p := paramRef.Value
		properties[p.Name] = map[string]any{"type": "string", "description": p.Description}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	if len(properties) == 0 {
		return nil
	}
	return map[string]any{"type": "object", "properties": properties, "required": required}
}
