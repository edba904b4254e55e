// Package cachekey builds the deterministic cache-fingerprint described in
// §4.1: a stable string derived from an operation descriptor and an
// arbitrary parameter tree, canonicalized so that key order never affects
// the result.
package cachekey

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/notionmux/notionmux/internal/mcptypes"
)

// ErrCircular is returned when the parameter tree contains a reference
// cycle reachable through maps, slices, or pointers.
var ErrCircular = errors.New("cachekey: circular structure")

// Build produces "openapi-cache:v1:<METHOD>:<PATH>:<OP_ID|->:<hex-sha256>".
func Build(op mcptypes.Operation, params any) (string, error) {
	canon, err := canonicalize(params, newVisitSet())
	if err != nil {
		return "", err
	}

	opID := op.OperationID
	if opID == "" {
		opID = "-"
	}

	envelope := map[string]any{
		"operation": map[string]any{
			"method":       strings.ToUpper(op.Method),
			"path":         op.Path,
			"operation_id": nullableString(op.OperationID),
		},
		"params": rawCanon(canon),
	}
	envCanon, err := canonicalize(envelope, newVisitSet())
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(envCanon)
	return fmt.Sprintf("openapi-cache:v1:%s:%s:%s:%s",
		strings.ToUpper(op.Method), op.Path, opID, hex.EncodeToString(sum[:])), nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// rawCanon lets an already-canonicalized byte string be embedded verbatim
// inside a further canonicalization pass instead of being re-walked.
type rawCanon []byte

func (r rawCanon) MarshalJSON() ([]byte, error) { return []byte(r), nil }

type visitSet struct {
	seen  map[uintptr]struct{}
	depth int
}

func newVisitSet() *visitSet { return &visitSet{seen: make(map[uintptr]struct{})} }

const maxDepth = 256

// canonicalize walks v and returns its canonical JSON encoding: object keys
// sorted byte-wise, arrays in original order, functions/undefined dropped
// from objects and nulled inside arrays, toJSON-like hooks (json.Marshaler)
// honored and re-serialized: values such as time.Time and *big.Int are
// canonicalized from their MarshalJSON output.
func canonicalize(v any, vs *visitSet) ([]byte, error) {
	vs.depth++
	defer func() { vs.depth-- }()
	if vs.depth > maxDepth {
		return nil, ErrCircular
	}

	if v == nil {
		return []byte("null"), nil
	}

	if raw, ok := v.(rawCanon); ok {
		return []byte(raw), nil
	}

	if m, ok := v.(json.Marshaler); ok {
		data, err := m.MarshalJSON()
		if err != nil {
			return nil, err
		}
		var reparsed any
		if err := json.Unmarshal(data, &reparsed); err != nil {
			return nil, err
		}
		return canonicalize(reparsed, vs)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		return canonicalizeMap(rv, vs)
	case reflect.Slice, reflect.Array:
		return canonicalizeSlice(rv, vs)
	case reflect.Ptr, reflect.Interface:
		if rv.IsNil() {
			return []byte("null"), nil
		}
		return canonicalize(rv.Elem().Interface(), vs)
	case reflect.Struct:
		return canonicalizeStruct(v, vs)
	case reflect.String:
		return json.Marshal(rv.String())
	case reflect.Bool:
		return json.Marshal(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return []byte(strconv.FormatInt(rv.Int(), 10)), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return []byte(strconv.FormatUint(rv.Uint(), 10)), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if isNonFinite(f) {
			return nil, fmt.Errorf("cachekey: non-finite number %v is not representable", f)
		}
		return json.Marshal(f)
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		// functions/undefined-like values are dropped by the caller when
		// inside an object; standalone at the root they canonicalize to null.
		return []byte("null"), nil
	default:
		return json.Marshal(v)
	}
}

func isNonFinite(f float64) bool {
	return f != f || f > 1.7976931348623157e+308 || f < -1.7976931348623157e+308
}

func canonicalizeMap(rv reflect.Value, vs *visitSet) ([]byte, error) {
	if rv.Len() > 0 {
		ptr := rv.Pointer()
		if _, ok := vs.seen[ptr]; ok {
			return nil, ErrCircular
		}
		vs.seen[ptr] = struct{}{}
		defer delete(vs.seen, ptr)
	}

	keys := rv.MapKeys()
	names := make([]string, 0, len(keys))
	byName := make(map[string]reflect.Value, len(keys))
	for _, k := range keys {
		name := fmt.Sprintf("%v", k.Interface())
		names = append(names, name)
		byName[name] = rv.MapIndex(k)
	}
	sort.Strings(names)

	var buf strings.Builder
	buf.WriteByte('{')
	wrote := 0
	for _, name := range names {
		val := byName[name].Interface()
		if isDroppable(val) {
			continue
		}
		encoded, err := canonicalize(val, vs)
		if err != nil {
			return nil, err
		}
		if wrote > 0 {
			buf.WriteByte(',')
		}
		keyJSON, _ := json.Marshal(name)
		buf.Write(keyJSON)
		buf.WriteByte(':')
		buf.Write(encoded)
		wrote++
	}
	buf.WriteByte('}')
	return []byte(buf.String()), nil
}

func canonicalizeSlice(rv reflect.Value, vs *visitSet) ([]byte, error) {
	if rv.Kind() == reflect.Slice && rv.Len() > 0 {
		ptr := rv.Pointer()
		if _, ok := vs.seen[ptr]; ok {
			return nil, ErrCircular
		}
		vs.seen[ptr] = struct{}{}
		defer delete(vs.seen, ptr)
	}

	var buf strings.Builder
	buf.WriteByte('[')
	for i := 0; i < rv.Len(); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		item := rv.Index(i).Interface()
		if isDroppable(item) {
			buf.WriteString("null")
			continue
		}
		encoded, err := canonicalize(item, vs)
		if err != nil {
			return nil, err
		}
		buf.Write(encoded)
	}
	buf.WriteByte(']')
	return []byte(buf.String()), nil
}

func canonicalizeStruct(v any, vs *visitSet) ([]byte, error) {
	// Round-trip through encoding/json so struct tags are honored, then
	// canonicalize the resulting generic tree for key ordering.
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, err
	}
	return canonicalize(generic, vs)
}

func isDroppable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	default:
		return false
	}
}
