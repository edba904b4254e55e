package fastpath

import (
	"context"
)

// queryOne runs q with args and scans at most one row. It returns (nil, nil)
// on no rows — never sql.ErrNoRows — so callers can treat "not found" and
// "miss" identically.
func (s *Store) queryOne(ctx context.Context, q string, args ...any) (*row, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	r, err := scanRow(rows)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// queryMany runs q with args and scans every row into a map keyed by id.
func (s *Store) queryMany(ctx context.Context, q string, args ...any) (map[string]*row, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]*row)
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out[r.ID] = &r
	}
	return out, rows.Err()
}

// inPlaceholders builds "?,?,?" for len(ids) placeholders and the matching
// []any argument slice. Every id passed here has already been validated
// against the UUID regex by the caller, so this never assembles untrusted
// input into SQL text — placeholders are still used throughout because the
// database/sql binding makes that free.
func inPlaceholders(ids []string) (string, []any) {
	placeholders := make([]byte, 0, len(ids)*2)
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
		args[i] = id
	}
	return string(placeholders), args
}
