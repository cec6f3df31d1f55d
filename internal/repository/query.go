package repository

import "strings"

// inClause expands ids into "?,?,?" placeholders and matching args for an
// IN (...) filter.  Callers must not pass an empty slice.
func inClause(ids []uint64) (string, []interface{}) {
    args := make([]interface{}, len(ids))
    for i, id := range ids {
        args[i] = id
    }
    return strings.TrimSuffix(strings.Repeat("?,", len(ids)), ","), args
}

// uniqueIDs drops zeros and duplicates while keeping first-seen order.
func uniqueIDs(ids []uint64) []uint64 {
    out := make([]uint64, 0, len(ids))
    seen := make(map[uint64]struct{}, len(ids))
    for _, id := range ids {
        if id == 0 {
            continue
        }
        if _, ok := seen[id]; ok {
            continue
        }
        seen[id] = struct{}{}
        out = append(out, id)
    }
    return out
}
