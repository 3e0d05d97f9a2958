package store

// dedupeByKey drops rows whose composite natural key was already seen in the
// same batch, keeping the first occurrence. Duplicates are dropped, never
// merged.
func dedupeByKey[T any](rows []T, key func(T) string) []T {
	seen := make(map[string]bool, len(rows))
	out := rows[:0:0]
	for _, r := range rows {
		k := key(r)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, r)
	}
	return out
}

// chunkRows splits rows into fixed-size batches for the storage layer.
func chunkRows[T any](rows []T, size int) [][]T {
	if size <= 0 || len(rows) == 0 {
		if len(rows) == 0 {
			return nil
		}
		return [][]T{rows}
	}
	var out [][]T
	for start := 0; start < len(rows); start += size {
		end := start + size
		if end > len(rows) {
			end = len(rows)
		}
		out = append(out, rows[start:end])
	}
	return out
}
