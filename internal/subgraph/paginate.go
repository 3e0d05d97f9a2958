package subgraph

import "context"

// PageFunc requests one batch of rows: at most first rows starting at skip.
type PageFunc[T any] func(ctx context.Context, first, skip int) ([]T, error)

// FetchAll drains a paginated entity list up to limit rows. It never requests
// more rows than still needed, and stops as soon as a batch comes back shorter
// than requested, which signals end-of-data upstream. The offset advances by
// the number of rows actually returned, not by the requested batch size.
//
// No retry or backoff happens here; a failed page propagates to the caller,
// which decides whether to degrade or fail.
func FetchAll[T any](ctx context.Context, page PageFunc[T], limit, batchSize int) ([]T, error) {
	if limit <= 0 {
		return nil, nil
	}
	if batchSize <= 0 {
		batchSize = 1000
	}

	var out []T
	skip := 0
	for len(out) < limit {
		first := batchSize
		if remaining := limit - len(out); remaining < first {
			first = remaining
		}

		rows, err := page(ctx, first, skip)
		if err != nil {
			return nil, err
		}

		out = append(out, rows...)
		skip += len(rows)

		if len(rows) < first {
			break
		}
	}
	return out, nil
}
