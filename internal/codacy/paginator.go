package codacy

import "context"

// DefaultPageSize is the number of items requested per page
const DefaultPageSize = 100

// PageFunc fetches one page starting at cursor and returns its items and the next cursor.
// An empty next cursor marks the last page.
type PageFunc[T any] func(ctx context.Context, cursor string) (items []T, next string, err error)

// PageThrough calls fetch until it returns an empty cursor and accumulates every item in order.
// There is no page limit: an API that never returns an empty cursor loops forever.
func PageThrough[T any](ctx context.Context, fetch PageFunc[T]) ([]T, error) {
	var all []T
	cursor := ""
	for {
		items, next, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)

		if next == "" {
			return all, nil
		}
		cursor = next
	}
}
