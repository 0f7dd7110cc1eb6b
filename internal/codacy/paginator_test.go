package codacy

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageThrough_AccumulatesAllPages(t *testing.T) {
	pages := [][]int{{1, 2, 3}, {4, 5}, {6}, {7, 8, 9, 10}}

	var cursors []string
	calls := 0
	fetch := func(_ context.Context, cursor string) ([]int, string, error) {
		cursors = append(cursors, cursor)
		page := pages[calls]
		calls++

		next := ""
		if calls < len(pages) {
			next = fmt.Sprintf("cursor-%d", calls)
		}
		return page, next, nil
	}

	items, err := PageThrough(context.Background(), fetch)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, items)
	assert.Equal(t, len(pages), calls)
	assert.Equal(t, []string{"", "cursor-1", "cursor-2", "cursor-3"}, cursors)
}

func TestPageThrough_SinglePage(t *testing.T) {
	calls := 0
	items, err := PageThrough(context.Background(), func(context.Context, string) ([]string, string, error) {
		calls++
		return []string{"only"}, "", nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"only"}, items)
	assert.Equal(t, 1, calls)
}

func TestPageThrough_EmptyResult(t *testing.T) {
	items, err := PageThrough(context.Background(), func(context.Context, string) ([]string, string, error) {
		return nil, "", nil
	})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestPageThrough_StopsOnError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	items, err := PageThrough(context.Background(), func(context.Context, string) ([]int, string, error) {
		calls++
		if calls == 2 {
			return nil, "", boom
		}
		return []int{calls}, "next", nil
	})

	assert.ErrorIs(t, err, boom)
	assert.Nil(t, items)
	assert.Equal(t, 2, calls)
}
