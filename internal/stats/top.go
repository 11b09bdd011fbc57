package stats

import (
	"sort"

	"github.com/samber/lo"
)

// KeyErrorCount pairs a key with how often it was missed.
type KeyErrorCount struct {
	Key   string
	Count int
}

// TopKeyErrors returns the n most-missed keys. Ties are ordered by key.
func TopKeyErrors(keyErrors map[string]int, n int) []KeyErrorCount {
	if n <= 0 || len(keyErrors) == 0 {
		return nil
	}
	items := lo.MapToSlice(keyErrors, func(key string, count int) KeyErrorCount {
		return KeyErrorCount{Key: key, Count: count}
	})
	items = lo.Filter(items, func(item KeyErrorCount, _ int) bool {
		return item.Count > 0
	})
	sort.Slice(items, func(i, j int) bool {
		if items[i].Count == items[j].Count {
			return items[i].Key < items[j].Key
		}
		return items[i].Count > items[j].Count
	})
	if n > len(items) {
		n = len(items)
	}
	return items[:n]
}

// KeyLabel makes whitespace keys visible in tables.
func KeyLabel(key string) string {
	if key == " " {
		return "<space>"
	}
	return key
}
