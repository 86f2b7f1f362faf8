package pipeline

import (
	"sort"

	"github.com/slacktail/slacktail/internal/domain/entity"
)

// SortByTimestamp returns a new slice ordered oldest first. Messages sort
// by wall time when present, otherwise by a best-effort parse of the raw
// platform timestamp; unparseable timestamps sort to the front. The input
// slice is never modified and ties keep their input order.
func SortByTimestamp(msgs []entity.Message) []entity.Message {
	sorted := make([]entity.Message, len(msgs))
	copy(sorted, msgs)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortTime().Before(sorted[j].SortTime())
	})

	return sorted
}
