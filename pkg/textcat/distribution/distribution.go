package distribution

import (
	"github.com/cognicore/textcat/pkg/textcat/categories"
)

// Entry is the record count for one category.
type Entry struct {
	Label      string `json:"label"`
	CategoryID int    `json:"category_id"`
	Count      int    `json:"count"`
}

// Summary holds per-category counts in category id order.
type Summary struct {
	Entries []Entry `json:"entries"`
	Total   int     `json:"total"`
}

// Summarize counts labeled records per category. Every indexed label gets an
// entry, so the entries follow idx's id order.
func Summarize(labeled []categories.Labeled, idx *categories.Index) Summary {
	counts := make([]int, idx.Len())
	for _, l := range labeled {
		if l.CategoryID >= 0 && l.CategoryID < len(counts) {
			counts[l.CategoryID]++
		}
	}

	s := Summary{Entries: make([]Entry, idx.Len())}
	for id, label := range idx.Labels() {
		s.Entries[id] = Entry{Label: label, CategoryID: id, Count: counts[id]}
		s.Total += counts[id]
	}
	return s
}

// Counts returns label -> count.
func (s Summary) Counts() map[string]int {
	out := make(map[string]int, len(s.Entries))
	for _, e := range s.Entries {
		out[e.Label] = e.Count
	}
	return out
}

// Count returns the count for one label, 0 when absent.
func (s Summary) Count(label string) int {
	for _, e := range s.Entries {
		if e.Label == label {
			return e.Count
		}
	}
	return 0
}

// Max returns the largest count.
func (s Summary) Max() int {
	m := 0
	for _, e := range s.Entries {
		if e.Count > m {
			m = e.Count
		}
	}
	return m
}
