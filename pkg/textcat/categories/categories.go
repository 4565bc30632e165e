// Package categories assigns dense integer ids to category labels.
//
// Ids follow first-occurrence order over the records as given: the first
// label seen gets 0, the next new label 1, and so on. Neither alphabetical
// nor frequency order is used, so ids are reproducible from row order alone.
package categories

import (
	"fmt"

	"github.com/cognicore/textcat/pkg/textcat/internalerr"
	"github.com/cognicore/textcat/pkg/textcat/records"
)

// Index is a bijection between labels and ids 0..Len()-1.
// It is read-only once built.
type Index struct {
	labels []string       // id -> label
	ids    map[string]int // label -> id
}

// Labeled is a record carrying its resolved category id.
type Labeled struct {
	records.Record
	CategoryID int
}

// Build scans recs in order and assigns each new label the next id.
func Build(recs []records.Record) *Index {
	idx := &Index{ids: make(map[string]int)}
	for _, r := range recs {
		if _, ok := idx.ids[r.Label]; ok {
			continue
		}
		idx.ids[r.Label] = len(idx.labels)
		idx.labels = append(idx.labels, r.Label)
	}
	return idx
}

// Assign attaches ids from idx to every record.
func Assign(recs []records.Record, idx *Index) ([]Labeled, error) {
	out := make([]Labeled, len(recs))
	for i, r := range recs {
		id, ok := idx.ID(r.Label)
		if !ok {
			return nil, fmt.Errorf("%w: label %q at row %d is not indexed", internalerr.ErrInvalidInput, r.Label, i)
		}
		out[i] = Labeled{Record: r, CategoryID: id}
	}
	return out, nil
}

// Factorize builds the index and the id-augmented view in one pass.
func Factorize(recs []records.Record) (*Index, []Labeled) {
	idx := Build(recs)
	out := make([]Labeled, len(recs))
	for i, r := range recs {
		out[i] = Labeled{Record: r, CategoryID: idx.ids[r.Label]}
	}
	return idx, out
}

// ID returns the id for a label.
func (x *Index) ID(label string) (int, bool) {
	id, ok := x.ids[label]
	return id, ok
}

// Label returns the label for an id.
func (x *Index) Label(id int) (string, bool) {
	if id < 0 || id >= len(x.labels) {
		return "", false
	}
	return x.labels[id], true
}

// Len returns the number of distinct labels.
func (x *Index) Len() int {
	return len(x.labels)
}

// Labels returns the labels in id order.
func (x *Index) Labels() []string {
	out := make([]string, len(x.labels))
	copy(out, x.labels)
	return out
}

// CategoryToID returns a copy of the label -> id mapping.
func (x *Index) CategoryToID() map[string]int {
	out := make(map[string]int, len(x.ids))
	for k, v := range x.ids {
		out[k] = v
	}
	return out
}

// IDToCategory returns a copy of the id -> label mapping.
func (x *Index) IDToCategory() map[int]string {
	out := make(map[int]string, len(x.labels))
	for id, label := range x.labels {
		out[id] = label
	}
	return out
}

// IDs returns the category id of every labeled record, in order.
func IDs(labeled []Labeled) []int {
	out := make([]int, len(labeled))
	for i, l := range labeled {
		out[i] = l.CategoryID
	}
	return out
}
