// Package batch holds the outcome of an indexing run.
package batch

import "fmt"

// Failure is one item the indexing path could not write.
type Failure struct {
	ID    string
	Batch int // 1-based batch number, 0 when rejected before batching
	Err   error
}

func (f Failure) Error() string {
	if f.Batch == 0 {
		return fmt.Sprintf("item %q: %v", f.ID, f.Err)
	}
	return fmt.Sprintf("batch %d: item %q: %v", f.Batch, f.ID, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report counts indexing outcomes. Upserted + Errors == Total once a run completes.
type Report struct {
	Upserted int       `json:"upserted"`
	Errors   int       `json:"errors"`
	Total    int       `json:"total"`
	Failures []Failure `json:"-"`
}

// Upsert records n written items.
func (r *Report) Upsert(n int) { r.Upserted += n }

// Fail records one failed item.
func (r *Report) Fail(id string, batchNo int, err error) {
	r.Errors++
	r.Failures = append(r.Failures, Failure{ID: id, Batch: batchNo, Err: err})
}

// Add folds o into r.
func (r *Report) Add(o Report) {
	r.Upserted += o.Upserted
	r.Errors += o.Errors
	r.Total += o.Total
	r.Failures = append(r.Failures, o.Failures...)
}

// Complete reports whether every item was accounted for.
func (r Report) Complete() bool { return r.Upserted+r.Errors == r.Total }
