// Package feedback aggregates compiler, test and tool errors across an iteration.
// Errors are deduplicated by code; repeats increase an occurrence counter.
package feedback

import (
	"sort"

	"steer/internal/logging"
	"steer/internal/types"
)

// Aggregator deduplicates errors by code, preserving first-seen order.
// It is not safe for concurrent use; the owning Assembler serializes access.
type Aggregator struct {
	order   []string
	entries map[string]*types.ErrorContext
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		entries: make(map[string]*types.ErrorContext),
	}
}

// Add merges err into the aggregator. A known code increments the stored
// occurrence count; an unknown code is inserted with its own count (at least 1).
func (a *Aggregator) Add(err types.ErrorContext) {
	if existing, ok := a.entries[err.Code]; ok {
		existing.OccurrenceCount++
		if err.Severity > existing.Severity {
			existing.Severity = err.Severity
		}
		if existing.SuggestedFix == "" && err.SuggestedFix != "" {
			existing.SuggestedFix = err.SuggestedFix
		}
		if existing.File == "" && err.File != "" {
			existing.File, existing.Line = err.File, err.Line
		}
		logging.Get(logging.CategoryContext).Debug("error %s repeated (count=%d)", err.Code, existing.OccurrenceCount)
		return
	}

	if err.OccurrenceCount < 1 {
		err.OccurrenceCount = 1
	}
	entry := err
	a.entries[err.Code] = &entry
	a.order = append(a.order, err.Code)
	logging.Get(logging.CategoryContext).Debug("error %s recorded (%s)", err.Code, err.Severity)
}

// AddAll adds every error in order.
func (a *Aggregator) AddAll(errs []types.ErrorContext) {
	for _, e := range errs {
		a.Add(e)
	}
}

// Len returns the number of distinct codes.
func (a *Aggregator) Len() int {
	return len(a.order)
}

// Get returns the aggregated entry for code.
func (a *Aggregator) Get(code string) (types.ErrorContext, bool) {
	e, ok := a.entries[code]
	if !ok {
		return types.ErrorContext{}, false
	}
	return *e, true
}

// Reset drops every entry.
func (a *Aggregator) Reset() {
	a.order = nil
	a.entries = make(map[string]*types.ErrorContext)
}

// Errors returns the entries in first-seen order.
func (a *Aggregator) Errors() []types.ErrorContext {
	out := make([]types.ErrorContext, 0, len(a.order))
	for _, code := range a.order {
		out = append(out, *a.entries[code])
	}
	return out
}

// SortedByFrequency returns the entries ordered by occurrence count, highest
// first. Equal counts keep first-seen order.
func (a *Aggregator) SortedByFrequency() []types.ErrorContext {
	out := a.Errors()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].OccurrenceCount > out[j].OccurrenceCount
	})
	return out
}

// TopN returns at most n entries from SortedByFrequency. n <= 0 returns none.
func (a *Aggregator) TopN(n int) []types.ErrorContext {
	if n <= 0 {
		return nil
	}
	sorted := a.SortedByFrequency()
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// BySeverity returns entries at or above minSeverity, in first-seen order.
func (a *Aggregator) BySeverity(minSeverity types.ErrorSeverity) []types.ErrorContext {
	var out []types.ErrorContext
	for _, code := range a.order {
		if e := a.entries[code]; e.Severity >= minSeverity {
			out = append(out, *e)
		}
	}
	return out
}

// TotalOccurrences sums the occurrence counts of all entries.
func (a *Aggregator) TotalOccurrences() int {
	total := 0
	for _, e := range a.entries {
		total += e.OccurrenceCount
	}
	return total
}
