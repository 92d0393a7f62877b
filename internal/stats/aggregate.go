package stats

import (
	"sort"

	"mogtools/internal/metadb"
)

// StateCount is one state bucket in display order.
type StateCount struct {
	State State `json:"state"`
	Count int64 `json:"count"`
}

// StateCounts sums row counts per state.
type StateCounts map[State]int64

// Add accumulates count into the bucket for state.
func (c StateCounts) Add(state State, count int64) {
	c[state] += count
}

// Total returns the sum across all states.
func (c StateCounts) Total() int64 {
	var total int64
	for _, count := range c {
		total += count
	}
	return total
}

// Ordered returns the non-empty buckets in canonical state order.
func (c StateCounts) Ordered() []StateCount {
	out := make([]StateCount, 0, len(c))
	for _, state := range stateOrder {
		if count, ok := c[state]; ok {
			out = append(out, StateCount{State: state, Count: count})
		}
	}
	return out
}

// QueueStateCounts groups state counts by queue name.
type QueueStateCounts map[string]StateCounts

// Add accumulates count into queue/state.
func (q QueueStateCounts) Add(queue string, state State, count int64) {
	bucket, ok := q[queue]
	if !ok {
		bucket = make(StateCounts)
		q[queue] = bucket
	}
	bucket.Add(state, count)
}

// Queues returns the queue names in sorted order.
func (q QueueStateCounts) Queues() []string {
	names := make([]string, 0, len(q))
	for name := range q {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AggregateQueue classifies every row and sums counts per state. The queue
// type column is ignored.
func AggregateQueue(rows []metadb.QueueRow, now int64, classify Classifier) StateCounts {
	counts := make(StateCounts)
	for _, row := range rows {
		counts.Add(classify(row.NextTry, now), row.Count)
	}
	return counts
}

// AggregateGeneralQueue classifies rows of the multiplexed queue table and
// groups the result by queue name, then state.
func AggregateGeneralQueue(rows []metadb.QueueRow, now int64) QueueStateCounts {
	counts := make(QueueStateCounts)
	for _, row := range rows {
		counts.Add(QueueName(row.Type), Classify(row.NextTry, now), row.Count)
	}
	return counts
}
