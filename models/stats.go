package models

// StatusBuckets is the pending/completed split used by dashboard aggregates.
// Statuses the registry does not know are counted only in Unclassified.
type StatusBuckets struct {
	Total        int64            `json:"total"`
	Pending      int64            `json:"pending"`
	Completed    int64            `json:"completed"`
	Unclassified int64            `json:"unclassified"`
	ByStatus     map[string]int64 `json:"byStatus"`
}

// BucketStatusCounts folds per-status counts into buckets.
func BucketStatusCounts(counts map[string]int64) StatusBuckets {
	b := StatusBuckets{ByStatus: make(map[string]int64, len(counts))}
	for status, n := range counts {
		b.ByStatus[status] += n
		b.Total += n
		switch {
		case IsPendingStatus(status):
			b.Pending += n
		case IsCompletedStatus(status):
			b.Completed += n
		default:
			b.Unclassified += n
		}
	}
	return b
}

// BucketStatuses counts a list of raw status values.
func BucketStatuses(statuses []string) StatusBuckets {
	counts := make(map[string]int64)
	for _, s := range statuses {
		counts[s]++
	}
	return BucketStatusCounts(counts)
}
