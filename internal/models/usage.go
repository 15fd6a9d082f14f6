package models

// UsageRecord is the per (client IP, UTC day) request counter.
// At most one record exists per (IP, Date).
type UsageRecord struct {
	IP    string `db:"ip" json:"ip"`
	Date  string `db:"date" json:"date"` // YYYY-MM-DD, UTC
	Count int    `db:"count" json:"count"`
}

// Remaining returns how many requests the bucket still has under limit.
func (u UsageRecord) Remaining(limit int) int {
	if u.Count >= limit {
		return 0
	}
	return limit - u.Count
}
