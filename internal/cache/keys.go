package cache

import "fmt"

// The working record set and its dashboard aggregates live under fixed
// keys: the newest upload batch replaces them wholesale.
const (
	RecordsKey      = "errors:records"
	SummaryKey      = "errors:summary"
	TypesKey        = "errors:types"
	UserActivityKey = "errors:users"
	TimelineKey     = "errors:timeline"
	CriticalKey     = "errors:critical"
)

// AggregateKeys lists every key replaced by an upload, for bulk deletes.
func AggregateKeys() []string {
	return []string{RecordsKey, SummaryKey, TypesKey, UserActivityKey, TimelineKey, CriticalKey}
}

func RateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:%s", clientIP)
}
