package bot

import (
	"sync/atomic"
	"time"
)

// Stats are process-wide diagnostics counters. They are read by /stats and
// the stats command and need no ordering between them.
type Stats struct {
	startedAt       time.Time
	messagesSeen    atomic.Int64
	responses       atomic.Int64
	quotaRejections atomic.Int64
	errors          atomic.Int64
	translations    atomic.Int64
}

func NewStats(startedAt time.Time) *Stats {
	return &Stats{startedAt: startedAt}
}

func (s *Stats) Uptime(now time.Time) time.Duration {
	return now.Sub(s.startedAt)
}

func (s *Stats) Errors() int64 {
	return s.errors.Load()
}

func (s *Stats) Snapshot(now time.Time) map[string]int64 {
	return map[string]int64{
		"messages_seen":    s.messagesSeen.Load(),
		"responses":        s.responses.Load(),
		"quota_rejections": s.quotaRejections.Load(),
		"errors":           s.errors.Load(),
		"translations":     s.translations.Load(),
		"uptime_seconds":   int64(s.Uptime(now).Seconds()),
	}
}
