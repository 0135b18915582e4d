package types

import "sync/atomic"

// ImportStats accounts processed and failed records across batch and
// fallback attempts. Counters are atomic so a future concurrent importer
// can share one instance without extra locking.
type ImportStats struct {
	processed atomic.Int64
	failed    atomic.Int64
}

func (s *ImportStats) Processed() int64 { return s.processed.Load() }
func (s *ImportStats) Failed() int64    { return s.failed.Load() }
func (s *ImportStats) Total() int64     { return s.processed.Load() + s.failed.Load() }

func (s *ImportStats) AddProcessed(n int64) { s.processed.Add(n) }
func (s *ImportStats) AddFailed(n int64)    { s.failed.Add(n) }
