// Package metrics keeps cheap process-local request counters, exposed on
// the ops endpoint as a JSON snapshot. Counters are atomics, so recording
// from concurrent handlers needs no lock.
package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   atomic.Uint64
	clientErrors    atomic.Uint64
	serverErrors    atomic.Uint64
	rateLimited     atomic.Uint64
	totalDurationMs atomic.Uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	c.totalRequests.Add(1)
	switch {
	case status == 429:
		c.rateLimited.Add(1)
	case status >= 500:
		c.serverErrors.Add(1)
	case status >= 400:
		c.clientErrors.Add(1)
	}
	c.totalDurationMs.Add(uint64(duration.Milliseconds()))
}

type Snapshot struct {
	RequestsTotal    uint64  `json:"requestsTotal"`
	ClientErrors     uint64  `json:"clientErrorsTotal"`
	ServerErrors     uint64  `json:"serverErrorsTotal"`
	RateLimitedTotal uint64  `json:"rateLimitedTotal"`
	AvgDurationMs    float64 `json:"avgDurationMs"`
}

func (c *Collector) Snapshot() Snapshot {
	snap := Snapshot{
		RequestsTotal:    c.totalRequests.Load(),
		ClientErrors:     c.clientErrors.Load(),
		ServerErrors:     c.serverErrors.Load(),
		RateLimitedTotal: c.rateLimited.Load(),
	}
	if snap.RequestsTotal > 0 {
		snap.AvgDurationMs = float64(c.totalDurationMs.Load()) / float64(snap.RequestsTotal)
	}
	return snap
}
