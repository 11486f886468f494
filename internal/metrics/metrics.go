package metrics

import (
	"sync"
	"time"
)

type sourceStats struct {
	calls           int
	errors          int
	lastCallLatency time.Duration
}

type notificationKey struct {
	kind    string
	outcome string
}

// Recorder captures lightweight, in-memory metrics about fetches, cycles and deliveries,
// forwarding to OpenTelemetry instruments when they are configured.
type Recorder struct {
	mu            sync.Mutex
	sources       map[string]*sourceStats
	notifications map[notificationKey]int
	removals      map[string]int
	cycles        int
	cycleErrors   int
	otel          *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		sources:       make(map[string]*sourceStats),
		notifications: make(map[notificationKey]int),
		removals:      make(map[string]int),
		otel:          otel,
	}
}

// RecordFetchAttempt increments counters for a leaderboard fetch and stores the last observed latency.
func (r *Recorder) RecordFetchAttempt(source string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	stats, ok := r.sources[source]
	if !ok {
		stats = &sourceStats{}
		r.sources[source] = stats
	}
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordFetchAttempt(source, duration, err)
	}
}

// RecordCycle tracks engine cycles; err marks a cycle whose fetch failed.
func (r *Recorder) RecordCycle(duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.cycles++
	if err != nil {
		r.cycleErrors++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordCycle(duration, err)
	}
}

// RecordNotification counts one notification outcome for the given event kind.
func (r *Recorder) RecordNotification(kind, outcome string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.notifications[notificationKey{kind: kind, outcome: outcome}]++
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordNotification(kind, outcome)
	}
}

// RecordSubscriberRemoval counts subscribers dropped after a permanent delivery failure.
func (r *Recorder) RecordSubscriberRemoval(platform string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.removals[platform]++
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordRemoval(platform)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// Snapshot is a copy of the current stats for a fetch source.
type Snapshot struct {
	Calls           int
	Errors          int
	LastCallLatency time.Duration
}

// Snapshot returns a copy of the stats recorded for source.
func (r *Recorder) Snapshot(source string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.sources[source]
	if !ok {
		return Snapshot{}
	}
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		LastCallLatency: stats.lastCallLatency,
	}
}

// Notifications returns how many notifications of kind ended with outcome.
func (r *Recorder) Notifications(kind, outcome string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notifications[notificationKey{kind: kind, outcome: outcome}]
}

// Removals returns the number of subscribers removed for platform.
func (r *Recorder) Removals(platform string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.removals[platform]
}

// Cycles returns total and failed cycle counts.
func (r *Recorder) Cycles() (total, failed int) {
	if r == nil {
		return 0, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycles, r.cycleErrors
}
