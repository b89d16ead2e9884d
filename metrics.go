package authledger

import "sync/atomic"

// MetricID names one engine counter.
type MetricID uint16

const (
	// MetricRegisterSuccess counts created users.
	MetricRegisterSuccess MetricID = iota
	// MetricRegisterDuplicate counts duplicate-email rejections.
	MetricRegisterDuplicate
	// MetricLoginSuccess counts successful password logins.
	MetricLoginSuccess
	// MetricLoginFailure counts unknown-email and wrong-password logins.
	MetricLoginFailure
	// MetricLoginRateLimited counts throttled login attempts.
	MetricLoginRateLimited
	// MetricRefreshSuccess counts successful token rotations.
	MetricRefreshSuccess
	// MetricRefreshFailure counts expired/malformed refresh tokens.
	MetricRefreshFailure
	// MetricRefreshReuseDetected counts replayed refresh tokens (each
	// one triggers a ledger-wide revocation).
	MetricRefreshReuseDetected
	// MetricRefreshRateLimited counts throttled refresh attempts.
	MetricRefreshRateLimited
	// MetricLogout counts logout calls.
	MetricLogout
	// MetricFederatedLoginSuccess counts successful federated logins.
	MetricFederatedLoginSuccess
	// MetricFederatedLoginFailure counts failed credential verifications.
	MetricFederatedLoginFailure
	// MetricUserProvisioned counts users auto-created by federated login.
	MetricUserProvisioned
	// MetricValidateRejected counts access tokens rejected by Validate.
	MetricValidateRejected
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is the engine's in-process counter set. All methods are safe
// for concurrent use and are no-ops on a nil or disabled receiver.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates the counter set.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc adds one to the counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{
		Counters: make(map[MetricID]uint64, int(metricIDCount)),
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
