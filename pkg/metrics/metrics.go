package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "authkit"

// Metrics holds the Prometheus collectors for authentication and access
// control. A nil *Metrics is valid and records nothing.
type Metrics struct {
	LoginsTotal         *prometheus.CounterVec
	RegistrationsTotal  *prometheus.CounterVec
	ResolvesTotal       *prometheus.CounterVec
	RenewalsTotal       *prometheus.CounterVec
	BreachPurgesTotal   prometheus.Counter
	LogoutsTotal        prometheus.Counter
	ACLMemoHitsTotal    prometheus.Counter
	ACLMemoMissesTotal  prometheus.Counter
	ACLInvalidations    prometheus.Counter
	ACLDecisionsTotal   *prometheus.CounterVec
	ResolveCacheHits    prometheus.Counter
	ResolveCacheMisses  prometheus.Counter
	MailDispatchedTotal *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil registerer
// leaves them unregistered, which is convenient in tests.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by outcome.",
		}, []string{"outcome"}),
		RegistrationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration attempts by outcome.",
		}, []string{"outcome"}),
		ResolvesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_resolves_total",
			Help:      "Bearer token resolutions by outcome.",
		}, []string{"outcome"}),
		RenewalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_renewals_total",
			Help:      "Token renewals by outcome.",
		}, []string{"outcome"}),
		BreachPurgesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breach_purges_total",
			Help:      "Session purges triggered by stale token reuse.",
		}),
		LogoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Completed logouts.",
		}),
		ACLMemoHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acl",
			Name:      "memo_hits_total",
			Help:      "Effective permission lookups served from memo.",
		}),
		ACLMemoMissesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acl",
			Name:      "memo_misses_total",
			Help:      "Effective permission lookups that hit the repository.",
		}),
		ACLInvalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acl",
			Name:      "invalidations_total",
			Help:      "Memo invalidations.",
		}),
		ACLDecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "acl",
			Name:      "decisions_total",
			Help:      "Authorization decisions by result.",
		}, []string{"result"}),
		ResolveCacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_cache_hits_total",
			Help:      "Token resolutions served from cache.",
		}),
		ResolveCacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolve_cache_misses_total",
			Help:      "Token resolutions computed from storage.",
		}),
		MailDispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mail_dispatched_total",
			Help:      "Asynchronous mail deliveries by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.LoginsTotal,
			m.RegistrationsTotal,
			m.ResolvesTotal,
			m.RenewalsTotal,
			m.BreachPurgesTotal,
			m.LogoutsTotal,
			m.ACLMemoHitsTotal,
			m.ACLMemoMissesTotal,
			m.ACLInvalidations,
			m.ACLDecisionsTotal,
			m.ResolveCacheHits,
			m.ResolveCacheMisses,
			m.MailDispatchedTotal,
		)
	}
	return m
}

func (m *Metrics) Login(outcome string) {
	if m != nil {
		m.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Registration(outcome string) {
	if m != nil {
		m.RegistrationsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Resolve(outcome string) {
	if m != nil {
		m.ResolvesTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) Renewal(outcome string) {
	if m != nil {
		m.RenewalsTotal.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) BreachPurge() {
	if m != nil {
		m.BreachPurgesTotal.Inc()
	}
}

func (m *Metrics) Logout() {
	if m != nil {
		m.LogoutsTotal.Inc()
	}
}

// ACLMemo records a memo lookup.
func (m *Metrics) ACLMemo(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.ACLMemoHitsTotal.Inc()
		return
	}
	m.ACLMemoMissesTotal.Inc()
}

func (m *Metrics) ACLInvalidation() {
	if m != nil {
		m.ACLInvalidations.Inc()
	}
}

// ACLDecision records an authorization outcome.
func (m *Metrics) ACLDecision(allowed bool) {
	if m == nil {
		return
	}
	result := "denied"
	if allowed {
		result = "allowed"
	}
	m.ACLDecisionsTotal.WithLabelValues(result).Inc()
}

// ResolveCache records a resolve cache lookup.
func (m *Metrics) ResolveCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.ResolveCacheHits.Inc()
		return
	}
	m.ResolveCacheMisses.Inc()
}

func (m *Metrics) MailDispatched(outcome string) {
	if m != nil {
		m.MailDispatchedTotal.WithLabelValues(outcome).Inc()
	}
}
