// Package metrics registers the prometheus instrumentation for the
// encryption and sync pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics bundles the counters the services report into. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	EnvelopesEncrypted prometheus.Counter
	EnvelopesDecrypted prometheus.Counter
	SyncEvents         *prometheus.CounterVec
	Reencryptions      *prometheus.CounterVec
}

// New registers the counters on the given registerer (use
// prometheus.DefaultRegisterer in production).
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EnvelopesEncrypted: f.NewCounter(prometheus.CounterOpts{
			Name: "sealchat_envelopes_encrypted_total",
			Help: "Envelopes produced for recipient devices.",
		}),
		EnvelopesDecrypted: f.NewCounter(prometheus.CounterOpts{
			Name: "sealchat_envelopes_decrypted_total",
			Help: "Envelopes decrypted for the local device.",
		}),
		SyncEvents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sealchat_sync_events_total",
			Help: "Realtime events applied to the message store.",
		}, []string{"type"}),
		Reencryptions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "sealchat_reencryption_messages_total",
			Help: "Historical messages processed by re-encryption.",
		}, []string{"result"}),
	}
}

// AddEncrypted records n envelopes encrypted.
func (m *Metrics) AddEncrypted(n int) {
	if m != nil {
		m.EnvelopesEncrypted.Add(float64(n))
	}
}

// IncDecrypted records one envelope decrypted.
func (m *Metrics) IncDecrypted() {
	if m != nil {
		m.EnvelopesDecrypted.Inc()
	}
}

// IncSyncEvent records one applied realtime event.
func (m *Metrics) IncSyncEvent(typ string) {
	if m != nil {
		m.SyncEvents.WithLabelValues(typ).Inc()
	}
}

// IncReencryption records one re-encrypted (or skipped) history message.
func (m *Metrics) IncReencryption(result string) {
	if m != nil {
		m.Reencryptions.WithLabelValues(result).Inc()
	}
}
