package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"esign/internal/reconcile"
)

// Metrics holds the domain counters of the signature service.
// A nil *Metrics records nothing.
type Metrics struct {
	signs         *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

// NewMetrics creates the counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		signs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esign_sign_total",
				Help: "Total number of signing requests by result.",
			},
			[]string{"result"},
		),
		verifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "esign_verify_total",
				Help: "Total number of verifications by outcome and code.",
			},
			[]string{"outcome", "code"},
		),
	}
	for _, c := range []prometheus.Collector{m.signs, m.verifications} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) signed(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.signs.WithLabelValues(result).Inc()
}

func (m *Metrics) verified(res *reconcile.Result) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(string(res.Outcome), string(res.Code)).Inc()
}
