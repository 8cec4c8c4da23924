package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	SignInSuccess = "success"
	SignInFailure = "failure"
)

// DomainMetrics counts tenant provisioning, sign-ins and refused deletes.
type DomainMetrics struct {
	provisioned prometheus.Counter
	signins     *prometheus.CounterVec
	rejections  *prometheus.CounterVec
}

// NewDomainMetrics registers the domain metrics on the provided registerer.
func NewDomainMetrics(reg prometheus.Registerer) *DomainMetrics {
	if reg == nil {
		return &DomainMetrics{}
	}
	provisioned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tenants_provisioned_total",
		Help: "Stores created on first sign-in.",
	})
	signins := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "signins_total",
		Help: "Completed sign-in attempts by result.",
	}, []string{"result"})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "integrity_rejections_total",
		Help: "Deletes refused because dependents still exist.",
	}, []string{"entity"})
	reg.MustRegister(provisioned, signins, rejections)
	return &DomainMetrics{
		provisioned: provisioned,
		signins:     signins,
		rejections:  rejections,
	}
}

func (d *DomainMetrics) IncTenantProvisioned() {
	if d == nil || d.provisioned == nil {
		return
	}
	d.provisioned.Inc()
}

func (d *DomainMetrics) IncSignIn(result string) {
	if d == nil || d.signins == nil {
		return
	}
	d.signins.WithLabelValues(normalizeLabel(result)).Inc()
}

func (d *DomainMetrics) IncIntegrityRejection(entity string) {
	if d == nil || d.rejections == nil {
		return
	}
	d.rejections.WithLabelValues(normalizeLabel(entity)).Inc()
}
