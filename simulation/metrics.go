package simulation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are registered per simulation so that several can live in one process.
type Metrics struct {
	AssemblyPasses   prometheus.Counter
	VolumesAssembled prometheus.Counter
	FacesAssembled   prometheus.Counter
	AssemblyDuration prometheus.Histogram
	// Adaptations is labelled by adapt type: h_refine, h_coarse, p_refine, p_coarse.
	Adaptations *prometheus.CounterVec
	AdaptErrors prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AssemblyPasses: factory.NewCounter(prometheus.CounterOpts{
			Name: "godpg_assembly_passes_total",
			Help: "Residual and Jacobian assembly passes",
		}),
		VolumesAssembled: factory.NewCounter(prometheus.CounterOpts{
			Name: "godpg_volumes_assembled_total",
			Help: "Volume contributions computed",
		}),
		FacesAssembled: factory.NewCounter(prometheus.CounterOpts{
			Name: "godpg_faces_assembled_total",
			Help: "Face contributions computed",
		}),
		AssemblyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "godpg_assembly_duration_seconds",
			Help:    "Assembly pass duration",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1, 10},
		}),
		Adaptations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "godpg_adaptations_total",
			Help: "Element transitions by adapt type",
		}, []string{"type"}),
		AdaptErrors: factory.NewCounter(prometheus.CounterOpts{
			Name: "godpg_adapt_errors_total",
			Help: "Element transitions rejected during adaptation",
		}),
	}
}
