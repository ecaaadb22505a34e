package metrics

import "github.com/prometheus/client_golang/prometheus"

// Prometheus holds the collectors of an evaluation run.
type Prometheus struct {
	Images   *prometheus.CounterVec
	Accuracy *prometheus.GaugeVec
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Images: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "wndchrm",
				Name:      "classified_images_total",
				Help:      "number of classified test images",
			}, []string{"method", "outcome"}),
		Accuracy: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "wndchrm",
				Name:      "accuracy",
				Help:      "accuracy of the last evaluated split",
			}, []string{"method"}),
	}
}
