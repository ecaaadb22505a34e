package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	Accurate   = "accurate"
	Inaccurate = "inaccurate"
)

var Observer = &Metrics{
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(Observer.prometheus.Images, Observer.prometheus.Accuracy)
}

// Metrics exposes the evaluation collectors.
type Metrics struct {
	prometheus Prometheus
}

// Classified counts one classified image for the method.
func (m *Metrics) Classified(method string, accurate bool) {
	outcome := Inaccurate
	if accurate {
		outcome = Accurate
	}
	m.prometheus.Images.WithLabelValues(method, outcome).Inc()
}

// Accuracy records the accuracy of the last split evaluated with the method.
func (m *Metrics) Accuracy(method string, accuracy float64) {
	m.prometheus.Accuracy.WithLabelValues(method).Set(accuracy)
}

// Handler returns the http handler serving the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
