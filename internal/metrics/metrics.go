package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Redirects = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "redirect_requests_total",
		Help: "Total redirect resolutions served.",
	})
	Creates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "create_requests_total",
		Help: "Total short links created.",
	})
	Updates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "update_requests_total",
		Help: "Total successful destination updates.",
	})
	SlugCollisions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slug_collisions_total",
		Help: "Slug unique-constraint collisions during create.",
	})
	ClickWriteFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "click_write_failures_total",
		Help: "Click increments that failed to persist.",
	})
)

func init() {
	prometheus.MustRegister(Redirects, Creates, Updates, SlugCollisions, ClickWriteFailures)
}

func Handler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
