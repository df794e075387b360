package common

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var log = NewLog("common")

func NewMetricServer(port string) {
	if port == "" {
		port = ":9000"
	}
	log.Info("Starting metric server", "listen", port)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		if err := http.ListenAndServe(port, mux); err != nil {
			panic(err)
		}
	}()
}
