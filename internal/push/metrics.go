package push

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var deliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "siscert_push_deliveries_total",
		Help: "Envios Web Push por resultado (sent, failed, pruned).",
	},
	[]string{"result"},
)
