package background

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// intentsApplied counts the intents consumed per network, kind and result (ok or refused).
var intentsApplied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "acctpanel",
	Subsystem: "background",
	Name:      "intents_total",
	Help:      "Intents consumed by the background service.",
}, []string{"net", "kind", "result"})
