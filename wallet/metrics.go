package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// intentsSent counts the intents published to the broker per network, kind and result (ok or error).
	intentsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "acctpanel",
		Subsystem: "wallet",
		Name:      "intents_total",
		Help:      "Intents sent by the wallet service.",
	}, []string{"net", "kind", "result"})

	// snapshotsObserved counts the snapshots fed to the panels.
	snapshotsObserved = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "acctpanel",
		Subsystem: "wallet",
		Name:      "snapshots_total",
		Help:      "Background snapshots observed by the wallet panels.",
	}, []string{"net"})

	// notifications counts the notifications raised per network and kind.
	notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "acctpanel",
		Subsystem: "wallet",
		Name:      "notifications_total",
		Help:      "Notifications raised to the user.",
	}, []string{"net", "kind"})
)
