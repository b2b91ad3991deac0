package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(dbPoolConns) }

var dbPoolConns = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "egas_db_pool_connections",
		Help: "Postgres pool connections by state.",
	},
	[]string{"state"}, // max, total, idle, acquired
)

// PoolSnapshot is the subset of pool statistics exported as gauges.
type PoolSnapshot struct {
	Max      int32
	Total    int32
	Idle     int32
	Acquired int32
}

func SetDBPoolStats(s PoolSnapshot) {
	dbPoolConns.WithLabelValues("max").Set(float64(s.Max))
	dbPoolConns.WithLabelValues("total").Set(float64(s.Total))
	dbPoolConns.WithLabelValues("idle").Set(float64(s.Idle))
	dbPoolConns.WithLabelValues("acquired").Set(float64(s.Acquired))
}
