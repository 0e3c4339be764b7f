package statusd

import "github.com/prometheus/client_golang/prometheus"

var (
	blocksBad = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapscrub_blocks_bad",
		Help: "Number of block indices currently flagged bad in the catalog.",
	})
	blocksTotal = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapscrub_blocks_total",
		Help: "Total number of block indices in the catalog (blockmax).",
	})
	lastScrubErrors = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapscrub_last_scrub_errors",
		Help: "Total error count (I/O or comparison) from the most recently completed scrub run.",
	})
	lastScrubSilentErrors = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapscrub_last_scrub_silent_errors",
		Help: "Silent error count from the most recently completed scrub run.",
	})
	lastScrubTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapscrub_last_scrub_timestamp_seconds",
		Help: "Unix time the most recently completed scrub run finished.",
	})
)

func init() {
	prometheus.MustRegister(blocksBad, blocksTotal, lastScrubErrors, lastScrubSilentErrors, lastScrubTimestamp)
}

// RecordRun updates the exposed gauges after a scrub run completes.
func RecordRun(bad, total, errorCount, silentError uint32, finishedAtUnix int64) {
	blocksBad.Set(float64(bad))
	blocksTotal.Set(float64(total))
	lastScrubErrors.Set(float64(errorCount))
	lastScrubSilentErrors.Set(float64(silentError))
	lastScrubTimestamp.Set(float64(finishedAtUnix))
}
