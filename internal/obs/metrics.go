package obs

import "github.com/prometheus/client_golang/prometheus"

// Metrics covers the counters/gauges/histograms that §6's External
// Interfaces section calls out as operator-visible: search and enrich
// latency, subprocess spawn outcomes, transcription pipeline progress,
// and playback session state.
var (
	SearchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "yp",
		Name:      "search_duration_seconds",
		Help:      "Duration of metadata search requests.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	EnrichDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "yp",
		Name:      "enrich_duration_seconds",
		Help:      "Duration of a single per-entry enrichment call.",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5},
	})

	EnrichInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "yp",
		Name:      "enrich_in_flight",
		Help:      "Number of enrichment calls currently running.",
	})

	SubprocessSpawnsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yp",
		Name:      "subprocess_spawns_total",
		Help:      "Total subprocess spawns by binary and outcome.",
	}, []string{"binary", "outcome"})

	PlayerIPCRetriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "yp",
		Name:      "player_ipc_retries_total",
		Help:      "Total IPC stream-URL resolution retry attempts.",
	})

	PlaybackSessionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "yp",
		Name:      "playback_sessions_total",
		Help:      "Total playback sessions started.",
	})

	TranscriptionModelDownloadBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "yp",
		Name:      "transcription_model_download_bytes",
		Help:      "Bytes of the speech model downloaded so far in the current run.",
	})

	TranscriptionChunksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "yp",
		Name:      "transcription_chunks_total",
		Help:      "Total audio chunks processed by the transcription pipeline, by outcome.",
	}, []string{"outcome"})

	TranscriptionChunkDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "yp",
		Name:      "transcription_chunk_duration_seconds",
		Help:      "Wall-clock duration of extracting and transcribing one audio chunk.",
		Buckets:   []float64{1, 2, 5, 10, 20, 30, 60},
	})

	EventLoopTickDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "yp",
		Name:      "event_loop_tick_duration_seconds",
		Help:      "Duration of one event-loop tick (drain, derive, render).",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})
)

// Register attaches every metric above to reg. Call once at startup.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		SearchDuration,
		EnrichDuration,
		EnrichInFlight,
		SubprocessSpawnsTotal,
		PlayerIPCRetriesTotal,
		PlaybackSessionsTotal,
		TranscriptionModelDownloadBytes,
		TranscriptionChunksTotal,
		TranscriptionChunkDuration,
		EventLoopTickDuration,
	)
}
