package festival

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "festplan",
		Subsystem: "festival",
		Name:      "pages_fetched_total",
		Help:      "Festival pages fetched, by outcome.",
	}, []string{"outcome"})

	screeningsExtracted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "festplan",
		Subsystem: "festival",
		Name:      "screenings_extracted_total",
		Help:      "Screenings parsed from festival pages.",
	})

	extractionFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "festplan",
		Subsystem: "festival",
		Name:      "extraction_fallbacks_total",
		Help:      "Pages whose screenings came from a fallback, by level.",
	}, []string{"level"})

	parseCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "festplan",
		Subsystem: "festival",
		Name:      "parse_cache_hits_total",
		Help:      "Parse requests answered from the cache.",
	})
)
