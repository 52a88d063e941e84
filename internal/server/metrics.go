package server

import "github.com/prometheus/client_golang/prometheus"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf2excel_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "pdf2excel_request_duration_seconds",
			Help: "Duration of HTTP requests",
		},
		[]string{"method", "endpoint"},
	)
	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pdf2excel_conversions_total",
			Help: "Total number of conversions by outcome",
		},
		[]string{"outcome"},
	)
	conversionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pdf2excel_conversion_duration_seconds",
			Help:    "Duration of PDF conversions",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"ocr"},
	)
	ocrPagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pdf2excel_ocr_pages_total",
			Help: "Total number of pages converted with OCR",
		},
	)
	ocrFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pdf2excel_ocr_page_failures_total",
			Help: "Total number of pages whose OCR failed",
		},
	)
	cacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pdf2excel_cache_hits_total",
			Help: "Total number of conversions served from cache",
		},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal)
	prometheus.MustRegister(requestDuration)
	prometheus.MustRegister(conversionsTotal)
	prometheus.MustRegister(conversionDuration)
	prometheus.MustRegister(ocrPagesTotal)
	prometheus.MustRegister(ocrFailuresTotal)
	prometheus.MustRegister(cacheHitsTotal)
}
