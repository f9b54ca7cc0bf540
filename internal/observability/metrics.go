package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "duty_track", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "duty_track",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	SlipsCompletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "duty_track", Name: "slips_completed_total", Help: "Duty slips transitioned to completed"},
	)
	OTPIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "duty_track", Name: "otp_issued_total", Help: "OTP tickets issued"},
	)
	OTPSweptTotal = promauto.NewCounter(
		prometheus.CounterOpts{Namespace: "duty_track", Name: "otp_swept_total", Help: "Expired OTP tickets removed by the background sweep"},
	)
)
