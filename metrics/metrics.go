package metrics

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	channelState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "villas_channel_state",
		Help: "Current notification channel state (0 disconnected, 1 connecting, 2 connected, 3 terminated).",
	})

	channelReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "villas_channel_reconnects_total",
		Help: "Total number of scheduled reconnect attempts.",
	})

	channelFrames = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "villas_channel_frames_total",
		Help: "Inbound notification frames by outcome.",
	}, []string{"result"})

	unreadNotifications = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "villas_unread_notifications",
		Help: "Unread notifications currently held in the store.",
	})

	feedDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "villas_feed_duration_seconds",
		Help:    "Latency of monthly bookings feed requests.",
		Buckets: prometheus.DefBuckets,
	}, []string{"status"})
)

// ObserveChannelState records the numeric state of the notification channel.
func ObserveChannelState(state int) {
	channelState.Set(float64(state))
}

func IncReconnect() {
	channelReconnects.Inc()
}

// ObserveFrame counts an inbound frame; result is "ok" or "dropped".
func ObserveFrame(result string) {
	channelFrames.WithLabelValues(result).Inc()
}

func SetUnread(n int) {
	unreadNotifications.Set(float64(n))
}

// ObserveFeed records how long a bookings feed request took.
func ObserveFeed(start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	feedDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

// Handler exposes the default registry for the router.
func Handler() httprouter.Handle {
	h := promhttp.Handler()
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		h.ServeHTTP(w, r)
	}
}
