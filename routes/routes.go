package routes

import (
	"villas/booking"
	"villas/metrics"
	"villas/middleware"
	"villas/notify"
	"villas/ratelim"

	"github.com/julienschmidt/httprouter"
)

func AddAvailabilityRoutes(router *httprouter.Router, svc *booking.Service, siteURL string, rl *ratelim.RateLimiter) {
	router.GET("/api/availability", rl.Limit(middleware.Authenticate(booking.IndexHandler(svc))))
	router.GET("/api/availability/ws", middleware.Authenticate(booking.WatchHandler(svc)))
	router.GET("/api/properties/:propertyId/availability", rl.Limit(middleware.Authenticate(booking.PropertyHandler(svc))))
	router.GET("/api/properties/:propertyId/availability/pdf", rl.Limit(middleware.Authenticate(booking.PDFHandler(svc, siteURL))))
}

func AddNotificationRoutes(router *httprouter.Router, svc *notify.Service, rl *ratelim.RateLimiter) {
	router.GET("/api/notifications", middleware.Authenticate(notify.ListHandler(svc)))
	router.GET("/api/notifications/status", middleware.Authenticate(notify.StatusHandler(svc)))
	router.GET("/api/notifications/ws", middleware.Authenticate(notify.WebSocketHandler(svc.Hub, svc.Store)))
	router.POST("/api/notifications/:id/read", rl.Limit(middleware.Authenticate(notify.MarkReadHandler(svc))))
	router.PUT("/api/notifications/read", rl.Limit(middleware.Authenticate(notify.MarkAllReadHandler(svc))))
	router.DELETE("/api/notifications/:id", rl.Limit(middleware.Authenticate(notify.RemoveHandler(svc))))
}

func AddMetricsRoutes(router *httprouter.Router) {
	router.GET("/metrics", metrics.Handler())
}
