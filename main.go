package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"villas/booking"
	"villas/config"
	"villas/db"
	"villas/globals"
	"villas/middleware"
	"villas/notify"
	"villas/ratelim"
	"villas/rdx"
	"villas/routes"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
)

// securityHeaders applies a set of recommended HTTP security headers.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs each request method, path, remote address, and duration.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s from %s – %v", r.Method, r.URL.Path, r.RemoteAddr, time.Since(start))
	})
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func setupRouter(avail *booking.Service, notes *notify.Service, cfg *config.Config, rl *ratelim.RateLimiter) *httprouter.Router {
	router := httprouter.New()
	router.GET("/health", Index)

	routes.AddAvailabilityRoutes(router, avail, cfg.PublicSiteURL, rl)
	routes.AddNotificationRoutes(router, notes, rl)
	routes.AddMetricsRoutes(router)

	return router
}

// backendToken returns the configured credential or mints one for the agent.
func backendToken(cfg *config.Config) string {
	if cfg.BackendToken != "" {
		return cfg.BackendToken
	}
	token, err := middleware.IssueToken(cfg.AgentUserID, []string{"agent"}, 30*24*time.Hour)
	if err != nil {
		log.Fatalf("❌ cannot mint backend token: %v", err)
	}
	log.Printf("minted backend token for %s", cfg.AgentUserID)
	return token
}

func main() {
	cfg := config.Load()
	globals.JwtSecret = []byte(cfg.JWTSecret)
	token := backendToken(cfg)

	rootCtx, cancelRoot := context.WithCancel(context.Background())
	defer cancelRoot()

	// optional backing services
	var (
		cache   booking.Cache
		archive notify.Archive
		sinks   []notify.Sink
	)
	if cfg.RedisAddr != "" {
		conn, err := rdx.Connect(rootCtx, cfg.RedisAddr)
		if err != nil {
			log.Printf("⚠️ redis disabled: %v", err)
		} else {
			defer conn.Close()
			bridge := rdx.NewBridge(conn, cfg.AvailabilityCacheTTL)
			cache = bridge
			sinks = append(sinks, bridge)
		}
	}
	if cfg.MongoURI != "" {
		if err := db.Connect(rootCtx, cfg.MongoURI, cfg.MongoDB); err != nil {
			log.Printf("⚠️ notification archive disabled: %v", err)
		} else {
			a := db.NewArchive(db.NotificationsCollection)
			archive = a
			sinks = append(sinks, a)
		}
	}

	// notifications
	store := notify.NewStore()
	hub := notify.NewHub()
	go hub.Run()
	store.OnChange(hub.Publish)

	channel := notify.NewChannel(cfg.BackendWSURL, token, store,
		notify.NewBackoff(cfg.ReconnectBase, cfg.ReconnectCap), sinks...)

	notes := &notify.Service{
		Store:   store,
		Channel: channel,
		Acks:    notify.NewAcknowledger(cfg.BackendURL, token, store),
		Archive: archive,
		Hub:     hub,
	}
	if err := notes.Hydrate(rootCtx, 200); err != nil {
		log.Printf("⚠️ could not load archived notifications: %v", err)
	}
	channel.Start(rootCtx)

	// availability
	avail := booking.NewService(booking.NewFeed(cfg.BackendURL, token), cache)
	go func() {
		now := time.Now()
		avail.Refresh(rootCtx, int(now.Month()), now.Year())
	}()

	rateLimiter := ratelim.NewRateLimiter(cfg.RateLimitPerSec)
	router := setupRouter(avail, notes, cfg, rateLimiter)

	// apply middleware: CORS → security headers → logging → router
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // lock down in production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(router)

	handler := loggingMiddleware(securityHeaders(corsHandler))

	server := &http.Server{
		Addr:              cfg.Port,
		Handler:           handler,
		ReadTimeout:       7 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server listening on %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe error: %v", err)
		}
	}()

	// wait for interrupt or SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("🛑 Shutdown signal received; shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("❌ Graceful shutdown failed: %v", err)
	}

	log.Println("🛑 Shutting down notification channel...")
	notes.Shutdown()
	avail.Close()
	cancelRoot()
	if err := db.Disconnect(ctx); err != nil {
		log.Printf("⚠️ mongo disconnect: %v", err)
	}

	log.Println("✅ Server stopped cleanly")
}
