package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/braianruaimi/YAvoyOk-sub002/audit"
	"github.com/braianruaimi/YAvoyOk-sub002/auth"
	"github.com/braianruaimi/YAvoyOk-sub002/config"
	"github.com/braianruaimi/YAvoyOk-sub002/handlers"
	"github.com/braianruaimi/YAvoyOk-sub002/logger"
	"github.com/braianruaimi/YAvoyOk-sub002/metrics"
	"github.com/braianruaimi/YAvoyOk-sub002/notify"
	"github.com/braianruaimi/YAvoyOk-sub002/ratelimit"
	"github.com/braianruaimi/YAvoyOk-sub002/realtime"
	"github.com/braianruaimi/YAvoyOk-sub002/routes"
	"github.com/braianruaimi/YAvoyOk-sub002/store"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	log := logger.Init()

	metrics.Register()
	config.InitDB(cfg.DBPath)
	log.Info().Str("db", cfg.DBPath).Msg("database connected and migrated")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Auth stack
	denylist := auth.NewDenylist()
	denylist.StartJanitor(ctx, cfg.AccessTokenTTL/4)
	codec := auth.NewCodec(cfg.JWTSecret, denylist)

	// Access audit trail, drained off the request path
	sink := audit.NewSink(log.With().Str("component", "audit").Logger(), cfg.AuditBufferSize)
	sink.OnDrop(metrics.AuditDropsTotal.Inc)
	defer sink.Close()

	// Rate limiting: shared redis store when configured, else in-memory
	var rlStore ratelimit.Store
	if cfg.RedisAddr != "" {
		rlStore = ratelimit.NewRedisStore(redis.NewClient(&redis.Options{Addr: cfg.RedisAddr}))
		log.Info().Str("addr", cfg.RedisAddr).Msg("rate limit windows shared via redis")
	} else {
		mem := ratelimit.NewMemoryStore()
		mem.StartJanitor(ctx, 2*time.Minute)
		rlStore = mem
	}

	// Real-time fan-out
	hub := realtime.NewHub()
	hub.OnDrop(metrics.BroadcastDropsTotal.Inc)

	orders := store.NewOrders(config.DB)

	deps := routes.Deps{
		Codec:        codec,
		Sink:         sink,
		APILimiter:   ratelimit.New(rlStore, ratelimit.Config{MaxRequests: cfg.APIMaxRequests, Window: cfg.APIWindow}),
		AdminLimiter: ratelimit.New(rlStore, ratelimit.Config{MaxRequests: cfg.AdminMaxRequests, Window: cfg.AdminWindow}),
		Hub:          hub,
		AuthHandler: &handlers.AuthHandler{
			Codec:           codec,
			AccessTokenTTL:  cfg.AccessTokenTTL,
			RefreshTokenTTL: cfg.RefreshTokenTTL,
		},
		OrderHandler: &handlers.OrderHandler{
			Orders:   orders,
			Hub:      hub,
			Notifier: notify.LogNotifier{Log: log.With().Str("component", "notify").Logger()},
			Log:      log,
		},
		Log: log,
	}

	r := gin.Default()

	// CORS for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "YAvoy Marketplace API",
		})
	})

	routes.Setup(r, deps)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("server stopped")
}
