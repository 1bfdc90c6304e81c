package routes

import (
	"github.com/braianruaimi/YAvoyOk-sub002/audit"
	"github.com/braianruaimi/YAvoyOk-sub002/auth"
	"github.com/braianruaimi/YAvoyOk-sub002/handlers"
	"github.com/braianruaimi/YAvoyOk-sub002/middleware"
	"github.com/braianruaimi/YAvoyOk-sub002/models"
	"github.com/braianruaimi/YAvoyOk-sub002/ratelimit"
	"github.com/braianruaimi/YAvoyOk-sub002/realtime"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

type Deps struct {
	Codec        *auth.Codec
	Sink         *audit.Sink
	APILimiter   *ratelimit.Limiter
	AdminLimiter *ratelimit.Limiter
	Hub          *realtime.Hub
	AuthHandler  *handlers.AuthHandler
	OrderHandler *handlers.OrderHandler
	Log          zerolog.Logger

	// Per-IP burst budget on credential endpoints; zero means default.
	AuthRPS   rate.Limit
	AuthBurst int
}

// Setup registers all routes. Per-request order on protected groups is
// audit -> authenticate -> role check -> throttle -> handler.
func Setup(r *gin.Engine, d Deps) {
	authed := func(roles ...models.Role) []gin.HandlerFunc {
		chain := []gin.HandlerFunc{
			middleware.Audit(d.Sink),
			middleware.AuthRequired(d.Codec, d.Sink),
		}
		if len(roles) > 0 {
			chain = append(chain, middleware.RoleRequired(roles...))
		}
		limiter := d.APILimiter
		for _, role := range roles {
			if role == models.RoleAdmin {
				limiter = d.AdminLimiter
			}
		}
		return append(chain, middleware.RateLimit(limiter, d.Sink))
	}

	authRPS, authBurst := d.AuthRPS, d.AuthBurst
	if authBurst == 0 {
		authRPS, authBurst = rate.Limit(1), 5
	}

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Credential endpoints get a per-IP burst limiter
		creds := public.Group("/auth", middleware.Burst(authRPS, authBurst))
		creds.POST("/register", d.AuthHandler.Register)
		creds.POST("/login", d.AuthHandler.Login)
		creds.POST("/refresh", d.AuthHandler.Refresh)

		public.GET("/merchants", handlers.ListMerchants)
		public.GET("/merchants/:id", handlers.GetMerchant)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated, any role ────────────────────────────────────
	me := r.Group("/api", authed()...)
	{
		me.GET("/profile", d.AuthHandler.GetProfile)
		me.POST("/auth/logout", d.AuthHandler.Logout)
		me.GET("/ws", handlers.ServeWS(d.Hub, d.Log))
	}

	// ── Client routes ──────────────────────────────────────────────
	client := r.Group("/api/client", authed(models.RoleClient)...)
	{
		client.POST("/orders", d.OrderHandler.PlaceOrder)
		client.GET("/orders", d.OrderHandler.GetMyOrders)
		client.GET("/orders/:id", d.OrderHandler.GetOrderDetail)
		client.PUT("/orders/:id/cancel", d.OrderHandler.CancelOrder)
	}

	// ── Merchant routes ────────────────────────────────────────────
	merchant := r.Group("/api/merchant", authed(models.RoleMerchant)...)
	{
		merchant.POST("/", d.OrderHandler.CreateMerchant)
		merchant.GET("/", d.OrderHandler.GetMyMerchant)
		merchant.PUT("/", d.OrderHandler.UpdateMerchant)

		merchant.GET("/orders", d.OrderHandler.GetMerchantOrders)
		merchant.PUT("/orders/:id/accept", d.OrderHandler.AcceptOrder)
		merchant.PUT("/orders/:id/cancel", d.OrderHandler.MerchantCancelOrder)
	}

	// ── Courier routes ─────────────────────────────────────────────
	courier := r.Group("/api/courier", authed(models.RoleCourier)...)
	{
		courier.GET("/orders", d.OrderHandler.GetMyDeliveries)
		courier.PUT("/orders/:id/en-route", d.OrderHandler.StartDelivery)
		courier.PUT("/orders/:id/delivered", d.OrderHandler.CompleteDelivery)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin", authed(models.RoleAdmin)...)
	{
		admin.GET("/orders", d.OrderHandler.AdminGetAllOrders)
		admin.GET("/users", d.OrderHandler.AdminGetAllUsers)
		admin.PUT("/orders/:id/cancel", d.OrderHandler.AdminCancelOrder)
		admin.PUT("/orders/:id/courier", d.OrderHandler.AdminReassignCourier)
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
