package routes

import (
	"time"

	"signage-service/internal/api/handlers"
	"signage-service/internal/api/middleware"
	"signage-service/internal/config"
	"signage-service/internal/metrics"
	"signage-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "signage-service/docs"
)

// Dependencies are the services the HTTP surface is built on.
// RateLimiter and Metrics may be nil.
type Dependencies struct {
	Users      handlers.AuthService
	Screens    handlers.ScreenAPI
	Media      handlers.MediaAPI
	Playlists  handlers.PlaylistAPI
	Broadcasts handlers.BroadcastAPI

	Hub          *websocket.Hub
	WebSocket    config.WebSocketConfig
	Server       config.ServerConfig
	JWTSecret    string
	RateLimiter  middleware.RateLimiter
	Metrics      *metrics.Registry
	HealthChecks map[string]handlers.Pinger
}

type Router struct {
	engine           *gin.Engine
	deps             Dependencies
	wsHandler        *handlers.WSHandler
	authHandler      *handlers.AuthHandler
	screenHandler    *handlers.ScreenHandler
	mediaHandler     *handlers.MediaHandler
	playlistHandler  *handlers.PlaylistHandler
	broadcastHandler *handlers.BroadcastHandler
	healthHandler    *handlers.HealthHandler
	rateLimitMW      *middleware.RateLimitMiddleware
	authMW           *middleware.AuthMiddleware
}

func NewRouter(deps Dependencies) *Router {
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.CORS(deps.Server.AllowedOrigins))
	engine.Use(middleware.LogApi())
	if deps.Metrics != nil {
		engine.Use(deps.Metrics.HTTP.Middleware())
	}

	upgrader := websocket.NewUpgrader(deps.WebSocket, deps.Server.AllowedOrigins)

	var connections func() int
	if deps.Hub != nil {
		connections = deps.Hub.ConnectionCount
	}

	return &Router{
		engine:           engine,
		deps:             deps,
		wsHandler:        handlers.NewWSHandler(deps.Hub, upgrader, websocket.NewClientConfig(deps.WebSocket)),
		authHandler:      handlers.NewAuthHandler(deps.Users),
		screenHandler:    handlers.NewScreenHandler(deps.Screens),
		mediaHandler:     handlers.NewMediaHandler(deps.Media),
		playlistHandler:  handlers.NewPlaylistHandler(deps.Playlists),
		broadcastHandler: handlers.NewBroadcastHandler(deps.Broadcasts),
		healthHandler:    handlers.NewHealthHandler(deps.HealthChecks, connections),
		rateLimitMW:      middleware.NewRateLimitMiddleware(deps.RateLimiter),
		authMW:           middleware.NewAuthMiddleware(deps.JWTSecret),
	}
}

func (r *Router) SetupRoutes() {
	r.engine.GET("/healthz", r.healthHandler.Live)
	r.engine.GET("/readyz", r.healthHandler.Ready)
	if r.deps.Metrics != nil {
		r.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(r.deps.Metrics.Registry, promhttp.HandlerOpts{})))
	}
	r.engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Players identify themselves with PLAYER_REGISTER after the upgrade
	r.engine.GET("/ws", r.wsHandler.HandleWebSocket)

	api := r.engine.Group("/api")

	authRoutes := api.Group("/auth")
	authRoutes.Use(r.rateLimitMW.RateLimitIP(50, time.Minute))
	{
		authRoutes.POST("/register", r.authHandler.Register)
		authRoutes.POST("/login", r.authHandler.Login)
	}

	auth := api.Group("")
	auth.Use(r.authMW.RequireAuth())
	auth.Use(r.rateLimitMW.RateLimit(300, time.Minute))
	{
		auth.GET("/auth/me", r.authHandler.Profile)

		screens := auth.Group("/screens")
		{
			screens.GET("", r.screenHandler.ListScreens)
			screens.POST("", r.screenHandler.CreateScreen)
			screens.GET("/online", r.screenHandler.ListOnlineScreens)
			screens.GET("/:id", r.screenHandler.GetScreen)
			screens.PUT("/:id", r.screenHandler.UpdateScreen)
			screens.DELETE("/:id", r.screenHandler.DeleteScreen)
			screens.POST("/:id/device-key", r.screenHandler.RotateDeviceKey)
		}

		media := auth.Group("/media")
		{
			media.GET("", r.mediaHandler.ListMedia)
			media.POST("", r.mediaHandler.UploadMedia)
			media.GET("/:id", r.mediaHandler.GetMedia)
			media.DELETE("/:id", r.mediaHandler.DeleteMedia)
		}

		playlists := auth.Group("/playlists")
		{
			playlists.GET("", r.playlistHandler.ListPlaylists)
			playlists.POST("", r.playlistHandler.CreatePlaylist)
			playlists.POST("/suggest", r.playlistHandler.SuggestPlaylist)
			playlists.GET("/:id", r.playlistHandler.GetPlaylist)
			playlists.PUT("/:id", r.playlistHandler.UpdatePlaylist)
			playlists.DELETE("/:id", r.playlistHandler.DeletePlaylist)
			playlists.PUT("/:id/items", r.playlistHandler.SetItems)
		}

		broadcasts := auth.Group("/broadcasts")
		broadcasts.Use(r.rateLimitMW.RateLimit(60, time.Minute))
		{
			broadcasts.GET("", r.broadcastHandler.ListBroadcasts)
			broadcasts.POST("", r.broadcastHandler.CreateBroadcast)
			broadcasts.GET("/:id", r.broadcastHandler.GetBroadcast)
		}
	}
}

func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}
