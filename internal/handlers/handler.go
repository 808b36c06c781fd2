package handlers

import (
	"iothub/internal/logger"
	"iothub/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger

	// transportUp reports whether the MQTT connection is currently open;
	// surfaced by /health so the dashboard can warn about a dead broker link.
	transportUp func() bool
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, transportUp func() bool) *Handler {
	return &Handler{services: services, log: log, transportUp: transportUp}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Minimal WebSocket connection (HTTP upgrade) — same port
	router.GET("/ws", h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		h.registerDeviceRoutes(api)
	}
}

func (h *Handler) registerDeviceRoutes(api *gin.RouterGroup) {
	devices := api.Group("/devices")
	{
		devices.GET("/", h.listDevices)
		// Body example: {"device_id":"esp32-01","device_name":"Greenhouse","device_type":"esp32"}
		devices.POST("/", h.registerDevice)
		devices.GET("/:id", h.getDevice)
		devices.DELETE("/:id", h.deleteDevice)

		devices.GET("/:id/telemetry", h.deviceTelemetry)
		devices.GET("/:id/telemetry/latest", h.deviceTelemetryLatest)
		devices.GET("/:id/history", h.deviceHistory)
		devices.GET("/:id/stats", h.deviceStats)

		devices.POST("/:id/command", h.sendCommand)
	}
}
