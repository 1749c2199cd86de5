package api

import (
	"mediascribe/pkg/logger"
	"mediascribe/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDHeader is echoed back on every response so a client can correlate
// its own logs with server-side ones.
const requestIDHeader = "X-Request-ID"

// requestIDMiddleware stamps every request with a fresh correlation id,
// mirroring the teacher's use of github.com/google/uuid for per-entity ids
// but applied here to request tracing instead of job/resource ids, since
// this domain's job ids are client-supplied (spec §6: job_id == file_uid).
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// corsMiddleware echoes the request Origin back with credentials enabled,
// the same permissive development-mode behavior as the teacher's router
// (this service has no browser session/cookie auth to protect).
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

// SetupRoutes builds the gin.Engine for handler (spec §6): submit,
// submit_url, status, and the websocket gateway route.
func SetupRoutes(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	logger.SetGinOutput()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestIDMiddleware())
	router.Use(logger.GinLogger())
	router.Use(middleware.CompressionMiddleware())
	router.Use(corsMiddleware())

	router.GET("/health", handler.HealthCheck)

	// File uploads bypass compression, mirroring the teacher's upload routes.
	uploads := router.Group("")
	uploads.Use(middleware.NoCompressionMiddleware())
	uploads.POST("/submit", handler.Submit)

	router.POST("/submit_url", handler.SubmitURL)
	router.GET("/status/:job_id", handler.Status)
	router.GET("/ws/:job_id", handler.WebSocket)

	return router
}
