package api

import (
	"io/fs"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yourusername/tubegrab-go/api/handlers"
	"github.com/yourusername/tubegrab-go/api/middleware"
	"github.com/yourusername/tubegrab-go/internal/app"
	"github.com/yourusername/tubegrab-go/internal/infrastructure"
	"github.com/yourusername/tubegrab-go/pkg/logger"
	"github.com/yourusername/tubegrab-go/web"
)

// Dependencies holds everything the router wires into handlers
type Dependencies struct {
	Orchestrator *app.Orchestrator
	Reaper       *app.Reaper
	Files        *infrastructure.FileStore
	Logger       *logger.LoggerAdapter
	LogsDir      string
}

// SetupRouter sets up the HTTP router
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	general := deps.Logger.General()

	// Middleware
	router.Use(middleware.Logger(general))
	router.Use(middleware.Recovery(deps.Logger))
	router.Use(middleware.CORS())

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(deps.Reaper, deps.Files)
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// File delivery
	fileHandler := handlers.NewFileHandler(deps.Files, deps.Reaper, general)
	router.GET("/download/:filename", fileHandler.Serve)

	apiGroup := router.Group("/api")
	{
		videoHandler := handlers.NewVideoHandler(deps.Orchestrator, general)
		apiGroup.POST("/analyze", videoHandler.Analyze)
		apiGroup.POST("/download", videoHandler.Download)

		jobHandler := handlers.NewJobHandler(deps.Orchestrator, general)
		jobs := apiGroup.Group("/jobs")
		{
			jobs.GET("", jobHandler.ListJobs)
			jobs.GET("/stats", jobHandler.GetStats)
			jobs.GET("/:id", jobHandler.GetJob)
		}

		if deps.LogsDir != "" {
			logHandler := handlers.NewLogHandler(deps.LogsDir)
			wsHandler := handlers.NewLogWebSocketHandler(deps.LogsDir, general)
			logs := apiGroup.Group("/logs")
			{
				logs.GET("/categories", logHandler.GetCategories)
				logs.GET("/stream", wsHandler.HandleWebSocket)
				logs.GET("/:category", logHandler.GetLogs)
				logs.GET("/:category/search", logHandler.SearchLogs)
				logs.GET("/:category/export", logHandler.ExportLogs)
			}
		}
	}

	// Landing page
	staticFS := web.GetStaticFS()
	router.GET("/", func(c *gin.Context) {
		serveFile(c, staticFS, "index.html")
	})

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		filePath := strings.TrimPrefix(c.Request.URL.Path, "/")
		if filePath != "" {
			if _, err := fs.Stat(staticFS, filePath); err == nil {
				serveFile(c, staticFS, filePath)
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})

	return router, nil
}

// serveFile serves a file from the embedded filesystem with proper content type
func serveFile(c *gin.Context, staticFS fs.FS, filePath string) {
	content, err := fs.ReadFile(staticFS, filePath)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	contentType := "application/octet-stream"
	switch {
	case strings.HasSuffix(filePath, ".html"):
		contentType = "text/html; charset=utf-8"
	case strings.HasSuffix(filePath, ".css"):
		contentType = "text/css; charset=utf-8"
	case strings.HasSuffix(filePath, ".js"):
		contentType = "application/javascript; charset=utf-8"
	case strings.HasSuffix(filePath, ".svg"):
		contentType = "image/svg+xml"
	case strings.HasSuffix(filePath, ".png"):
		contentType = "image/png"
	}

	c.Data(http.StatusOK, contentType, content)
}
