package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/akazarov/roomchat/internal/auth"
	"github.com/akazarov/roomchat/internal/blob"
	"github.com/akazarov/roomchat/internal/config"
	"github.com/akazarov/roomchat/internal/core"
	"github.com/akazarov/roomchat/internal/store"
)

// staticUploadsPath is where stored attachments are served from; blob URLs
// point under it.
const staticUploadsPath = "/static/uploads"

// NewServer builds the HTTP server: REST API, static uploads, and the
// websocket gateway.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, blobs *blob.FS, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewRoomHandlers(st, logger)
	uploadHandlers := NewUploadHandlers(blobs, logger)

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	api := router.Group("/api")
	api.POST("/register", apiHandlers.Register)
	api.POST("/login", apiHandlers.Login)

	authed := api.Group("", AuthMiddleware(authService, logger))
	authed.POST("/rooms", roomHandlers.CreateRoom)
	authed.GET("/rooms", roomHandlers.ListRooms)
	authed.POST("/upload", uploadHandlers.Upload)

	router.Static(staticUploadsPath, blobs.Dir())
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, authService, logger)))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
