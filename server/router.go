package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"hustle-genie/utils"
	"hustle-genie/workspace"
)

type RouterConfig struct {
	Handler        *Handler
	Tokens         *Tokens
	Registry       *workspace.Registry
	AllowedOrigins []string
	Logger         *utils.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLog(cfg.Logger))

	// Cors; an empty origin list makes cors.New panic
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = utils.DefaultAllowedOrigins()
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	h := cfg.Handler

	// Public
	router.GET("/healthcheck", HealthCheck)
	api := router.Group("/api")
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)

	// Protected
	protected := api.Group("")
	protected.Use(RequireAuth(cfg.Tokens, cfg.Registry, cfg.Logger))

	protected.GET("/me", h.Me)
	protected.GET("/settings", h.GetSettings)
	protected.PUT("/settings", h.UpdateSettings)

	protected.GET("/goals", h.ListGoals)
	protected.POST("/goals", h.AddGoal)
	protected.PUT("/goals/:title", h.UpdateGoal)
	protected.DELETE("/goals/:title", h.DeleteGoal)

	protected.GET("/view", h.GetView)
	protected.POST("/ideas", h.SubmitWish)
	protected.POST("/ideas/inspire", h.GetInspired)
	protected.POST("/plan", h.GeneratePlan)

	protected.GET("/chat", h.GetChat)
	protected.POST("/chat/new", h.NewChat)
	protected.POST("/chat/messages", h.SendMessage)
	protected.POST("/chat/regenerate", h.Regenerate)
	protected.POST("/chat/typing-complete", h.TypingComplete)
	protected.POST("/chat/messages/:id/navigate", h.NavigateResponse)
	protected.POST("/chat/messages/:id/pin", h.ToggleMessagePin)
	protected.POST("/chat/messages/:id/reactions", h.ToggleReaction)

	protected.GET("/chats", h.ListChats)
	protected.DELETE("/chats", h.ClearChats)
	protected.GET("/chats/export", h.ExportChats)
	protected.POST("/chats/import", h.ImportChats)
	protected.POST("/chats/:id/select", h.SelectChat)
	protected.PUT("/chats/:id", h.RenameChat)
	protected.POST("/chats/:id/pin", h.ToggleChatPin)
	protected.DELETE("/chats/:id", h.DeleteChat)
	protected.GET("/chats/:id/export", h.ExportChat)

	protected.GET("/gallery", h.Gallery)
	protected.GET("/pinned", h.Pinned)

	return router
}

func requestLog(log *utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully
func Run(ctx context.Context, addr string, handler http.Handler, log *utils.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("api shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
