package handlers

import (
	"net/http"

	"github.com/wilforlan/suncture-feedback-board/internal/config"
	"github.com/wilforlan/suncture-feedback-board/internal/middleware"
	"github.com/wilforlan/suncture-feedback-board/internal/observability"
	serviceinterfaces "github.com/wilforlan/suncture-feedback-board/internal/serviceinterfaces"
	"github.com/wilforlan/suncture-feedback-board/internal/version"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// RouterOption customizes NewRouter.
type RouterOption func(*routerOptions)

type routerOptions struct {
	refresher serviceinterfaces.RefresherInterface
}

// WithBoardRefresher mounts the refresher control routes under /v1/board.
func WithBoardRefresher(r serviceinterfaces.RefresherInterface) RouterOption {
	return func(o *routerOptions) { o.refresher = r }
}

// NewRouter wires middleware and routes for the feedback API.
func NewRouter(
	cfg *config.Config,
	feedbackService serviceinterfaces.FeedbackServiceInterface,
	feedbackBoard serviceinterfaces.BoardInterface,
	aggregator serviceinterfaces.LeaderboardInterface,
	logger *observability.Logger,
	opts ...RouterOption,
) *gin.Engine {
	var options routerOptions
	for _, opt := range opts {
		opt(&options)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(observability.RequestLogger(logger))

	// Health check sits in front of tracing and sessions
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.OpenTelemetry.ServiceName})
	})

	router.Use(observability.GinMiddleware(cfg.OpenTelemetry.ServiceName))
	router.Use(observability.SpanErrorMiddleware())

	router.RedirectTrailingSlash = false

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	if len(corsConfig.AllowOrigins) == 0 {
		corsConfig.AllowOrigins = []string{config.DefaultCORSOrigin}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "X-Requested-With", config.HeaderUserID, config.HeaderUserEmail}
	corsConfig.AllowMethods = []string{"GET", "POST", "PATCH", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	router.Use(middleware.Identity(cfg.Server.TrustIdentityHeaders))

	feedbackHandler := NewFeedbackHandler(feedbackService, logger)
	boardHandler := NewBoardHandler(feedbackBoard, logger)
	leaderboardHandler := NewLeaderboardHandler(aggregator, cfg.Feedback)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   cfg.OpenTelemetry.ServiceName,
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		feedback := v1.Group("/feedback")
		{
			feedback.POST("", feedbackHandler.SubmitFeedback)
			feedback.GET("", feedbackHandler.ListFeedback)
			feedback.GET("/:id", feedbackHandler.GetFeedback)
			feedback.GET("/:id/related", feedbackHandler.RelatedFeedback)
			feedback.PATCH("/:id/status", feedbackHandler.UpdateStatus)
		}

		boardGroup := v1.Group("/board")
		{
			boardGroup.GET("", boardHandler.GetBoard)
			boardGroup.POST("/refresh", boardHandler.Refresh)
			boardGroup.POST("/moves", boardHandler.MoveRecord)

			if options.refresher != nil {
				refresherHandler := NewRefresherHandler(options.refresher)
				boardGroup.GET("/refresher", refresherHandler.GetStatus)
				boardGroup.POST("/refresher/run", refresherHandler.Trigger)
				boardGroup.POST("/refresher/pause", refresherHandler.Pause)
				boardGroup.POST("/refresher/resume", refresherHandler.Resume)
			}
		}

		v1.GET("/leaderboard", leaderboardHandler.GetLeaderboard)
	}

	return router
}
