package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"lexiguide-backend/internal/analyses"
	"lexiguide-backend/internal/chat"
	"lexiguide-backend/internal/shared/config"
	"lexiguide-backend/internal/shared/metrics"
	"lexiguide-backend/internal/shared/server/middleware"
	"lexiguide-backend/internal/shared/server/respond"
)

// Rate limit groups. Analysis is the expensive path; chat turns are cheaper
// but still hit the model.
const (
	rateGroupAnalyze = "ANALYZE"
	rateGroupChat    = "CHAT"
)

// RouterDeps carries the handlers the router wires up.
type RouterDeps struct {
	Config          config.Config
	AnalysisHandler *analyses.Handler
	ChatHandler     *chat.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				rateGroupAnalyze: {Rate: 0.2, Burst: 3},
				rateGroupChat:    {Rate: 1, Burst: 10},
			},
			GroupFor: func(c *gin.Context) string {
				switch {
				case c.Request.Method == http.MethodPost && c.FullPath() == "/analyze":
					return rateGroupAnalyze
				case c.Request.Method == http.MethodPost && c.FullPath() == "/chat":
					return rateGroupChat
				default:
					return ""
				}
			},
		}),
	)

	r.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	root := r.Group("")
	if deps.AnalysisHandler != nil {
		deps.AnalysisHandler.RegisterRoutes(root)
	}
	if deps.ChatHandler != nil {
		deps.ChatHandler.RegisterRoutes(root)
	}

	return r
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
