package webserver

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func attachRoutes(r *gin.Engine, cfg Config, deps Deps) {
	if len(cfg.Origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Origins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
		}))
	}

	targetsH := NewTargets(deps)

	v1 := r.Group("/v1")
	{
		v1.GET("/health", Health)

		secured := v1.Group("/targets/:guild")
		secured.Use(JWTMiddleware(cfg.Secret), RateLimitMiddleware(NewRateLimiter(cfg.RequestsPerMinute)))
		secured.GET("/week", targetsH.Week)
		secured.GET("/audit", targetsH.Audit)
		secured.POST("/reset", targetsH.Reset)
		secured.POST("/days/:day/reset", targetsH.ResetDay)
	}
}
