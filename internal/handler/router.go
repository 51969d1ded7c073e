package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pointku-api/internal/middleware"
	"github.com/noah-isme/pointku-api/internal/models"
)

// Routes bundles the handlers mounted under the API prefix.
type Routes struct {
	Prefix       string
	Tokens       middleware.TokenValidator
	PointHistory *PointHistoryHandler
	Ranking      *RankingHandler
}

// Register mounts the authenticated API. Probes, metrics and docs are wired by the caller.
func Register(r gin.IRouter, routes Routes) {
	api := r.Group(routes.Prefix)
	api.Use(middleware.JWT(routes.Tokens))

	writers := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	history := api.Group("/point-history")
	history.GET("", routes.PointHistory.List)
	history.GET("/:id", routes.PointHistory.Get)
	history.POST("", writers, routes.PointHistory.Award)
	history.PUT("/:id", writers, routes.PointHistory.Amend)
	history.DELETE("/:id", writers, routes.PointHistory.Revoke)

	api.GET("/rankings", routes.Ranking.Ranking)
	api.GET("/students/:id/points",
		middleware.RBAC(string(models.RoleAdmin), string(models.RoleTeacher), middleware.AllowSelf),
		routes.Ranking.Standing,
	)
}
