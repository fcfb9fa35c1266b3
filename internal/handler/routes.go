package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/budget-calc-api/internal/middleware"
	"github.com/noah-isme/budget-calc-api/internal/models"
	"github.com/noah-isme/budget-calc-api/internal/service"
)

// Handlers bundles every handler the router mounts.
type Handlers struct {
	Auth    *AuthHandler
	Setup   *SetupHandler
	Claims  *ClaimsHandler
	Month   *MonthHandler
	Item    *ItemHandler
	User    *UserHandler
	Metrics *MetricsHandler
}

// RegisterRoutes mounts every endpoint on the engine. The codec drives
// the JWT middleware for protected groups.
func RegisterRoutes(r *gin.Engine, prefix string, codec *service.Codec, h Handlers) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Health)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)

	auth := api.Group("/authManagement")
	auth.POST("/Register", h.Auth.Register)
	auth.POST("/Login", h.Auth.Login)
	auth.POST("/RefreshToken", h.Auth.RefreshToken)
	auth.DELETE("/DeleteUser", middleware.JWT(codec), h.Auth.DeleteUser)

	admin := api.Group("", middleware.JWT(codec), middleware.RBAC(models.RoleImmortal))

	setup := admin.Group("/setup")
	setup.POST("/roles", h.Setup.CreateRole)
	setup.GET("/roles", h.Setup.ListRoles)
	setup.POST("/roles/assign", h.Setup.AddUserToRole)
	setup.POST("/roles/remove", h.Setup.RemoveUserFromRole)
	setup.POST("/tokens/revoke", h.Auth.RevokeToken)
	setup.GET("/users", h.Setup.ListUsers)
	setup.GET("/users/:email/roles", h.Setup.UserRoles)

	claims := admin.Group("/claimsSetup")
	claims.GET("/users/:email", h.Claims.UserClaims)
	claims.POST("/users/:email", h.Claims.AddUserClaim)
	claims.GET("/roles/:name", h.Claims.RoleClaims)
	claims.POST("/roles/:name", h.Claims.AddRoleClaim)

	authed := api.Group("", middleware.JWT(codec))

	months := authed.Group("/months")
	months.POST("", h.Month.Create)
	months.GET("", middleware.RBAC(models.RoleImmortal), h.Month.List)
	months.GET("/:id", h.Month.Get)
	months.DELETE("/:id", h.Month.Delete)
	months.GET("/:id/export", h.Month.ExportStatement)
	months.GET("/:id/items", h.Item.ListForMonth)

	items := authed.Group("/items")
	items.POST("", h.Item.Create)
	items.GET("", middleware.RBAC(models.RoleImmortal), h.Item.List)
	items.GET("/:id", h.Item.Get)
	items.PUT("/:id", h.Item.Update)
	items.DELETE("/:id", h.Item.Delete)

	authed.GET("/summaries", h.Month.Summaries)

	users := authed.Group("/users")
	users.GET("", middleware.RBAC(models.RoleImmortal), h.User.List)
	users.GET("/:id", middleware.RBAC(models.RoleImmortal, middleware.SelfRole), h.User.Get)
	users.GET("/:id/months", middleware.RBAC(models.RoleImmortal, middleware.SelfRole), h.Month.Details)
}
