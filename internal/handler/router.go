package handler

import "github.com/gin-gonic/gin"

// RouteRegistrar is implemented by every handler.
type RouteRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// RegisterAPI mounts auth on router as is and every other handler behind
// requireAuth.
func RegisterAPI(router *gin.RouterGroup, requireAuth gin.HandlerFunc, auth *AuthHandler, handlers ...RouteRegistrar) {
	auth.RegisterRoutes(router)

	protected := router.Group("", requireAuth)
	for _, h := range handlers {
		h.RegisterRoutes(protected)
	}
}
