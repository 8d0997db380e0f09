package routes

import (
	"catalog-service/common/middleware"
	"catalog-service/controllers"
	authmw "catalog-service/middleware"

	"github.com/gin-gonic/gin"
)

// Controllers groups the handlers mounted by RegisterRoutes.
type Controllers struct {
	Auth    *controllers.AuthController
	Sellers *controllers.SellerController
	Product *controllers.ProductController
	System  *controllers.SystemController
}

// RegisterRoutes mounts the public and the bearer-protected routes.
// credentialLimiter guards /register and /token.
func RegisterRoutes(r *gin.Engine, ctrl Controllers, auth authmw.Authenticator, credentialLimiter *middleware.RateLimiter) {
	r.GET("/health", ctrl.System.Health)
	r.GET("/_debug/ia", ctrl.System.DebugIA)

	public := r.Group("")
	if credentialLimiter != nil {
		public.Use(middleware.RateLimitMiddleware(credentialLimiter))
	}
	public.POST("/register", ctrl.Auth.Register)
	public.POST("/token", ctrl.Auth.Token)

	sellerRoutes := r.Group("/vendedores")
	sellerRoutes.Use(authmw.AuthMiddleware(auth))
	sellerRoutes.GET("/me", ctrl.Sellers.Me)
	sellerRoutes.GET("/", ctrl.Sellers.List)
	sellerRoutes.GET("/:id", ctrl.Sellers.Get)
	sellerRoutes.PUT("/:id", ctrl.Sellers.Update)
	sellerRoutes.DELETE("/:id", ctrl.Sellers.Delete)

	productRoutes := r.Group("/productos")
	productRoutes.Use(authmw.AuthMiddleware(auth))
	productRoutes.GET("/", ctrl.Product.List)
	productRoutes.POST("/", ctrl.Product.Create)
	productRoutes.GET("/:id", ctrl.Product.Get)
	productRoutes.PUT("/:id", ctrl.Product.Update)
	productRoutes.DELETE("/:id", ctrl.Product.Delete)
	productRoutes.GET("/:id/imagen", ctrl.Product.Image)
}
