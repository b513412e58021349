package router

import (
	"github.com/gin-gonic/gin"
	"github.com/lumberhaus/storefront-backend/config"
	"github.com/lumberhaus/storefront-backend/internal/app/controller"
	"github.com/lumberhaus/storefront-backend/internal/middleware"
)

// Controllers groups every HTTP handler the router mounts.
type Controllers struct {
	Auth          *controller.AuthController
	Product       *controller.ProductController
	Review        *controller.ReviewController
	Search        *controller.SearchController
	Cart          *controller.CartController
	Order         *controller.OrderController
	Email         *controller.EmailController
	Event         *controller.EventController
	AdminAuth     *controller.AdminAuthController
	AdminOrder    *controller.AdminOrderController
	AdminCustomer *controller.AdminCustomerController
	Upload        *controller.UploadController
	Feed          *controller.FeedController
}

type Router struct {
	controllers     Controllers
	authMiddleware  *middleware.AuthMiddleware
	adminMiddleware *middleware.AdminMiddleware
	config          *config.Config
}

func NewRouter(
	controllers Controllers,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		controllers:     controllers,
		authMiddleware:  authMiddleware,
		adminMiddleware: adminMiddleware,
		config:          cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "Lumberhaus API is running",
		})
	})

	ctl := r.controllers
	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", ctl.Auth.Register)
			auth.POST("/login", ctl.Auth.Login)
			auth.POST("/refresh", ctl.Auth.RefreshToken)
			auth.GET("/me", r.authMiddleware.Authenticate(), ctl.Auth.GetMe)
		}

		products := v1.Group("/products")
		{
			products.GET("", ctl.Product.ListProducts)
			products.GET("/:id", ctl.Product.GetProduct)
			products.GET("/:id/reviews", ctl.Review.ListReviews)
			products.POST("/:id/reviews", r.authMiddleware.Authenticate(), ctl.Review.CreateReview)
		}
		v1.GET("/categories", ctl.Product.ListCategories)
		v1.POST("/reviews/:id/vote", ctl.Review.Vote)

		search := v1.Group("/search")
		{
			search.GET("", ctl.Search.Search)
			search.GET("/suggestions", ctl.Search.Suggestions)
		}

		cart := v1.Group("/cart")
		cart.Use(r.authMiddleware.Authenticate())
		{
			cart.GET("", ctl.Cart.GetCart)
			cart.PUT("", ctl.Cart.ReplaceCart)
			cart.DELETE("", ctl.Cart.ClearCart)
		}

		orders := v1.Group("/orders")
		orders.Use(r.authMiddleware.Authenticate())
		{
			orders.POST("", ctl.Order.Checkout)
			orders.GET("", ctl.Order.ListMyOrders)
			orders.GET("/:id", ctl.Order.GetMyOrder)
		}

		v1.POST("/emails", r.authMiddleware.Authenticate(), ctl.Email.Send)
		v1.POST("/events", r.authMiddleware.OptionalAuthenticate(), ctl.Event.Track)

		v1.POST("/admin/login", ctl.AdminAuth.Login)
		v1.POST("/admin/logout", ctl.AdminAuth.Logout)

		admin := v1.Group("/admin")
		admin.Use(r.adminMiddleware.RequireAdmin())
		{
			admin.GET("/customers", ctl.AdminCustomer.ListCustomers)
			admin.GET("/customers/export", ctl.AdminCustomer.ExportCustomers)

			admin.GET("/orders", ctl.AdminOrder.ListOrders)
			admin.PATCH("/orders/bulk", ctl.AdminOrder.BulkUpdateStatus)
			admin.GET("/orders/:id", ctl.AdminOrder.GetOrder)
			admin.PATCH("/orders/:id", ctl.AdminOrder.UpdateOrder)

			admin.POST("/products", ctl.Product.CreateProduct)
			admin.POST("/uploads/presign", ctl.Upload.PresignUpload)

			admin.GET("/feed", ctl.Feed.Connect)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, X-Admin-Token, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
