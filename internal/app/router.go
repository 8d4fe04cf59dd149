package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func wireRouter(cfg Config, h Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	router.GET("/healthz", h.Health.Check)

	api := router.Group("/api")
	{
		// Recommendations
		api.GET("/users/:user_id/recommendations", h.Recommendations.Compute)
		api.GET("/users/:user_id/recommendations/latest", h.Recommendations.Latest)
		api.POST("/users/:user_id/recommendations/recompute", h.Recommendations.Recompute)

		// Borrow and review signals
		api.POST("/users/:user_id/borrows", h.Library.Borrow)
		api.POST("/users/:user_id/books/:book_id/return", h.Library.Return)
		api.POST("/users/:user_id/books/:book_id/reviews", h.Library.Review)

		// AI artifacts
		api.GET("/books/:book_id/analysis", h.Analysis.Get)
		api.POST("/books/:book_id/analysis/summary/retry", h.Analysis.Summarize)
		api.POST("/books/:book_id/analysis/consensus/retry", h.Analysis.Consensus)

		// Job introspection
		api.GET("/jobs/:id", h.Jobs.Get)
	}

	return router
}
