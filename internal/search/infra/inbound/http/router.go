package http

import "github.com/gin-gonic/gin"

// RegisterSearchRoutes registra las rutas HTTP de búsqueda.
func RegisterSearchRoutes(r *gin.Engine, handler *SearchHandler) {
	api := r.Group("/", CallerMiddleware())
	{
		api.GET("/search", handler.Search)
		api.POST("/search", handler.SearchPost)
		api.GET("/search/clause", handler.Clause)
		api.GET("/collections/:collectionId/items", handler.CollectionItems)
	}
}
