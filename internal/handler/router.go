package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/proplens/proplens/internal/middleware"
)

type RouterDeps struct {
	Documents *DocumentHandler
	Tasks     *TaskHandler
	Rules     *RuleHandler
	Search    *SearchHandler
	Files     *FileHandler
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/documents", deps.Documents.Create)
	api.GET("/documents/:id", deps.Documents.Get)
	api.POST("/documents/:id/extract", middleware.RateLimit(time.Second), deps.Documents.Extract)

	api.POST("/documents/:id/file", deps.Files.Upload)
	api.GET("/documents/:id/file", deps.Files.Download)

	api.GET("/tasks", deps.Tasks.List)
	api.GET("/rules", deps.Rules.List)
	api.GET("/search", deps.Search.Search)
}
