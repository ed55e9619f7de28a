package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"contractscan/api/handler"
)

func RegisterRoutes(r *gin.Engine, contractH *handler.ContractHandler, assistantH *handler.AssistantHandler) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	{
		contract := api.Group("/contract")
		{
			contract.POST("/analyze", contractH.Analyze)
			contract.POST("/upload", contractH.Upload)
			contract.POST("/compare", contractH.Compare)
			contract.GET("/list", contractH.List)
			contract.GET("/search", contractH.Search)
			contract.GET("/:id", contractH.Get)
			contract.DELETE("/:id", contractH.Delete)
			contract.GET("/:id/export", contractH.Export)
		}
		api.POST("/chat", assistantH.Chat)
		api.POST("/venues/search", assistantH.SearchVenues)
	}
}
