package routes

import (
	"codesync/controllers"
	"codesync/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterFileSystemRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	fsController := controllers.NewFileSystemController(container.RecordStore)
	syncController := controllers.NewSyncController(container.RecordStore, container.RoomService, container.Config.AllowedOrigins)

	fs := rg.Group("/rooms/:roomId")
	fs.Use(middleware.AuthMiddleware(container.Config.JWTSecret))
	fs.Use(middleware.RoomMemberMiddleware(container.RoomService))
	{
		// Realtime editor socket; token may arrive as ?token= for browser clients
		fs.GET("/sync", syncController.Sync)

		// REST fallback over the same tree
		fs.GET("/tree", fsController.GetTree)
		fs.POST("/nodes", fsController.CreateNode)
		fs.GET("/nodes/:id", fsController.GetNode)
		fs.PATCH("/nodes/:id", fsController.UpdateNode)
		fs.DELETE("/nodes/:id", fsController.DeleteNode)
	}
}
