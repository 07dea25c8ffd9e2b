package routes

import (
	"codesync/controllers"
	"codesync/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoomRoutes(rg *gin.RouterGroup, container *ServiceContainer) {
	roomController := controllers.NewRoomController(container.RoomService)

	rooms := rg.Group("/rooms")
	rooms.Use(middleware.AuthMiddleware(container.Config.JWTSecret)) // All room routes require authentication
	{
		rooms.GET("", roomController.ListRooms)     // GET /rooms (rooms the caller belongs to)
		rooms.POST("", roomController.CreateRoom)   // POST /rooms
		rooms.POST("/:roomId/join", roomController.JoinRoom)
		rooms.POST("/:roomId/leave", roomController.LeaveRoom)
		rooms.DELETE("/:roomId", roomController.DeleteRoom) // owner only

		// Reads require membership on top of authentication
		member := rooms.Group("")
		member.Use(middleware.RoomMemberMiddleware(container.RoomService))
		{
			member.GET("/:roomId", roomController.GetRoom)
		}
	}
}
