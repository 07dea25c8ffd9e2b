package middleware

import (
	"errors"
	"net/http"

	"codesync/services"
	"codesync/utils"

	"github.com/gin-gonic/gin"
)

// RoomMemberMiddleware loads the room from the roomId path parameter and
// rejects users who are not on its member roster. The room record is stashed
// on the context for handlers that need it.
func RoomMemberMiddleware(roomService *services.RoomService) gin.HandlerFunc {
	return func(c *gin.Context) {
		roomID := c.Param("roomId")
		if roomID == "" {
			utils.BadRequestResponse(c, "Room ID is required", nil)
			c.Abort()
			return
		}

		userID := c.GetString("userIdStr")

		room, err := roomService.GetRoom(c.Request.Context(), roomID)
		if err != nil {
			if errors.Is(err, services.ErrRoomNotFound) {
				utils.NotFoundResponse(c, "Room not found")
			} else {
				utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to load room", err.Error())
			}
			c.Abort()
			return
		}

		if !room.HasMember(userID) {
			utils.ForbiddenResponse(c, "You are not a member of this room")
			c.Abort()
			return
		}

		c.Set("room", room)
		c.Next()
	}
}
