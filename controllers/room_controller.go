package controllers

import (
	"errors"
	"net/http"

	"codesync/models"
	"codesync/services"
	"codesync/utils"

	"github.com/gin-gonic/gin"
)

type RoomController struct {
	roomService *services.RoomService
}

func NewRoomController(roomService *services.RoomService) *RoomController {
	return &RoomController{roomService: roomService}
}

// handleRoomError maps service errors onto HTTP statuses. Authorization-style
// errors keep their specific message instead of collapsing into a generic
// failure.
func (rc *RoomController) handleRoomError(c *gin.Context, err error, defaultMessage string) {
	switch {
	case errors.Is(err, services.ErrRoomNotFound):
		utils.NotFoundResponse(c, "Room not found")
	case errors.Is(err, services.ErrInvalidPassword):
		utils.UnauthorizedResponse(c, "Invalid room password")
	case errors.Is(err, services.ErrNotOwner):
		utils.ForbiddenResponse(c, "Only the room owner can delete the room")
	case errors.Is(err, services.ErrOwnerCannotLeave):
		utils.ForbiddenResponse(c, "The room owner cannot leave; delete the room instead")
	default:
		var writeErr *services.StoreWriteError
		if errors.As(err, &writeErr) {
			utils.BadGatewayResponse(c, defaultMessage, writeErr.Error())
		} else {
			utils.ErrorResponse(c, http.StatusInternalServerError, defaultMessage, err.Error())
		}
	}
}

func (rc *RoomController) CreateRoom(c *gin.Context) {
	var req struct {
		RoomName string `json:"room_name" binding:"required,min=1,max=100"`
		Password string `json:"password" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}
	if err := utils.ValidateRoomName(req.RoomName); err != nil {
		utils.BadRequestResponse(c, "Invalid room name", err.Error())
		return
	}

	userID := c.GetString("userIdStr")

	room, err := rc.roomService.CreateRoom(c.Request.Context(), req.RoomName, req.Password, userID)
	if err != nil {
		rc.handleRoomError(c, err, "Failed to create room")
		return
	}

	utils.CreatedResponse(c, "Room created successfully", roomPayload(room))
}

func (rc *RoomController) JoinRoom(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}

	roomID := c.Param("roomId")
	userID := c.GetString("userIdStr")

	room, err := rc.roomService.JoinRoom(c.Request.Context(), roomID, req.Password, userID)
	if err != nil {
		rc.handleRoomError(c, err, "Failed to join room")
		return
	}

	utils.SuccessResponse(c, "Joined room successfully", roomPayload(room))
}

func (rc *RoomController) LeaveRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	userID := c.GetString("userIdStr")

	if err := rc.roomService.LeaveRoom(c.Request.Context(), roomID, userID); err != nil {
		rc.handleRoomError(c, err, "Failed to leave room")
		return
	}

	utils.SuccessResponse(c, "Left room successfully", nil)
}

func (rc *RoomController) DeleteRoom(c *gin.Context) {
	roomID := c.Param("roomId")
	userID := c.GetString("userIdStr")

	if err := rc.roomService.DeleteRoom(c.Request.Context(), roomID, userID); err != nil {
		rc.handleRoomError(c, err, "Failed to delete room")
		return
	}

	utils.SuccessResponse(c, "Room deleted successfully", nil)
}

func (rc *RoomController) GetRoom(c *gin.Context) {
	room, err := rc.roomService.GetRoom(c.Request.Context(), c.Param("roomId"))
	if err != nil {
		rc.handleRoomError(c, err, "Failed to load room")
		return
	}

	utils.SuccessResponse(c, "Room loaded", roomPayload(room))
}

// ListRooms returns the rooms the caller owns or has joined.
func (rc *RoomController) ListRooms(c *gin.Context) {
	userID := c.GetString("userIdStr")

	rooms, err := rc.roomService.ListRooms(c.Request.Context(), userID)
	if err != nil {
		rc.handleRoomError(c, err, "Failed to list rooms")
		return
	}

	payload := make([]gin.H, 0, len(rooms))
	for i := range rooms {
		payload = append(payload, roomPayload(&rooms[i]))
	}
	utils.SuccessResponse(c, "Rooms loaded", payload)
}

func roomPayload(room *models.Room) gin.H {
	return gin.H{
		"room_id":    room.ID,
		"room_name":  room.RoomName,
		"owner_id":   room.OwnerID,
		"members":    room.Members,
		"created_at": room.CreatedAt,
	}
}
