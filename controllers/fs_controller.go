package controllers

import (
	"errors"
	"net/http"

	"codesync/models"
	"codesync/services"
	"codesync/utils"

	"github.com/gin-gonic/gin"
)

// FileSystemController is the REST surface over a room's file tree. The
// realtime path goes through the sync WebSocket; these endpoints serve
// initial loads and non-interactive clients.
type FileSystemController struct {
	store services.RecordStore
}

func NewFileSystemController(store services.RecordStore) *FileSystemController {
	return &FileSystemController{store: store}
}

func (fc *FileSystemController) handleError(c *gin.Context, err error, defaultMessage string) {
	switch {
	case errors.Is(err, services.ErrNodeNotFound):
		utils.NotFoundResponse(c, "File or folder not found")
	case errors.Is(err, services.ErrNameRequired), errors.Is(err, services.ErrInvalidKind),
		errors.Is(err, services.ErrNotAFolder), errors.Is(err, services.ErrWouldCreateCycle):
		utils.BadRequestResponse(c, defaultMessage, err.Error())
	default:
		var writeErr *services.StoreWriteError
		if errors.As(err, &writeErr) {
			utils.BadGatewayResponse(c, defaultMessage, writeErr.Error())
		} else {
			utils.ErrorResponse(c, http.StatusInternalServerError, defaultMessage, err.Error())
		}
	}
}

// GetTree returns the reconstructed tree for the room.
func (fc *FileSystemController) GetTree(c *gin.Context) {
	roomID := c.Param("roomId")

	records, err := fc.store.ListNodes(c.Request.Context(), roomID)
	if err != nil {
		fc.handleError(c, err, "Failed to load file tree")
		return
	}

	utils.SuccessResponse(c, "File tree loaded", gin.H{
		"tree":  services.BuildFileTree(records),
		"count": len(records),
	})
}

// GetNode returns one record, content included.
func (fc *FileSystemController) GetNode(c *gin.Context) {
	roomID := c.Param("roomId")
	nodeID := c.Param("id")

	node, err := fc.store.GetNode(c.Request.Context(), roomID, nodeID)
	if err != nil {
		fc.handleError(c, err, "Failed to load node")
		return
	}

	utils.SuccessResponse(c, "Node loaded", node)
}

// CreateNode creates a file or folder under the given parent.
func (fc *FileSystemController) CreateNode(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Kind     string `json:"kind" binding:"required"`
		ParentID string `json:"parent_id"`
		Content  string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}
	if err := utils.ValidateNodeName(req.Name); err != nil {
		utils.BadRequestResponse(c, "Invalid name", err.Error())
		return
	}

	roomID := c.Param("roomId")
	userID := c.GetString("userIdStr")

	id, err := fc.store.CreateNode(c.Request.Context(), roomID, services.NodeInput{
		Name:      req.Name,
		Kind:      models.NodeKind(req.Kind),
		ParentID:  req.ParentID,
		Content:   req.Content,
		CreatedBy: userID,
	})
	if err != nil {
		fc.handleError(c, err, "Failed to create node")
		return
	}

	utils.CreatedResponse(c, "Node created successfully", gin.H{"id": id})
}

// UpdateNode merge-patches name, parent, content or expand state. Reparenting
// a folder under its own descendant is rejected with the tree unchanged.
func (fc *FileSystemController) UpdateNode(c *gin.Context) {
	var req struct {
		Name       *string `json:"name"`
		ParentID   *string `json:"parent_id"`
		Content    *string `json:"content"`
		IsExpanded *bool   `json:"is_expanded"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid request data", err.Error())
		return
	}
	if req.Name != nil {
		if err := utils.ValidateNodeName(*req.Name); err != nil {
			utils.BadRequestResponse(c, "Invalid name", err.Error())
			return
		}
	}

	roomID := c.Param("roomId")
	nodeID := c.Param("id")
	userID := c.GetString("userIdStr")

	if req.ParentID != nil {
		if err := fc.checkMove(c, roomID, nodeID, *req.ParentID); err != nil {
			fc.handleError(c, err, "Failed to move node")
			return
		}
	}

	err := fc.store.UpdateNode(c.Request.Context(), roomID, nodeID, services.NodeUpdate{
		Name:       req.Name,
		ParentID:   req.ParentID,
		Content:    req.Content,
		IsExpanded: req.IsExpanded,
	}, userID)
	if err != nil {
		fc.handleError(c, err, "Failed to update node")
		return
	}

	utils.SuccessResponse(c, "Node updated successfully", nil)
}

// DeleteNode removes the node and all of its descendants.
func (fc *FileSystemController) DeleteNode(c *gin.Context) {
	roomID := c.Param("roomId")
	nodeID := c.Param("id")

	removed, err := services.DeleteSubtree(c.Request.Context(), fc.store, roomID, nodeID)
	if err != nil {
		fc.handleError(c, err, "Failed to delete node")
		return
	}
	if removed == 0 {
		utils.NotFoundResponse(c, "File or folder not found")
		return
	}

	utils.SuccessResponse(c, "Node deleted successfully", gin.H{"removed": removed})
}

func (fc *FileSystemController) checkMove(c *gin.Context, roomID, nodeID, newParentID string) error {
	if newParentID == nodeID {
		return services.ErrWouldCreateCycle
	}
	if newParentID == "" || newParentID == models.RootParentID {
		return nil
	}

	records, err := fc.store.ListNodes(c.Request.Context(), roomID)
	if err != nil {
		return err
	}
	roots := services.BuildFileTree(records)

	target := services.FindNodeByID(newParentID, roots)
	if target == nil {
		return services.ErrNodeNotFound
	}
	if !target.IsFolder() {
		return services.ErrNotAFolder
	}
	if services.IsDescendant(nodeID, newParentID, roots) {
		return services.ErrWouldCreateCycle
	}
	return nil
}
