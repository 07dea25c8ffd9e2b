package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"codesync/models"
	"codesync/services"
	"codesync/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = (pongWait * 9) / 10
	maxFrameSize    = 1 << 20
	outboundBacklog = 64
)

// serverFrame is what the backend pushes to a connected editor. Type is one of
// "tree", "content", "members", "status" or "error"; the other fields are
// populated per type.
type serverFrame struct {
	Type       string            `json:"type"`
	Tree       []*models.FileNode `json:"tree,omitempty"`
	FileID     string            `json:"file_id,omitempty"`
	Content    *string           `json:"content,omitempty"`
	ModifiedBy string            `json:"modified_by,omitempty"`
	Members    []models.Profile  `json:"members,omitempty"`
	State      string            `json:"state,omitempty"`
	Message    string            `json:"message,omitempty"`
}

// clientFrame is a single editor operation. Op is one of "create", "rename",
// "delete", "move", "toggle", "open", "write" or "close".
type clientFrame struct {
	Op       string `json:"op"`
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Kind     string `json:"kind,omitempty"`
	ParentID string `json:"parent_id,omitempty"`
	Content  string `json:"content,omitempty"`
}

// SyncController serves the realtime editor socket. Each connection owns one
// SyncSession; all tree, content and membership updates stream over the socket
// and all editor operations arrive on it.
type SyncController struct {
	store    services.RecordStore
	rooms    *services.RoomService
	upgrader websocket.Upgrader
}

func NewSyncController(store services.RecordStore, rooms *services.RoomService, allowedOrigins []string) *SyncController {
	return &SyncController{
		store: store,
		rooms: rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

// Sync upgrades the request and runs the session until the client disconnects.
// Membership was already verified by the room middleware.
func (sc *SyncController) Sync(c *gin.Context) {
	roomID := c.Param("roomId")
	userID := c.GetString("userIdStr")

	conn, err := sc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		utils.LogWarning(fmt.Sprintf("websocket upgrade failed for room %s: %v", roomID, err))
		return
	}
	defer conn.Close()

	outbound := make(chan serverFrame, outboundBacklog)

	session := services.NewSyncSession(sc.store, sc.rooms, roomID, userID, services.SyncCallbacks{
		OnTree: func(roots []*models.FileNode) {
			outbound <- serverFrame{Type: "tree", Tree: roots}
		},
		OnContent: func(fileID, content, modifiedBy string) {
			outbound <- serverFrame{Type: "content", FileID: fileID, Content: &content, ModifiedBy: modifiedBy}
		},
		OnMembers: func(members []models.Profile) {
			outbound <- serverFrame{Type: "members", Members: members}
		},
		OnState: func(state services.SessionState) {
			outbound <- serverFrame{Type: "status", State: string(state)}
		},
	})

	writerDone := make(chan struct{})
	go sc.writePump(conn, outbound, writerDone)

	ctx := c.Request.Context()
	session.Bind(ctx)

	sc.readPump(ctx, conn, session, outbound)

	// Close guarantees no callback fires after it returns, so the outbound
	// channel can be closed without racing a send.
	session.Close()
	close(outbound)
	<-writerDone
}

func (sc *SyncController) writePump(conn *websocket.Conn, outbound <-chan serverFrame, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	broken := false
	for {
		select {
		case frame, ok := <-outbound:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if broken {
				// Keep draining so callbacks never block on a dead peer.
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(frame); err != nil {
				broken = true
			}
		case <-ticker.C:
			if broken {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				broken = true
			}
		}
	}
}

func (sc *SyncController) readPump(ctx context.Context, conn *websocket.Conn, session *services.SyncSession, outbound chan<- serverFrame) {
	conn.SetReadLimit(maxFrameSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var frame clientFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.LogWarning(fmt.Sprintf("websocket read for room %s: %v", session.RoomID(), err))
			}
			return
		}
		if err := sc.dispatch(ctx, session, frame); err != nil {
			outbound <- serverFrame{Type: "error", FileID: frame.ID, Message: errorMessage(err)}
		}
	}
}

func (sc *SyncController) dispatch(ctx context.Context, session *services.SyncSession, frame clientFrame) error {
	switch frame.Op {
	case "create":
		_, err := session.CreateNode(ctx, frame.ParentID, models.NodeKind(frame.Kind), frame.Name)
		return err
	case "rename":
		return session.RenameNode(ctx, frame.ID, frame.Name)
	case "delete":
		return session.DeleteNode(ctx, frame.ID)
	case "move":
		return session.MoveNode(ctx, frame.ID, frame.ParentID)
	case "toggle":
		return session.ToggleFolder(ctx, frame.ID)
	case "open":
		return session.SetActiveFile(ctx, frame.ID)
	case "write":
		return session.WriteContent(ctx, frame.ID, frame.Content)
	case "close":
		session.CloseFile(frame.ID)
		return nil
	default:
		return errors.New("unknown operation: " + frame.Op)
	}
}

func errorMessage(err error) string {
	var writeErr *services.StoreWriteError
	if errors.As(err, &writeErr) {
		return "storage temporarily unavailable"
	}
	return err.Error()
}
