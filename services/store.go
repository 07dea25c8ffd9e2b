package services

import (
	"context"
	"errors"
	"fmt"

	"codesync/models"
)

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrNodeNotFound     = errors.New("file or folder not found")
	ErrInvalidPassword  = errors.New("invalid room password")
	ErrNotOwner         = errors.New("only the room owner can delete the room")
	ErrOwnerCannotLeave = errors.New("room owner cannot leave; delete the room instead")
	ErrNameRequired     = errors.New("name cannot be empty")
	ErrInvalidKind      = errors.New("kind must be file or folder")
	ErrNotAFolder       = errors.New("target is not a folder")
	ErrNotAFile         = errors.New("target is not a file")
	ErrWouldCreateCycle = errors.New("cannot move a folder under its own descendant")
)

// StoreWriteError wraps a failed write against the backing store so callers
// can tell backend failures apart from validation and authorization errors.
type StoreWriteError struct {
	Op  string
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("store write failed during %s: %v", e.Op, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// Unsubscribe releases a live subscription. Implementations are idempotent;
// calling one twice is safe and the second call is a no-op.
type Unsubscribe func()

// NodeInput carries the caller-supplied fields for a new file system record.
// The id is always assigned by the store.
type NodeInput struct {
	Name       string
	Kind       models.NodeKind
	ParentID   string
	Content    string
	IsExpanded bool
	CreatedBy  string
}

// NodeUpdate is a merge patch; nil fields are left untouched.
type NodeUpdate struct {
	Name       *string
	ParentID   *string
	Content    *string
	IsExpanded *bool
}

// RecordStore is the adapter over the remote document database holding each
// room's flat file system records. Every method takes the room id explicitly;
// there is no current-room state to switch and no hidden singleton.
type RecordStore interface {
	CreateNode(ctx context.Context, roomID string, input NodeInput) (string, error)
	UpdateNode(ctx context.Context, roomID, id string, update NodeUpdate, actingUserID string) error
	RemoveNode(ctx context.Context, roomID, id string) error
	GetNode(ctx context.Context, roomID, id string) (*models.FileNode, error)
	ListNodes(ctx context.Context, roomID string) ([]models.FileNode, error)

	// SubscribeCollection delivers the current snapshot once immediately, then
	// the full record list again after every create, update or delete in the
	// room's namespace. Read failures degrade to an empty snapshot; the
	// subscription itself never terminates the caller.
	SubscribeCollection(ctx context.Context, roomID string, onChange func(records []models.FileNode)) Unsubscribe

	// SubscribeDocument fires on every update to one record's content field.
	// Updates from a single writer are delivered in program order.
	SubscribeDocument(ctx context.Context, roomID, id string, onChange func(content, modifiedBy string)) Unsubscribe
}

// RoomStore persists room records and their membership rosters.
type RoomStore interface {
	InsertRoom(ctx context.Context, room *models.Room) (string, error)
	GetRoom(ctx context.Context, roomID string) (*models.Room, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error)
	AddMember(ctx context.Context, roomID, userID string) error
	RemoveMember(ctx context.Context, roomID, userID string) error
	DeleteRoom(ctx context.Context, roomID string) error

	// SubscribeRoom delivers the room record once immediately, then again on
	// every change. A nil room means the record was deleted.
	SubscribeRoom(ctx context.Context, roomID string, onChange func(room *models.Room)) Unsubscribe
}
