package models

import "time"

// NodeKind tells whether a record is a file or a folder. It is immutable
// after creation.
type NodeKind string

const (
	NodeKindFile   NodeKind = "file"
	NodeKindFolder NodeKind = "folder"
)

// RootParentID is the sentinel parent reference for top-level nodes of a room.
const RootParentID = "root"

// FileNode is one record of a room's virtual file system. Records are stored
// flat; Children is derived by the tree engine and never persisted.
type FileNode struct {
	ID             string    `bson:"_id,omitempty" json:"id"`
	RoomID         string    `bson:"room_id" json:"room_id"`
	Name           string    `bson:"name" json:"name"`
	Kind           NodeKind  `bson:"kind" json:"kind"`
	ParentID       string    `bson:"parent_id" json:"parent_id"`
	Content        string    `bson:"content,omitempty" json:"content,omitempty"`
	IsExpanded     bool      `bson:"is_expanded" json:"is_expanded"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at" json:"updated_at"`
	LastModifiedBy string    `bson:"last_modified_by,omitempty" json:"last_modified_by,omitempty"`

	Children []*FileNode `bson:"-" json:"children,omitempty"`
}

func (n *FileNode) IsFolder() bool {
	return n.Kind == NodeKindFolder
}

func (n *FileNode) IsFile() bool {
	return n.Kind == NodeKindFile
}

// ValidKind reports whether k is one of the two persisted node kinds.
func ValidKind(k NodeKind) bool {
	return k == NodeKindFile || k == NodeKindFolder
}
