package services

import (
	"context"
	"log"
	"strings"
	"sync"

	"codesync/models"
)

// SessionState tracks the per-room subscription lifecycle.
type SessionState string

const (
	StateUnbound   SessionState = "unbound"
	StateBinding   SessionState = "binding"
	StateBound     SessionState = "bound"
	StateUnbinding SessionState = "unbinding"
)

// SyncCallbacks receive state pushed out of a session. They are invoked from
// store goroutines; implementations must be safe for that and must not block
// for long.
type SyncCallbacks struct {
	OnTree    func(roots []*models.FileNode)
	OnContent func(fileID, content, modifiedBy string)
	OnMembers func(members []models.Profile)
	OnState   func(state SessionState)
}

// SyncSession is the synchronization controller for one client inside one
// room. It owns the room's collection subscription, at most one document
// subscription (the active file), routes local mutations to the store and
// remote change events into the local tree, and suppresses echoes of this
// client's own writes. The local tree is a read model rebuilt from the store
// on every change; no mutation is applied locally without the matching store
// write.
type SyncSession struct {
	store     RecordStore
	rooms     *RoomService
	roomID    string
	userID    string
	callbacks SyncCallbacks
	bridge    *EditorBridge

	mu           sync.Mutex
	ctx          context.Context
	state        SessionState
	roots        []*models.FileNode
	activeFileID string

	collectionUnsub Unsubscribe
	documentUnsub   Unsubscribe
	membersUnsub    Unsubscribe
}

// NewSyncSession wires an explicitly injected store adapter; there is no
// process-wide singleton to reach for.
func NewSyncSession(store RecordStore, rooms *RoomService, roomID, userID string, callbacks SyncCallbacks) *SyncSession {
	return &SyncSession{
		store:     store,
		rooms:     rooms,
		roomID:    roomID,
		userID:    userID,
		callbacks: callbacks,
		bridge:    NewEditorBridge(),
		state:     StateUnbound,
	}
}

func (s *SyncSession) RoomID() string { return s.roomID }
func (s *SyncSession) UserID() string { return s.userID }

// Bridge exposes the editor content bridge owned by this session.
func (s *SyncSession) Bridge() *EditorBridge { return s.bridge }

func (s *SyncSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Tree returns the last reconstructed root list.
func (s *SyncSession) Tree() []*models.FileNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roots
}

func (s *SyncSession) ActiveFileID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeFileID
}

// Bind starts the room's collection and membership subscriptions. The session
// moves to Bound when the first collection snapshot arrives.
func (s *SyncSession) Bind(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateUnbound {
		s.mu.Unlock()
		return
	}
	s.state = StateBinding
	s.ctx = ctx
	s.mu.Unlock()
	s.notifyState(StateBinding)

	collectionUnsub := s.store.SubscribeCollection(ctx, s.roomID, s.handleRecords)

	var membersUnsub Unsubscribe
	if s.rooms != nil {
		membersUnsub = s.rooms.SubscribeMembers(ctx, s.roomID, func(members []models.Profile) {
			if cb := s.callbacks.OnMembers; cb != nil {
				cb(members)
			}
		})
	}

	s.mu.Lock()
	s.collectionUnsub = collectionUnsub
	s.membersUnsub = membersUnsub
	s.mu.Unlock()
}

// handleRecords is the collection subscription callback: every change event
// replaces the tree wholesale. Reconstruction is O(n) and rooms hold at most
// a few hundred nodes, so no incremental patching.
func (s *SyncSession) handleRecords(records []models.FileNode) {
	roots := BuildFileTree(records)

	s.mu.Lock()
	if s.state == StateUnbound || s.state == StateUnbinding {
		s.mu.Unlock()
		return
	}
	s.roots = roots
	becameBound := s.state == StateBinding
	if becameBound {
		s.state = StateBound
	}
	s.mu.Unlock()

	s.bridge.Refresh(roots)

	if becameBound {
		s.notifyState(StateBound)
	}
	if cb := s.callbacks.OnTree; cb != nil {
		cb(roots)
	}
}

// CreateNode validates the trimmed name, writes the record, and for files
// opens the new node and makes it active. A collapsed parent folder is
// expanded so the new entry is visible to everyone.
func (s *SyncSession) CreateNode(ctx context.Context, parentID string, kind models.NodeKind, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if !models.ValidKind(kind) {
		return "", ErrInvalidKind
	}
	if parentID == "" {
		parentID = models.RootParentID
	}

	roots := s.Tree()
	var parent *models.FileNode
	if parentID != models.RootParentID {
		parent = FindNodeByID(parentID, roots)
		if parent != nil && !parent.IsFolder() {
			return "", ErrNotAFolder
		}
	}

	id, err := s.store.CreateNode(ctx, s.roomID, NodeInput{
		Name:      name,
		Kind:      kind,
		ParentID:  parentID,
		CreatedBy: s.userID,
	})
	if err != nil {
		return "", err
	}

	if kind == models.NodeKindFile {
		path := name
		if parent != nil {
			path = ComputePath(parent.ID, roots) + "/" + name
		}
		s.bridge.Open(models.OpenFile{ID: id, Name: name, Path: path})
		s.activateDocument(ctx, id)
	}

	if parent != nil && !parent.IsExpanded {
		expanded := true
		if err := s.store.UpdateNode(ctx, s.roomID, parent.ID, NodeUpdate{IsExpanded: &expanded}, s.userID); err != nil {
			// Presentation-state write; the created node is already persisted.
			log.Printf("expanding parent folder %s: %v", parent.ID, err)
		}
	}
	return id, nil
}

// RenameNode writes the new name and patches any matching open handle
// immediately rather than waiting for the echo.
func (s *SyncSession) RenameNode(ctx context.Context, id, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return ErrNameRequired
	}
	if err := s.store.UpdateNode(ctx, s.roomID, id, NodeUpdate{Name: &newName}, s.userID); err != nil {
		return err
	}
	s.bridge.Rename(id, newName)
	return nil
}

// DeleteNode removes the node and every descendant found in the current tree,
// leaves first so no child record is ever left pointing at a removed parent.
// Open handles for deleted files are closed, including the active one.
func (s *SyncSession) DeleteNode(ctx context.Context, id string) error {
	roots := s.Tree()
	descendants := CollectDescendants(id, roots)

	ids := make([]string, 0, len(descendants)+1)
	for i := len(descendants) - 1; i >= 0; i-- {
		ids = append(ids, descendants[i])
	}
	ids = append(ids, id)

	var firstErr error
	for _, nodeID := range ids {
		if err := s.store.RemoveNode(ctx, s.roomID, nodeID); err != nil && err != ErrNodeNotFound {
			if firstErr == nil {
				firstErr = err
			}
			log.Printf("removing node %s: %v", nodeID, err)
		}
		s.closeHandle(nodeID)
	}
	return firstErr
}

// MoveNode reparents a node. Moving a folder under its own descendant is
// rejected and the tree stays unchanged.
func (s *SyncSession) MoveNode(ctx context.Context, id, newParentID string) error {
	if newParentID == "" {
		newParentID = models.RootParentID
	}
	if newParentID == id {
		return ErrWouldCreateCycle
	}

	roots := s.Tree()
	if FindNodeByID(id, roots) == nil {
		return ErrNodeNotFound
	}
	if newParentID != models.RootParentID {
		target := FindNodeByID(newParentID, roots)
		if target == nil {
			return ErrNodeNotFound
		}
		if !target.IsFolder() {
			return ErrNotAFolder
		}
		if IsDescendant(id, newParentID, roots) {
			return ErrWouldCreateCycle
		}
	}
	return s.store.UpdateNode(ctx, s.roomID, id, NodeUpdate{ParentID: &newParentID}, s.userID)
}

// ToggleFolder flips the persisted expand state so all room members see the
// same sidebar.
func (s *SyncSession) ToggleFolder(ctx context.Context, id string) error {
	node := FindNodeByID(id, s.Tree())
	if node == nil {
		return ErrNodeNotFound
	}
	if !node.IsFolder() {
		return ErrNotAFolder
	}
	expanded := !node.IsExpanded
	return s.store.UpdateNode(ctx, s.roomID, id, NodeUpdate{IsExpanded: &expanded}, s.userID)
}

// SetActiveFile switches the single live document subscription to the given
// file, opening a handle for it if needed. The previous file's listener is
// released before the new one is established.
func (s *SyncSession) SetActiveFile(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.activeFileID == id && s.documentUnsub != nil {
		s.mu.Unlock()
		return nil
	}
	roots := s.roots
	s.mu.Unlock()

	node := FindNodeByID(id, roots)
	if node == nil {
		return ErrNodeNotFound
	}
	if !node.IsFile() {
		return ErrNotAFile
	}

	s.bridge.Open(models.OpenFile{
		ID:      id,
		Name:    node.Name,
		Content: node.Content,
		Path:    ComputePath(id, roots),
	})
	s.activateDocument(ctx, id)
	return nil
}

// activateDocument tears down the previous document subscription, then
// establishes one for fileID. Strictly one live document listener at a time.
func (s *SyncSession) activateDocument(ctx context.Context, fileID string) {
	s.mu.Lock()
	prev := s.documentUnsub
	s.documentUnsub = nil
	s.mu.Unlock()

	if prev != nil {
		prev()
	}

	unsub := s.store.SubscribeDocument(ctx, s.roomID, fileID, s.handleContent(fileID))

	s.mu.Lock()
	s.activeFileID = fileID
	s.documentUnsub = unsub
	s.mu.Unlock()
}

// handleContent builds the document subscription callback for one file.
// Events stamped with this session's own user id are echoes of writes this
// client just made and are discarded; anything else replaces the buffer.
func (s *SyncSession) handleContent(fileID string) func(content, modifiedBy string) {
	return func(content, modifiedBy string) {
		if modifiedBy != "" && modifiedBy == s.userID {
			return
		}
		s.bridge.ApplyRemote(fileID, content, func() {
			if cb := s.callbacks.OnContent; cb != nil {
				cb(fileID, content, modifiedBy)
			}
		})
	}
}

// WriteContent persists a local edit immediately; every keystroke is an
// individual write. Calls made while a remote patch is being applied are not
// user edits and are dropped to break any feedback cycle.
func (s *SyncSession) WriteContent(ctx context.Context, fileID, content string) error {
	if s.bridge.Applying() {
		return nil
	}
	s.bridge.SetLocalContent(fileID, content)
	if err := s.store.UpdateNode(ctx, s.roomID, fileID, NodeUpdate{Content: &content}, s.userID); err != nil {
		// Optimistic local state is kept; the caller decides how to surface it.
		return err
	}
	s.bridge.MarkClean(fileID)
	return nil
}

// CloseFile drops the open handle and, when it was the active file, releases
// its document subscription.
func (s *SyncSession) CloseFile(id string) {
	s.closeHandle(id)
}

func (s *SyncSession) closeHandle(id string) {
	if !s.bridge.Close(id) {
		return
	}
	s.mu.Lock()
	wasActive := s.activeFileID == id
	var unsub Unsubscribe
	if wasActive {
		unsub = s.documentUnsub
		s.documentUnsub = nil
		s.activeFileID = ""
	}
	s.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Close releases every outstanding subscription exactly once and clears local
// state. Safe to call more than once; callbacks stop firing afterwards.
func (s *SyncSession) Close() {
	s.mu.Lock()
	if s.state == StateUnbound || s.state == StateUnbinding {
		s.mu.Unlock()
		return
	}
	s.state = StateUnbinding
	collectionUnsub := s.collectionUnsub
	documentUnsub := s.documentUnsub
	membersUnsub := s.membersUnsub
	s.collectionUnsub = nil
	s.documentUnsub = nil
	s.membersUnsub = nil
	s.mu.Unlock()
	s.notifyState(StateUnbinding)

	for _, unsub := range []Unsubscribe{collectionUnsub, documentUnsub, membersUnsub} {
		if unsub != nil {
			unsub()
		}
	}

	s.bridge.CloseAll()

	s.mu.Lock()
	s.state = StateUnbound
	s.roots = nil
	s.activeFileID = ""
	s.mu.Unlock()
	s.notifyState(StateUnbound)
}

func (s *SyncSession) notifyState(state SessionState) {
	if cb := s.callbacks.OnState; cb != nil {
		cb(state)
	}
}
