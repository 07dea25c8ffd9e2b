package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"codesync/models"
)

// fakeRecordStore is an in-memory RecordStore with synchronous subscription
// delivery, so tests observe every notification deterministically without
// sleeping.
type fakeRecordStore struct {
	mu      sync.Mutex
	nextID  int
	nextSub int
	clock   time.Time
	records []models.FileNode
	colSubs map[int]*fakeColSub
	docSubs map[int]*fakeDocSub

	writeErr error // when set, every write fails with a StoreWriteError
}

type fakeColSub struct {
	roomID string
	fn     func([]models.FileNode)
}

type fakeDocSub struct {
	roomID string
	nodeID string
	fn     func(content, modifiedBy string)
}

func newFakeRecordStore() *fakeRecordStore {
	return &fakeRecordStore{
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		colSubs: make(map[int]*fakeColSub),
		docSubs: make(map[int]*fakeDocSub),
	}
}

func (f *fakeRecordStore) CreateNode(_ context.Context, roomID string, input NodeInput) (string, error) {
	f.mu.Lock()
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()
		return "", &StoreWriteError{Op: "create node", Err: err}
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		f.mu.Unlock()
		return "", ErrNameRequired
	}
	if !models.ValidKind(input.Kind) {
		f.mu.Unlock()
		return "", ErrInvalidKind
	}

	parentID := input.ParentID
	if parentID == "" {
		parentID = models.RootParentID
	}

	f.nextID++
	f.clock = f.clock.Add(time.Second)
	node := models.FileNode{
		ID:             fmt.Sprintf("n%d", f.nextID),
		RoomID:         roomID,
		Name:           name,
		Kind:           input.Kind,
		ParentID:       parentID,
		IsExpanded:     input.IsExpanded,
		CreatedAt:      f.clock,
		UpdatedAt:      f.clock,
		LastModifiedBy: input.CreatedBy,
	}
	if input.Kind == models.NodeKindFile {
		node.Content = input.Content
	}
	f.records = append(f.records, node)
	f.mu.Unlock()

	f.notifyCollection(roomID)
	return node.ID, nil
}

func (f *fakeRecordStore) UpdateNode(_ context.Context, roomID, id string, update NodeUpdate, actingUserID string) error {
	f.mu.Lock()
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()
		return &StoreWriteError{Op: "update node", Err: err}
	}

	idx := f.indexOf(roomID, id)
	if idx < 0 {
		f.mu.Unlock()
		return ErrNodeNotFound
	}

	rec := &f.records[idx]
	contentChanged := false
	if update.Name != nil {
		rec.Name = *update.Name
	}
	if update.ParentID != nil {
		rec.ParentID = *update.ParentID
	}
	if update.Content != nil {
		rec.Content = *update.Content
		contentChanged = true
	}
	if update.IsExpanded != nil {
		rec.IsExpanded = *update.IsExpanded
	}
	f.clock = f.clock.Add(time.Second)
	rec.UpdatedAt = f.clock
	rec.LastModifiedBy = actingUserID
	content := rec.Content
	f.mu.Unlock()

	f.notifyCollection(roomID)
	if contentChanged {
		f.notifyDocument(roomID, id, content, actingUserID)
	}
	return nil
}

func (f *fakeRecordStore) RemoveNode(_ context.Context, roomID, id string) error {
	f.mu.Lock()
	if f.writeErr != nil {
		err := f.writeErr
		f.mu.Unlock()
		return &StoreWriteError{Op: "remove node", Err: err}
	}

	idx := f.indexOf(roomID, id)
	if idx < 0 {
		f.mu.Unlock()
		return ErrNodeNotFound
	}
	f.records = append(f.records[:idx], f.records[idx+1:]...)
	f.mu.Unlock()

	f.notifyCollection(roomID)
	return nil
}

func (f *fakeRecordStore) GetNode(_ context.Context, roomID, id string) (*models.FileNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.indexOf(roomID, id)
	if idx < 0 {
		return nil, ErrNodeNotFound
	}
	node := f.records[idx]
	return &node, nil
}

func (f *fakeRecordStore) ListNodes(_ context.Context, roomID string) ([]models.FileNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listLocked(roomID), nil
}

func (f *fakeRecordStore) SubscribeCollection(_ context.Context, roomID string, onChange func(records []models.FileNode)) Unsubscribe {
	f.mu.Lock()
	key := f.nextSub
	f.nextSub++
	f.colSubs[key] = &fakeColSub{roomID: roomID, fn: onChange}
	snapshot := f.listLocked(roomID)
	f.mu.Unlock()

	onChange(snapshot)

	return func() {
		f.mu.Lock()
		delete(f.colSubs, key)
		f.mu.Unlock()
	}
}

func (f *fakeRecordStore) SubscribeDocument(_ context.Context, roomID, id string, onChange func(content, modifiedBy string)) Unsubscribe {
	f.mu.Lock()
	key := f.nextSub
	f.nextSub++
	f.docSubs[key] = &fakeDocSub{roomID: roomID, nodeID: id, fn: onChange}
	idx := f.indexOf(roomID, id)
	var content, modifiedBy string
	found := idx >= 0
	if found {
		content = f.records[idx].Content
		modifiedBy = f.records[idx].LastModifiedBy
	}
	f.mu.Unlock()

	if found {
		onChange(content, modifiedBy)
	}

	return func() {
		f.mu.Lock()
		delete(f.docSubs, key)
		f.mu.Unlock()
	}
}

func (f *fakeRecordStore) indexOf(roomID, id string) int {
	for i := range f.records {
		if f.records[i].RoomID == roomID && f.records[i].ID == id {
			return i
		}
	}
	return -1
}

func (f *fakeRecordStore) listLocked(roomID string) []models.FileNode {
	var out []models.FileNode
	for _, rec := range f.records {
		if rec.RoomID == roomID {
			out = append(out, rec)
		}
	}
	return out
}

func (f *fakeRecordStore) notifyCollection(roomID string) {
	f.mu.Lock()
	var subs []*fakeColSub
	for _, sub := range f.colSubs {
		if sub.roomID == roomID {
			subs = append(subs, sub)
		}
	}
	snapshot := f.listLocked(roomID)
	f.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

func (f *fakeRecordStore) notifyDocument(roomID, id, content, modifiedBy string) {
	f.mu.Lock()
	var subs []*fakeDocSub
	for _, sub := range f.docSubs {
		if sub.roomID == roomID && sub.nodeID == id {
			subs = append(subs, sub)
		}
	}
	f.mu.Unlock()

	for _, sub := range subs {
		sub.fn(content, modifiedBy)
	}
}

func (f *fakeRecordStore) docSubCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docSubs)
}

func (f *fakeRecordStore) recordCount(roomID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listLocked(roomID))
}

// fakeRoomStore is an in-memory RoomStore with synchronous room notifications.
type fakeRoomStore struct {
	mu      sync.Mutex
	nextID  int
	nextSub int
	rooms   map[string]*models.Room
	subs    map[int]*fakeRoomSub
}

type fakeRoomSub struct {
	roomID string
	fn     func(*models.Room)
}

func newFakeRoomStore() *fakeRoomStore {
	return &fakeRoomStore{
		rooms: make(map[string]*models.Room),
		subs:  make(map[int]*fakeRoomSub),
	}
}

func (f *fakeRoomStore) InsertRoom(_ context.Context, room *models.Room) (string, error) {
	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("room%d", f.nextID)
	stored := *room
	stored.ID = id
	stored.Members = append([]string(nil), room.Members...)
	f.rooms[id] = &stored
	f.mu.Unlock()
	return id, nil
}

func (f *fakeRoomStore) GetRoom(_ context.Context, roomID string) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, ErrRoomNotFound
	}
	copied := *room
	copied.Members = append([]string(nil), room.Members...)
	return &copied, nil
}

func (f *fakeRoomStore) ListRoomsForUser(_ context.Context, userID string) ([]models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Room
	for _, room := range f.rooms {
		if room.HasMember(userID) {
			copied := *room
			copied.Members = append([]string(nil), room.Members...)
			out = append(out, copied)
		}
	}
	return out, nil
}

func (f *fakeRoomStore) AddMember(_ context.Context, roomID, userID string) error {
	f.mu.Lock()
	room, ok := f.rooms[roomID]
	if !ok {
		f.mu.Unlock()
		return ErrRoomNotFound
	}
	if !room.HasMember(userID) {
		room.Members = append(room.Members, userID)
	}
	f.mu.Unlock()
	f.notify(roomID)
	return nil
}

func (f *fakeRoomStore) RemoveMember(_ context.Context, roomID, userID string) error {
	f.mu.Lock()
	room, ok := f.rooms[roomID]
	if !ok {
		f.mu.Unlock()
		return ErrRoomNotFound
	}
	for i, m := range room.Members {
		if m == userID {
			room.Members = append(room.Members[:i], room.Members[i+1:]...)
			break
		}
	}
	f.mu.Unlock()
	f.notify(roomID)
	return nil
}

func (f *fakeRoomStore) DeleteRoom(_ context.Context, roomID string) error {
	f.mu.Lock()
	if _, ok := f.rooms[roomID]; !ok {
		f.mu.Unlock()
		return ErrRoomNotFound
	}
	delete(f.rooms, roomID)
	f.mu.Unlock()
	f.notify(roomID)
	return nil
}

func (f *fakeRoomStore) SubscribeRoom(_ context.Context, roomID string, onChange func(room *models.Room)) Unsubscribe {
	f.mu.Lock()
	key := f.nextSub
	f.nextSub++
	f.subs[key] = &fakeRoomSub{roomID: roomID, fn: onChange}
	var initial *models.Room
	if room, ok := f.rooms[roomID]; ok {
		copied := *room
		copied.Members = append([]string(nil), room.Members...)
		initial = &copied
	}
	f.mu.Unlock()

	onChange(initial)

	return func() {
		f.mu.Lock()
		delete(f.subs, key)
		f.mu.Unlock()
	}
}

func (f *fakeRoomStore) notify(roomID string) {
	f.mu.Lock()
	var subs []*fakeRoomSub
	for _, sub := range f.subs {
		if sub.roomID == roomID {
			subs = append(subs, sub)
		}
	}
	var snapshot *models.Room
	if room, ok := f.rooms[roomID]; ok {
		copied := *room
		copied.Members = append([]string(nil), room.Members...)
		snapshot = &copied
	}
	f.mu.Unlock()

	for _, sub := range subs {
		sub.fn(snapshot)
	}
}

// fakeProfiles resolves only the ids it was told about; everything else errors
// so the roster falls back to the anonymous placeholder.
type fakeProfiles struct {
	known map[string]models.Profile
}

func (f *fakeProfiles) LookupProfile(_ context.Context, uid string) (*models.Profile, error) {
	if p, ok := f.known[uid]; ok {
		return &p, nil
	}
	return nil, ErrUserNotFound
}
