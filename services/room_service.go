package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"codesync/models"

	"golang.org/x/crypto/bcrypt"
)

// ProfileLookup resolves a user id to a display profile for the member
// roster. The room service tolerates lookup failures by substituting a
// placeholder profile instead of dropping the member.
type ProfileLookup interface {
	LookupProfile(ctx context.Context, uid string) (*models.Profile, error)
}

// RoomService manages room lifecycle and membership. Room passwords are
// bcrypt-hashed before they are stored; the raw password never leaves the
// create/join call.
type RoomService struct {
	rooms    RoomStore
	records  RecordStore
	profiles ProfileLookup
}

func NewRoomService(rooms RoomStore, records RecordStore, profiles ProfileLookup) *RoomService {
	return &RoomService{
		rooms:    rooms,
		records:  records,
		profiles: profiles,
	}
}

// CreateRoom creates a password-protected room owned by ownerID and seeds its
// file system with the default starter set.
func (s *RoomService) CreateRoom(ctx context.Context, roomName, password, ownerID string) (*models.Room, error) {
	roomName = strings.TrimSpace(roomName)
	if roomName == "" || password == "" || ownerID == "" {
		return nil, fmt.Errorf("room name, password and owner are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing room password: %w", err)
	}

	room := &models.Room{
		RoomName:     roomName,
		PasswordHash: string(hash),
		OwnerID:      ownerID,
		Members:      []string{ownerID},
		CreatedAt:    time.Now(),
	}

	id, err := s.rooms.InsertRoom(ctx, room)
	if err != nil {
		return nil, err
	}
	room.ID = id

	if err := s.seedFileSystem(ctx, id, ownerID); err != nil {
		// The room exists; a failed seed leaves it empty rather than failing
		// the whole creation.
		log.Printf("seeding room %s: %v", id, err)
	}
	return room, nil
}

// JoinRoom verifies the password and adds the user to the member roster.
// Re-joining as an existing member is a no-op.
func (s *RoomService) JoinRoom(ctx context.Context, roomID, password, userID string) (*models.Room, error) {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(room.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidPassword
	}
	if !room.HasMember(userID) {
		if err := s.rooms.AddMember(ctx, roomID, userID); err != nil {
			return nil, err
		}
		room.Members = append(room.Members, userID)
	}
	return room, nil
}

// LeaveRoom removes a non-owner member. The owner cannot leave; deleting the
// room is the only exit for an owner, enforced here and not just in the UI.
func (s *RoomService) LeaveRoom(ctx context.Context, roomID, userID string) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.IsOwner(userID) {
		return ErrOwnerCannotLeave
	}
	if !room.HasMember(userID) {
		return nil
	}
	return s.rooms.RemoveMember(ctx, roomID, userID)
}

// DeleteRoom destroys the room and cascade-deletes its file system records,
// so nothing is left orphaned in the record store. Only the owner may delete.
func (s *RoomService) DeleteRoom(ctx context.Context, roomID, userID string) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if !room.IsOwner(userID) {
		return ErrNotOwner
	}
	if err := s.rooms.DeleteRoom(ctx, roomID); err != nil {
		return err
	}

	nodes, err := s.records.ListNodes(ctx, roomID)
	if err != nil {
		return fmt.Errorf("listing room files for cleanup: %w", err)
	}
	var firstErr error
	for _, node := range nodes {
		if err := s.records.RemoveNode(ctx, roomID, node.ID); err != nil && err != ErrNodeNotFound {
			if firstErr == nil {
				firstErr = err
			}
			log.Printf("removing file record %s of deleted room %s: %v", node.ID, roomID, err)
		}
	}
	return firstErr
}

func (s *RoomService) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	return s.rooms.GetRoom(ctx, roomID)
}

// ListRooms returns the rooms the user owns or has joined, newest first.
func (s *RoomService) ListRooms(ctx context.Context, userID string) ([]models.Room, error) {
	return s.rooms.ListRoomsForUser(ctx, userID)
}

// SubscribeMembers streams the live member roster resolved to display
// profiles. Members whose profile lookup fails appear as "Anonymous" rather
// than vanishing from the list. An empty roster is delivered when the room
// is gone.
func (s *RoomService) SubscribeMembers(ctx context.Context, roomID string, onChange func(members []models.Profile)) Unsubscribe {
	return s.rooms.SubscribeRoom(ctx, roomID, func(room *models.Room) {
		if room == nil {
			onChange(nil)
			return
		}
		profiles := make([]models.Profile, 0, len(room.Members))
		for _, uid := range room.Members {
			profiles = append(profiles, s.resolveProfile(ctx, uid))
		}
		onChange(profiles)
	})
}

func (s *RoomService) resolveProfile(ctx context.Context, uid string) models.Profile {
	if s.profiles != nil {
		if p, err := s.profiles.LookupProfile(ctx, uid); err == nil && p != nil {
			return *p
		}
	}
	return models.Profile{UID: uid, Name: "Anonymous"}
}

// seedFileSystem creates the default starter files for a fresh room. An
// already-populated namespace is left untouched.
func (s *RoomService) seedFileSystem(ctx context.Context, roomID, ownerID string) error {
	existing, err := s.records.ListNodes(ctx, roomID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	seeds := []NodeInput{
		{
			Name:       "src",
			Kind:       models.NodeKindFolder,
			ParentID:   models.RootParentID,
			IsExpanded: true,
			CreatedBy:  ownerID,
		},
		{
			Name:     "README.md",
			Kind:     models.NodeKindFile,
			ParentID: models.RootParentID,
			Content: "# Welcome to CodeSync Room\n\n" +
				"This is a collaborative coding environment.\n" +
				"Start coding together!\n\n" +
				"Room ID: " + roomID + "\n\n" +
				"## Real-time Collaboration\n" +
				"- All changes are synchronized instantly\n" +
				"- Multiple users can edit simultaneously\n" +
				"- File system changes are reflected in real-time\n",
			CreatedBy: ownerID,
		},
		{
			Name:     "app.js",
			Kind:     models.NodeKindFile,
			ParentID: models.RootParentID,
			Content: "// Welcome to CodeSync!\n" +
				"// This file demonstrates real-time collaboration\n\n" +
				"console.log(\"Hello from CodeSync!\");\n\n" +
				"// Try editing this file with multiple users\n" +
				"// and see the changes appear instantly!\n",
			CreatedBy: ownerID,
		},
	}

	for _, seed := range seeds {
		if _, err := s.records.CreateNode(ctx, roomID, seed); err != nil {
			return err
		}
	}
	return nil
}
