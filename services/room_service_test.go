package services

import (
	"context"
	"errors"
	"testing"

	"codesync/models"

	"golang.org/x/crypto/bcrypt"
)

func newTestRoomService() (*RoomService, *fakeRoomStore, *fakeRecordStore) {
	roomStore := newFakeRoomStore()
	recordStore := newFakeRecordStore()
	return NewRoomService(roomStore, recordStore, nil), roomStore, recordStore
}

func TestCreateRoomHashesPassword(t *testing.T) {
	service, roomStore, _ := newTestRoomService()
	ctx := context.Background()

	room, err := service.CreateRoom(ctx, "demo", "hunter22", "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if room.ID == "" {
		t.Fatal("room has no id")
	}
	if room.OwnerID != "u1" || !room.HasMember("u1") {
		t.Fatalf("owner not in roster: %+v", room)
	}

	stored, err := roomStore.GetRoom(ctx, room.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.PasswordHash == "hunter22" {
		t.Fatal("password stored in plaintext")
	}
	if bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("hunter22")) != nil {
		t.Fatal("stored hash does not verify against the password")
	}
}

func TestCreateRoomSeedsStarterFiles(t *testing.T) {
	service, _, recordStore := newTestRoomService()
	ctx := context.Background()

	room, err := service.CreateRoom(ctx, "demo", "hunter22", "u1")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	records, _ := recordStore.ListNodes(ctx, room.ID)
	if len(records) != 3 {
		t.Fatalf("seeded records = %d, want 3", len(records))
	}
	names := map[string]bool{}
	for _, rec := range records {
		names[rec.Name] = true
	}
	for _, want := range []string{"src", "README.md", "app.js"} {
		if !names[want] {
			t.Fatalf("missing seed %q in %v", want, names)
		}
	}
}

func TestCreateRoomValidation(t *testing.T) {
	service, _, _ := newTestRoomService()
	ctx := context.Background()

	tests := []struct {
		name     string
		roomName string
		password string
		owner    string
	}{
		{"empty name", "  ", "pw", "u1"},
		{"empty password", "demo", "", "u1"},
		{"empty owner", "demo", "pw", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := service.CreateRoom(ctx, tt.roomName, tt.password, tt.owner); err == nil {
				t.Fatal("expected an error")
			}
		})
	}
}

func TestJoinRoom(t *testing.T) {
	service, roomStore, _ := newTestRoomService()
	ctx := context.Background()

	room, _ := service.CreateRoom(ctx, "demo", "hunter22", "u1")

	// Wrong password leaves the roster untouched.
	if _, err := service.JoinRoom(ctx, room.ID, "wrong", "u2"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("err = %v, want ErrInvalidPassword", err)
	}
	stored, _ := roomStore.GetRoom(ctx, room.ID)
	if len(stored.Members) != 1 {
		t.Fatalf("roster changed on failed join: %v", stored.Members)
	}

	joined, err := service.JoinRoom(ctx, room.ID, "hunter22", "u2")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if !joined.HasMember("u2") {
		t.Fatalf("u2 missing from roster: %v", joined.Members)
	}

	// Joining again is a no-op, not a duplicate entry.
	if _, err := service.JoinRoom(ctx, room.ID, "hunter22", "u2"); err != nil {
		t.Fatalf("re-join: %v", err)
	}
	stored, _ = roomStore.GetRoom(ctx, room.ID)
	if len(stored.Members) != 2 {
		t.Fatalf("roster after re-join = %v", stored.Members)
	}

	if _, err := service.JoinRoom(ctx, "ghost", "hunter22", "u2"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("join missing room err = %v", err)
	}
}

func TestLeaveRoom(t *testing.T) {
	service, roomStore, _ := newTestRoomService()
	ctx := context.Background()

	room, _ := service.CreateRoom(ctx, "demo", "hunter22", "u1")
	service.JoinRoom(ctx, room.ID, "hunter22", "u2")

	if err := service.LeaveRoom(ctx, room.ID, "u1"); !errors.Is(err, ErrOwnerCannotLeave) {
		t.Fatalf("owner leave err = %v, want ErrOwnerCannotLeave", err)
	}

	if err := service.LeaveRoom(ctx, room.ID, "u2"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	stored, _ := roomStore.GetRoom(ctx, room.ID)
	if stored.HasMember("u2") {
		t.Fatal("u2 still in roster after leave")
	}

	// Leaving a room you are not in is a no-op.
	if err := service.LeaveRoom(ctx, room.ID, "u3"); err != nil {
		t.Fatalf("non-member leave: %v", err)
	}
}

func TestDeleteRoomCascadesRecords(t *testing.T) {
	service, roomStore, recordStore := newTestRoomService()
	ctx := context.Background()

	room, _ := service.CreateRoom(ctx, "demo", "hunter22", "u1")
	service.JoinRoom(ctx, room.ID, "hunter22", "u2")

	if err := service.DeleteRoom(ctx, room.ID, "u2"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("non-owner delete err = %v, want ErrNotOwner", err)
	}
	if recordStore.recordCount(room.ID) == 0 {
		t.Fatal("records deleted by non-owner")
	}

	if err := service.DeleteRoom(ctx, room.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := roomStore.GetRoom(ctx, room.ID); !errors.Is(err, ErrRoomNotFound) {
		t.Fatal("room still exists after delete")
	}
	if recordStore.recordCount(room.ID) != 0 {
		t.Fatalf("orphaned records = %d, want 0", recordStore.recordCount(room.ID))
	}
}

func TestSubscribeMembersDeliversEmptyRosterWhenRoomGone(t *testing.T) {
	service, _, _ := newTestRoomService()
	ctx := context.Background()

	room, _ := service.CreateRoom(ctx, "demo", "hunter22", "u1")

	var rosters [][]string
	unsub := service.SubscribeMembers(ctx, room.ID, func(members []models.Profile) {
		var uids []string
		for _, m := range members {
			uids = append(uids, m.UID)
		}
		rosters = append(rosters, uids)
	})
	defer unsub()

	if err := service.DeleteRoom(ctx, room.ID, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if len(rosters) < 2 {
		t.Fatalf("roster deliveries = %d, want initial plus deletion", len(rosters))
	}
	if last := rosters[len(rosters)-1]; len(last) != 0 {
		t.Fatalf("final roster = %v, want empty", last)
	}
}
