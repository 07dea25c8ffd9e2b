package models

import "time"

// Room is a collaborative editing session. The stored password is a bcrypt
// hash; the raw password is never persisted.
type Room struct {
	ID           string    `bson:"_id,omitempty" json:"room_id"`
	RoomName     string    `bson:"room_name" json:"room_name"`
	PasswordHash string    `bson:"password_hash" json:"-"`
	OwnerID      string    `bson:"owner_id" json:"owner_id"`
	Members      []string  `bson:"members" json:"members"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
}

func (r *Room) HasMember(userID string) bool {
	for _, m := range r.Members {
		if m == userID {
			return true
		}
	}
	return false
}

func (r *Room) IsOwner(userID string) bool {
	return r.OwnerID == userID
}
