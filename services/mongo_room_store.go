package services

import (
	"context"
	"log"
	"sync"
	"time"

	"codesync/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRoomStore implements RoomStore on the code_rooms collection.
type MongoRoomStore struct {
	collection   *mongo.Collection
	writeTimeout time.Duration
}

func NewMongoRoomStore(db *mongo.Database, writeTimeout time.Duration) *MongoRoomStore {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &MongoRoomStore{
		collection:   db.Collection("code_rooms"),
		writeTimeout: writeTimeout,
	}
}

func (s *MongoRoomStore) InsertRoom(ctx context.Context, room *models.Room) (string, error) {
	if room.ID == "" {
		room.ID = primitive.NewObjectID().Hex()
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	if _, err := s.collection.InsertOne(writeCtx, room); err != nil {
		return "", &StoreWriteError{Op: "create room", Err: err}
	}
	return room.ID, nil
}

func (s *MongoRoomStore) GetRoom(ctx context.Context, roomID string) (*models.Room, error) {
	var room models.Room
	err := s.collection.FindOne(ctx, bson.M{"_id": roomID}).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, ErrRoomNotFound
	} else if err != nil {
		return nil, err
	}
	return &room, nil
}

func (s *MongoRoomStore) ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"members": userID},
		options.Find().SetSort(bson.M{"created_at": -1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rooms []models.Room
	if err = cursor.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (s *MongoRoomStore) AddMember(ctx context.Context, roomID, userID string) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	result, err := s.collection.UpdateOne(writeCtx,
		bson.M{"_id": roomID},
		bson.M{"$addToSet": bson.M{"members": userID}})
	if err != nil {
		return &StoreWriteError{Op: "add member", Err: err}
	}
	if result.MatchedCount == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (s *MongoRoomStore) RemoveMember(ctx context.Context, roomID, userID string) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	result, err := s.collection.UpdateOne(writeCtx,
		bson.M{"_id": roomID},
		bson.M{"$pull": bson.M{"members": userID}})
	if err != nil {
		return &StoreWriteError{Op: "remove member", Err: err}
	}
	if result.MatchedCount == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (s *MongoRoomStore) DeleteRoom(ctx context.Context, roomID string) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	result, err := s.collection.DeleteOne(writeCtx, bson.M{"_id": roomID})
	if err != nil {
		return &StoreWriteError{Op: "delete room", Err: err}
	}
	if result.DeletedCount == 0 {
		return ErrRoomNotFound
	}
	return nil
}

func (s *MongoRoomStore) SubscribeRoom(ctx context.Context, roomID string, onChange func(room *models.Room)) Unsubscribe {
	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		room, err := s.GetRoom(streamCtx, roomID)
		if err != nil && err != ErrRoomNotFound {
			if streamCtx.Err() == nil {
				log.Printf("loading room %s failed: %v", roomID, err)
			}
			room = nil
		}
		if streamCtx.Err() != nil {
			return
		}
		onChange(room)

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"documentKey._id": roomID}}},
		}

		stream, err := s.collection.Watch(streamCtx, pipeline,
			options.ChangeStream().SetFullDocument(options.UpdateLookup))
		if err != nil {
			if streamCtx.Err() == nil {
				log.Printf("room watch failed for %s: %v", roomID, err)
			}
			return
		}
		defer stream.Close(context.Background())

		for stream.Next(streamCtx) {
			var event struct {
				OperationType string       `bson:"operationType"`
				FullDocument  *models.Room `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				log.Printf("decoding room event for %s: %v", roomID, err)
				continue
			}
			if streamCtx.Err() != nil {
				return
			}
			if event.OperationType == "delete" {
				onChange(nil)
				continue
			}
			if event.FullDocument != nil {
				onChange(event.FullDocument)
			}
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			log.Printf("room stream ended for %s: %v", roomID, err)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}
}
