package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"codesync/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRecordStore implements RecordStore on a single MongoDB collection.
// Records from all rooms share the collection; the room_id field is the
// namespace and every query filters on it.
type MongoRecordStore struct {
	collection   *mongo.Collection
	writeTimeout time.Duration
}

func NewMongoRecordStore(db *mongo.Database, writeTimeout time.Duration) *MongoRecordStore {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &MongoRecordStore{
		collection:   db.Collection("room_files"),
		writeTimeout: writeTimeout,
	}
}

func (s *MongoRecordStore) CreateNode(ctx context.Context, roomID string, input NodeInput) (string, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return "", ErrNameRequired
	}
	if !models.ValidKind(input.Kind) {
		return "", ErrInvalidKind
	}

	parentID := input.ParentID
	if parentID == "" {
		parentID = models.RootParentID
	}

	now := time.Now()
	node := models.FileNode{
		ID:             primitive.NewObjectID().Hex(),
		RoomID:         roomID,
		Name:           name,
		Kind:           input.Kind,
		ParentID:       parentID,
		IsExpanded:     input.IsExpanded,
		CreatedAt:      now,
		UpdatedAt:      now,
		LastModifiedBy: input.CreatedBy,
	}
	if input.Kind == models.NodeKindFile {
		node.Content = input.Content
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	if _, err := s.collection.InsertOne(writeCtx, node); err != nil {
		return "", &StoreWriteError{Op: "create node", Err: err}
	}
	return node.ID, nil
}

func (s *MongoRecordStore) UpdateNode(ctx context.Context, roomID, id string, update NodeUpdate, actingUserID string) error {
	set := bson.M{
		"updated_at":       time.Now(),
		"last_modified_by": actingUserID,
	}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.ParentID != nil {
		set["parent_id"] = *update.ParentID
	}
	if update.Content != nil {
		set["content"] = *update.Content
	}
	if update.IsExpanded != nil {
		set["is_expanded"] = *update.IsExpanded
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	result, err := s.collection.UpdateOne(writeCtx,
		bson.M{"_id": id, "room_id": roomID},
		bson.M{"$set": set})
	if err != nil {
		return &StoreWriteError{Op: "update node", Err: err}
	}
	if result.MatchedCount == 0 {
		return ErrNodeNotFound
	}
	return nil
}

func (s *MongoRecordStore) RemoveNode(ctx context.Context, roomID, id string) error {
	writeCtx, cancel := context.WithTimeout(ctx, s.writeTimeout)
	defer cancel()

	result, err := s.collection.DeleteOne(writeCtx, bson.M{"_id": id, "room_id": roomID})
	if err != nil {
		return &StoreWriteError{Op: "remove node", Err: err}
	}
	if result.DeletedCount == 0 {
		return ErrNodeNotFound
	}
	return nil
}

func (s *MongoRecordStore) GetNode(ctx context.Context, roomID, id string) (*models.FileNode, error) {
	var node models.FileNode
	err := s.collection.FindOne(ctx, bson.M{"_id": id, "room_id": roomID}).Decode(&node)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNodeNotFound
	} else if err != nil {
		return nil, err
	}
	return &node, nil
}

// ListNodes returns the room's flat record list ordered by creation time,
// the same order the tree engine uses for siblings.
func (s *MongoRecordStore) ListNodes(ctx context.Context, roomID string) ([]models.FileNode, error) {
	cursor, err := s.collection.Find(ctx,
		bson.M{"room_id": roomID},
		options.Find().SetSort(bson.M{"created_at": 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var nodes []models.FileNode
	if err = cursor.All(ctx, &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

func (s *MongoRecordStore) SubscribeCollection(ctx context.Context, roomID string, onChange func(records []models.FileNode)) Unsubscribe {
	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		s.deliverSnapshot(streamCtx, roomID, onChange)

		// Delete events carry no fullDocument, so they cannot be filtered by
		// room in the pipeline; an occasional cross-room re-list is accepted.
		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{"$or": bson.A{
				bson.M{"fullDocument.room_id": roomID},
				bson.M{"operationType": "delete"},
			}}}},
		}

		stream, err := s.collection.Watch(streamCtx, pipeline,
			options.ChangeStream().SetFullDocument(options.UpdateLookup))
		if err != nil {
			if streamCtx.Err() == nil {
				log.Printf("collection watch failed for room %s: %v", roomID, err)
			}
			return
		}
		defer stream.Close(context.Background())

		for stream.Next(streamCtx) {
			s.deliverSnapshot(streamCtx, roomID, onChange)
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			log.Printf("collection stream ended for room %s: %v", roomID, err)
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

// deliverSnapshot re-lists the room and hands the flat records to the
// subscriber. Read failures degrade to an empty snapshot rather than
// terminating the subscription.
func (s *MongoRecordStore) deliverSnapshot(ctx context.Context, roomID string, onChange func([]models.FileNode)) {
	if ctx.Err() != nil {
		return
	}
	records, err := s.ListNodes(ctx, roomID)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Printf("listing room %s failed, delivering empty snapshot: %v", roomID, err)
		records = nil
	}
	onChange(records)
}

func (s *MongoRecordStore) SubscribeDocument(ctx context.Context, roomID, id string, onChange func(content, modifiedBy string)) Unsubscribe {
	streamCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		// Fire once with the current content so a freshly opened file shows
		// the latest remote state before the first peer edit arrives.
		if node, err := s.GetNode(streamCtx, roomID, id); err == nil {
			if streamCtx.Err() != nil {
				return
			}
			onChange(node.Content, node.LastModifiedBy)
		}

		pipeline := mongo.Pipeline{
			{{Key: "$match", Value: bson.M{
				"documentKey._id": id,
				"operationType":   bson.M{"$in": bson.A{"update", "replace"}},
			}}},
		}

		stream, err := s.collection.Watch(streamCtx, pipeline,
			options.ChangeStream().SetFullDocument(options.UpdateLookup))
		if err != nil {
			if streamCtx.Err() == nil {
				log.Printf("document watch failed for file %s: %v", id, err)
			}
			return
		}
		defer stream.Close(context.Background())

		for stream.Next(streamCtx) {
			var event struct {
				FullDocument *models.FileNode `bson:"fullDocument"`
			}
			if err := stream.Decode(&event); err != nil {
				log.Printf("decoding document event for file %s: %v", id, err)
				continue
			}
			if event.FullDocument == nil || event.FullDocument.RoomID != roomID {
				continue
			}
			if streamCtx.Err() != nil {
				return
			}
			onChange(event.FullDocument.Content, event.FullDocument.LastModifiedBy)
		}
		if err := stream.Err(); err != nil && streamCtx.Err() == nil {
			log.Printf("document stream ended for file %s: %v", id, err)
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
