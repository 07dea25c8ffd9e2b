package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// OrphanCleaner sweeps file records whose room no longer exists. Room deletion
// cascades over the room's records, but a crash between the room delete and
// the record sweep can leave strays behind; this job is the backstop.
type OrphanCleaner struct {
	db       *mongo.Database
	interval time.Duration
	logger   *log.Logger
}

func NewOrphanCleaner(db *mongo.Database, interval time.Duration) *OrphanCleaner {
	return &OrphanCleaner{
		db:       db,
		interval: interval,
		logger:   log.New(log.Writer(), "[ORPHAN_CLEANER] ", log.LstdFlags),
	}
}

// Start runs the cleanup loop until ctx is cancelled. The first sweep runs
// immediately on start.
func (oc *OrphanCleaner) Start(ctx context.Context) {
	oc.logger.Printf("Starting orphan cleaner job (interval %s)...", oc.interval)

	oc.runCleanup(ctx)

	ticker := time.NewTicker(oc.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			oc.logger.Println("Orphan cleaner stopped")
			return
		case <-ticker.C:
			oc.runCleanup(ctx)
		}
	}
}

func (oc *OrphanCleaner) runCleanup(parent context.Context) {
	oc.logger.Println("Running orphan cleanup...")

	ctx, cancel := context.WithTimeout(parent, 5*time.Minute)
	defer cancel()

	removed, err := oc.cleanupRecords(ctx)
	if err != nil {
		oc.logger.Printf("Error cleaning up records: %v", err)
		return
	}
	oc.logger.Printf("Orphan cleanup completed. Records removed: %d", removed)
}

func (oc *OrphanCleaner) cleanupRecords(ctx context.Context) (int, error) {
	recordsCollection := oc.db.Collection("room_files")
	roomsCollection := oc.db.Collection("code_rooms")

	roomIDs, err := recordsCollection.Distinct(ctx, "room_id", bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to list record room ids: %w", err)
	}

	var removed int
	for _, raw := range roomIDs {
		roomID, ok := raw.(string)
		if !ok || roomID == "" {
			continue
		}

		count, err := roomsCollection.CountDocuments(ctx, bson.M{"_id": roomID})
		if err != nil {
			oc.logger.Printf("Failed to check room %s: %v", roomID, err)
			continue
		}
		if count > 0 {
			continue
		}

		res, err := recordsCollection.DeleteMany(ctx, bson.M{"room_id": roomID})
		if err != nil {
			oc.logger.Printf("Failed to delete records for room %s: %v", roomID, err)
			continue
		}
		removed += int(res.DeletedCount)
		oc.logger.Printf("Removed %d orphaned records for deleted room %s", res.DeletedCount, roomID)
	}

	return removed, nil
}
