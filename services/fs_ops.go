package services

import (
	"context"
	"log"
)

// DeleteSubtree removes a node together with every descendant derived from a
// fresh listing of the room, leaves first so no record is left pointing at a
// removed parent. Returns how many records were removed. Used by callers that
// do not hold a live sync session.
func DeleteSubtree(ctx context.Context, store RecordStore, roomID, id string) (int, error) {
	records, err := store.ListNodes(ctx, roomID)
	if err != nil {
		return 0, err
	}
	roots := BuildFileTree(records)
	descendants := CollectDescendants(id, roots)

	ids := make([]string, 0, len(descendants)+1)
	for i := len(descendants) - 1; i >= 0; i-- {
		ids = append(ids, descendants[i])
	}
	ids = append(ids, id)

	removed := 0
	var firstErr error
	for _, nodeID := range ids {
		if err := store.RemoveNode(ctx, roomID, nodeID); err != nil {
			if err == ErrNodeNotFound {
				continue
			}
			if firstErr == nil {
				firstErr = err
			}
			log.Printf("removing node %s in room %s: %v", nodeID, roomID, err)
			continue
		}
		removed++
	}
	return removed, firstErr
}
