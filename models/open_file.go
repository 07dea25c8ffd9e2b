package models

// OpenFile is a client-local working copy of a file kept by a sync session.
// It is ephemeral and never written to the store; Content tracks the editor
// buffer and IsDirty is cleared as soon as the unbuffered write confirms.
type OpenFile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content string `json:"content"`
	IsDirty bool   `json:"is_dirty"`
	Path    string `json:"path"`
}
