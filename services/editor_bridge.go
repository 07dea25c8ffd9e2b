package services

import (
	"sync"
	"sync/atomic"

	"codesync/models"
)

// EditorBridge couples the open-file buffers of one client to the sync
// session's write path. Local keystrokes flow out through the session
// unbuffered; remote patches flow in through ApplyRemote, which raises the
// applying-remote flag so the buffer update can never re-trigger an outgoing
// write, even when the id-based echo check cannot fire (guest session with a
// missing user id).
type EditorBridge struct {
	mu             sync.Mutex
	open           []*models.OpenFile
	applyingRemote atomic.Bool
}

func NewEditorBridge() *EditorBridge {
	return &EditorBridge{}
}

// Open registers a handle, or just returns if one already exists for the id.
func (b *EditorBridge) Open(handle models.OpenFile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.find(handle.ID) != nil {
		return
	}
	h := handle
	b.open = append(b.open, &h)
}

// Close drops the handle for id and reports whether one existed.
func (b *EditorBridge) Close(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, f := range b.open {
		if f.ID == id {
			b.open = append(b.open[:i], b.open[i+1:]...)
			return true
		}
	}
	return false
}

// CloseAll drops every handle; used on session teardown.
func (b *EditorBridge) CloseAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.open = nil
}

func (b *EditorBridge) Get(id string) (models.OpenFile, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f := b.find(id); f != nil {
		return *f, true
	}
	return models.OpenFile{}, false
}

// Snapshot copies the current handles for rendering.
func (b *EditorBridge) Snapshot() []models.OpenFile {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.OpenFile, 0, len(b.open))
	for _, f := range b.open {
		out = append(out, *f)
	}
	return out
}

// Rename patches a handle's display name without waiting for the store echo.
func (b *EditorBridge) Rename(id, newName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f := b.find(id); f != nil {
		f.Name = newName
	}
}

// SetLocalContent records a local edit and marks the handle dirty until the
// corresponding write confirms.
func (b *EditorBridge) SetLocalContent(id, content string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f := b.find(id); f != nil {
		f.Content = content
		f.IsDirty = true
	}
}

// MarkClean clears the dirty flag once the unbuffered write has confirmed.
func (b *EditorBridge) MarkClean(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if f := b.find(id); f != nil {
		f.IsDirty = false
	}
}

// ApplyRemote replaces the handle's buffer with peer content and invokes
// deliver while the applying-remote flag is raised. Any write attempted from
// inside deliver is suppressed by Applying.
func (b *EditorBridge) ApplyRemote(id, content string, deliver func()) {
	b.applyingRemote.Store(true)
	defer b.applyingRemote.Store(false)

	b.mu.Lock()
	if f := b.find(id); f != nil {
		f.Content = content
		f.IsDirty = false
	}
	b.mu.Unlock()

	if deliver != nil {
		deliver()
	}
}

// Applying reports whether a remote patch is being applied right now.
func (b *EditorBridge) Applying() bool {
	return b.applyingRemote.Load()
}

// Refresh re-derives handle names and paths after the tree was rebuilt, so
// renames and moves made by peers show up on open tabs.
func (b *EditorBridge) Refresh(roots []*models.FileNode) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, f := range b.open {
		if node := FindNodeByID(f.ID, roots); node != nil {
			f.Name = node.Name
			f.Path = ComputePath(f.ID, roots)
		}
	}
}

// find assumes b.mu is held.
func (b *EditorBridge) find(id string) *models.OpenFile {
	for _, f := range b.open {
		if f.ID == id {
			return f
		}
	}
	return nil
}
