// Package bookmarks persists the canvases a user has marked. Entries are
// keyed by canonical canvas key; that is the only lookup the rest of the
// system relies on.
package bookmarks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
)

var (
	ErrNotFound = errors.New("bookmark not found")
	ErrInvalid  = errors.New("invalid bookmark")
)

// Entry is one bookmarked canvas. Content holds the upload's data URL when
// Uploaded is set and is empty otherwise.
type Entry struct {
	Key       string    `json:"id"`
	Sector    string    `json:"sector_id"`
	Index     int       `json:"canvas_index"`
	Uploaded  bool      `json:"is_uploaded"`
	Content   string    `json:"base64_data,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewEntry builds an entry for slot. content is the upload data URL, or ""
// for a procedural canvas.
func NewEntry(slot address.Slot, content string) Entry {
	return Entry{
		Key:       slot.Key(),
		Sector:    slot.Sector,
		Index:     slot.Index,
		Uploaded:  content != "",
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}
}

// Slot returns the entry's coordinate.
func (e Entry) Slot() address.Slot {
	return address.Slot{Sector: e.Sector, Index: e.Index}
}

// Validate checks the entry is self-consistent.
func (e Entry) Validate() error {
	if err := e.Slot().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if e.Key != e.Slot().Key() {
		return fmt.Errorf("%w: key does not match sector and index", ErrInvalid)
	}
	if e.Uploaded != (e.Content != "") {
		return fmt.Errorf("%w: uploaded flag and content disagree", ErrInvalid)
	}
	return nil
}

// Store is a bookmark backend.
type Store interface {
	// List returns all entries, oldest first.
	List(ctx context.Context) ([]Entry, error)
	// Get returns the entry for key or an error wrapping ErrNotFound.
	Get(ctx context.Context, key string) (Entry, error)
	// Put inserts or replaces the entry with e.Key.
	Put(ctx context.Context, e Entry) error
	// Delete removes key. Deleting a missing key wraps ErrNotFound.
	Delete(ctx context.Context, key string) error
	Close() error
}

// Toggle removes key if present, otherwise stores e. It reports whether the
// entry is bookmarked afterwards.
func Toggle(ctx context.Context, s Store, e Entry) (bool, error) {
	_, err := s.Get(ctx, e.Key)
	switch {
	case err == nil:
		if err := s.Delete(ctx, e.Key); err != nil {
			return true, err
		}
		return false, nil
	case errors.Is(err, ErrNotFound):
		if err := s.Put(ctx, e); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}
