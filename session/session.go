// Package session holds the state of one viewer: the sector being browsed,
// the canvas open in the viewer, and the bookmark store. All generation is
// delegated to the pure core packages; Session only tracks what is selected.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/bookmarks"
	"github.com/DarlingtonDeveloper/CanvasBabel/intake"
	"github.com/DarlingtonDeveloper/CanvasBabel/link"
	"github.com/DarlingtonDeveloper/CanvasBabel/synth"
)

var ErrNoActiveView = errors.New("no canvas is open")

// View is a canvas shown in the viewer.
type View struct {
	Slot     address.Slot `json:"slot"`
	Uploaded bool         `json:"uploaded"`
	Content  string       `json:"content,omitempty"`
}

// Key returns the canonical key of the viewed slot.
func (v View) Key() string {
	return v.Slot.Key()
}

// Request converts the view to a link request.
func (v View) Request() link.ViewRequest {
	r := link.ViewRequest{Sector: v.Slot.Sector, Index: v.Slot.Index}
	if v.Uploaded {
		r.Content = v.Content
	}
	return r
}

// Entry is the bookmark for v. Only uploads carry content.
func (v View) Entry() bookmarks.Entry {
	content := ""
	if v.Uploaded {
		content = v.Content
	}
	return bookmarks.NewEntry(v.Slot, content)
}

// ViewFromRequest is the inverse of View.Request.
func ViewFromRequest(r link.ViewRequest) View {
	return View{Slot: r.Slot(), Uploaded: r.Uploaded(), Content: r.Content}
}

// Thumbnail is one slot of a loaded sector.
type Thumbnail struct {
	Index       int               `json:"index"`
	Key         string            `json:"key"`
	Description synth.Description `json:"description"`
}

// Download is a file the viewer can save.
type Download struct {
	Filename    string
	ContentType string
	Body        []byte
}

// Session is the per-viewer state. It is not safe for concurrent use.
type Session struct {
	ID            string
	CurrentSector string
	Active        *View

	store bookmarks.Store
}

// New creates a session backed by store.
func New(store bookmarks.Store) *Session {
	return NewWithID(store, uuid.New().String()[:8])
}

// NewWithID creates a session with a caller-chosen id, such as the id of
// the HTTP request it serves.
func NewWithID(store bookmarks.Store, id string) *Session {
	return &Session{ID: id, store: store}
}

// Store returns the bookmark backend.
func (s *Session) Store() bookmarks.Store {
	return s.store
}

// LoadSector validates sector, makes it current, and returns the
// thumbnails for slots [offset, offset+limit). A non-positive limit means the
// whole sector.
func (s *Session) LoadSector(sector string, offset, limit int) ([]Thumbnail, error) {
	sector = strings.TrimSpace(sector)
	if err := address.ValidateSector(sector); err != nil {
		return nil, err
	}
	s.CurrentSector = sector
	return Thumbnails(sector, offset, limit), nil
}

// RandomSector loads a fresh random sector and returns its thumbnails for
// [offset, offset+limit).
func (s *Session) RandomSector(offset, limit int) (string, []Thumbnail, error) {
	sector, err := address.NewSector()
	if err != nil {
		return "", nil, err
	}
	s.CurrentSector = sector
	return sector, Thumbnails(sector, offset, limit), nil
}

// Thumbnails synthesizes the slots [offset, offset+limit) of sector.
func Thumbnails(sector string, offset, limit int) []Thumbnail {
	if offset < 0 {
		offset = 0
	}
	end := address.SlotsPerSector
	if offset >= end {
		return []Thumbnail{}
	}
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}
	out := make([]Thumbnail, 0, end-offset)
	for i := offset; i < end; i++ {
		slot := address.Slot{Sector: sector, Index: i}
		out = append(out, Thumbnail{Index: i, Key: slot.Key(), Description: synth.ForSlot(slot)})
	}
	return out
}

// Open makes v the active view after validating its coordinate and, for
// uploads, that the content is an image data URL.
func (s *Session) Open(v View) error {
	if err := v.Slot.Validate(); err != nil {
		return err
	}
	if v.Uploaded {
		if v.Content == "" {
			return fmt.Errorf("%w: uploaded view without content", intake.ErrInvalidDataURL)
		}
		typ, raw, err := intake.ParseDataURL(v.Content)
		if err != nil {
			return err
		}
		if _, err := intake.Sniff(raw, typ); err != nil {
			return err
		}
	}
	s.Active = &v
	return nil
}

// OpenLink opens the view a shared link describes. Procedural links also
// make the link's sector current, as following one loads the whole sector.
func (s *Session) OpenLink(r link.ViewRequest) error {
	v := ViewFromRequest(r)
	if err := s.Open(v); err != nil {
		return err
	}
	if !v.Uploaded {
		s.CurrentSector = v.Slot.Sector
	}
	return nil
}

// Close clears the active view.
func (s *Session) Close() {
	s.Active = nil
}

func (s *Session) active() (View, error) {
	if s.Active == nil {
		return View{}, ErrNoActiveView
	}
	return *s.Active, nil
}

// IsBookmarked reports whether the active view is bookmarked.
func (s *Session) IsBookmarked(ctx context.Context) (bool, error) {
	v, err := s.active()
	if err != nil {
		return false, err
	}
	_, err = s.store.Get(ctx, v.Key())
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bookmarks.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

// ToggleBookmark adds or removes the active view. It returns the entry that
// was stored or removed and whether the view is bookmarked afterwards.
func (s *Session) ToggleBookmark(ctx context.Context) (bookmarks.Entry, bool, error) {
	v, err := s.active()
	if err != nil {
		return bookmarks.Entry{}, false, err
	}
	e := v.Entry()
	on, err := bookmarks.Toggle(ctx, s.store, e)
	return e, on, err
}

// ShareLink returns the shareable URL of the active view on base.
func (s *Session) ShareLink(base string) (string, error) {
	v, err := s.active()
	if err != nil {
		return "", err
	}
	return link.URL(base, v.Request())
}

// Download returns the active view as a file: the SVG for procedural canvases,
// the original bytes for uploads.
func (s *Session) Download() (Download, error) {
	v, err := s.active()
	if err != nil {
		return Download{}, err
	}
	return DownloadFor(v)
}

// DownloadFor builds the download for v.
func DownloadFor(v View) (Download, error) {
	stem := v.Key()
	if len(stem) > 20 {
		stem = stem[:20]
	}
	if v.Uploaded {
		typ, raw, err := intake.ParseDataURL(v.Content)
		if err != nil {
			return Download{}, err
		}
		return Download{
			Filename:    "found-" + stem + intake.Extension(typ),
			ContentType: typ,
			Body:        raw,
		}, nil
	}
	return Download{
		Filename:    stem + ".svg",
		ContentType: "image/svg+xml",
		Body:        []byte(synth.ForSlot(v.Slot).SVG()),
	}, nil
}
