// Package api serves the canvas engine over HTTP: sector listings, canvas
// descriptions and SVG renders, shareable link resolution, image discovery,
// and bookmarks.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/bookmarks"
	"github.com/DarlingtonDeveloper/CanvasBabel/discover"
	"github.com/DarlingtonDeveloper/CanvasBabel/intake"
	"github.com/DarlingtonDeveloper/CanvasBabel/link"
	"github.com/DarlingtonDeveloper/CanvasBabel/session"
	"github.com/DarlingtonDeveloper/CanvasBabel/synth"
	"github.com/DarlingtonDeveloper/CanvasBabel/ws"
)

// Version is reported by the health endpoint.
const Version = "1.0"

// Notifier receives events for connected viewers. *ws.Hub implements it.
type Notifier interface {
	BroadcastRaw(topic, eventType string, data interface{})
}

// Options configures a Server.
type Options struct {
	// BaseURL is the page share links point at.
	BaseURL string
	// MaxUploadBytes bounds POST /api/discover bodies.
	MaxUploadBytes int64
}

// Server holds the HTTP handlers' dependencies.
type Server struct {
	store    bookmarks.Store
	notifier Notifier
	opts     Options
}

// NewServer creates a server. notifier may be nil.
func NewServer(store bookmarks.Store, notifier Notifier, opts Options) *Server {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080/"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = intake.DefaultLimit
	}
	return &Server{store: store, notifier: notifier, opts: opts}
}

// Routes returns the router for every /api endpoint.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/api/health", s.handleHealth)

	r.Get("/api/sectors/random", s.handleRandomSector)
	r.Get("/api/sectors/{sector}", s.handleSector)

	r.Get("/api/canvas/{sector}/{index}", s.handleCanvas)
	r.Get("/api/canvas/{sector}/{index}/svg", s.handleCanvasSVG)
	r.Get("/api/canvas/{sector}/{index}/download", s.handleCanvasDownload)

	r.Get("/api/view", s.handleView)
	r.Get("/api/link", s.handleLink)
	r.Post("/api/discover", s.handleDiscover)

	r.Get("/api/bookmarks", s.handleListBookmarks)
	r.Post("/api/bookmarks", s.handleAddBookmark)
	r.Post("/api/bookmarks/toggle", s.handleToggleBookmark)
	r.Delete("/api/bookmarks/{sector}/{index}", s.handleDeleteBookmark)

	return r
}

// BookmarkState is the initial-sync payload for WebSocket clients.
func (s *Server) BookmarkState(ctx context.Context) interface{} {
	list, err := s.store.List(ctx)
	if err != nil {
		log.Printf("[api] bookmark state: %v", err)
		return nil
	}
	return map[string]interface{}{"bookmarks": list}
}

// session returns a session scoped to r, named after its request id.
func (s *Server) session(r *http.Request) *session.Session {
	if id := RequestID(r.Context()); id != "" {
		return session.NewWithID(s.store, id)
	}
	return session.New(s.store)
}

func (s *Server) notify(topic, eventType string, data interface{}) {
	if s.notifier != nil {
		s.notifier.BroadcastRaw(topic, eventType, data)
	}
}

// --- Sectors & canvases ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Version: Version})
}

// handleRandomSector handles GET /api/sectors/random?offset=&limit=
func (s *Server) handleRandomSector(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pageParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	sector, thumbs, err := s.session(r).RandomSector(offset, limit)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SectorResponse{
		Sector:     sector,
		Short:      address.ShortSector(sector),
		Offset:     offset,
		Thumbnails: thumbs,
	})
}

// handleSector handles GET /api/sectors/{sector}?offset=&limit=
func (s *Server) handleSector(w http.ResponseWriter, r *http.Request) {
	offset, limit, err := pageParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	sess := s.session(r)
	thumbs, err := sess.LoadSector(chi.URLParam(r, "sector"), offset, limit)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, SectorResponse{
		Sector:     sess.CurrentSector,
		Short:      address.ShortSector(sess.CurrentSector),
		Offset:     offset,
		Thumbnails: thumbs,
	})
}

func (s *Server) handleCanvas(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	sess := s.session(r)
	if err := sess.Open(session.View{Slot: slot}); err != nil {
		respondErr(w, r, err)
		return
	}
	shareURL, err := sess.ShareLink(s.opts.BaseURL)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	marked, err := sess.IsBookmarked(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	d := synth.ForSlot(slot)
	writeJSON(w, http.StatusOK, CanvasResponse{
		Key:         slot.Key(),
		Slot:        slot,
		Description: d,
		Colors:      Colors{Background: d.Background.Hex(), Foreground: d.Foreground.Hex()},
		Link:        shareURL,
		Bookmarked:  marked,
	})
}

func (s *Server) handleCanvasSVG(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeSVG(w, r, synth.ForSlot(slot))
}

func (s *Server) handleCanvasDownload(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	sess := s.session(r)
	if err := sess.Open(session.View{Slot: slot}); err != nil {
		respondErr(w, r, err)
		return
	}
	dl, err := sess.Download()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeDownload(w, dl)
}

// --- Links ---

// handleView resolves a share link: uploaded content is returned as-is,
// otherwise the slot is synthesized.
func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	req, err := link.Decode(r.URL.Query())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	sess := s.session(r)
	if err := sess.OpenLink(req); err != nil {
		respondErr(w, r, err)
		return
	}
	if !req.Uploaded() {
		writeSVG(w, r, synth.ForSlot(req.Slot()))
		return
	}
	dl, err := sess.Download()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", dl.ContentType)
	w.WriteHeader(http.StatusOK)
	w.Write(dl.Body)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	req, err := link.Decode(r.URL.Query())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	sess := s.session(r)
	if err := sess.OpenLink(req); err != nil {
		respondErr(w, r, err)
		return
	}
	u, err := sess.ShareLink(s.opts.BaseURL)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, LinkResponse{URL: u, Key: sess.Active.Key(), Uploaded: sess.Active.Uploaded})
}

// --- Discovery ---

// handleDiscover accepts an image as a multipart "file" field or as the raw
// request body and returns the slot it lands on.
func (s *Server) handleDiscover(w http.ResponseWriter, r *http.Request) {
	// Leave room for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes+64<<10)

	up, err := s.readUpload(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			err = fmt.Errorf("%w: %v", intake.ErrTooLarge, err)
		}
		respondErr(w, r, err)
		return
	}

	slot := discover.Upload(up)
	sess := s.session(r)
	if err := sess.Open(session.View{Slot: slot, Uploaded: true, Content: up.DataURL}); err != nil {
		respondErr(w, r, err)
		return
	}
	shareURL, err := sess.ShareLink(s.opts.BaseURL)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	s.notify(ws.TopicDiscovery, ws.TypeFound, map[string]interface{}{
		"key":   slot.Key(),
		"short": address.ShortSector(slot.Sector),
		"index": slot.Index,
		"mime":  up.MIME,
	})

	writeJSON(w, http.StatusOK, DiscoverResponse{
		Key:     slot.Key(),
		Slot:    slot,
		MIME:    up.MIME,
		Content: up.DataURL,
		Link:    shareURL,
	})
}

func (s *Server) readUpload(r *http.Request) (intake.Upload, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mt != "multipart/form-data" {
		return intake.Read(r.Body, r.Header.Get("Content-Type"), s.opts.MaxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return intake.Upload{}, err
		}
		return intake.Upload{}, fmt.Errorf("%w: multipart field \"file\": %v", errBadRequest, err)
	}
	defer file.Close()
	return intake.Read(file, header.Header.Get("Content-Type"), s.opts.MaxUploadBytes)
}

// --- Bookmarks ---

func (s *Server) handleListBookmarks(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAddBookmark(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if err := s.openBookmarkView(r, sess); err != nil {
		respondErr(w, r, err)
		return
	}
	entry := sess.Active.Entry()
	if err := sess.Store().Put(r.Context(), entry); err != nil {
		respondErr(w, r, err)
		return
	}
	s.notify(ws.TopicBookmark, ws.TypeBookmarkAdded, entry)
	writeJSON(w, http.StatusCreated, entry)
}

func (s *Server) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if err := s.openBookmarkView(r, sess); err != nil {
		respondErr(w, r, err)
		return
	}
	entry, on, err := sess.ToggleBookmark(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if on {
		s.notify(ws.TopicBookmark, ws.TypeBookmarkAdded, entry)
	} else {
		s.notify(ws.TopicBookmark, ws.TypeBookmarkRemoved, map[string]string{"id": entry.Key})
	}
	writeJSON(w, http.StatusOK, ToggleResponse{Key: entry.Key, Bookmarked: on})
}

func (s *Server) handleDeleteBookmark(w http.ResponseWriter, r *http.Request) {
	slot, err := slotParam(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.store.Delete(r.Context(), slot.Key()); err != nil {
		respondErr(w, r, err)
		return
	}
	s.notify(ws.TopicBookmark, ws.TypeBookmarkRemoved, map[string]string{"id": slot.Key()})
	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// openBookmarkView decodes a BookmarkRequest body and opens it in sess.
// Content, when present, must be an image data URL.
func (s *Server) openBookmarkView(r *http.Request, sess *session.Session) error {
	var req BookmarkRequest
	if err := decodeJSON(r, &req); err != nil {
		return err
	}
	return sess.Open(session.View{
		Slot:     address.Slot{Sector: req.Sector, Index: req.Index},
		Uploaded: req.Content != "",
		Content:  req.Content,
	})
}

func slotParam(r *http.Request) (address.Slot, error) {
	sector := chi.URLParam(r, "sector")
	if err := address.ValidateSector(sector); err != nil {
		return address.Slot{}, err
	}
	index, err := address.ParseIndex(chi.URLParam(r, "index"))
	if err != nil {
		return address.Slot{}, err
	}
	slot := address.Slot{Sector: sector, Index: index}
	return slot, address.ValidateIndex(index)
}

// pageParams reads ?offset=&limit= for sector listings.
func pageParams(r *http.Request) (offset, limit int, err error) {
	if offset, err = queryInt(r, "offset", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, name)
	}
	return n, nil
}

func writeSVG(w http.ResponseWriter, r *http.Request, d synth.Description) {
	etag := `"` + strconv.FormatUint(d.Seed, 36) + `"`
	w.Header().Set("ETag", etag)
	// Output is a pure function of the URL.
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(d.SVG()))
}

func writeDownload(w http.ResponseWriter, dl session.Download) {
	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": dl.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Body)))
	w.WriteHeader(http.StatusOK)
	w.Write(dl.Body)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", errBadRequest, err)
	}
	return nil
}
