package api

import (
	"github.com/DarlingtonDeveloper/CanvasBabel/address"
	"github.com/DarlingtonDeveloper/CanvasBabel/session"
	"github.com/DarlingtonDeveloper/CanvasBabel/synth"
)

// --- Request types ---

// BookmarkRequest is the body for POST /api/bookmarks and
// POST /api/bookmarks/toggle. Content is the upload data URL, if any.
type BookmarkRequest struct {
	Sector  string `json:"sector"`
	Index   int    `json:"index"`
	Content string `json:"content,omitempty"`
}

// --- Response types ---

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the response for GET /api/health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// SectorResponse is the response for GET /api/sectors/random and
// GET /api/sectors/{sector}.
type SectorResponse struct {
	Sector     string              `json:"sector"`
	Short      string              `json:"short"`
	Offset     int                 `json:"offset"`
	Thumbnails []session.Thumbnail `json:"thumbnails,omitempty"`
}

// Colors carries the sRGB equivalents of a description's HSL colors.
type Colors struct {
	Background string `json:"background"`
	Foreground string `json:"foreground"`
}

// CanvasResponse is the response for GET /api/canvas/{sector}/{index}.
type CanvasResponse struct {
	Key         string            `json:"key"`
	Slot        address.Slot      `json:"slot"`
	Description synth.Description `json:"description"`
	Colors      Colors            `json:"colors"`
	Link        string            `json:"link"`
	Bookmarked  bool              `json:"bookmarked"`
}

// LinkResponse is the response for GET /api/link.
type LinkResponse struct {
	URL      string `json:"url"`
	Key      string `json:"key"`
	Uploaded bool   `json:"uploaded"`
}

// DiscoverResponse is the response for POST /api/discover.
type DiscoverResponse struct {
	Key     string       `json:"key"`
	Slot    address.Slot `json:"slot"`
	MIME    string       `json:"mime"`
	Content string       `json:"content"`
	Link    string       `json:"link"`
}

// ToggleResponse is the response for POST /api/bookmarks/toggle.
type ToggleResponse struct {
	Key        string `json:"key"`
	Bookmarked bool   `json:"bookmarked"`
}
